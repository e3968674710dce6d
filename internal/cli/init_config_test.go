package cli_test

import (
	"path/filepath"
	"testing"

	"github.com/calvinalkan/diskcache/internal/cli"
)

func Test_Init_Config_Writes_Loadable_File_When_None_Exists(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("--dir", "store", "init-config")
	cli.AssertContains(t, stdout, "wrote "+filepath.Join(c.Dir, ".kvcache.json"))

	content := c.ReadFile(".kvcache.json")
	cli.AssertContains(t, content, `"dir": "store"`)
	cli.AssertContains(t, content, `"max_map_size": "200MB"`)
	cli.AssertContains(t, content, `"value_buffer_size": "4MB"`)
	cli.AssertNotContains(t, content, "effective")

	// The written file is picked up without the flag.
	stdout = c.MustRun("print-config")
	cli.AssertContains(t, stdout, "dir="+filepath.Join(c.Dir, "store"))
	cli.AssertContains(t, stdout, "project_config=")
}

func Test_Init_Config_Fails_When_File_Exists_Unless_Forced(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(".kvcache.json", `{"dir": "old"}`)

	stderr := c.MustFail("init-config")
	cli.AssertContains(t, stderr, "config file already exists")

	if got := c.ReadFile(".kvcache.json"); got != `{"dir": "old"}` {
		t.Fatalf("config changed to %q", got)
	}

	c.MustRun("--dir", "new", "init-config", "--force")
	cli.AssertContains(t, c.ReadFile(".kvcache.json"), `"dir": "new"`)
}
