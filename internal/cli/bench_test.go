package cli_test

import (
	"testing"

	"github.com/calvinalkan/diskcache/internal/cli"
)

func Test_Bench_Writes_And_Reads_Keys_When_Count_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("bench", "-n", "2000")

	cli.AssertContains(t, stdout, "wrote 2000 keys in")
	cli.AssertContains(t, stdout, "read 2000 keys in")

	if got := c.MustRun("get", "key-1"); got != "value-1" {
		t.Fatalf("get key-1 = %q, want value-1", got)
	}

	if got := c.MustRun("get", "key-2000"); got != "value-2000" {
		t.Fatalf("get key-2000 = %q, want value-2000", got)
	}

	c.MustFail("get", "key-0")

	cli.AssertContains(t, c.MustRun("info"), "entries=2000")
}

func Test_Bench_Uses_Random_Keys_When_Random_Flag(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("bench", "--count=500", "--random")

	cli.AssertContains(t, stdout, "read 500 keys in")
	cli.AssertContains(t, c.MustRun("info"), "entries=500")

	// No sequential key was written.
	c.MustFail("get", "key-0")
}

func Test_Bench_Fails_When_Count_Not_Positive(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	cli.AssertContains(t, c.MustFail("bench", "-n", "0"), "bench count must be > 0")
	cli.AssertContains(t, c.MustFail("bench", "extra"), "too many arguments")
}
