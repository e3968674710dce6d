package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/diskcache/pkg/diskcache"
	"github.com/calvinalkan/diskcache/pkg/fs"
)

func newTestShell(t *testing.T) (*shell, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	c, err := diskcache.Open(diskcache.Options{Dir: t.TempDir()})
	require.NoError(t, err)

	t.Cleanup(func() { _ = c.Close() })

	var out, errOut bytes.Buffer

	return &shell{cache: c, o: NewIO(&out, &errOut)}, &out, &errOut
}

func execAll(t *testing.T, s *shell, lines ...string) {
	t.Helper()

	for _, line := range lines {
		quit, err := s.exec(line)
		require.NoError(t, err, line)
		require.False(t, quit, line)
	}
}

func Test_Shell_Sets_And_Gets_When_Lines_Executed(t *testing.T) {
	t.Parallel()

	s, out, _ := newTestShell(t)

	execAll(t, s, "set greeting hello   world", "get greeting", "get missing", "len")

	require.Equal(t, "OK\n\"hello world\"\n(nil)\n1\n", out.String())
}

func Test_Shell_Rejects_Setnx_When_Key_Exists(t *testing.T) {
	t.Parallel()

	s, out, _ := newTestShell(t)
	execAll(t, s, "setnx k first")

	_, err := s.exec("setnx k second")
	require.ErrorIs(t, err, diskcache.ErrKeyExists)

	out.Reset()
	execAll(t, s, "get k")
	require.Equal(t, "\"first\"\n", out.String())
}

func Test_Shell_Hides_Writes_Until_Commit_When_Transaction_Open(t *testing.T) {
	t.Parallel()

	s, out, _ := newTestShell(t)

	execAll(t, s, "begin", "set a 1", "set b 2", "del a")

	// Reads inside the transaction see its writes.
	out.Reset()
	execAll(t, s, "get b")
	require.Equal(t, "\"2\"\n", out.String())

	_, found, err := s.cache.Get("b")
	require.NoError(t, err)
	require.False(t, found)

	execAll(t, s, "commit")

	got, found, err := s.cache.Get("b")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "2", got)

	execAll(t, s, "begin", "set c 3", "rollback")

	_, found, err = s.cache.Get("c")
	require.NoError(t, err)
	require.False(t, found)
}

func Test_Shell_Rolls_Back_Open_Transaction_When_Abandoned(t *testing.T) {
	t.Parallel()

	s, out, _ := newTestShell(t)
	execAll(t, s, "begin", "set k v")

	s.abandon()
	require.Contains(t, out.String(), "open transaction rolled back")

	_, found, err := s.cache.Get("k")
	require.NoError(t, err)
	require.False(t, found)
}

func Test_Shell_Reports_Errors_When_Lines_Invalid(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestShell(t)

	for line, want := range map[string]error{
		"get":        errShellUsage,
		"set k":      errShellUsage,
		"del":        errShellUsage,
		"frobnicate": ErrUnknownCommand,
	} {
		_, err := s.exec(line)
		require.ErrorIs(t, err, want, line)
	}

	_, err := s.exec("commit")
	require.ErrorContains(t, err, "no open transaction")

	execAll(t, s, "begin")

	_, err = s.exec("begin")
	require.ErrorContains(t, err, "transaction already open")

	execAll(t, s, "rollback")
}

func Test_Shell_Quits_When_Exit_Command(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestShell(t)

	for _, line := range []string{"exit", "quit", "q", "QUIT"} {
		quit, err := s.exec(line)
		require.NoError(t, err)
		require.True(t, quit, line)
	}
}

func Test_CompleteShell_Returns_Matching_Commands_When_Prefix_Given(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"set", "setnx", "stats"}, completeShell("s"))
	require.Equal(t, []string{"commit"}, completeShell("com"))
	require.Empty(t, completeShell("zzz"))
}

func Test_RunBench_Stops_When_Context_Cancelled(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &app{logger: slog.New(slog.DiscardHandler)}

	err := runBench(ctx, s.o, a, s.cache, 10, false)
	require.True(t, errors.Is(err, context.Canceled), "got %v", err)

	n, err := s.cache.Len()
	require.NoError(t, err)
	require.Zero(t, n)
}

// memHistory stores history lines the way liner does, one per line.
type memHistory struct {
	lines []string
}

func (m *memHistory) ReadHistory(r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	n := 0

	for sc.Scan() {
		m.lines = append(m.lines, sc.Text())
		n++
	}

	return n, sc.Err()
}

func (m *memHistory) WriteHistory(w io.Writer) (int, error) {
	for _, line := range m.lines {
		_, err := io.WriteString(w, line+"\n")
		if err != nil {
			return 0, err
		}
	}

	return len(m.lines), nil
}

func Test_History_Round_Trips_Lines_When_Saved_Then_Loaded(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".kvcache_history")
	h := history{fs: fs.NewReal(), path: path}

	// No file yet.
	fresh := &memHistory{}
	require.NoError(t, h.load(fresh))
	require.Empty(t, fresh.lines)

	require.NoError(t, h.save(&memHistory{lines: []string{"set k v", "get k"}}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(historyPerms), info.Mode().Perm())

	loaded := &memHistory{}
	require.NoError(t, h.load(loaded))
	require.Equal(t, []string{"set k v", "get k"}, loaded.lines)
}

func Test_History_Keeps_Old_File_When_Atomic_Write_Fails(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".kvcache_history")
	require.NoError(t, history{fs: fs.NewReal(), path: path}.save(&memHistory{lines: []string{"len"}}))

	chaos := fs.NewChaos(fs.NewReal(), 1, &fs.ChaosConfig{WriteFailRate: 1})

	err := history{fs: chaos, path: path}.save(&memHistory{lines: []string{"del k"}})
	require.ErrorContains(t, err, "write shell history")
	require.True(t, fs.IsChaosErr(err))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "len\n", string(data))
}

func Test_History_Loads_Nothing_When_Read_Fails(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".kvcache_history")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("get k\n", 100)), 0o600))

	for _, cfg := range []*fs.ChaosConfig{{ReadFailRate: 1}, {PartialReadRate: 1}} {
		loaded := &memHistory{}

		err := history{fs: fs.NewChaos(fs.NewReal(), 1, cfg), path: path}.load(loaded)
		require.ErrorContains(t, err, "read shell history")
		require.Empty(t, loaded.lines)
	}
}

func Test_History_Is_Disabled_When_Path_Empty(t *testing.T) {
	t.Parallel()

	chaos := fs.NewChaos(fs.NewReal(), 1, &fs.ChaosConfig{ReadFailRate: 1, WriteFailRate: 1})
	h := history{fs: chaos}

	require.NoError(t, h.load(&memHistory{}))
	require.NoError(t, h.save(&memHistory{lines: []string{"q"}}))
	require.Zero(t, chaos.TotalFaults())
}
