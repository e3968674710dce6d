package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/calvinalkan/diskcache/pkg/diskcache"
	"github.com/calvinalkan/diskcache/pkg/fs"
)

const historyPerms = 0o600

var errShellUsage = errors.New("usage")

var shellCommands = []string{
	"get", "set", "setnx", "del", "len", "stats",
	"begin", "commit", "rollback", "help", "exit", "quit", "q",
}

func shellCmd(a *app) *Command {
	return &Command{
		Name:  "shell",
		Short: "Interactive shell on the cache",
		Long: `Start an interactive shell on the cache. Type 'help' in the shell for
commands. 'begin' opens a write transaction that later commands run in
until 'commit' or 'rollback'.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return a.withCache(o, func(c *diskcache.Cache) error {
				sh := &shell{
					cache: c,
					o:     o,
					hist:  history{fs: a.fs, path: historyFile(a.env)},
				}

				return sh.run(ctx)
			})
		},
	}
}

// historyFile returns the path to the shell history file, or "" if HOME is
// unknown.
func historyFile(env map[string]string) string {
	home := env["HOME"]
	if home == "" {
		return ""
	}

	return filepath.Join(home, ".kvcache_history")
}

// lineHistory is the part of [liner.State] that loads and stores history.
type lineHistory interface {
	ReadHistory(r io.Reader) (int, error)
	WriteHistory(w io.Writer) (int, error)
}

// history persists shell lines in a file. An empty path disables it.
type history struct {
	fs   fs.FS
	path string
}

// load feeds the history file into l. A missing file is not an error.
func (h history) load(l lineHistory) error {
	if h.path == "" {
		return nil
	}

	data, err := h.fs.ReadFile(h.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("read shell history: %w", err)
	}

	_, err = l.ReadHistory(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse shell history %s: %w", h.path, err)
	}

	return nil
}

// save replaces the history file with the lines in l.
func (h history) save(l lineHistory) error {
	if h.path == "" {
		return nil
	}

	var buf bytes.Buffer

	_, err := l.WriteHistory(&buf)
	if err != nil {
		return fmt.Errorf("collect shell history: %w", err)
	}

	err = h.fs.WriteFileAtomic(h.path, buf.Bytes(), historyPerms)
	if err != nil {
		return fmt.Errorf("write shell history: %w", err)
	}

	return nil
}

// shell is the interactive command loop. tx is the open write transaction
// started with "begin", if any.
type shell struct {
	cache *diskcache.Cache
	o     *IO
	hist  history
	tx    *diskcache.Tx
}

func (s *shell) run(ctx context.Context) error {
	l := liner.NewLiner()
	defer l.Close()

	l.SetCtrlCAborts(true)
	l.SetCompleter(completeShell)

	err := s.hist.load(l)
	if err != nil {
		s.o.Warn(err.Error(), "earlier shell history is not available")
	}

	defer func() {
		err := s.hist.save(l)
		if err != nil {
			s.o.Warn(err.Error(), "lines from this session are not kept")
		}
	}()

	defer s.abandon()

	s.o.Printf("kvcache shell (%s)\n", s.cache.Path())
	s.o.Println("Type 'help' for available commands.")

	for ctx.Err() == nil {
		line, err := l.Prompt("kvcache> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				s.o.Println()

				return nil
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		l.AppendHistory(line)

		quit, err := s.exec(line)
		if err != nil {
			s.o.ErrPrintln("error:", err)
		}

		if quit {
			return nil
		}
	}

	return ctx.Err()
}

// abandon rolls back a transaction left open when the shell exits.
func (s *shell) abandon() {
	if s.tx == nil {
		return
	}

	_ = s.tx.Rollback()
	s.tx = nil
	s.o.Println("open transaction rolled back")
}

// exec runs one shell line. It reports whether the shell should exit.
func (s *shell) exec(line string) (bool, error) {
	parts := strings.Fields(line)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "exit", "quit", "q":
		return true, nil
	case "help", "?":
		s.printHelp()
	case "get":
		return false, s.get(args)
	case "set":
		return false, s.set(args, diskcache.Overwrite)
	case "setnx":
		return false, s.set(args, diskcache.NoOverwrite)
	case "del", "delete":
		return false, s.del(args)
	case "len", "count":
		n, err := s.cache.Len()
		if err != nil {
			return false, err
		}

		s.o.Println(n)
	case "stats":
		st := s.cache.Stats()
		s.o.Printf("hits=%d misses=%d hit_ratio=%.1f%% puts=%d deletes=%d\n",
			st.Hits, st.Misses, st.HitRatio(), st.Puts, st.Deletes)
	case "begin":
		return false, s.begin()
	case "commit":
		return false, s.finish(true)
	case "rollback":
		return false, s.finish(false)
	default:
		return false, fmt.Errorf("%w: %s (type 'help' for commands)", ErrUnknownCommand, cmd)
	}

	return false, nil
}

func (s *shell) get(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: get <key>", errShellUsage)
	}

	var (
		value string
		found bool
		err   error
	)

	if s.tx != nil {
		value, found, err = s.cache.GetTx(s.tx, args[0])
	} else {
		value, found, err = s.cache.Get(args[0])
	}

	if err != nil {
		return err
	}

	if !found {
		s.o.Println("(nil)")

		return nil
	}

	s.o.Printf("%q\n", value)

	return nil
}

// set stores the rest of the line after the key, single spaces joined.
func (s *shell) set(args []string, flags diskcache.PutFlags) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: set <key> <value...>", errShellUsage)
	}

	value := strings.Join(args[1:], " ")

	var err error
	if s.tx != nil {
		err = s.cache.SetTx(s.tx, args[0], value, flags)
	} else {
		err = s.cache.Set(args[0], value, flags)
	}

	if err != nil {
		return err
	}

	s.o.Println("OK")

	return nil
}

func (s *shell) del(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: del <key>", errShellUsage)
	}

	var err error
	if s.tx != nil {
		err = s.cache.DeleteTx(s.tx, args[0])
	} else {
		err = s.cache.Delete(args[0])
	}

	if err != nil {
		return err
	}

	s.o.Println("OK")

	return nil
}

func (s *shell) begin() error {
	if s.tx != nil {
		return errors.New("transaction already open")
	}

	tx, err := s.cache.BeginWrite()
	if err != nil {
		return err
	}

	s.tx = tx
	s.o.Println("OK")

	return nil
}

func (s *shell) finish(commit bool) error {
	if s.tx == nil {
		return errors.New("no open transaction")
	}

	tx := s.tx
	s.tx = nil

	if commit {
		err := tx.Commit()
		if err != nil {
			return err
		}
	} else {
		_ = tx.Rollback()
	}

	s.o.Println("OK")

	return nil
}

func completeShell(line string) []string {
	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range shellCommands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (s *shell) printHelp() {
	s.o.Println("Commands:")
	s.o.Println("  get <key>               Print the value of a key")
	s.o.Println("  set <key> <value...>    Store a value, replacing any existing one")
	s.o.Println("  setnx <key> <value...>  Store a value only if the key is not set")
	s.o.Println("  del <key>               Delete a key")
	s.o.Println("  len                     Count keys")
	s.o.Println("  stats                   Show hit/miss counters")
	s.o.Println("  begin                   Open a write transaction")
	s.o.Println("  commit                  Commit the open transaction")
	s.o.Println("  rollback                Discard the open transaction")
	s.o.Println("  help                    Show this help")
	s.o.Println("  exit / quit / q         Exit")
}
