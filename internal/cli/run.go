package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/diskcache/pkg/diskcache"
	"github.com/calvinalkan/diskcache/pkg/fs"
)

// app is the state shared by all commands of one invocation.
type app struct {
	cfg    Config
	fs     fs.FS
	env    map[string]string
	logger *slog.Logger
}

func (a *app) commands() []*Command {
	return []*Command{
		getCmd(a),
		setCmd(a),
		delCmd(a),
		benchCmd(a),
		infoCmd(a),
		shellCmd(a),
		printConfigCmd(a),
		initConfigCmd(a),
	}
}

// withCache opens the configured cache, runs fn and closes the cache.
// A close failure after fn succeeded is reported as a warning.
func (a *app) withCache(o *IO, fn func(c *diskcache.Cache) error) error {
	start := time.Now()

	c, err := diskcache.Open(a.cfg.CacheOptions(a.fs))
	if err != nil {
		return err
	}

	a.logger.Debug("cache opened", "path", c.Path(), "elapsed", time.Since(start))

	defer func() {
		start := time.Now()

		closeErr := c.Close()
		if closeErr != nil {
			o.Warn("closing cache failed: "+closeErr.Error(), "check free space and permissions of "+a.cfg.DirAbs)

			return
		}

		a.logger.Debug("cache closed", "path", c.Path(), "elapsed", time.Since(start))
	}()

	return fn(c)
}

// Run is the main entry point. Returns exit code.
//
// args includes the program name. A signal on sigCh cancels the context
// passed to the running command; sigCh may be nil.
func Run(_ io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	globals := flag.NewFlagSet("kvcache", flag.ContinueOnError)
	globals.SetInterspersed(false)
	globals.SetOutput(&strings.Builder{}) // discard pflag output

	workDir := globals.StringP("cwd", "C", "", "Run as if started in `dir`")
	configPath := globals.StringP("config", "c", "", "Use specified config `file`")
	dir := globals.String("dir", "", "Cache `directory` (overrides config)")
	verbose := globals.BoolP("verbose", "v", false, "Log debug output to stderr")

	if len(args) > 0 {
		args = args[1:]
	}

	a := &app{fs: fs.NewReal(), env: env}
	commands := a.commands()

	err := globals.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(out, commands)

			return 0
		}

		fprintln(errOut, "error:", err)
		printUsage(errOut, commands)

		return 1
	}

	rest := globals.Args()
	if len(rest) == 0 {
		printUsage(out, commands)

		return 0
	}

	if rest[0] == "help" {
		printUsage(out, commands)

		return 0
	}

	var cmd *Command

	for _, c := range commands {
		if c.Matches(rest[0]) {
			cmd = c

			break
		}
	}

	if cmd == nil {
		fprintln(errOut, "error:", fmt.Errorf("%w: %s", ErrUnknownCommand, rest[0]))
		printUsage(errOut, commands)

		return 1
	}

	if globals.Changed("dir") && *dir == "" {
		fprintln(errOut, "error:", ErrDirEmpty)

		return 1
	}

	cfg, err := LoadConfig(LoadConfigInput{
		WorkDirOverride: absWorkDir(*workDir),
		ConfigPath:      *configPath,
		DirOverride:     *dir,
		Env:             env,
		FS:              a.fs,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	a.cfg = cfg
	a.logger = newLogger(errOut, *verbose)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case sig := <-sigCh:
			a.logger.Debug("signal received, cancelling", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	o := NewIO(out, errOut)
	code := cmd.Run(ctx, o, rest[1:])

	return max(code, o.Finish())
}

// absWorkDir makes a relative -C value absolute. Empty stays empty.
func absWorkDir(dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}

	return abs
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, commands []*Command) {
	fprintln(w, `kvcache - disk-backed key-value cache

Usage: kvcache [options] <command> [args]

Options:
  -C, --cwd <dir>       Run as if started in <dir>
  -c, --config <file>   Use specified config file
      --dir <dir>       Cache directory (overrides config)
  -v, --verbose         Log debug output to stderr

Commands:`)

	for _, c := range commands {
		fprintln(w, c.HelpLine())
	}
}
