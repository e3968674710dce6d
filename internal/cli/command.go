package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	flag "github.com/spf13/pflag"
)

// Arg is a required positional argument of a [Command].
type Arg struct {
	Name string
	Help string

	// Missing is returned when the argument is not given.
	Missing error
}

// Command is one kvcache subcommand. Its usage line and help page are built
// from Name, Args and Flags, so they cannot drift from what Run accepts.
type Command struct {
	Name    string
	Aliases []string

	// Args are the positional arguments, all required. Run rejects extra
	// arguments with [ErrTooManyArgs] before Exec is called.
	Args []Arg

	// Flags holds command flags. Nil means the command takes none.
	Flags *flag.FlagSet

	Short string

	// Long is shown in command help. Short is used if empty.
	Long string

	// Exec runs with exactly len(Args) arguments.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// Matches reports whether name selects c.
func (c *Command) Matches(name string) bool {
	return c.Name == name || slices.Contains(c.Aliases, name)
}

// Synopsis is the usage line after "kvcache [options]", e.g.
// "set <key> <value> [--no-overwrite]".
func (c *Command) Synopsis() string {
	parts := []string{c.Name}

	for _, a := range c.Args {
		parts = append(parts, "<"+a.Name+">")
	}

	c.flags().VisitAll(func(f *flag.Flag) {
		if f.Value.Type() == "bool" {
			parts = append(parts, "[--"+f.Name+"]")

			return
		}

		varname, _ := flag.UnquoteUsage(f)
		parts = append(parts, fmt.Sprintf("[--%s %s]", f.Name, varname))
	})

	return strings.Join(parts, " ")
}

// HelpLine is the command's row in the global command list.
func (c *Command) HelpLine() string {
	short := c.Short
	if len(c.Aliases) > 0 {
		short += " (alias: " + strings.Join(c.Aliases, ", ") + ")"
	}

	return fmt.Sprintf("  %-36s %s", c.Synopsis(), short)
}

// PrintHelp prints the help page for "kvcache <cmd> --help".
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: kvcache [options]", c.Synopsis())
	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	o.Println(desc)

	if len(c.Args) > 0 {
		width := 0
		for _, a := range c.Args {
			width = max(width, len(a.Name)+2)
		}

		o.Println()
		o.Println("Arguments:")

		for _, a := range c.Args {
			o.Printf("  %-*s  %s\n", width, "<"+a.Name+">", a.Help)
		}
	}

	if c.flags().HasFlags() {
		var buf strings.Builder

		c.flags().SetOutput(&buf)
		c.flags().PrintDefaults()

		o.Println()
		o.Println("Flags:")
		o.Printf("%s", buf.String())
	}

	if len(c.Aliases) > 0 {
		o.Println()
		o.Println("Aliases:", strings.Join(c.Aliases, ", "))
	}

	o.Println()
	o.Println("Global options are listed by 'kvcache --help'.")
}

// Run parses flags, checks the argument count and executes the command.
// It prints errors itself and returns the exit code.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	fs := c.flags()
	fs.SetOutput(&strings.Builder{}) // pflag's own messages are replaced by ours

	err := fs.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)

			return 0
		}

		o.ErrPrintln("error:", err)
		o.ErrPrintln("run 'kvcache " + c.Name + " --help' for usage")

		return 1
	}

	err = c.checkArgs(fs.Args())
	if err == nil {
		err = c.Exec(ctx, o, fs.Args())
	}

	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	return 0
}

func (c *Command) checkArgs(args []string) error {
	if len(args) < len(c.Args) {
		missing := c.Args[len(args)]
		if missing.Missing != nil {
			return missing.Missing
		}

		return fmt.Errorf("%w: <%s>", ErrMissingArg, missing.Name)
	}

	if len(args) > len(c.Args) {
		return fmt.Errorf("%w: %s takes %d, got %d", ErrTooManyArgs, c.Name, len(c.Args), len(args))
	}

	return nil
}

func (c *Command) flags() *flag.FlagSet {
	if c.Flags == nil {
		c.Flags = flag.NewFlagSet(c.Name, flag.ContinueOnError)
	}

	return c.Flags
}
