package cli

import (
	"fmt"
	"io"
)

// warning is a problem that did not stop the command, with the step the user
// can take about it.
type warning struct {
	issue  string
	action string
}

func (w warning) String() string {
	return fmt.Sprintf("warning: %s\n  hint: %s", w.issue, w.action)
}

// IO is where a command writes. Results go to stdout as plain lines or
// key=value fields. Warnings go to stderr, before the first stdout line and
// again at the end, so they stay visible when output is piped through head
// or tail.
type IO struct {
	out      io.Writer
	errOut   io.Writer
	warnings []warning
	shown    int // warnings already printed before stdout output
}

// NewIO creates an IO writing to out and errOut.
func NewIO(out, errOut io.Writer) *IO {
	return &IO{out: out, errOut: errOut}
}

// Warn records a problem that did not stop the command. A repeated issue is
// recorded once. Any warning makes [IO.Finish] return 1.
func (o *IO) Warn(issue string, action string) {
	for _, w := range o.warnings {
		if w.issue == issue {
			return
		}
	}

	o.warnings = append(o.warnings, warning{issue: issue, action: action})
}

// Println writes a line to stdout.
func (o *IO) Println(a ...any) {
	o.showWarnings()
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted output to stdout.
func (o *IO) Printf(format string, a ...any) {
	o.showWarnings()
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// Field writes a key=value line to stdout.
func (o *IO) Field(key string, value any) {
	o.Printf("%s=%v\n", key, value)
}

// ErrPrintln writes a line to stderr.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Finish prints all warnings to stderr and returns the exit code for them:
// 1 if there were any, 0 otherwise.
func (o *IO) Finish() int {
	if len(o.warnings) == 0 {
		return 0
	}

	if o.shown > 0 {
		o.ErrPrintln()
	}

	o.printWarnings()

	return 1
}

// showWarnings prints warnings recorded since the last stdout write.
func (o *IO) showWarnings() {
	for _, w := range o.warnings[o.shown:] {
		o.ErrPrintln(w)
	}

	o.shown = len(o.warnings)
}

func (o *IO) printWarnings() {
	for _, w := range o.warnings {
		o.ErrPrintln(w)
	}
}
