package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_IO_Prints_Warnings_Before_And_After_Output_When_Warned(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	o := NewIO(&out, &errOut)
	o.Warn("disk almost full", "free some space")
	o.Warn("disk almost full", "free some space")
	o.Field("entries", 3)
	o.Println("done")

	require.Equal(t, "entries=3\ndone\n", out.String())
	require.Equal(t, "warning: disk almost full\n  hint: free some space\n", errOut.String())

	require.Equal(t, 1, o.Finish())
	require.Equal(t,
		"warning: disk almost full\n  hint: free some space\n\nwarning: disk almost full\n  hint: free some space\n",
		errOut.String())
}

func Test_IO_Prints_Warnings_Once_When_No_Output(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	o := NewIO(&out, &errOut)
	o.Warn("a", "x")
	o.Warn("b", "y")

	require.Equal(t, 1, o.Finish())
	require.Empty(t, out.String())
	require.Equal(t, "warning: a\n  hint: x\nwarning: b\n  hint: y\n", errOut.String())
}

func Test_IO_Finish_Returns_Zero_When_No_Warnings(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	o := NewIO(&out, &errOut)
	o.Println("ok")

	require.Zero(t, o.Finish())
	require.Empty(t, errOut.String())
}

func Test_Command_Rejects_Arguments_When_Count_Wrong(t *testing.T) {
	t.Parallel()

	var ran []string

	cmd := &Command{
		Name: "pair",
		Args: []Arg{{Name: "left"}, {Name: "right", Missing: ErrValueRequired}},
		Exec: func(_ context.Context, _ *IO, args []string) error {
			ran = args

			return nil
		},
	}

	require.ErrorIs(t, cmd.checkArgs(nil), ErrMissingArg)
	require.ErrorContains(t, cmd.checkArgs(nil), "<left>")
	require.ErrorIs(t, cmd.checkArgs([]string{"a"}), ErrValueRequired)
	require.ErrorIs(t, cmd.checkArgs([]string{"a", "b", "c"}), ErrTooManyArgs)

	var out, errOut bytes.Buffer

	require.Equal(t, 1, cmd.Run(context.Background(), NewIO(&out, &errOut), []string{"a"}))
	require.Nil(t, ran)
	require.Contains(t, errOut.String(), "error: value is required")

	require.Zero(t, cmd.Run(context.Background(), NewIO(&out, &errOut), []string{"a", "b"}))
	require.Equal(t, []string{"a", "b"}, ran)
}

func Test_Command_Prints_Hint_When_Flag_Unknown(t *testing.T) {
	t.Parallel()

	cmd := &Command{
		Name: "noop",
		Exec: func(context.Context, *IO, []string) error { return errors.New("must not run") },
	}

	var out, errOut bytes.Buffer

	require.Equal(t, 1, cmd.Run(context.Background(), NewIO(&out, &errOut), []string{"--nope"}))
	require.Empty(t, out.String())
	require.Contains(t, errOut.String(), "unknown flag: --nope")
	require.Contains(t, errOut.String(), "run 'kvcache noop --help' for usage")
	require.Equal(t, "noop", cmd.Synopsis())
	require.True(t, cmd.Matches("noop"))
	require.False(t, cmd.Matches("no"))
}
