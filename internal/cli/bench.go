package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/diskcache/pkg/diskcache"
)

// defaultBenchCount stays below the point where a single bbolt write
// transaction on a fresh file slows down sharply. Pass -n 1000000 for the
// full run.
const defaultBenchCount = 100_000

// benchCancelCheck is how many writes or reads run between context checks.
const benchCancelCheck = 4096

func benchCmd(a *app) *Command {
	flags := flag.NewFlagSet("bench", flag.ContinueOnError)
	count := flags.IntP("count", "n", defaultBenchCount, "Write and read back `N` keys")
	random := flags.Bool("random", false, "Use random UUID keys instead of key-<i>")

	return &Command{
		Name:  "bench",
		Flags: flags,
		Short: "Write N keys in one transaction and read them back",
		Long: `Write key-1..key-N with value-1..value-N in a single write transaction,
then read every key back in its own read transaction and verify the value.
Prints timings for both phases.

Past a few hundred thousand keys on a fresh cache the write phase takes
minutes, because the engine keeps the whole transaction in memory until
commit.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			if *count <= 0 {
				return fmt.Errorf("%w, got %d", ErrBenchCount, *count)
			}

			return a.withCache(o, func(c *diskcache.Cache) error {
				return runBench(ctx, o, a, c, *count, *random)
			})
		},
	}
}

func runBench(ctx context.Context, o *IO, a *app, c *diskcache.Cache, n int, random bool) error {
	var keys []string

	if random {
		keys = make([]string, n)
		for i := range keys {
			keys[i] = uuid.NewString()
		}
	}

	keyAt := func(i int) string {
		if keys != nil {
			return keys[i]
		}

		return "key-" + strconv.Itoa(i+1)
	}

	start := time.Now()

	err := c.Update(func(tx *diskcache.Tx) error {
		for i := range n {
			if i%benchCancelCheck == 0 && ctx.Err() != nil {
				return ctx.Err()
			}

			err := c.SetTx(tx, keyAt(i), "value-"+strconv.Itoa(i+1), diskcache.Overwrite)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("write phase: %w", err)
	}

	wrote := time.Since(start)
	a.logger.Debug("bench write phase done", "keys", n, "elapsed", wrote)
	o.Printf("wrote %d keys in %s (%.0f ops/s)\n", n, wrote.Round(time.Millisecond), rate(n, wrote))

	start = time.Now()

	for i := range n {
		if i%benchCancelCheck == 0 && ctx.Err() != nil {
			return fmt.Errorf("read phase: %w", ctx.Err())
		}

		key := keyAt(i)
		want := "value-" + strconv.Itoa(i+1)

		got, found, err := c.Get(key)
		if err != nil {
			return fmt.Errorf("read phase: %w", err)
		}

		if !found || got != want {
			return fmt.Errorf("%w: key %q: got (%q, %v), want %q", ErrBenchMismatch, key, got, found, want)
		}
	}

	read := time.Since(start)
	a.logger.Debug("bench read phase done", "keys", n, "elapsed", read)
	o.Printf("read %d keys in %s (%.0f ops/s)\n", n, read.Round(time.Millisecond), rate(n, read))

	return nil
}

func rate(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}

	return float64(n) / d.Seconds()
}
