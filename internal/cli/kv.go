package cli

import (
	"context"
	"fmt"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/diskcache/pkg/diskcache"
)

var (
	keyArg = Arg{
		Name:    "key",
		Help:    "Cache key, 1 to " + strconv.Itoa(diskcache.MaxKeySize) + " bytes of UTF-8",
		Missing: ErrKeyRequired,
	}
	valueArg = Arg{
		Name:    "value",
		Help:    "UTF-8 text, up to the configured value_buffer_size",
		Missing: ErrValueRequired,
	}
)

func getCmd(a *app) *Command {
	return &Command{
		Name:  "get",
		Args:  []Arg{keyArg},
		Short: "Print the value stored under a key",
		Long:  "Print the value stored under <key>. Fails if the key is not set.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			key := args[0]

			return a.withCache(o, func(c *diskcache.Cache) error {
				value, found, err := c.Get(key)
				if err != nil {
					return err
				}

				if !found {
					return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
				}

				o.Println(value)

				return nil
			})
		},
	}
}

func setCmd(a *app) *Command {
	flags := flag.NewFlagSet("set", flag.ContinueOnError)
	noOverwrite := flags.Bool("no-overwrite", false, "Fail if the key is already set")

	return &Command{
		Name:  "set",
		Args:  []Arg{keyArg, valueArg},
		Flags: flags,
		Short: "Store a value under a key",
		Long: `Store <value> under <key>, replacing any existing value.

With --no-overwrite the command fails and the stored value is kept if the
key is already set.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			put := diskcache.Overwrite
			if *noOverwrite {
				put = diskcache.NoOverwrite
			}

			return a.withCache(o, func(c *diskcache.Cache) error {
				return c.Set(args[0], args[1], put)
			})
		},
	}
}

func delCmd(a *app) *Command {
	return &Command{
		Name:    "del",
		Aliases: []string{"delete", "rm"},
		Args:    []Arg{keyArg},
		Short: "Delete a key",
		Long:  "Delete <key>. Deleting a key that is not set succeeds.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			return a.withCache(o, func(c *diskcache.Cache) error {
				return c.Delete(args[0])
			})
		},
	}
}
