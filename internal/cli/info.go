package cli

import (
	"context"
	"fmt"

	"github.com/calvinalkan/diskcache/pkg/diskcache"
	"github.com/calvinalkan/diskcache/pkg/units"
)

func infoCmd(a *app) *Command {
	return &Command{
		Name:  "info",
		Short: "Show cache file, size and entry count",
		Long:  "Show the cache file path, entry count, file size, configured limits and free disk space.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			return a.withCache(o, func(c *diskcache.Cache) error {
				return execInfo(o, a, c)
			})
		},
	}
}

func execInfo(o *IO, a *app, c *diskcache.Cache) error {
	n, err := c.Len()
	if err != nil {
		return err
	}

	st, err := a.fs.Stat(c.Path())
	if err != nil {
		return fmt.Errorf("stat cache file: %w", err)
	}

	opts := c.Options()

	o.Field("path", c.Path())
	o.Field("entries", n)
	o.Field("file_size", units.Format(st.Size()))
	o.Field("max_map_size", units.Format(opts.MaxMapSize))
	o.Field("value_buffer_size", units.Format(int64(opts.ValueBufferSize)))
	o.Field("table", opts.TableName)

	free, err := a.fs.FreeSpace(a.cfg.DirAbs)
	if err != nil {
		o.Warn("cannot determine free disk space: "+err.Error(), "ignore unless the cache fails to grow")

		return nil
	}

	o.Field("free_disk", units.Format(int64(free)))

	return nil
}
