package cli

import (
	"context"

	"github.com/calvinalkan/diskcache/pkg/units"
)

func printConfigCmd(a *app) *Command {
	return &Command{
		Name:  "print-config",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and which files it was loaded from.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			return execPrintConfig(o, &a.cfg)
		},
	}
}

func execPrintConfig(o *IO, cfg *Config) error {
	o.Field("effective_cwd", cfg.EffectiveCwd)
	o.Field("dir", cfg.DirAbs)
	o.Field("max_map_size", units.Format(int64(cfg.MaxMapSize)))
	o.Field("value_buffer_size", units.Format(int64(cfg.ValueBufferSize)))

	o.Println("")
	o.Println("# sources")

	if cfg.Sources.Global == "" && cfg.Sources.Project == "" {
		o.Println("(defaults only)")
	} else {
		if cfg.Sources.Global != "" {
			o.Field("global_config", cfg.Sources.Global)
		}

		if cfg.Sources.Project != "" {
			o.Field("project_config", cfg.Sources.Project)
		}
	}

	return nil
}
