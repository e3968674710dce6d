package cli

import (
	"context"
	"fmt"
	"path/filepath"

	flag "github.com/spf13/pflag"
)

const configFilePerms = 0o644

func initConfigCmd(a *app) *Command {
	flags := flag.NewFlagSet("init-config", flag.ContinueOnError)
	force := flags.BoolP("force", "f", false, "Overwrite an existing config file")

	return &Command{
		Name:  "init-config",
		Flags: flags,
		Short: "Write the effective configuration to " + ConfigFileName,
		Long: `Write the effective configuration to ` + ConfigFileName + ` in the working
directory. The file is replaced atomically, so a crash never leaves a
partial config behind.`,
		Exec: func(_ context.Context, o *IO, _ []string) error {
			path := filepath.Join(a.cfg.EffectiveCwd, ConfigFileName)

			exists, err := a.fs.Exists(path)
			if err != nil {
				return fmt.Errorf("check %s: %w", path, err)
			}

			if exists && !*force {
				return fmt.Errorf("%w: %s", ErrConfigExists, path)
			}

			formatted, err := a.cfg.Format()
			if err != nil {
				return err
			}

			err = a.fs.WriteFileAtomic(path, []byte(formatted+"\n"), configFilePerms)
			if err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}

			o.Println("wrote " + path)

			return nil
		},
	}
}
