package cli

import "errors"

// Error variables for CLI parsing, configuration and commands.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrConfigExists       = errors.New("config file already exists (use --force to overwrite)")
	ErrDirEmpty           = errors.New("dir cannot be empty")
	ErrUnknownCommand     = errors.New("unknown command")
	ErrKeyRequired        = errors.New("key is required")
	ErrValueRequired      = errors.New("value is required")
	ErrMissingArg         = errors.New("missing argument")
	ErrTooManyArgs        = errors.New("too many arguments")
	ErrKeyNotFound        = errors.New("key not found")
	ErrBenchCount         = errors.New("bench count must be > 0")
	ErrBenchMismatch      = errors.New("bench read back a wrong value")
)
