package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/diskcache/pkg/diskcache"
	"github.com/calvinalkan/diskcache/pkg/fs"
	"github.com/calvinalkan/diskcache/pkg/units"
)

// Size is a byte count that reads from JSON as a number or a human size
// string like "200MB", and writes back as the latter.
type Size int64

// MarshalJSON implements [json.Marshaler].
func (s Size) MarshalJSON() ([]byte, error) {
	return json.Marshal(units.Format(int64(s)))
}

// UnmarshalJSON implements [json.Unmarshaler].
func (s *Size) UnmarshalJSON(data []byte) error {
	var n int64

	err := json.Unmarshal(data, &n)
	if err == nil {
		if n < 0 {
			return fmt.Errorf("%w: %d", units.ErrInvalidSize, n)
		}

		*s = Size(n)

		return nil
	}

	var str string

	err = json.Unmarshal(data, &str)
	if err != nil {
		return fmt.Errorf("%w: want a number or a string like \"200MB\", got %s", units.ErrInvalidSize, data)
	}

	n, err = units.Parse(str)
	if err != nil {
		return err
	}

	*s = Size(n)

	return nil
}

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	Dir             string `json:"dir"`
	MaxMapSize      Size   `json:"max_map_size,omitempty"`
	ValueBufferSize Size   `json:"value_buffer_size,omitempty"`

	// Resolved (computed, not serialized)
	EffectiveCwd string `json:"-"` // Absolute working directory (from -C flag or os.Getwd)
	DirAbs       string `json:"-"` // Absolute path to the cache directory

	// Sources tracks which config files were loaded (for diagnostics)
	Sources ConfigSources `json:"-"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Dir:             ".kvcache",
		MaxMapSize:      Size(diskcache.DefaultMaxMapSize),
		ValueBufferSize: Size(diskcache.DefaultValueBufferSize),
	}
}

// ConfigFileName is the default config file name.
const ConfigFileName = ".kvcache.json"

// CacheOptions returns the diskcache options described by cfg.
func (c Config) CacheOptions(fsys fs.FS) diskcache.Options {
	return diskcache.Options{
		Dir:             c.DirAbs,
		MaxMapSize:      int64(c.MaxMapSize),
		ValueBufferSize: int(c.ValueBufferSize),
		FS:              fsys,
	}
}

// Format renders cfg as indented JSON, the format init-config writes.
func (c Config) Format() (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("format config: %w", err)
	}

	return string(data), nil
}

// getGlobalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/kvcache/config.json if set, otherwise
// ~/.config/kvcache/config.json. Returns empty string if home directory
// cannot be determined.
func getGlobalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "kvcache", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "kvcache", "config.json")
	}

	return ""
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // -c/--config flag value
	DirOverride     string            // --dir flag value; empty means no override
	Env             map[string]string // environment variables
	FS              fs.FS             // reads config files; defaults to fs.NewReal()
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config (~/.config/kvcache/config.json or $XDG_CONFIG_HOME/kvcache/config.json)
// 3. Project config file at default location (.kvcache.json, if exists)
// 4. Explicit config file via ConfigPath (if non-empty)
// 5. CLI overrides.
//
// All paths in the returned Config are resolved to absolute paths.
func LoadConfig(input LoadConfigInput) (Config, error) {
	fsys := input.FS
	if fsys == nil {
		fsys = fs.NewReal()
	}

	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := DefaultConfig()

	globalCfg, globalPath, err := loadGlobalConfig(fsys, input.Env)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(fsys, workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	if input.DirOverride != "" {
		cfg.Dir = input.DirOverride
	}

	err = validateConfig(cfg)
	if err != nil {
		return Config{}, err
	}

	cfg.EffectiveCwd = workDir

	if filepath.IsAbs(cfg.Dir) {
		cfg.DirAbs = cfg.Dir
	} else {
		cfg.DirAbs = filepath.Join(workDir, cfg.Dir)
	}

	return cfg, nil
}

// loadGlobalConfig loads the global user config file if it exists.
// Returns the config, the path if loaded, and any error.
func loadGlobalConfig(fsys fs.FS, env map[string]string) (Config, string, error) {
	path := getGlobalConfigPath(env)
	if path == "" {
		return Config{}, "", nil
	}

	cfg, loaded, err := loadConfigFile(fsys, path, false)
	if err != nil || !loaded {
		return Config{}, "", err
	}

	return cfg, path, nil
}

// loadProjectConfig loads the project config file (.kvcache.json) or an
// explicit config file. Returns the config, the path if loaded, and any error.
func loadProjectConfig(fsys fs.FS, workDir, configPath string) (Config, string, error) {
	cfgFile := filepath.Join(workDir, ConfigFileName)
	mustExist := false

	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true

		exists, err := fsys.Exists(cfgFile)
		if err != nil || !exists {
			return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}
	}

	cfg, loaded, err := loadConfigFile(fsys, cfgFile, mustExist)
	if err != nil || !loaded {
		return Config{}, "", err
	}

	return cfg, cfgFile, nil
}

// loadConfigFile loads a config file. If mustExist is false, missing files
// return zero config. Returns the config, whether the file was loaded, and
// any error.
func loadConfigFile(fsys fs.FS, path string, mustExist bool) (Config, bool, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !mustExist {
			return Config{}, false, nil
		}

		return Config{}, false, fmt.Errorf("%w: %s: %w", ErrConfigFileRead, path, err)
	}

	cfg, err := parseConfig(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	return cfg, true, nil
}

func parseConfig(data []byte) (Config, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	err = json.Unmarshal(standardized, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	// An explicit "dir": "" is an error, not "use the default".
	var raw map[string]json.RawMessage

	_ = json.Unmarshal(standardized, &raw)

	if val, exists := raw["dir"]; exists && string(val) == `""` {
		return Config{}, ErrDirEmpty
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.Dir != "" {
		base.Dir = overlay.Dir
	}

	if overlay.MaxMapSize != 0 {
		base.MaxMapSize = overlay.MaxMapSize
	}

	if overlay.ValueBufferSize != 0 {
		base.ValueBufferSize = overlay.ValueBufferSize
	}

	return base
}

func validateConfig(cfg Config) error {
	if cfg.Dir == "" {
		return ErrDirEmpty
	}

	return nil
}
