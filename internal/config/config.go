package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const (
	DefaultDataDir    = "./btrievedb_data"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "console"
	DefaultMaxSize    = 64
	DefaultMaxBackups = 3

	EnvDataDir  = "BTRIEVEDB_DIR"
	EnvLogLevel = "BTRIEVEDB_LOG_LEVEL"
)

// Config is the runtime configuration of btrievedb.
type Config struct {
	DataDir string    `toml:"data-dir"`
	Log     LogConfig `toml:"log"`
}

// LogConfig configures the logger. An empty Filename logs to stderr.
type LogConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	Filename   string `toml:"filename"`
	MaxSize    int    `toml:"max-size"`
	MaxDays    int    `toml:"max-days"`
	MaxBackups int    `toml:"max-backups"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		DataDir: DefaultDataDir,
		Log: LogConfig{
			Level:      DefaultLogLevel,
			Format:     DefaultLogFormat,
			MaxSize:    DefaultMaxSize,
			MaxBackups: DefaultMaxBackups,
		},
	}
}

// Load reads the configuration at path over the defaults, then applies the
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown config keys in %s: %v", path, undecoded)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		c.DataDir = dir
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Log.Level = level
	}
}

// Validate checks the values a file or the environment may have broken.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data-dir must not be empty")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.Log.Format)
	}
	if c.Log.MaxSize < 0 || c.Log.MaxDays < 0 || c.Log.MaxBackups < 0 {
		return fmt.Errorf("log rotation limits must not be negative")
	}
	return nil
}
