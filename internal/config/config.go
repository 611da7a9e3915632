// Package config builds the process-wide configuration once at startup from
// defaults, an optional YAML file, LMS_ environment variables and CLI flags.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix for environment overrides (LMS_DB_PATH -> db_path).
const EnvPrefix = "LMS_"

const (
	DefaultPort   = 5000
	DefaultBind   = "127.0.0.1"
	DefaultDBPath = "./lms.db"
)

// LogConfig controls log level and the rotating log file.
type LogConfig struct {
	Level      string `koanf:"level"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}

// Config is the immutable application configuration.
type Config struct {
	Port     int           `koanf:"port"`
	Bind     string        `koanf:"bind"`
	DBPath   string        `koanf:"db_path"`
	Seed     bool          `koanf:"seed"`
	Verbose  int           `koanf:"verbose"`
	Log      LogConfig     `koanf:"log"`
	Timeouts TimeoutConfig `koanf:"timeouts"`
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, fmt.Sprintf("%d", c.Port))
}

// LogLevel resolves the effective log level; -v and -vv win over log.level.
func (c *Config) LogLevel() string {
	switch {
	case c.Verbose >= 2:
		return "trace"
	case c.Verbose == 1:
		return "debug"
	case c.Log.Level != "":
		return c.Log.Level
	default:
		return "info"
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port)
	}
	if c.Bind != "" && net.ParseIP(c.Bind) == nil {
		return fmt.Errorf("invalid bind address: %s", c.Bind)
	}
	if c.DBPath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Timeouts.Request <= 0 || c.Timeouts.Shutdown <= 0 {
		return fmt.Errorf("request and shutdown timeouts must be positive")
	}
	return nil
}

func defaults() map[string]any {
	t := DefaultTimeoutConfig()
	return map[string]any{
		"port":              DefaultPort,
		"bind":              DefaultBind,
		"db_path":           DefaultDBPath,
		"seed":              true,
		"verbose":           0,
		"log.level":         "info",
		"log.file":          "",
		"log.max_size_mb":   50,
		"log.max_backups":   5,
		"log.max_age_days":  30,
		"log.compress":      true,
		"timeouts.read":     t.Read,
		"timeouts.idle":     t.Idle,
		"timeouts.request":  t.Request,
		"timeouts.shutdown": t.Shutdown,
	}
}

// flagKeys maps CLI flag names to config keys where they differ.
var flagKeys = map[string]string{
	"db":               "db_path",
	"log-file":         "log.file",
	"log-level":        "log.level",
	"read-timeout":     "timeouts.read",
	"idle-timeout":     "timeouts.idle",
	"request-timeout":  "timeouts.request",
	"shutdown-timeout": "timeouts.shutdown",
}

// Load builds the configuration. cfgFile may be empty; flags may be nil.
// Only flags that were explicitly set override lower layers.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return nil, fmt.Errorf("config file %s: %w", cfgFile, err)
		}
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// LMS_LOG_LEVEL -> log.level, LMS_DB_PATH -> db_path
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var sections = []string{"log", "timeouts"}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range sections {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok {
			return section + "." + rest
		}
	}
	return key
}
