// Package config loads corelog's runtime configuration via
// spf13/viper + mitchellh/mapstructure: environment variables (CORELOG_
// prefix) and a YAML file override defaults, unmarshaled with a
// time.Duration decode hook so config files can use "30s"-style durations.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config is corelog's top-level runtime configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	NVTable NVTableConfig `mapstructure:"nvtable"`
	Tail    TailConfig    `mapstructure:"tail"`
	Persist PersistConfig `mapstructure:"persist"`
}

// LoggingConfig controls package logging's behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig configures the Prometheus metrics HTTP endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// NVTableConfig configures default NVTable arena sizing and the wire
// codec's compression choice.
type NVTableConfig struct {
	InitialSize int    `mapstructure:"initial_size"`
	Compression string `mapstructure:"compression"` // none, zstd, lz4
}

// TailConfig configures the buffered tail source.
type TailConfig struct {
	Encoding         string        `mapstructure:"encoding"` // e.g. "", "utf-8", "iso-8859-1"
	DefaultBufferSize int          `mapstructure:"default_buffer_size"`
	MaxBufferSize    int           `mapstructure:"max_buffer_size"`
	MaxFiles         int           `mapstructure:"max_files"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
}

// PersistConfig configures the persistent state store.
type PersistConfig struct {
	Path string `mapstructure:"path"`
}

// Defaults returns corelog's default configuration.
func Defaults() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "INFO", Format: "text", Output: "stderr"},
		Metrics: MetricsConfig{Enabled: false, Port: 9090},
		NVTable: NVTableConfig{InitialSize: 4096, Compression: "none"},
		Tail: TailConfig{
			DefaultBufferSize: 64 * 1024,
			MaxBufferSize:     16 * 1024 * 1024,
			MaxFiles:          256,
			PollInterval:      2 * time.Second,
		},
		Persist: PersistConfig{Path: ""},
	}
}

// Load starts from Defaults and overrides them with values from
// configPath (YAML) and environment variables prefixed CORELOG_.
// configPath may be empty or name a missing file, in which case only
// environment variables and defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CORELOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: reading %q: %w", configPath, err)
			}
		}
	}

	cfg := Defaults()
	hook := mapstructure.ComposeDecodeHookFunc(durationDecodeHook())
	if err := v.Unmarshal(cfg, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}

	return cfg, nil
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/corelog, falling back to
// ~/.config/corelog, or "." if the home directory can't be determined.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "corelog")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "corelog")
}
