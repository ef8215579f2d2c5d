// Package config loads server and editor settings from a YAML file, a .env file
// and FLOW_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/meikuraledutech/flow"
)

// EnvPrefix is prepended to every environment variable, e.g. FLOW_STORE_DRIVER.
const EnvPrefix = "FLOW"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Log    LogConfig    `mapstructure:"log"`
	Editor EditorConfig `mapstructure:"editor"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type StoreConfig struct {
	Driver    string      `mapstructure:"driver"`
	DSN       string      `mapstructure:"dsn"`
	KeyPrefix string      `mapstructure:"key_prefix"`
	Redis     RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type EditorConfig struct {
	Layout              string  `mapstructure:"layout"`
	Spacing             float64 `mapstructure:"spacing"`
	AllowCycles         bool    `mapstructure:"allow_cycles"`
	AllowTriggerTargets bool    `mapstructure:"allow_trigger_targets"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.key_prefix", "flow")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("editor.layout", string(flow.Horizontal))
	v.SetDefault("editor.spacing", 0)
	v.SetDefault("editor.allow_cycles", false)
	v.SetDefault("editor.allow_trigger_targets", false)
}

// Load reads configuration. path may be empty; a missing .env file is ignored.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have a closed set of options.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverRedis:
	case DriverPostgres, DriverSQLite:
		if c.Store.DSN == "" {
			return fmt.Errorf("config: store.dsn is required for the %s driver", c.Store.Driver)
		}
	default:
		return fmt.Errorf("config: store.driver must be one of [memory, postgres, sqlite, redis] (got: %s)", c.Store.Driver)
	}
	if !flow.Orientation(c.Editor.Layout).Valid() {
		return fmt.Errorf("config: editor.layout must be horizontal or vertical (got: %s)", c.Editor.Layout)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	return nil
}

// EngineOptions turns the editor section into engine options.
func (c *Config) EngineOptions(log zerolog.Logger) []flow.Option {
	return []flow.Option{
		flow.WithLogger(log),
		flow.WithOrientation(flow.Orientation(c.Editor.Layout)),
		flow.WithSpacing(c.Editor.Spacing),
		flow.WithEdgePolicy(flow.EdgePolicy{
			AllowCycles:         c.Editor.AllowCycles,
			AllowTriggerTargets: c.Editor.AllowTriggerTargets,
		}),
	}
}

// Logger builds the root logger, writing to stdout.
func (c LogConfig) Logger() zerolog.Logger {
	return c.LoggerTo(os.Stdout)
}

// LoggerTo builds the root logger writing to w. Format "console" is human readable.
func (c LogConfig) LoggerTo(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if strings.EqualFold(c.Format, "console") || strings.EqualFold(c.Format, "pretty") {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "flow").Logger()
}
