// Package config loads circuit-timer settings from flags, environment,
// an optional YAML file and defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lowaak/circuit-timer/internal/audio"
	"github.com/lowaak/circuit-timer/internal/wake"
)

// EnvPrefix is prepended to every environment override, e.g.
// CIRCUIT_TIMER_SERVER_ADDR for server.addr.
const EnvPrefix = "CIRCUIT_TIMER"

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
	Seed string `mapstructure:"seed"` // YAML file; empty uses the built-in workouts
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// ClientConfig points the terminal UI at a remote server instead of the
// local store when ServerURL is set.
type ClientConfig struct {
	ServerURL string        `mapstructure:"server_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

type AudioConfig struct {
	Backend     string        `mapstructure:"backend"`
	SampleRate  int           `mapstructure:"sample_rate"`
	IdleSuspend time.Duration `mapstructure:"idle_suspend"`
}

type WakeConfig struct {
	Backend string `mapstructure:"backend"`
}

// Config is the fully resolved application configuration.
type Config struct {
	DataDir string       `mapstructure:"data_dir"`
	Log     LogConfig    `mapstructure:"log"`
	Store   StoreConfig  `mapstructure:"store"`
	Server  ServerConfig `mapstructure:"server"`
	Client  ClientConfig `mapstructure:"client"`
	Audio   AudioConfig  `mapstructure:"audio"`
	Wake    WakeConfig   `mapstructure:"wake"`

	// ConfigFile is the file that was read, if any.
	ConfigFile string `mapstructure:"-"`
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".circuit-timer")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("store.path", "")
	v.SetDefault("store.seed", "")
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("client.server_url", "")
	v.SetDefault("client.timeout", 10*time.Second)
	v.SetDefault("client.cache_ttl", 30*time.Second)
	v.SetDefault("audio.backend", audio.BackendAuto)
	v.SetDefault("audio.sample_rate", audio.DefaultSampleRate)
	v.SetDefault("audio.idle_suspend", 30*time.Second)
	v.SetDefault("wake.backend", wake.BackendAuto)
}

// NewFlagSet declares the command line flags understood by Load.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "config file (default <data-dir>/config.yaml)")
	fs.String("data-dir", "", "directory for the database, logs and UI state")
	fs.String("db", "", "SQLite database path")
	fs.String("seed", "", "YAML workouts imported into an empty database")
	fs.String("addr", "", "listen address for serve")
	fs.String("server", "", "use the REST server at this URL instead of the local database")
	fs.String("audio", "", "audio backend: auto, oto, bell or none")
	fs.String("wake", "", "screen wake backend: auto, dbus, caffeinate or none")
	fs.String("log-file", "", "log file path")
	return fs
}

var flagKeys = map[string]string{
	"data-dir": "data_dir",
	"db":       "store.path",
	"seed":     "store.seed",
	"addr":     "server.addr",
	"server":   "client.server_url",
	"audio":    "audio.backend",
	"wake":     "wake.backend",
	"log-file": "log.file",
}

// Load parses args and resolves the configuration. It returns the
// positional arguments left after flag parsing.
func Load(args []string) (*Config, []string, error) {
	fs := NewFlagSet("circuit-timer")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	cfg, err := FromFlags(fs)
	if err != nil {
		return nil, nil, err
	}
	return cfg, fs.Args(), nil
}

// FromFlags resolves the configuration from an already parsed flag set that
// carries the flags declared by NewFlagSet.
func FromFlags(fs *pflag.FlagSet) (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for flag, key := range flagKeys {
		f := fs.Lookup(flag)
		if f == nil {
			return nil, fmt.Errorf("flag --%s is not declared", flag)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("binding flag %s: %w", flag, err)
		}
	}

	cfgFile, _ := fs.GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(v.GetString("data_dir"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	cfg.applyDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDerived fills paths that default to locations inside DataDir.
func (c *Config) applyDerived() {
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(c.DataDir, "workouts.db")
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(c.DataDir, "circuit-timer.log")
	}
}

// UIStatePath is where the terminal UI remembers its last selection.
func (c *Config) UIStatePath() string {
	return filepath.Join(c.DataDir, "ui_state.json")
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("config: data_dir must not be empty")
	}
	if !audio.ValidBackend(c.Audio.Backend) {
		return fmt.Errorf("config: unknown audio.backend %q", c.Audio.Backend)
	}
	if !wake.ValidBackend(c.Wake.Backend) {
		return fmt.Errorf("config: unknown wake.backend %q", c.Wake.Backend)
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("config: audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Audio.IdleSuspend < 0 {
		return fmt.Errorf("config: audio.idle_suspend must not be negative")
	}
	if c.Client.Timeout < 0 {
		return fmt.Errorf("config: client.timeout must not be negative")
	}
	if c.Client.CacheTTL < 0 {
		return fmt.Errorf("config: client.cache_ttl must not be negative")
	}
	if c.Server.Addr == "" {
		return errors.New("config: server.addr must not be empty")
	}
	return nil
}
