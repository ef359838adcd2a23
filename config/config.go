// Package config loads beatmachine settings from
// ~/.config/beatmachine/config.yaml, environment variables and defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig configures the beats backend
type ServerConfig struct {
	Addr         string `mapstructure:"addr"`
	DBPath       string `mapstructure:"db_path"`
	AuthorHeader string `mapstructure:"author_header"`
}

// ClientConfig configures how the machine reaches the backend
type ClientConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Author  string        `mapstructure:"author"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AudioConfig defines the MIDI drum output
type AudioConfig struct {
	PortName string        `mapstructure:"port"`
	Channel  int           `mapstructure:"channel"` // 1-16
	Kit      string        `mapstructure:"kit"`
	Gate     time.Duration `mapstructure:"gate"`
}

// GridConfig sets the pattern size
type GridConfig struct {
	Steps int `mapstructure:"steps"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Tempo   float64 `mapstructure:"tempo"`
	Palette string  `mapstructure:"palette"` // GIMP .gpl file, empty for built-in
}

// LogConfig controls the debug log
type LogConfig struct {
	Debug bool   `mapstructure:"debug"`
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"` // server log level
}

// Config is the main configuration structure
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Client ClientConfig `mapstructure:"client"`
	Audio  AudioConfig  `mapstructure:"audio"`
	Grid   GridConfig   `mapstructure:"grid"`
	UI     UIConfig     `mapstructure:"ui"`
	Log    LogConfig    `mapstructure:"log"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		panic(fmt.Sprintf("config: bad defaults: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.db_path", "")
	v.SetDefault("server.author_header", "X-Beat-Author")

	v.SetDefault("client.base_url", "http://localhost:3000")
	v.SetDefault("client.author", "")
	v.SetDefault("client.timeout", "10s")

	v.SetDefault("audio.port", "")
	v.SetDefault("audio.channel", 10)
	v.SetDefault("audio.kit", "gm")
	v.SetDefault("audio.gate", "50ms")

	v.SetDefault("grid.steps", 10)

	v.SetDefault("ui.tempo", 0.3)
	v.SetDefault("ui.palette", "")

	v.SetDefault("log.debug", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "beatmachine"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "beatmachine"), nil
}

// ConfigPath returns the full path to config.yaml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the user config, or returns defaults if there is none.
// BEATMACHINE_* environment variables override file values, e.g.
// BEATMACHINE_CLIENT_AUTHOR.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return load(path, false)
}

// LoadFromPath loads configuration from a specific file
func LoadFromPath(path string) (*Config, error) {
	return load(path, true)
}

func load(path string, required bool) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		missing := notFound || errors.Is(err, fs.ErrNotExist)
		if required || !missing {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("BEATMACHINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// Save writes the config to path (ConfigPath if empty)
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server.addr", c.Server.Addr)
	v.Set("server.db_path", c.Server.DBPath)
	v.Set("server.author_header", c.Server.AuthorHeader)
	v.Set("client.base_url", c.Client.BaseURL)
	v.Set("client.author", c.Client.Author)
	v.Set("client.timeout", c.Client.Timeout.String())
	v.Set("audio.port", c.Audio.PortName)
	v.Set("audio.channel", c.Audio.Channel)
	v.Set("audio.kit", c.Audio.Kit)
	v.Set("audio.gate", c.Audio.Gate.String())
	v.Set("grid.steps", c.Grid.Steps)
	v.Set("ui.tempo", c.UI.Tempo)
	v.Set("ui.palette", c.UI.Palette)
	v.Set("log.debug", c.Log.Debug)
	v.Set("log.file", c.Log.File)
	v.Set("log.level", c.Log.Level)

	return v.WriteConfig()
}
