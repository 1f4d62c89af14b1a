package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/xcrap/micromachines/backend/internal/simulation"
	"github.com/xcrap/micromachines/backend/internal/terrain"
)

// FileName is the optional config file looked up in the config directory.
const FileName = "micromachines.cfg.json"

// EnvPrefix prefixes every environment override, e.g.
// MICROMACHINES_SERVER_ADDR or MICROMACHINES_TUNING_MAXSPEED.
const EnvPrefix = "MICROMACHINES"

var (
	ErrConfigRead    = errors.New("error reading config file")
	ErrInvalidConfig = errors.New("invalid config")
)

// ServerConfig holds the game server settings.
type ServerConfig struct {
	Addr            string `json:"addr" mapstructure:"addr"`
	TickRate        int    `json:"tickRate" mapstructure:"tickRate"`
	ReplicationRate int    `json:"replicationRate" mapstructure:"replicationRate"`
	LogLevel        string `json:"logLevel" mapstructure:"logLevel"`
}

// Config is everything the game server needs to start.
type Config struct {
	Server ServerConfig      `mapstructure:"server"`
	Map    terrain.Config    `mapstructure:"map"`
	Tuning simulation.Tuning `mapstructure:"tuning"`
}

// DefaultServer is used for every key the file and environment leave unset.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Addr:            ":9003",
		TickRate:        120,
		ReplicationRate: 60,
		LogLevel:        "info",
	}
}

// Load reads configuration from configDir and the environment.
// The config file is optional; defaults cover every key.
func Load(configDir string) (Config, error) {
	v := viper.New()

	sections := map[string]any{
		"server": DefaultServer(),
		"map":    terrain.DefaultConfig(),
		"tuning": simulation.DefaultTuning(),
	}
	for prefix, defaults := range sections {
		if err := setDefaults(v, prefix, defaults); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := filepath.Join(configDir, FileName)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrConfigRead, path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrConfigRead, path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfigRead, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return fmt.Errorf("%w: server.addr is required", ErrInvalidConfig)
	case c.Server.TickRate <= 0:
		return fmt.Errorf("%w: server.tickRate must be positive", ErrInvalidConfig)
	case c.Server.ReplicationRate <= 0 || c.Server.ReplicationRate > c.Server.TickRate:
		return fmt.Errorf("%w: server.replicationRate must be in (0, tickRate]", ErrInvalidConfig)
	}
	if err := c.Map.Validate(); err != nil {
		return fmt.Errorf("%w: map: %w", ErrInvalidConfig, err)
	}
	if err := c.Tuning.Validate(); err != nil {
		return fmt.Errorf("%w: tuning: %w", ErrInvalidConfig, err)
	}
	return nil
}

// setDefaults registers every field of defaults under prefix so that
// AutomaticEnv can override keys the file never mentions.
func setDefaults(v *viper.Viper, prefix string, defaults any) error {
	var flat map[string]any
	if err := mapstructure.Decode(defaults, &flat); err != nil {
		return fmt.Errorf("flatten %s defaults: %w", prefix, err)
	}
	for key, val := range flat {
		v.SetDefault(prefix+"."+key, val)
	}
	return nil
}
