// Package config loads Viper-backed configuration and builds the Zap logger
// shared by the toolshed binaries.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override: TOOLSHED_LOGGING_LEVEL=debug.
const EnvPrefix = "TOOLSHED"

// Config is the typed view of the settings the binaries consume.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Audit   AuditConfig   `mapstructure:"audit"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig names the MCP implementation advertised during initialization.
type ServerConfig struct {
	Name string `mapstructure:"name"`
}

// LoggingConfig selects the zap level (debug, info, warn, error) and output
// format (json, console) passed to NewLogger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuditConfig enables the SQLite tool-call audit log when DBPath is set.
type AuditConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// MetricsConfig enables the Prometheus /metrics listener when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// SetDefaults registers the defaults every binary starts from.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "toolshed")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("audit.db_path", "")
	v.SetDefault("metrics.addr", "")
}

// Load reads configuration from file and environment variables.
// When configPath is empty, <name>.yaml is looked up in the working
// directory and ./configs; a missing file is not an error.
func Load(configPath, name string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return v, nil
}

// Decode unmarshals v into a Config.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}
