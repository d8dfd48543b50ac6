package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".treegrep"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for treegrep settings.
const envPrefix = "TREEGREP"

// Config holds the settings the scan command reads from file, env, and
// defaults. Flags override all of them.
type Config struct {
	Workers  int      `mapstructure:"workers"`
	Language string   `mapstructure:"language"`
	Rules    []string `mapstructure:"rules"`
	NoColor  bool     `mapstructure:"no_color"`
}

// loadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file
// path; otherwise the file is searched in CWD and $HOME. A missing
// config file is not an error.
func loadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	viperCfg.SetDefault("workers", 0)
	viperCfg.SetDefault("language", "")
	viperCfg.SetDefault("rules", []string{})
	viperCfg.SetDefault("no_color", false)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	return &cfg, nil
}
