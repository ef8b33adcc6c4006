package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/BlockMerchant/internal/model"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. BLOCKMERCHANT_SPAWN_SLOTS.
const EnvPrefix = "BLOCKMERCHANT"

// DefaultConfigDir returns the default directory for application configuration.
// On all platforms this is ~/.blockmerchant/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".blockmerchant")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// SaveAppConfig persists an AppConfig to the given path as YAML.
// It creates any missing parent directories automatically.
func SaveAppConfig(path string, config model.AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadAppConfig reads an AppConfig from the given path. Environment variables
// prefixed with BLOCKMERCHANT_ override file values. If the file does not
// exist, defaults (plus any environment overrides) are returned with no error.
func LoadAppConfig(path string) (model.AppConfig, error) {
	v := newViper()
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return model.AppConfig{}, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return model.AppConfig{}, fmt.Errorf("failed to stat config file: %w", err)
	}

	var config model.AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return model.AppConfig{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := model.DefaultAppConfig()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("stage", d.Stage)
	v.SetDefault("spawn_slots", d.SpawnSlots)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("inventory.width", d.Inventory.Width)
	v.SetDefault("inventory.height", d.Inventory.Height)
	v.SetDefault("solver.max_steps", d.Solver.MaxSteps)
	return v
}
