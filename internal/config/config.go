// Package config loads teller's settings from config.yaml, a .env file and
// TELLER_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	appName   = "teller"
	envPrefix = "TELLER"
)

type Config struct {
	API        APIConfig     `mapstructure:"api"`
	Storage    StorageConfig `mapstructure:"storage"`
	Log        LogConfig     `mapstructure:"log"`
	ConfigPath string        `mapstructure:"-"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	// Dir holds session.json and teller.log. Empty means the app data dir.
	Dir string `mapstructure:"dir"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func NewDefault() *Config {
	return &Config{
		API:     APIConfig{BaseURL: "http://localhost:8080", Timeout: 30 * time.Second},
		Storage: StorageConfig{Dir: ""},
		Log:     LogConfig{Level: "warn"},
	}
}

// SessionFile is where the session is persisted.
func (c *Config) SessionFile() string {
	return filepath.Join(c.Storage.Dir, "session.json")
}

// LogFile is where the TUI writes its log.
func (c *Config) LogFile() string {
	return filepath.Join(c.Storage.Dir, "teller.log")
}

// Load reads configuration. cfgFile, when set, must exist; otherwise
// config.yaml in the app data dir is used if present.
func Load(cfgFile string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	appDir, err := AppDataDir()
	if err != nil {
		return nil, fmt.Errorf("error getting app dir: %w", err)
	}

	v := viper.New()
	def := NewDefault()
	v.SetDefault("api.base_url", def.API.BaseURL)
	v.SetDefault("api.timeout", def.API.Timeout)
	v.SetDefault("storage.dir", appDir)
	v.SetDefault("log.level", def.Log.Level)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(appDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
	}

	cfg := NewDefault()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if cfg.Storage.Dir, err = expandPath(cfg.Storage.Dir); err != nil {
		return nil, fmt.Errorf("storage.dir: %w", err)
	}
	if cfg.API.BaseURL == "" {
		return nil, errors.New("api.base_url must not be empty")
	}
	if cfg.API.Timeout <= 0 {
		return nil, fmt.Errorf("api.timeout must be positive, got %s", cfg.API.Timeout)
	}
	return cfg, nil
}

// AppDataDir returns <user config dir>/teller, falling back to ~/.teller.
func AppDataDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("unable to determine user home directory: %w", err)
		}
		return filepath.Join(home, "."+appName), nil
	}
	return filepath.Join(configDir, appName), nil
}

func expandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, "~\\") {
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}
