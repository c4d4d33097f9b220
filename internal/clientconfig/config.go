// Package clientconfig loads taskctl settings from ~/.taskctl/config.yaml,
// TASKCTL_* environment variables and command-line overrides.
package clientconfig

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	dirName   = ".taskctl"
	fileName  = "config.yaml"
	envPrefix = "TASKCTL"
)

type Config struct {
	Server    string `mapstructure:"server"`
	CachePath string `mapstructure:"cache_path"`
	LogFile   string `mapstructure:"log_file"`
	LogLevel  string `mapstructure:"log_level"`
	// RetrySeconds is how long watch waits before redialing the server.
	RetrySeconds int `mapstructure:"retry_seconds"`
}

// Dir returns ~/.taskctl, or .taskctl when there is no home directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return dirName
	}
	return filepath.Join(home, dirName)
}

// Path returns the default config file location.
func Path() string {
	return filepath.Join(Dir(), fileName)
}

func setDefaults(v *viper.Viper) {
	dir := Dir()
	v.SetDefault("server", "http://localhost:5000")
	v.SetDefault("cache_path", filepath.Join(dir, "cache.db"))
	v.SetDefault("log_file", filepath.Join(dir, "taskctl.log"))
	v.SetDefault("log_level", "info")
	v.SetDefault("retry_seconds", 5)
}

// Load reads path (the default location when empty). A missing file is
// not an error; defaults and environment still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = Path()
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Server = strings.TrimRight(cfg.Server, "/")
	return &cfg, nil
}
