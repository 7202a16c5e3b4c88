// Package config loads lexbook settings from a config file, a .env
// file, and LEXBOOK_-prefixed environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "yaml"
	envPrefix  = "LEXBOOK"

	defaultDirName  = "lexbook"
	defaultNotebook = "notebook.md"
)

// Config is everything the commands need.
type Config struct {
	// NotebookPath is the absolute path of the notebook file. Its
	// directory is the repository working directory.
	NotebookPath string

	// GitEnabled turns synchronization on. With it off, commands only
	// touch the local file.
	GitEnabled bool

	// RemoteURL, Remote, and Branch locate the shared history.
	RemoteURL string
	Remote    string
	Branch    string

	// APIKey and Model configure the explanation provider.
	APIKey string
	Model  string

	// LogLevel and LogFile configure logging.
	LogLevel string
	LogFile  string
}

// WorkDir returns the repository working directory, the directory
// holding the notebook file.
func (c *Config) WorkDir() string {
	return filepath.Dir(c.NotebookPath)
}

// NotebookName returns the notebook path relative to the working
// directory.
func (c *Config) NotebookName() string {
	return filepath.Base(c.NotebookPath)
}

// Load reads configuration. A missing config file and a missing .env
// are both fine; defaults and environment variables cover everything.
func Load() (*Config, error) {
	// .env is loaded first so viper's env binding sees its values.
	_ = godotenv.Load()

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(filepath.Join(home, ".config", defaultDirName))
	v.AddConfigPath(filepath.Join(home, defaultDirName))

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("notebook.path", filepath.Join(home, defaultDirName, defaultNotebook))
	v.SetDefault("git.enabled", false)
	v.SetDefault("git.remote", "origin")
	v.SetDefault("git.branch", "main")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	// The provider's conventional variable works without the prefix.
	_ = v.BindEnv("anthropic.api_key", "LEXBOOK_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{
		NotebookPath: v.GetString("notebook.path"),
		GitEnabled:   v.GetBool("git.enabled"),
		RemoteURL:    v.GetString("git.remote_url"),
		Remote:       v.GetString("git.remote"),
		Branch:       v.GetString("git.branch"),
		APIKey:       v.GetString("anthropic.api_key"),
		Model:        v.GetString("anthropic.model"),
		LogLevel:     v.GetString("log.level"),
		LogFile:      v.GetString("log.file"),
	}

	if !filepath.IsAbs(cfg.NotebookPath) {
		abs, err := filepath.Abs(cfg.NotebookPath)
		if err != nil {
			return nil, fmt.Errorf("resolving notebook path: %w", err)
		}
		cfg.NotebookPath = abs
	}
	return cfg, nil
}
