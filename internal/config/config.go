package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	DataDir string        `mapstructure:"data_dir"`
	Remote  RemoteConfig  `mapstructure:"remote" validate:"required"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Publish PublishConfig `mapstructure:"publish"`
}

// RemoteConfig holds connection settings for the authoritative store.
// User/Password is the anonymous read role; Identity/Secret is the
// service account used for publishing (optional, see remote.Client.Login).
type RemoteConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database" validate:"required"`
	SSLMode  string `mapstructure:"sslmode"`
	Identity string `mapstructure:"identity"`
	Secret   string `mapstructure:"secret"`
}

// SyncConfig holds sync behavior settings
type SyncConfig struct {
	IntervalSeconds int `mapstructure:"interval_s" validate:"min=0"`
}

// PublishConfig holds publish-side filtering settings
type PublishConfig struct {
	// ExcludeSites are glob patterns matched against a record's site name;
	// matching records are never created or updated remotely.
	ExcludeSites []string `mapstructure:"exclude_sites"`
}

// ConnectionString returns the PostgreSQL connection string for the
// anonymous read role.
func (r *RemoteConfig) ConnectionString() string {
	return r.connectionStringAs(r.User, r.Password)
}

// ServiceConnectionString returns the connection string for the service
// account used for mutations.
func (r *RemoteConfig) ServiceConnectionString() string {
	return r.connectionStringAs(r.Identity, r.Secret)
}

func (r *RemoteConfig) connectionStringAs(user, password string) string {
	sslMode := r.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		user, password, r.Host, r.Port, r.Database, sslMode,
	)
}

// HasServiceAccount reports whether service credentials are configured.
func (r *RemoteConfig) HasServiceAccount() bool {
	return r.Identity != "" && r.Secret != ""
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Remote: RemoteConfig{
			Port:    5432,
			SSLMode: "require",
		},
		Sync: SyncConfig{
			IntervalSeconds: 300,
		},
	}
}

// Load reads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := newViper(configPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is okay if we have environment variables
	}

	return unmarshal(v)
}

// Watch reloads the config whenever the file on disk changes and hands the
// result to onChange. Reload errors are logged and the previous config
// stays active. Used by daemon mode.
func Watch(configPath string, onChange func(*Config)) error {
	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := unmarshal(v)
		if err != nil {
			slog.Warn("config reload failed, keeping previous", "file", e.Name, "error", err)
			return
		}
		slog.Info("config reloaded", "file", e.Name)
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("remote.port", defaults.Remote.Port)
	v.SetDefault("remote.sslmode", defaults.Remote.SSLMode)
	v.SetDefault("sync.interval_s", defaults.Sync.IntervalSeconds)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(getConfigDir())
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("SITEQA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Expand environment variables in secrets
	cfg.Remote.Password = os.ExpandEnv(cfg.Remote.Password)
	cfg.Remote.Secret = os.ExpandEnv(cfg.Remote.Secret)

	// Default the data dir to the per-user config dir
	if cfg.DataDir == "" {
		cfg.DataDir = getConfigDir()
	}
	cfg.DataDir = expandPath(cfg.DataDir)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// getConfigDir returns the appropriate config directory for the OS
func getConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "siteqa")
		}
		return filepath.Join(os.Getenv("USERPROFILE"), ".config", "siteqa")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, "siteqa")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "siteqa")
	}
}

// EnsureDataDir creates the data directory if needed and returns it.
func EnsureDataDir(cfg *Config) (string, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return cfg.DataDir, nil
}

// DefaultConfigPath returns the location `siteqa init` writes to.
func DefaultConfigPath() (string, error) {
	dir := getConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// expandPath expands ~ and environment variables in a path
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[1:])
	}
	return os.ExpandEnv(path)
}
