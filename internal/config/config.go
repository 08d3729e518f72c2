package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cryfox/vaultcore/internal/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds runtime settings for the vault CLI.
type Config struct {
	ConfigDir           string        `mapstructure:"config_dir"`
	AuthFile            string        `mapstructure:"auth_file"`
	DatabasePath        string        `mapstructure:"database_path"`
	LogLevel            string        `mapstructure:"log_level"`
	LogFormat           string        `mapstructure:"log_format"`
	ClipboardClearAfter time.Duration `mapstructure:"clipboard_clear_after"`
	IdentityTimeout     time.Duration `mapstructure:"identity_timeout"`
	UniformTiming       bool          `mapstructure:"uniform_timing"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"config-dir":     "config_dir",
	"auth-file":      "auth_file",
	"db":             "database_path",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"clipboard-ttl":  "clipboard_clear_after",
	"uniform-timing": "uniform_timing",
}

// Defaults returns the built-in values for a user whose home is home.
func Defaults(home string) map[string]any {
	return map[string]any{
		"config_dir":            DefaultDir(home),
		"auth_file":             "auth.json",
		"database_path":         "passwords.db",
		"log_level":             "warn",
		"log_format":            "text",
		"clipboard_clear_after": 30 * time.Second,
		"identity_timeout":      15 * time.Second,
		"uniform_timing":        false,
	}
}

// DefaultDir is the per-user configuration directory.
func DefaultDir(home string) string {
	return filepath.Join(home, ".config", "cryfox")
}

// HomeDir returns the user's home directory or common.ErrConfigurationMissing.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", fmt.Errorf("%w: no home directory", common.ErrConfigurationMissing)
	}
	return home, nil
}

// LoadDefaults populates c with the built-in values.
func (c *Config) LoadDefaults(home string) {
	d := Defaults(home)
	c.ConfigDir = d["config_dir"].(string)
	c.AuthFile = d["auth_file"].(string)
	c.DatabasePath = d["database_path"].(string)
	c.LogLevel = d["log_level"].(string)
	c.LogFormat = d["log_format"].(string)
	c.ClipboardClearAfter = d["clipboard_clear_after"].(time.Duration)
	c.IdentityTimeout = d["identity_timeout"].(time.Duration)
	c.UniformTiming = d["uniform_timing"].(bool)
}

// AuthPath is the absolute location of the AuthRecord file.
func (c *Config) AuthPath() string {
	return c.resolve(c.AuthFile)
}

// DBPath is the absolute location of the vault database.
func (c *Config) DBPath() string {
	return c.resolve(c.DatabasePath)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ConfigDir, p)
}

// LoadConfig builds a Config from defaults, an optional file, CRYFOX_*
// environment variables and flags, in that order of precedence. An explicit
// configFile must exist; without one, config.{json,yaml} in the default
// directory is used when present. flags may be nil.
func LoadConfig(flags *pflag.FlagSet, configFile string) (*Config, error) {
	home, err := HomeDir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	for key, value := range Defaults(home) {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(DefaultDir(home))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("cryfox")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.ConfigDir == "" {
		return nil, fmt.Errorf("%w: config_dir is empty", common.ErrConfigurationMissing)
	}
	return &cfg, nil
}

// RegisterFlags adds the flags LoadConfig understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config-dir", "", "directory holding auth.json and passwords.db (default ~/.config/cryfox)")
	fs.String("auth-file", "", "auth record file, relative to config dir")
	fs.String("db", "", "vault database file, relative to config dir")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.String("log-format", "", "log format: text or json")
	fs.Duration("clipboard-ttl", 0, "clear the clipboard after this long (0 keeps it)")
	fs.Bool("uniform-timing", false, "spend a full derivation even when no master password is set up")
}
