package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/mailworks/")
	v.AddConfigPath("$HOME/.mailworks")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("MAILWORKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Server identity defaults
	v.SetDefault("server.domain", "mazzlabs.works")
	v.SetDefault("server.hostname", "mail.mazzlabs.works")

	// SMTP listener defaults
	v.SetDefault("smtp.inbound_address", "0.0.0.0:25")
	v.SetDefault("smtp.submission_address", "0.0.0.0:465")
	v.SetDefault("smtp.max_message_bytes", 25*1024*1024)
	v.SetDefault("smtp.max_recipients", 50)
	v.SetDefault("smtp.read_timeout", "30s")
	v.SetDefault("smtp.write_timeout", "30s")

	// TLS defaults (empty paths run the submission listener unencrypted)
	v.SetDefault("tls.cert_file", "")
	v.SetDefault("tls.key_file", "")

	// Storage defaults
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite_path", "/data/mail.db")
	v.SetDefault("storage.mysql_dsn", "user:password@tcp(localhost:3306)/mailworks")

	// Admin bootstrap defaults
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetInt64 gets a 64-bit integer value from the configuration
func (c *Config) GetInt64(key string) int64 {
	return c.v.GetInt64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
