package config

import (
	"fmt"
	"time"
)

// ServerConfig identifies the domain the server is authoritative for.
type ServerConfig struct {
	Domain   string
	Hostname string
}

// SMTPConfig carries the listener pair settings.
type SMTPConfig struct {
	InboundAddress    string
	SubmissionAddress string
	MaxMessageBytes   int64
	MaxRecipients     int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
}

// TLSConfig points at the optional transport-encryption material.
type TLSConfig struct {
	CertFile string
	KeyFile  string
}

// StorageConfig selects and parameterizes the storage driver.
type StorageConfig struct {
	Driver     string
	SQLitePath string
	MySQLDSN   string
}

// AdminConfig is the optional bootstrap account.
type AdminConfig struct {
	Email    string
	Password string
}

// GetServer returns the server identity configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		Domain:   c.GetString("server.domain"),
		Hostname: c.GetString("server.hostname"),
	}
}

// GetSMTP returns the SMTP listener configuration
func (c *Config) GetSMTP() (SMTPConfig, error) {
	readTimeout, err := c.GetDuration("smtp.read_timeout")
	if err != nil {
		return SMTPConfig{}, fmt.Errorf("invalid smtp.read_timeout: %w", err)
	}
	writeTimeout, err := c.GetDuration("smtp.write_timeout")
	if err != nil {
		return SMTPConfig{}, fmt.Errorf("invalid smtp.write_timeout: %w", err)
	}
	return SMTPConfig{
		InboundAddress:    c.GetString("smtp.inbound_address"),
		SubmissionAddress: c.GetString("smtp.submission_address"),
		MaxMessageBytes:   c.GetInt64("smtp.max_message_bytes"),
		MaxRecipients:     c.GetInt("smtp.max_recipients"),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}, nil
}

// GetTLS returns the TLS configuration
func (c *Config) GetTLS() TLSConfig {
	return TLSConfig{
		CertFile: c.GetString("tls.cert_file"),
		KeyFile:  c.GetString("tls.key_file"),
	}
}

// GetStorage returns the storage configuration
func (c *Config) GetStorage() StorageConfig {
	return StorageConfig{
		Driver:     c.GetString("storage.driver"),
		SQLitePath: c.GetString("storage.sqlite_path"),
		MySQLDSN:   c.GetString("storage.mysql_dsn"),
	}
}

// GetAdmin returns the admin bootstrap configuration
func (c *Config) GetAdmin() AdminConfig {
	return AdminConfig{
		Email:    c.GetString("admin.email"),
		Password: c.GetString("admin.password"),
	}
}
