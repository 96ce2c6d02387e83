// Package config defines the service configuration and its loader.
// Values come from an optional config.yml, an optional .env file, and
// environment variables; the evidenced deployment variables (PORT,
// CONFIG_FILE, SPREADSHEET_ID, SERVICE_ACCOUNT_FILE) always win.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/zetalabs/teliads/internal/facebook"
	"github.com/zetalabs/teliads/internal/logger"
	"github.com/zetalabs/teliads/internal/server"
	"github.com/zetalabs/teliads/internal/sheets"
)

const (
	defaultPasskeysFile       = "passkeys.json"
	defaultServiceAccountFile = "zeta-environs-448616-m0-cb4f0707f662.json"
	defaultSpreadsheetID      = "1Pl24edGAhoovXPtHTTugsb3QM4YbcBsMjg6lBk9BXOs"
)

// CredentialsConfig locates the credential documents on disk. Both files
// are created out-of-band before deployment and are read-only to the
// service.
type CredentialsConfig struct {
	// PasskeysFile is the passkey store document path (env: CONFIG_FILE).
	PasskeysFile string `yaml:"passkeys_file" mapstructure:"passkeys_file" validate:"required"`

	// ServiceAccountFile is the cloud service-account key path
	// (env: SERVICE_ACCOUNT_FILE).
	ServiceAccountFile string `yaml:"service_account_file" mapstructure:"service_account_file" validate:"required"`
}

// Config is the complete service configuration.
type Config struct {
	Name        string `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`

	Logging     logger.Config     `yaml:"logging" mapstructure:"logging"`
	Server      server.Config     `yaml:"server" mapstructure:"server"`
	Credentials CredentialsConfig `yaml:"credentials" mapstructure:"credentials"`
	Facebook    facebook.Config   `yaml:"facebook" mapstructure:"facebook"`
	Sheets      sheets.Config     `yaml:"sheets" mapstructure:"sheets"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "teliads"
	}
	if c.Environment == "" {
		c.Environment = "production"
	}
	if c.Credentials.PasskeysFile == "" {
		c.Credentials.PasskeysFile = defaultPasskeysFile
	}
	if c.Credentials.ServiceAccountFile == "" {
		c.Credentials.ServiceAccountFile = defaultServiceAccountFile
	}
	if c.Sheets.SpreadsheetID == "" {
		c.Sheets.SpreadsheetID = defaultSpreadsheetID
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}

	c.Logging.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Facebook.ApplyDefaults()
	c.Sheets.ApplyDefaults()
}

// Validate checks the whole configuration, combining struct-tag validation
// with each section's own checks.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Facebook.Validate(); err != nil {
		return err
	}
	if err := c.Sheets.Validate(); err != nil {
		return err
	}
	return nil
}
