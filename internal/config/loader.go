package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration for the service: an optional config.yml found
// in standard locations, an optional .env file, then environment
// variables. Returns a fully defaulted and validated Config.
func Load(serviceName string) (*Config, error) {
	v := viper.New()

	if path := findConfigFile(serviceName); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if path := findEnvFile(); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", path, err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides maps the evidenced deployment environment variables
// onto the config. These are read once at start and take precedence over
// file values.
func applyEnvOverrides(cfg *Config) error {
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("PORT must be an integer (got: %s)", port)
		}
		cfg.Server.Port = p
	}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		cfg.Credentials.PasskeysFile = path
	}
	if path := os.Getenv("SERVICE_ACCOUNT_FILE"); path != "" {
		cfg.Credentials.ServiceAccountFile = path
	}
	if id := os.Getenv("SPREADSHEET_ID"); id != "" {
		cfg.Sheets.SpreadsheetID = id
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}
	return nil
}

// findConfigFile searches for config.yml in standard locations.
func findConfigFile(serviceName string) string {
	searchPaths := []string{
		fmt.Sprintf("./cmd/%s/config.yml", serviceName),
		fmt.Sprintf("../cmd/%s/config.yml", serviceName),
		"./config/config.yml",
		"./config.yml",
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// findEnvFile searches for a .env file next to the process.
func findEnvFile() string {
	for _, path := range []string{"./.env", "../.env"} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
