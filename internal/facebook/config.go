package facebook

import (
	"fmt"
	"time"
)

const (
	defaultBaseURL    = "https://graph.facebook.com"
	defaultAPIVersion = "v17.0"
	defaultPageLimit  = 5000
	defaultMaxRetries = 3
	defaultCutoffDate = "2024-09-01"
)

// Config configures the Graph API client.
type Config struct {
	// BaseURL is the Graph API host. Overridable for tests.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// APIVersion is the Graph API version segment, e.g. "v17.0".
	APIVersion string `yaml:"api_version" mapstructure:"api_version"`

	// PageLimit is the per-page row limit for insights queries.
	PageLimit int `yaml:"page_limit" mapstructure:"page_limit" validate:"gte=0"`

	// MaxRetries is the attempt budget for transient Graph API failures.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0"`

	// CutoffDate excludes ads created before this date (YYYY-MM-DD).
	CutoffDate string `yaml:"cutoff_date" mapstructure:"cutoff_date"`

	// Timeout is the per-request timeout.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.APIVersion == "" {
		c.APIVersion = defaultAPIVersion
	}
	if c.PageLimit == 0 {
		c.PageLimit = defaultPageLimit
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.CutoffDate == "" {
		c.CutoffDate = defaultCutoffDate
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.PageLimit < 0 {
		return fmt.Errorf("facebook.page_limit must be non-negative (got: %d)", c.PageLimit)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("facebook.max_retries must be non-negative (got: %d)", c.MaxRetries)
	}
	if c.CutoffDate != "" {
		if _, err := time.Parse("2006-01-02", c.CutoffDate); err != nil {
			return fmt.Errorf("facebook.cutoff_date must be YYYY-MM-DD (got: %s)", c.CutoffDate)
		}
	}
	return nil
}

// Cutoff returns the parsed cutoff date.
func (c *Config) Cutoff() time.Time {
	t, err := time.Parse("2006-01-02", c.CutoffDate)
	if err != nil {
		t, _ = time.Parse("2006-01-02", defaultCutoffDate)
	}
	return t
}
