package config

import (
	"fmt"
	"time"
)

// Config represents a shipbridge.yaml configuration file. CLI flags always
// override config values.
type Config struct {
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Accounts   AccountsConfig   `yaml:"accounts"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	ShipFrom   ShipFromConfig   `yaml:"ship_from"`
	State      StateConfig      `yaml:"state"`
}

// ExchangeConfig holds the exchange folder layout.
type ExchangeConfig struct {
	InboxDir     string `yaml:"inbox_dir"`
	ProcessedDir string `yaml:"processed_dir"`
	ErrorDir     string `yaml:"error_dir"`
	OutputDir    string `yaml:"output_dir"`
	PendingDir   string `yaml:"pending_dir"`
}

// AccountsConfig holds the destination accounts. Primary is required;
// secondary is optional and claims shipments matching its country.
type AccountsConfig struct {
	Primary   AccountConfig  `yaml:"primary"`
	Secondary *AccountConfig `yaml:"secondary,omitempty"`
}

// AccountConfig is one destination account's credentials and routing.
type AccountConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	StoreID   *int   `yaml:"store_id,omitempty"`
	// Country routes shipments with this ship-to country to the account.
	// Only meaningful on the secondary account.
	Country string `yaml:"country,omitempty"`
}

// GatewayConfig holds the retry policy shared by all accounts.
type GatewayConfig struct {
	RetryAttempts int      `yaml:"retry_attempts"`
	RetryDelay    Duration `yaml:"retry_delay"`
	Timeout       Duration `yaml:"timeout"`
}

// EnrichmentConfig holds the optional order-lines source. An empty DSN
// disables enrichment.
type EnrichmentConfig struct {
	DSN string `yaml:"dsn"`
}

// ShipFromConfig is the warehouse origin block echoed into confirmation
// output.
type ShipFromConfig struct {
	AccountNo string `yaml:"account_no"`
	Name      string `yaml:"name"`
	Addr1     string `yaml:"addr1"`
	Addr2     string `yaml:"addr2"`
	Addr3     string `yaml:"addr3"`
	Addr4     string `yaml:"addr4"`
	City      string `yaml:"city"`
	State     string `yaml:"state"`
	Zip       string `yaml:"zip"`
	Country   string `yaml:"country"`
	Contact   string `yaml:"contact"`
	Phone     string `yaml:"phone"`
}

// StateConfig holds the inbound run-state knobs.
type StateConfig struct {
	// Path is the run-state file; defaults to <pending_dir>/../state.json
	// when empty.
	Path string `yaml:"path"`
	// DedupCap bounds the reconciled-ID set (default 500).
	DedupCap int `yaml:"dedup_cap"`
	// LookbackDays is the first-run poll window (default 7).
	LookbackDays int `yaml:"lookback_days"`
	// PageSize is the shipment poll page size (default 100, remote max 500).
	PageSize int `yaml:"page_size"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Validate checks the fields every command needs. Commands with extra
// requirements (e.g. outbound needing the inbox) validate those themselves.
func (c *Config) Validate() error {
	if c.Accounts.Primary.BaseURL == "" {
		return fmt.Errorf("accounts.primary.base_url is required")
	}
	if c.Accounts.Primary.APIKey == "" || c.Accounts.Primary.APISecret == "" {
		return fmt.Errorf("accounts.primary.api_key and api_secret are required")
	}
	if s := c.Accounts.Secondary; s != nil {
		if s.BaseURL == "" {
			return fmt.Errorf("accounts.secondary.base_url is required when a secondary account is configured")
		}
		if s.APIKey == "" || s.APISecret == "" {
			return fmt.Errorf("accounts.secondary.api_key and api_secret are required when a secondary account is configured")
		}
		if s.Country == "" {
			return fmt.Errorf("accounts.secondary.country is required: without it no shipment would ever route to the secondary account")
		}
	}
	if c.Exchange.PendingDir == "" {
		return fmt.Errorf("exchange.pending_dir is required")
	}
	return nil
}
