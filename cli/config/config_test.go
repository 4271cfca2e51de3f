package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validYAML = `
exchange:
  inbox_dir: /data/in
  processed_dir: /data/processed
  error_dir: /data/error
  output_dir: /data/out
  pending_dir: /data/pending
accounts:
  primary:
    base_url: https://api.example.com
    api_key: key1
    api_secret: secret1
  secondary:
    base_url: https://api.example.com
    api_key: key2
    api_secret: secret2
    store_id: 42
    country: CA
gateway:
  retry_attempts: 5
  retry_delay: 10s
  timeout: 1m
enrichment:
  dsn: postgres://app@db/orders
ship_from:
  account_no: "12345"
  name: Warehouse One
  city: Dayton
  state: OH
state:
  path: /data/state.json
  dedup_cap: 200
  lookback_days: 3
  page_size: 250
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shipbridge.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Exchange.InboxDir != "/data/in" || cfg.Exchange.PendingDir != "/data/pending" {
		t.Errorf("exchange = %+v", cfg.Exchange)
	}
	if cfg.Accounts.Primary.APIKey != "key1" {
		t.Errorf("primary = %+v", cfg.Accounts.Primary)
	}
	sec := cfg.Accounts.Secondary
	if sec == nil || sec.Country != "CA" || sec.StoreID == nil || *sec.StoreID != 42 {
		t.Errorf("secondary = %+v", sec)
	}
	if cfg.Gateway.RetryDelay.Duration != 10*time.Second || cfg.Gateway.Timeout.Duration != time.Minute {
		t.Errorf("gateway = %+v", cfg.Gateway)
	}
	if cfg.State.DedupCap != 200 || cfg.State.LookbackDays != 3 {
		t.Errorf("state = %+v", cfg.State)
	}
	if cfg.ShipFrom.AccountNo != "12345" {
		t.Errorf("ship_from = %+v", cfg.ShipFrom)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("SB_TEST_SECRET", "hunter2")
	yaml := strings.Replace(validYAML, "api_secret: secret1", "api_secret: ${SB_TEST_SECRET}", 1)

	cfg, err := Load(writeConfig(t, yaml))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Accounts.Primary.APISecret != "hunter2" {
		t.Errorf("api_secret = %q", cfg.Accounts.Primary.APISecret)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "exchange: [broken"))
	if err == nil || !strings.Contains(err.Error(), "invalid YAML") {
		t.Errorf("err = %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Run("missing primary credentials", func(t *testing.T) {
		yaml := strings.Replace(validYAML, "api_key: key1", "api_key: \"\"", 1)
		if _, err := Load(writeConfig(t, yaml)); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("secondary without country", func(t *testing.T) {
		yaml := strings.Replace(validYAML, "country: CA", "country: \"\"", 1)
		_, err := Load(writeConfig(t, yaml))
		if err == nil || !strings.Contains(err.Error(), "country") {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("missing pending dir", func(t *testing.T) {
		yaml := strings.Replace(validYAML, "pending_dir: /data/pending", "pending_dir: \"\"", 1)
		_, err := Load(writeConfig(t, yaml))
		if err == nil || !strings.Contains(err.Error(), "pending_dir") {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("no secondary at all is fine", func(t *testing.T) {
		yaml := validYAML
		idx := strings.Index(yaml, "  secondary:")
		end := strings.Index(yaml, "gateway:")
		yaml = yaml[:idx] + yaml[end:]
		if _, err := Load(writeConfig(t, yaml)); err != nil {
			t.Errorf("Load: %v", err)
		}
	})
}

func TestDurationUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"10s", 10 * time.Second, false},
		{"5m30s", 5*time.Minute + 30*time.Second, false},
		{"", 0, false},
		{"banana", 0, true},
	}
	for _, tt := range tests {
		var d Duration
		err := d.UnmarshalYAML(func(v any) error {
			*(v.(*string)) = tt.in
			return nil
		})
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", tt.in, err)
		}
		if d.Duration != tt.want {
			t.Errorf("%q = %v, want %v", tt.in, d.Duration, tt.want)
		}
	}
}
