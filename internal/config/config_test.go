package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"cantonwatch/internal/metrics"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: test\n"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if !cfg.Alerting.Suppression {
		t.Fatal("suppression should default to enabled")
	}
	if !cfg.Alerts.Threshold.Enabled || cfg.Alerts.Threshold.Interval != 10*time.Minute {
		t.Fatalf("threshold defaults wrong: %+v", cfg.Alerts.Threshold)
	}
	if cfg.Alerts.TrafficChange.Compare != "both" {
		t.Fatalf("compare default = %q, want both", cfg.Alerts.TrafficChange.Compare)
	}
	if cfg.Dashboard.URL == "" {
		t.Fatal("dashboard url default missing")
	}
}

func TestLoadFullFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
alerting:
  suppression: false
  pushover:
    enabled: true
    token: tok
    user_key: usr
  slack:
    enabled: true
    bot_token: xoxb
    channels: [C1, C2]
    users: [U1]
alerts:
  traffic_change:
    enabled: true
    interval: 5m
    threshold_pct: 15
    compare: one-hour
    exclude_channels: [C2]
faam:
  api_url: https://faamview.example/api/stats
  api_key: k
  instances:
    - id: "1"
      name: Mainnet
      rules: "2:50,3:60"
      window_hours: 24
      interval: 30m
      exclude_push: true
`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Alerting.Suppression {
		t.Fatal("suppression should be disabled")
	}
	tc := cfg.Alerts.TrafficChange
	if !tc.Enabled || tc.Interval != 5*time.Minute || tc.ThresholdPct != 15 {
		t.Fatalf("traffic_change = %+v", tc)
	}
	if periods := tc.ComparePeriods(); len(periods) != 1 || periods[0] != metrics.PeriodOneHour {
		t.Fatalf("ComparePeriods() = %v, want one-hour only", periods)
	}
	if len(tc.ExcludeChannels) != 1 || tc.ExcludeChannels[0] != "C2" {
		t.Fatalf("exclude_channels = %v", tc.ExcludeChannels)
	}
	if len(cfg.FAAM.Instances) != 1 || !cfg.FAAM.Instances[0].ExcludePush {
		t.Fatalf("faam instances = %+v", cfg.FAAM.Instances)
	}
}

func TestValidateRejectsBadCompare(t *testing.T) {
	_, err := Load(writeConfig(t, `
alerts:
  gross_change:
    enabled: true
    interval: 5m
    compare: weekly
`))
	if err == nil {
		t.Fatal("invalid compare selector should fail validation")
	}
}

func TestValidateRequiresPushoverCredentials(t *testing.T) {
	_, err := Load(writeConfig(t, `
alerting:
  pushover:
    enabled: true
`))
	if err == nil {
		t.Fatal("enabled pushover without credentials should fail validation")
	}
}

func TestValidateRequiresFAAMURL(t *testing.T) {
	_, err := Load(writeConfig(t, `
faam:
  instances:
    - id: "1"
      rules: "2:50"
      window_hours: 1
      interval: 10m
`))
	if err == nil {
		t.Fatal("faam instances without api_url should fail validation")
	}
}

func TestComparePeriodsBothOrder(t *testing.T) {
	c := ChangeAlertConfig{Compare: "both"}
	periods := c.ComparePeriods()
	if len(periods) != 2 || periods[0] != metrics.PeriodOneHour || periods[1] != metrics.PeriodTwentyFour {
		t.Fatalf("ComparePeriods() = %v, want 1h then 24h", periods)
	}
}
