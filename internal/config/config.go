package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"cantonwatch/internal/logging"
	"cantonwatch/internal/metrics"
)

// Config materialises application configuration. Loaded once at startup
// and injected into constructors; never mutated afterwards.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	FAAM      FAAMConfig      `mapstructure:"faam"`
	API       APIConfig       `mapstructure:"api"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DashboardConfig points at the rendered rewards page.
type DashboardConfig struct {
	URL            string        `mapstructure:"url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// AlertingConfig defines delivery channels and the global suppression
// toggle.
type AlertingConfig struct {
	// Suppression switches the state-change mode: notify only on
	// Normal/Triggered transitions instead of every tick.
	Suppression bool           `mapstructure:"suppression"`
	Pushover    PushoverConfig `mapstructure:"pushover"`
	Slack       SlackConfig    `mapstructure:"slack"`
}

// PushoverConfig covers the push channel.
type PushoverConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
	UserKey string `mapstructure:"user_key"`
	APIBase string `mapstructure:"api_base"`
}

// SlackConfig covers group-messaging channels and direct-message users.
type SlackConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	BotToken string   `mapstructure:"bot_token"`
	APIBase  string   `mapstructure:"api_base"`
	Channels []string `mapstructure:"channels"`
	Users    []string `mapstructure:"users"`
}

// AlertConfig is shared by every alert category.
type AlertConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Interval        time.Duration `mapstructure:"interval"`
	ExcludePush     bool          `mapstructure:"exclude_push"`
	ExcludeChannels []string      `mapstructure:"exclude_channels"`
	ExcludeUsers    []string      `mapstructure:"exclude_users"`
}

// ChangeAlertConfig extends AlertConfig for the percent-change alerts.
type ChangeAlertConfig struct {
	AlertConfig  `mapstructure:",squash"`
	ThresholdPct float64 `mapstructure:"threshold_pct"`
	Compare      string  `mapstructure:"compare"` // one-hour | 24-hour | both
}

// ComparePeriods resolves the baseline selector into ordered periods.
func (c ChangeAlertConfig) ComparePeriods() []metrics.Period {
	switch c.Compare {
	case "one-hour":
		return []metrics.Period{metrics.PeriodOneHour}
	case "24-hour":
		return []metrics.Period{metrics.PeriodTwentyFour}
	default:
		return []metrics.Period{metrics.PeriodOneHour, metrics.PeriodTwentyFour}
	}
}

// AlertsConfig groups the five core alert categories.
type AlertsConfig struct {
	Threshold     AlertConfig       `mapstructure:"threshold"`
	TrafficChange ChangeAlertConfig `mapstructure:"traffic_change"`
	GrossChange   ChangeAlertConfig `mapstructure:"gross_change"`
	MarginChange  ChangeAlertConfig `mapstructure:"margin_change"`
	StatusReport  AlertConfig       `mapstructure:"status_report"`
}

// FAAMInstanceConfig is one concentration monitor instance.
type FAAMInstanceConfig struct {
	ID              string        `mapstructure:"id"`
	Name            string        `mapstructure:"name"`
	Rules           string        `mapstructure:"rules"` // "2:50,3:60"
	WindowHours     int           `mapstructure:"window_hours"`
	Interval        time.Duration `mapstructure:"interval"`
	ExcludePush     bool          `mapstructure:"exclude_push"`
	ExcludeChannels []string      `mapstructure:"exclude_channels"`
	ExcludeUsers    []string      `mapstructure:"exclude_users"`
}

// FAAMReportConfig parameterises the periodic concentration report.
type FAAMReportConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Interval    time.Duration `mapstructure:"interval"`
	WindowHours int           `mapstructure:"window_hours"`
	ShowTop     []int         `mapstructure:"show_top"`
	Breakdown   int           `mapstructure:"breakdown"`
}

// FAAMConfig covers the provider-statistics API and its alerts.
type FAAMConfig struct {
	APIURL         string               `mapstructure:"api_url"`
	APIKey         string               `mapstructure:"api_key"`
	RequestTimeout time.Duration        `mapstructure:"request_timeout"`
	Instances      []FAAMInstanceConfig `mapstructure:"instances"`
	Report         FAAMReportConfig     `mapstructure:"report"`
}

// APIConfig controls the read-only query surface.
type APIConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CANTONWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "cantonwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("dashboard.url", "https://canton-rewards.noves.fi/")
	v.SetDefault("dashboard.request_timeout", "30s")
	v.SetDefault("dashboard.user_agent", "cantonwatch/1.0")

	v.SetDefault("alerting.suppression", true)
	v.SetDefault("alerting.pushover.enabled", false)
	v.SetDefault("alerting.pushover.api_base", "https://api.pushover.net")
	v.SetDefault("alerting.slack.enabled", false)
	v.SetDefault("alerting.slack.api_base", "https://slack.com")

	v.SetDefault("alerts.threshold.enabled", true)
	v.SetDefault("alerts.threshold.interval", "10m")
	v.SetDefault("alerts.status_report.enabled", false)
	v.SetDefault("alerts.status_report.interval", "1h")

	for _, name := range []string{"traffic_change", "gross_change", "margin_change"} {
		v.SetDefault("alerts."+name+".enabled", false)
		v.SetDefault("alerts."+name+".interval", "10m")
		v.SetDefault("alerts."+name+".threshold_pct", 20.0)
		v.SetDefault("alerts."+name+".compare", "both")
	}

	v.SetDefault("faam.request_timeout", "15s")
	v.SetDefault("faam.report.enabled", false)
	v.SetDefault("faam.report.interval", "1h")
	v.SetDefault("faam.report.window_hours", 1)
	v.SetDefault("faam.report.show_top", []int{5, 10, 20})
	v.SetDefault("faam.report.breakdown", 5)

	v.SetDefault("api.enabled", false)
	v.SetDefault("api.listen_addr", ":8787")

	v.SetDefault("export.max_data_points", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Dashboard.URL == "" {
		return fmt.Errorf("dashboard.url must be configured")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}

	if c.Alerting.Pushover.Enabled {
		if c.Alerting.Pushover.Token == "" {
			return fmt.Errorf("alerting.pushover.token must be configured")
		}
		if c.Alerting.Pushover.UserKey == "" {
			return fmt.Errorf("alerting.pushover.user_key must be configured")
		}
	}
	if c.Alerting.Slack.Enabled && c.Alerting.Slack.BotToken == "" {
		return fmt.Errorf("alerting.slack.bot_token must be configured")
	}

	if c.Alerts.Threshold.Enabled && c.Alerts.Threshold.Interval <= 0 {
		return fmt.Errorf("alerts.threshold.interval must be greater than zero")
	}
	if c.Alerts.StatusReport.Enabled && c.Alerts.StatusReport.Interval <= 0 {
		return fmt.Errorf("alerts.status_report.interval must be greater than zero")
	}

	changeAlerts := map[string]ChangeAlertConfig{
		"traffic_change": c.Alerts.TrafficChange,
		"gross_change":   c.Alerts.GrossChange,
		"margin_change":  c.Alerts.MarginChange,
	}
	for name, alert := range changeAlerts {
		if !alert.Enabled {
			continue
		}
		if alert.Interval <= 0 {
			return fmt.Errorf("alerts.%s.interval must be greater than zero", name)
		}
		if alert.ThresholdPct < 0 {
			return fmt.Errorf("alerts.%s.threshold_pct cannot be negative", name)
		}
		switch alert.Compare {
		case "one-hour", "24-hour", "both":
		default:
			return fmt.Errorf("alerts.%s.compare must be one-hour, 24-hour, or both", name)
		}
	}

	for _, instance := range c.FAAM.Instances {
		if instance.ID == "" {
			return fmt.Errorf("faam instance id must not be empty")
		}
		if instance.Rules == "" {
			return fmt.Errorf("faam instance %s: rules must be configured", instance.ID)
		}
		if instance.Interval <= 0 {
			return fmt.Errorf("faam instance %s: interval must be greater than zero", instance.ID)
		}
		if instance.WindowHours <= 0 {
			return fmt.Errorf("faam instance %s: window_hours must be greater than zero", instance.ID)
		}
	}
	if len(c.FAAM.Instances) > 0 && c.FAAM.APIURL == "" {
		return fmt.Errorf("faam.api_url must be configured when instances exist")
	}
	if c.FAAM.Report.Enabled && c.FAAM.APIURL == "" {
		return fmt.Errorf("faam.api_url must be configured when the report is enabled")
	}

	if c.API.Enabled && c.API.ListenAddr == "" {
		return fmt.Errorf("api.listen_addr must be configured")
	}

	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
