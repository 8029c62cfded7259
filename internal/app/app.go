package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cantonwatch/internal/alerting"
	"cantonwatch/internal/api"
	"cantonwatch/internal/config"
	"cantonwatch/internal/faam"
	"cantonwatch/internal/fetcher"
	"cantonwatch/internal/metrics"
	"cantonwatch/internal/service"
	"cantonwatch/internal/storage"
	"cantonwatch/internal/watcher"
)

// Alert category identifiers. Notification routes, alert state rows, and
// scheduler job names all key off these.
const (
	CategoryThreshold     = "threshold"
	CategoryTrafficChange = "traffic_change"
	CategoryGrossChange   = "gross_change"
	CategoryMarginChange  = "margin_change"
	CategoryStatusReport  = "status_report"
	CategoryFAAMReport    = "faam_report"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetcher() fetcher.PageFetcher {
	return fetcher.NewDashboard(fetcher.DashboardOptions{
		URL:       a.Config.Dashboard.URL,
		Timeout:   a.Config.Dashboard.RequestTimeout,
		UserAgent: a.Config.Dashboard.UserAgent,
	}, a.Logger)
}

func (a *App) newRouter() *alerting.Router {
	var push alerting.PushSender
	if p := a.Config.Alerting.Pushover; p.Enabled {
		push = alerting.NewPushoverClient(p.Token, p.UserKey, p.APIBase, 10*time.Second, a.Logger)
	}

	var chat alerting.ChatSender
	if s := a.Config.Alerting.Slack; s.Enabled {
		chat = alerting.NewSlackClient(s.BotToken, s.APIBase, 10*time.Second, a.Logger)
	}

	routes := map[string]alerting.RouteConfig{
		CategoryThreshold:     routeFor(a.Config.Alerts.Threshold),
		CategoryTrafficChange: routeFor(a.Config.Alerts.TrafficChange.AlertConfig),
		CategoryGrossChange:   routeFor(a.Config.Alerts.GrossChange.AlertConfig),
		CategoryMarginChange:  routeFor(a.Config.Alerts.MarginChange.AlertConfig),
		CategoryStatusReport:  routeFor(a.Config.Alerts.StatusReport),
	}
	for _, instance := range a.Config.FAAM.Instances {
		routes["concentration_"+instance.ID] = alerting.NewRouteConfig(
			instance.ExcludePush, instance.ExcludeChannels, instance.ExcludeUsers)
	}

	slack := a.Config.Alerting.Slack
	return alerting.NewRouter(push, chat, slack.Channels, slack.Users, routes, a.Logger)
}

func routeFor(cfg config.AlertConfig) alerting.RouteConfig {
	return alerting.NewRouteConfig(cfg.ExcludePush, cfg.ExcludeChannels, cfg.ExcludeUsers)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, storage.PoolConfig{
		DSN:             a.Config.Database.DSN,
		MaxOpenConns:    a.Config.Database.MaxOpenConns,
		MaxIdleConns:    a.Config.Database.MaxIdleConns,
		ConnMaxLifetime: a.Config.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running monitoring service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	var snapshots storage.SnapshotStore
	var states watcher.StateStore
	var keys storage.APIKeyStore
	if store != nil {
		snapshots = store
		states = store
		keys = store
	}

	pageFetcher := a.newFetcher()
	router := a.newRouter()

	svc := service.New(pageFetcher, snapshots, a.Logger)
	a.registerMetricAlerts(svc, states, router)
	if err := a.registerFAAMAlerts(svc, states, router); err != nil {
		return err
	}

	if a.Config.API.Enabled {
		handler := api.New(pageFetcher, snapshots, keys, a.Logger)
		go func() {
			if err := handler.Serve(ctx, a.Config.API.ListenAddr); err != nil {
				a.Logger.Error().Err(err).Msg("api server terminated with error")
			}
		}()
	}

	a.Logger.Info().Msg("starting monitoring service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}

func (a *App) registerMetricAlerts(svc *service.Service, states watcher.StateStore, router *alerting.Router) {
	if cfg := a.Config.Alerts.Threshold; cfg.Enabled {
		w := watcher.NewThresholdWatcher(CategoryThreshold, router, a.Logger)
		svc.AddPageJob(service.PageJob{
			Name:     CategoryThreshold,
			Interval: cfg.Interval,
			Run: func(ctx context.Context, snap metrics.Snapshot, startup bool) {
				w.Evaluate(ctx, snap, startup)
			},
		})
	}

	changeAlerts := []struct {
		category string
		quantity string
		extract  watcher.Extractor
		cfg      config.ChangeAlertConfig
	}{
		{CategoryTrafficChange, "Est. Traffic", watcher.TrafficExtractor, a.Config.Alerts.TrafficChange},
		{CategoryGrossChange, "Gross", watcher.GrossExtractor, a.Config.Alerts.GrossChange},
		{CategoryMarginChange, "Margin", watcher.MarginExtractor, a.Config.Alerts.MarginChange},
	}
	for _, alert := range changeAlerts {
		if !alert.cfg.Enabled {
			continue
		}
		w := watcher.NewChangeWatcher(watcher.ChangeConfig{
			StateKey:     alert.category,
			Category:     alert.category,
			Quantity:     alert.quantity,
			ThresholdPct: decimal.NewFromFloat(alert.cfg.ThresholdPct),
			Periods:      alert.cfg.ComparePeriods(),
			Suppress:     a.Config.Alerting.Suppression,
		}, alert.extract, states, router, a.Logger)
		svc.AddPageJob(service.PageJob{
			Name:     alert.category,
			Interval: alert.cfg.Interval,
			Run: func(ctx context.Context, snap metrics.Snapshot, startup bool) {
				w.Evaluate(ctx, snap)
			},
		})
	}

	if cfg := a.Config.Alerts.StatusReport; cfg.Enabled {
		r := watcher.NewStatusReporter(CategoryStatusReport, router, a.Logger)
		svc.AddPageJob(service.PageJob{
			Name:     CategoryStatusReport,
			Interval: cfg.Interval,
			Run: func(ctx context.Context, snap metrics.Snapshot, startup bool) {
				r.Report(ctx, snap)
			},
		})
	}
}

func (a *App) registerFAAMAlerts(svc *service.Service, states watcher.StateStore, router *alerting.Router) error {
	if len(a.Config.FAAM.Instances) == 0 && !a.Config.FAAM.Report.Enabled {
		return nil
	}

	client := faam.NewClient(faam.ClientOptions{
		BaseURL: a.Config.FAAM.APIURL,
		APIKey:  a.Config.FAAM.APIKey,
		Timeout: a.Config.FAAM.RequestTimeout,
	}, a.Logger)

	for _, instance := range a.Config.FAAM.Instances {
		rules, err := faam.ParseRules(instance.Rules)
		if err != nil {
			return fmt.Errorf("faam instance %s: %w", instance.ID, err)
		}
		monitor := faam.NewMonitor(faam.InstanceConfig{
			ID:          instance.ID,
			Name:        instance.Name,
			Rules:       rules,
			WindowHours: instance.WindowHours,
			Suppress:    a.Config.Alerting.Suppression,
		}, client, states, router, a.Logger)
		svc.AddSideJob(service.SideJob{
			Name:     monitor.Category(),
			Interval: instance.Interval,
			Run: func(ctx context.Context) error {
				_, err := monitor.Evaluate(ctx)
				return err
			},
		})
	}

	if cfg := a.Config.FAAM.Report; cfg.Enabled {
		reporter := faam.NewReporter(faam.ReportConfig{
			WindowHours: cfg.WindowHours,
			ShowTop:     cfg.ShowTop,
			Breakdown:   cfg.Breakdown,
		}, client, router, a.Logger)
		svc.AddSideJob(service.SideJob{
			Name:     CategoryFAAMReport,
			Interval: cfg.Interval,
			Run:      reporter.Report,
		})
	}

	return nil
}

// ExportOptions hold parameters for exporting historical snapshots.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// KeygenOptions configure API key creation.
type KeygenOptions struct {
	Label string
}
