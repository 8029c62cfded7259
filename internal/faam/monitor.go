package faam

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"cantonwatch/internal/alerting"
	"cantonwatch/internal/watcher"
)

// InstanceConfig describes one concentration monitor instance.
type InstanceConfig struct {
	ID          string
	Name        string
	Rules       []Rule
	WindowHours int
	Suppress    bool
}

// Monitor checks provider concentration against one instance's rules
// and applies the same suppression state machine as the metric alerts.
type Monitor struct {
	cfg      InstanceConfig
	fetcher  StatsFetcher
	store    watcher.StateStore
	notifier watcher.Notifier
	logger   zerolog.Logger
}

// NewMonitor constructs a concentration monitor.
func NewMonitor(cfg InstanceConfig, fetcher StatsFetcher, store watcher.StateStore, notifier watcher.Notifier, logger zerolog.Logger) *Monitor {
	return &Monitor{
		cfg:      cfg,
		fetcher:  fetcher,
		store:    store,
		notifier: notifier,
		logger:   logger.With().Str("component", "faam_monitor").Str("instance", cfg.ID).Logger(),
	}
}

// Category returns the routing category for this instance.
func (m *Monitor) Category() string {
	return "concentration_" + m.cfg.ID
}

func (m *Monitor) stateKey() string {
	return "concentration_" + m.cfg.ID
}

// Evaluate fetches stats, checks every rule, and notifies according to
// the suppression policy. Returns whether a breach notification fired.
func (m *Monitor) Evaluate(ctx context.Context) (bool, error) {
	stats, err := m.fetcher.FetchStats(ctx, m.cfg.WindowHours)
	if err != nil {
		return false, fmt.Errorf("instance %s: %w", m.cfg.ID, err)
	}

	results := CheckRules(stats, m.cfg.Rules)
	next := watcher.StateNormal
	if AnyTriggered(results) {
		next = watcher.StateTriggered
	}

	last := m.lastState(ctx)
	decision := watcher.Decide(last, next, m.cfg.Suppress)

	if decision.Notify {
		if decision.Returned {
			m.notifier.Notify(ctx, fmt.Sprintf("FAAM: %s back below thresholds", m.cfg.Name),
				"Provider concentration is back below every configured threshold.",
				alerting.PriorityNormal, m.Category())
		} else {
			message := FormatAlert(m.cfg.Name, results, m.cfg.WindowHours)
			m.notifier.Notify(ctx, "FAAM Concentration Alert", message, alerting.PriorityHigh, m.Category())
		}
	}

	if decision.Persist {
		if m.store != nil {
			if err := m.store.SetAlertState(ctx, m.stateKey(), string(next)); err != nil {
				m.logger.Warn().Err(err).Msg("state write failed")
			}
		}
	}

	return decision.Notify && !decision.Returned, nil
}

func (m *Monitor) lastState(ctx context.Context) watcher.State {
	if m.store == nil {
		return watcher.StateNormal
	}
	raw, err := m.store.GetAlertState(ctx, m.stateKey())
	if err != nil {
		m.logger.Warn().Err(err).Msg("state read failed; assuming normal")
		return watcher.StateNormal
	}
	if raw == string(watcher.StateTriggered) {
		return watcher.StateTriggered
	}
	return watcher.StateNormal
}

// FormatAlert renders every rule with a triggered/ok marker plus the
// providers the breaching concentrations cover.
func FormatAlert(name string, results []RuleResult, windowHours int) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("%s (%dh window)\n", name, windowHours))

	for _, r := range results {
		marker := "✓"
		if r.Triggered {
			marker = "⚠️"
		}
		builder.WriteString(fmt.Sprintf("%s Top %d: %s%% (threshold %s%%)\n",
			marker, r.Rule.TopX, r.Concentration.StringFixed(2), r.Rule.ThresholdPct.String()))
	}

	seen := map[string]bool{}
	for _, r := range results {
		if !r.Triggered {
			continue
		}
		for _, p := range r.Providers {
			if seen[p.Name] {
				continue
			}
			seen[p.Name] = true
			builder.WriteString(fmt.Sprintf("  %s: %s%%\n", p.Name, p.PercentOfTotal.StringFixed(2)))
		}
	}

	return strings.TrimRight(builder.String(), "\n")
}
