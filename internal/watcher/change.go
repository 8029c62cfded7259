package watcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cantonwatch/internal/alerting"
	"cantonwatch/internal/metrics"
)

// Extractor pulls the watched quantity out of one period's values, or
// nil when the period lacks the data for it.
type Extractor func(metrics.PeriodValues) *decimal.Decimal

// TrafficExtractor reads the traffic estimate.
func TrafficExtractor(v metrics.PeriodValues) *decimal.Decimal { return v.Traffic }

// GrossExtractor reads the gross value.
func GrossExtractor(v metrics.PeriodValues) *decimal.Decimal { return v.Gross }

// MarginExtractor reads gross minus traffic estimate.
func MarginExtractor(v metrics.PeriodValues) *decimal.Decimal { return v.Margin() }

// ChangeConfig parameterises one percent-change alert. The same
// algorithm is instantiated for the traffic, gross, and margin alerts;
// only these axes differ.
type ChangeConfig struct {
	StateKey     string
	Category     string
	Quantity     string // human label, e.g. "Est. Traffic"
	ThresholdPct decimal.Decimal
	// Periods are the comparison windows, in configured order. The
	// first one with data also decides the spike/drop wording.
	Periods  []metrics.Period
	Suppress bool
}

// ChangeWatcher detects percent deviations of the latest round against
// the configured baseline periods.
type ChangeWatcher struct {
	cfg      ChangeConfig
	extract  Extractor
	store    StateStore
	notifier Notifier
	logger   zerolog.Logger
}

// NewChangeWatcher constructs a percent-change watcher.
func NewChangeWatcher(cfg ChangeConfig, extract Extractor, store StateStore, notifier Notifier, logger zerolog.Logger) *ChangeWatcher {
	return &ChangeWatcher{
		cfg:      cfg,
		extract:  extract,
		store:    store,
		notifier: notifier,
		logger:   logger.With().Str("component", "change_watcher").Str("alert", cfg.StateKey).Logger(),
	}
}

type comparison struct {
	period   metrics.Period
	baseline decimal.Decimal
	pct      decimal.Decimal
	breach   bool
}

// Evaluate runs one tick of the alert and reports whether a breach
// notification fired.
func (w *ChangeWatcher) Evaluate(ctx context.Context, snap metrics.Snapshot) bool {
	latest := w.extract(snap[metrics.PeriodLatestRound])
	if latest == nil {
		w.logger.Info().Msg("latest round value missing; skipping evaluation")
		return false
	}

	comparisons := make([]comparison, 0, len(w.cfg.Periods))
	for _, period := range w.cfg.Periods {
		baseline := w.extract(snap[period])
		if baseline == nil {
			continue
		}
		pct := metrics.PercentChange(*latest, *baseline)
		comparisons = append(comparisons, comparison{
			period:   period,
			baseline: *baseline,
			pct:      pct,
			breach:   pct.Abs().GreaterThanOrEqual(w.cfg.ThresholdPct),
		})
	}

	next := StateNormal
	for _, c := range comparisons {
		if c.breach {
			next = StateTriggered
			break
		}
	}

	last := w.lastState(ctx)
	decision := Decide(last, next, w.cfg.Suppress)

	if decision.Notify {
		if decision.Returned {
			title := fmt.Sprintf("Canton: %s back to benchmark", w.cfg.Quantity)
			message := fmt.Sprintf("%s is within %s%% of all monitored averages again.",
				w.cfg.Quantity, w.cfg.ThresholdPct.String())
			w.notifier.Notify(ctx, title, message, alerting.PriorityNormal, w.cfg.Category)
		} else {
			title, message := w.renderBreach(*latest, comparisons)
			w.notifier.Notify(ctx, title, message, alerting.PriorityHigh, w.cfg.Category)
		}
	}

	if decision.Persist {
		w.persist(ctx, next)
	}

	return decision.Notify && !decision.Returned
}

func (w *ChangeWatcher) lastState(ctx context.Context) State {
	if w.store == nil {
		return StateNormal
	}
	raw, err := w.store.GetAlertState(ctx, w.cfg.StateKey)
	if err != nil {
		w.logger.Warn().Err(err).Msg("state read failed; assuming normal")
		return StateNormal
	}
	if raw == string(StateTriggered) {
		return StateTriggered
	}
	return StateNormal
}

func (w *ChangeWatcher) persist(ctx context.Context, state State) {
	if w.store == nil {
		return
	}
	if err := w.store.SetAlertState(ctx, w.cfg.StateKey, string(state)); err != nil {
		w.logger.Warn().Err(err).Str("state", string(state)).Msg("state write failed")
	}
}

// renderBreach builds the high-priority breach message. The spike/drop
// wording compares latest against the first configured period that has
// data, not against the period with the largest deviation.
func (w *ChangeWatcher) renderBreach(latest decimal.Decimal, comparisons []comparison) (string, string) {
	direction := "spike"
	if len(comparisons) > 0 && latest.LessThan(comparisons[0].baseline) {
		direction = "drop"
	}

	title := fmt.Sprintf("Canton: %s %s", w.cfg.Quantity, direction)

	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("%s latest round: %s CC (threshold %s%%)\n",
		w.cfg.Quantity, latest.StringFixed(2), w.cfg.ThresholdPct.String()))
	for _, c := range comparisons {
		sign := ""
		if c.pct.Sign() >= 0 {
			sign = "+"
		}
		line := fmt.Sprintf("%s: %s%s%% vs %s CC", c.period, sign, c.pct.StringFixed(2), c.baseline.StringFixed(2))
		if c.breach {
			line += "  [BREACH]"
		}
		builder.WriteString(line)
		builder.WriteString("\n")
	}

	return title, strings.TrimRight(builder.String(), "\n")
}
