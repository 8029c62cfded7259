package watcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"cantonwatch/internal/alerting"
	"cantonwatch/internal/metrics"
)

// thresholdPeriods are the only windows the breach check considers; the
// 24-hour average is intentionally excluded.
var thresholdPeriods = []metrics.Period{metrics.PeriodLatestRound, metrics.PeriodOneHour}

// ThresholdWatcher checks Est. Traffic > Gross for the latest round and
// the 1-hour average. It keeps no state and applies no suppression; the
// only special case is a one-time "all normal" message on startup.
type ThresholdWatcher struct {
	category string
	notifier Notifier
	logger   zerolog.Logger
}

// NewThresholdWatcher constructs the breach check.
func NewThresholdWatcher(category string, notifier Notifier, logger zerolog.Logger) *ThresholdWatcher {
	return &ThresholdWatcher{
		category: category,
		notifier: notifier,
		logger:   logger.With().Str("component", "threshold_watcher").Logger(),
	}
}

// Evaluate runs one tick and reports whether a breach alert fired.
func (w *ThresholdWatcher) Evaluate(ctx context.Context, snap metrics.Snapshot, startup bool) bool {
	var breaches []string
	var passing []string

	for _, period := range thresholdPeriods {
		values := snap[period]
		if !values.Complete() {
			passing = append(passing, fmt.Sprintf("%s: incomplete data", period))
			continue
		}
		if values.Traffic.GreaterThan(*values.Gross) {
			gap := values.Traffic.Sub(*values.Gross)
			breaches = append(breaches, fmt.Sprintf("%s: Est.Traffic (%s) > Gross (%s) by %s CC",
				period, values.Traffic.StringFixed(2), values.Gross.StringFixed(2), gap.StringFixed(2)))
		} else {
			passing = append(passing, fmt.Sprintf("%s: Gross %s CC >= Est.Traffic %s CC",
				period, values.Gross.StringFixed(2), values.Traffic.StringFixed(2)))
		}
	}

	if len(breaches) > 0 {
		message := strings.Join(breaches, "\n")
		w.logger.Warn().Str("alert", message).Msg("traffic exceeds gross")
		w.notifier.Notify(ctx, "Canton: Est.Traffic > Gross!", message, alerting.PriorityHigh, w.category)
		return true
	}

	if startup {
		message := "All periods normal:\n" + strings.Join(passing, "\n")
		w.notifier.Notify(ctx, "Canton monitor started", message, alerting.PriorityNormal, w.category)
	}

	return false
}
