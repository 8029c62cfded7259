package watcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"cantonwatch/internal/alerting"
	"cantonwatch/internal/metrics"
)

// StatusReporter sends a periodic overview of all three periods. It has
// no state and no suppression: it fires every time it is invoked, unless
// no period has a complete gross/traffic pair.
type StatusReporter struct {
	category string
	notifier Notifier
	logger   zerolog.Logger
}

// NewStatusReporter constructs a status reporter.
func NewStatusReporter(category string, notifier Notifier, logger zerolog.Logger) *StatusReporter {
	return &StatusReporter{
		category: category,
		notifier: notifier,
		logger:   logger.With().Str("component", "status_reporter").Logger(),
	}
}

// Report builds and sends the status message.
func (r *StatusReporter) Report(ctx context.Context, snap metrics.Snapshot) {
	var blocks []string

	for _, period := range metrics.Periods {
		values := snap[period]
		if !values.Complete() {
			continue
		}

		margin := values.Margin()
		marker := "✓"
		if values.Traffic.GreaterThan(*values.Gross) {
			marker = "⚠️"
		}

		blocks = append(blocks, fmt.Sprintf("%s %s\nGross: %s CC\nEst.Traffic: %s CC\nMargin: %s CC",
			marker, period, values.Gross.StringFixed(2), values.Traffic.StringFixed(2), margin.StringFixed(2)))
	}

	if len(blocks) == 0 {
		r.logger.Info().Msg("no complete period data; skipping status report")
		return
	}

	r.notifier.Notify(ctx, "Canton Status Report", strings.Join(blocks, "\n\n"), alerting.PriorityNormal, r.category)
}
