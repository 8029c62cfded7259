package faam

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cantonwatch/internal/alerting"
	"cantonwatch/internal/watcher"
)

// ReportConfig parameterises the periodic concentration report.
type ReportConfig struct {
	WindowHours int
	ShowTop     []int
	Breakdown   int
}

// Reporter sends the periodic FAAM concentration overview. Like the
// metric status report it is stateless and unsuppressed.
type Reporter struct {
	cfg      ReportConfig
	fetcher  StatsFetcher
	notifier watcher.Notifier
	logger   zerolog.Logger
}

// NewReporter constructs a concentration reporter.
func NewReporter(cfg ReportConfig, fetcher StatsFetcher, notifier watcher.Notifier, logger zerolog.Logger) *Reporter {
	if len(cfg.ShowTop) == 0 {
		cfg.ShowTop = []int{5, 10, 20}
	}
	if cfg.Breakdown <= 0 {
		cfg.Breakdown = 5
	}
	return &Reporter{
		cfg:      cfg,
		fetcher:  fetcher,
		notifier: notifier,
		logger:   logger.With().Str("component", "faam_reporter").Logger(),
	}
}

// Report fetches stats and sends one normal-priority overview.
func (r *Reporter) Report(ctx context.Context) error {
	stats, err := r.fetcher.FetchStats(ctx, r.cfg.WindowHours)
	if err != nil {
		return err
	}

	message := FormatReport(stats, r.cfg.ShowTop, r.cfg.Breakdown, r.cfg.WindowHours)
	r.notifier.Notify(ctx, "FAAM Concentration Report", message, alerting.PriorityNormal, "faam_report")
	return nil
}

// FormatReport renders the top-X concentration summary and provider
// breakdown.
func FormatReport(stats Stats, showTop []int, breakdown, windowHours int) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("FAAM Concentration Report (%dh window)\n", windowHours))

	for _, topX := range showTop {
		if topX > len(stats.Providers) {
			builder.WriteString(fmt.Sprintf("Top %2d: N/A\n", topX))
			continue
		}
		concentration := decimal.Zero
		for _, p := range stats.Providers[:topX] {
			concentration = concentration.Add(p.PercentOfTotal)
		}
		builder.WriteString(fmt.Sprintf("Top %2d: %6.2f%%\n", topX, concentration.InexactFloat64()))
	}

	count := breakdown
	if count > len(stats.Providers) {
		count = len(stats.Providers)
	}
	if count > 0 {
		builder.WriteString(fmt.Sprintf("\nBreakdown (Top %d)\n", breakdown))
		for i, p := range stats.Providers[:count] {
			builder.WriteString(fmt.Sprintf("%2d. %s  %s%%  $%s\n",
				i+1, p.Name, p.PercentOfTotal.StringFixed(2), groupThousands(p.TotalAmount)))
		}
	}

	builder.WriteString(fmt.Sprintf("\nNetwork total: $%s", groupThousands(stats.NetworkTotal)))
	return builder.String()
}

// groupThousands renders the integer part of an amount with comma
// separators, e.g. 1245832 -> "1,245,832".
func groupThousands(d decimal.Decimal) string {
	digits := d.Round(0).BigInt().String()

	negative := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")

	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)

	out := strings.Join(groups, ",")
	if negative {
		out = "-" + out
	}
	return out
}
