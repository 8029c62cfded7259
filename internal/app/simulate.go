package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"cantonwatch/internal/metrics"
	"cantonwatch/internal/watcher"
)

// SimulateAlert runs the threshold check and a status report against a
// synthetic snapshot, delivering through the configured channels.
func (a *App) SimulateAlert(ctx context.Context, gross, traffic decimal.Decimal) error {
	if !a.Config.Alerting.Pushover.Enabled && !a.Config.Alerting.Slack.Enabled {
		return errors.New("no alerting channel configured")
	}

	raw := fmt.Sprintf("Latest Round\nGross\n%s CC\nEst. Traffic\n%s CC\n", gross, traffic)
	snap := metrics.Parse(raw)

	router := a.newRouter()

	threshold := watcher.NewThresholdWatcher(CategoryThreshold, router, a.Logger)
	fired := threshold.Evaluate(ctx, snap, false)
	if !fired {
		a.Logger.Info().Msg("simulated snapshot did not breach the threshold")
	}

	report := watcher.NewStatusReporter(CategoryStatusReport, router, a.Logger)
	report.Report(ctx, snap)

	return nil
}
