package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cantonwatch/internal/alerting"
)

// NotifyTest broadcasts a test message to every configured target and
// prints the per-target outcome.
func (a *App) NotifyTest(ctx context.Context) error {
	if !a.Config.Alerting.Pushover.Enabled && !a.Config.Alerting.Slack.Enabled {
		return errors.New("no alerting channel configured")
	}

	router := a.newRouter()
	deliveries := router.Notify(ctx,
		"Canton Monitor Test",
		"Your Canton Rewards monitor is set up and working!",
		alerting.PriorityNormal,
		"notify_test",
	)

	failed := 0
	for _, d := range deliveries {
		if d.Err != nil {
			failed++
			fmt.Fprintf(os.Stdout, "%s: FAILED (%v)\n", d.Target, d.Err)
			continue
		}
		fmt.Fprintf(os.Stdout, "%s: ok\n", d.Target)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d deliveries failed", failed, len(deliveries))
	}
	fmt.Fprintf(os.Stdout, "all %d deliveries succeeded\n", len(deliveries))
	return nil
}
