package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
)

// Show prints recent snapshots.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show snapshots")
	}
	if closeStore != nil {
		defer closeStore()
	}

	records, err := store.ListRecentSnapshots(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no snapshots found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tGross\tEst.Traffic\t1h Gross\t1h Est.Traffic\t24h Gross\t24h Est.Traffic")

	for _, rec := range records {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.Ts.UTC().Format(time.RFC3339),
			formatDecimal(rec.LatestGross, 2),
			formatDecimal(rec.LatestTraffic, 2),
			formatDecimal(rec.HourGross, 2),
			formatDecimal(rec.HourTraffic, 2),
			formatDecimal(rec.DayGross, 2),
			formatDecimal(rec.DayTraffic, 2),
		)
	}

	writer.Flush()
	return nil
}

func formatDecimal(d *decimal.Decimal, places int32) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(places)
}
