package metrics

import (
	"github.com/shopspring/decimal"
)

// Period identifies one of the three fixed reporting windows on the
// rewards dashboard.
type Period string

const (
	PeriodLatestRound Period = "Latest Round"
	PeriodOneHour     Period = "1-Hour Average"
	PeriodTwentyFour  Period = "24-Hour Average"
)

// Periods lists all reporting windows in dashboard order.
var Periods = []Period{PeriodLatestRound, PeriodOneHour, PeriodTwentyFour}

// PeriodValues holds the two base quantities for one period. A nil field
// means the label or its CC value was absent from the source text.
type PeriodValues struct {
	Gross   *decimal.Decimal
	Traffic *decimal.Decimal
}

// Complete reports whether both quantities are present.
func (v PeriodValues) Complete() bool {
	return v.Gross != nil && v.Traffic != nil
}

// Margin returns gross minus traffic estimate, or nil when either side
// is missing.
func (v PeriodValues) Margin() *decimal.Decimal {
	if !v.Complete() {
		return nil
	}
	m := v.Gross.Sub(*v.Traffic)
	return &m
}

// Snapshot maps each period to its parsed quantities. Periods that never
// appeared in the source text are absent from the map.
type Snapshot map[Period]PeriodValues

// PercentChange computes ((latest - baseline) / |baseline|) * 100.
// A zero baseline yields zero rather than a division error.
func PercentChange(latest, baseline decimal.Decimal) decimal.Decimal {
	if baseline.IsZero() {
		return decimal.Zero
	}
	return latest.Sub(baseline).Div(baseline.Abs()).Mul(decimal.NewFromInt(100))
}
