package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"cantonwatch/internal/metrics"
)

// SnapshotRecord is one persisted fetch cycle: both quantities for all
// three periods, any of which may be null when the source text lacked
// the label.
type SnapshotRecord struct {
	Ts            time.Time
	LatestGross   *decimal.Decimal
	LatestTraffic *decimal.Decimal
	HourGross     *decimal.Decimal
	HourTraffic   *decimal.Decimal
	DayGross      *decimal.Decimal
	DayTraffic    *decimal.Decimal
	CreatedAt     time.Time
}

// FromSnapshot flattens a parsed snapshot into a record.
func FromSnapshot(ts time.Time, snap metrics.Snapshot) SnapshotRecord {
	latest := snap[metrics.PeriodLatestRound]
	hour := snap[metrics.PeriodOneHour]
	day := snap[metrics.PeriodTwentyFour]
	return SnapshotRecord{
		Ts:            ts,
		LatestGross:   latest.Gross,
		LatestTraffic: latest.Traffic,
		HourGross:     hour.Gross,
		HourTraffic:   hour.Traffic,
		DayGross:      day.Gross,
		DayTraffic:    day.Traffic,
	}
}

// Snapshot rebuilds the per-period mapping from a record.
func (r SnapshotRecord) Snapshot() metrics.Snapshot {
	return metrics.Snapshot{
		metrics.PeriodLatestRound: {Gross: r.LatestGross, Traffic: r.LatestTraffic},
		metrics.PeriodOneHour:     {Gross: r.HourGross, Traffic: r.HourTraffic},
		metrics.PeriodTwentyFour:  {Gross: r.DayGross, Traffic: r.DayTraffic},
	}
}

// AlertStateRecord is the persisted suppression state for one alert.
type AlertStateRecord struct {
	AlertID   string
	State     string
	UpdatedAt time.Time
}

// APIKeyRecord is one pre-generated key for the read-only query surface.
type APIKeyRecord struct {
	Key       string
	Label     string
	CreatedAt time.Time
}
