// Package faam monitors featured-app activity-marker concentration:
// how much of the network total the top providers account for.
package faam

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider is one entry of the provider leaderboard, ordered by share.
type Provider struct {
	Name           string          `json:"provider"`
	PercentOfTotal decimal.Decimal `json:"percent_of_total"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// TimeWindow is the reporting window of a stats payload.
type TimeWindow struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Stats is one snapshot of provider statistics.
type Stats struct {
	Providers    []Provider      `json:"providers"`
	NetworkTotal decimal.Decimal `json:"network_total"`
	TimeWindow   TimeWindow      `json:"time_window"`
}

// StatsFetcher retrieves provider statistics for a time window.
type StatsFetcher interface {
	FetchStats(ctx context.Context, windowHours int) (Stats, error)
}
