package watcher

import (
	"context"

	"cantonwatch/internal/alerting"
)

// State is the per-alert suppression state persisted between ticks.
type State string

const (
	StateNormal    State = "normal"
	StateTriggered State = "triggered"
)

// StateStore persists per-alert state. Implemented by the storage
// package; callers treat absence ("") and errors as StateNormal.
type StateStore interface {
	GetAlertState(ctx context.Context, alertID string) (string, error)
	SetAlertState(ctx context.Context, alertID, state string) error
}

// Notifier routes one message to all configured targets for a category.
type Notifier interface {
	Notify(ctx context.Context, title, message string, priority alerting.Priority, category string) []alerting.Delivery
}

// Decision is the outcome of one suppression-policy transition.
type Decision struct {
	// Notify says whether any notification should be emitted.
	Notify bool
	// Returned marks the normal-priority "returned to benchmark" case.
	Returned bool
	// Persist says whether the new state should be written back.
	Persist bool
}

// Decide applies the state-change suppression policy. With suppression
// disabled every tick reflects the new state unconditionally: a breach
// message when triggered, nothing otherwise, and state is still written
// for bookkeeping.
func Decide(last, next State, suppress bool) Decision {
	if !suppress {
		return Decision{Notify: next == StateTriggered, Persist: true}
	}

	switch {
	case last != StateTriggered && next == StateTriggered:
		return Decision{Notify: true, Persist: true}
	case last == StateTriggered && next == StateNormal:
		return Decision{Notify: true, Returned: true, Persist: true}
	default:
		return Decision{}
	}
}
