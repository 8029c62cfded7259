package alerting

import (
	"context"
)

// Priority mirrors Pushover's priority scale for the levels this system
// uses.
type Priority int

const (
	PriorityLow    Priority = -1
	PriorityNormal Priority = 0
	PriorityHigh   Priority = 1
)

// PushSender delivers to the push-notification service.
type PushSender interface {
	Deliver(ctx context.Context, title, message string, priority Priority) error
}

// ChatSender delivers to one group-messaging target, either a channel
// or a direct-message user.
type ChatSender interface {
	Deliver(ctx context.Context, target, title, message string, priority Priority) error
}

// Delivery records the outcome of one target's attempt.
type Delivery struct {
	Target string
	Err    error
}

// Failed counts deliveries that returned an error.
func Failed(deliveries []Delivery) int {
	n := 0
	for _, d := range deliveries {
		if d.Err != nil {
			n++
		}
	}
	return n
}
