package alerting

import (
	"context"

	"github.com/rs/zerolog"
)

// PushTarget is the outcome label for the push channel.
const PushTarget = "pushover"

// RouteConfig holds one alert category's exclusions. Loaded once at
// startup, never mutated afterwards.
type RouteConfig struct {
	ExcludePush     bool
	ExcludeChannels map[string]struct{}
	ExcludeUsers    map[string]struct{}
}

// NewRouteConfig builds a RouteConfig from exclusion lists.
func NewRouteConfig(excludePush bool, channels, users []string) RouteConfig {
	return RouteConfig{
		ExcludePush:     excludePush,
		ExcludeChannels: toSet(channels),
		ExcludeUsers:    toSet(users),
	}
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// Router fans a notification out to the push service and to every
// configured group-messaging target, applying the category's exclusion
// sets. Each target is attempted independently; one failure never stops
// the rest.
type Router struct {
	push     PushSender
	chat     ChatSender
	channels []string
	users    []string
	routes   map[string]RouteConfig
	logger   zerolog.Logger
}

// NewRouter constructs a Router. push or chat may be nil when the
// corresponding service is not configured.
func NewRouter(push PushSender, chat ChatSender, channels, users []string, routes map[string]RouteConfig, logger zerolog.Logger) *Router {
	return &Router{
		push:     push,
		chat:     chat,
		channels: channels,
		users:    users,
		routes:   routes,
		logger:   logger.With().Str("component", "router").Logger(),
	}
}

// Notify delivers one message under the given category. An unrecognized
// category applies no exclusions. The returned slice carries one entry
// per attempted target.
func (r *Router) Notify(ctx context.Context, title, message string, priority Priority, category string) []Delivery {
	route := r.routes[category]

	var deliveries []Delivery

	if r.push != nil && !route.ExcludePush {
		err := r.push.Deliver(ctx, title, message, priority)
		deliveries = append(deliveries, Delivery{Target: PushTarget, Err: err})
		if err != nil {
			r.logger.Error().Err(err).Str("category", category).Msg("push delivery failed")
		}
	}

	if r.chat != nil {
		for _, channel := range r.channels {
			if _, excluded := route.ExcludeChannels[channel]; excluded {
				continue
			}
			err := r.chat.Deliver(ctx, channel, title, message, priority)
			deliveries = append(deliveries, Delivery{Target: channel, Err: err})
			if err != nil {
				r.logger.Error().Err(err).Str("channel", channel).Str("category", category).Msg("channel delivery failed")
			}
		}

		for _, user := range r.users {
			if _, excluded := route.ExcludeUsers[user]; excluded {
				continue
			}
			err := r.chat.Deliver(ctx, user, title, message, priority)
			deliveries = append(deliveries, Delivery{Target: user, Err: err})
			if err != nil {
				r.logger.Error().Err(err).Str("user", user).Str("category", category).Msg("direct delivery failed")
			}
		}
	}

	return deliveries
}
