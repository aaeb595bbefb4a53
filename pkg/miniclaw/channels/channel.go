// Package channels defines the adapter contract between the outside world
// and the hub. An adapter turns its transport's events into inbound hub
// messages and delivers routed outbound messages back out.
package channels

import (
	"context"

	"github.com/miniclaw/miniclaw/pkg/miniclaw/bus"
)

// Channel is one user-facing transport.
type Channel interface {
	bus.OutboundSink

	// Name is the channel identifier used on messages ("telegram", "cli").
	Name() string

	// Start connects the transport and begins feeding the hub. It returns
	// once the adapter is running; the adapter stops when ctx is cancelled.
	Start(ctx context.Context) error

	// Stop shuts the adapter down, bounded by ctx.
	Stop(ctx context.Context) error
}
