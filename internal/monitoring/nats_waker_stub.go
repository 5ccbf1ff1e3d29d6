//go:build !nats

package monitoring

import (
	"context"

	"github.com/cursorworkshop/aegistry/internal/config"
)

// NATSGateway is unavailable in the default build (no "nats" build tag):
// watermill-nats, the embedded NATS server, and their transitive deps are
// only linked in when a deployment opts into cross-process wake signals.
// Single-process deployments don't need it — Rescreen.WithWaker(dispatcher)
// already wakes the Dispatcher in-process without any of this.
type NATSGateway struct{}

// OpenNATSGateway always returns (nil, nil) in the default build, matching
// the "nats"-tagged implementation's behavior when cfg.Enabled is false —
// callers can wire the same way regardless of build tag.
func OpenNATSGateway(cfg config.NATSConfig) (*NATSGateway, error) {
	return nil, nil
}

func (*NATSGateway) Wake() {}

func (*NATSGateway) Forward(_ context.Context, _ *Dispatcher) error { return nil }

func (*NATSGateway) Close() error { return nil }
