package monitoring

import (
	"context"
	"fmt"
)

// startStopper matches Dispatcher's Start/Stop lifecycle, the same adapter
// seam orchestrator.Service uses to wrap Orchestrator for suture.
type startStopper interface {
	Start(ctx context.Context) error
	Stop() error
}

// Service adapts the Dispatcher's Start/Stop lifecycle to suture's Serve
// contract, same shape as orchestrator.Service.
type Service struct {
	dispatcher startStopper
}

// NewService wraps a Dispatcher for registration with a suture supervision
// tree.
func NewService(d *Dispatcher) *Service {
	return &Service{dispatcher: d}
}

// Serve implements suture.Service.
func (s *Service) Serve(ctx context.Context) error {
	if err := s.dispatcher.Start(ctx); err != nil {
		return fmt.Errorf("callback dispatcher start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.dispatcher.Stop(); err != nil {
		return fmt.Errorf("callback dispatcher stop failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture's log messages.
func (s *Service) String() string {
	return "monitoring-dispatcher"
}
