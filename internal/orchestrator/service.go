package orchestrator

import (
	"context"
	"fmt"
)

// startStopper matches Orchestrator's Start/Stop lifecycle, the same
// adapter seam the teacher's services.SyncService uses to wrap
// internal/sync.Manager for suture supervision.
type startStopper interface {
	Start(ctx context.Context) error
	Stop() error
}

// Service adapts the Orchestrator's Start/Stop lifecycle to suture's Serve
// pattern: start the orchestrator, block until the context is canceled,
// stop it. Grounded on services.SyncService.
type Service struct {
	orchestrator startStopper
}

// NewService wraps an Orchestrator for registration with a suture
// supervision tree.
func NewService(o *Orchestrator) *Service {
	return &Service{orchestrator: o}
}

// Serve implements suture.Service.
func (s *Service) Serve(ctx context.Context) error {
	if err := s.orchestrator.Start(ctx); err != nil {
		return fmt.Errorf("orchestrator start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.orchestrator.Stop(); err != nil {
		return fmt.Errorf("orchestrator stop failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture's log messages.
func (s *Service) String() string {
	return "ingest-orchestrator"
}
