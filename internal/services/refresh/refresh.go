// Package refresh keeps a task list current by reloading it on an interval.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/iris/internal/lib/logger/sl"
	"github.com/UnknownOlympus/iris/internal/tasklist"
)

// Loader reloads a list. *tasklist.Controller implements it.
type Loader interface {
	Load(ctx context.Context) error
}

type Service struct {
	log       *slog.Logger
	loader    Loader
	onRefresh func(err error)
}

// NewService returns a service reloading loader. onRefresh, when set, runs after
// every load with its error, nil when the list was replaced.
func NewService(log *slog.Logger, loader Loader, onRefresh func(err error)) *Service {
	return &Service{log: log, loader: loader, onRefresh: onRefresh}
}

func (s *Service) initLogger(opn string) *slog.Logger {
	return sl.Op(s.log, opn, "refresh")
}

// Start loads the list once, then reloads it every interval until ctx is done.
// A failed first load is returned. A failed periodic reload is logged and the
// next tick is an ordinary reload, not a retry.
func (s *Service) Start(ctx context.Context, interval time.Duration) error {
	const opn = "Refresh.Start"
	log := s.initLogger(opn)

	if interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", interval)
	}

	if err := s.load(ctx, log); err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	log.InfoContext(ctx, "Switching to periodic refresh.", "interval", interval.String())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			log.DebugContext(ctx, "Periodic refresh triggered.")
			_ = s.load(ctx, log)
		case <-ctx.Done():
			log.InfoContext(ctx, "Refresh shutting down.")
			return nil
		}
	}
}

// load reloads once. A superseded response counts as success; a newer load owns the list.
func (s *Service) load(ctx context.Context, log *slog.Logger) error {
	err := s.loader.Load(ctx)
	if errors.Is(err, tasklist.ErrSuperseded) {
		err = nil
	}
	if err != nil {
		log.WarnContext(ctx, "Refresh failed", sl.Err(err))
	}

	if s.onRefresh != nil {
		s.onRefresh(err)
	}
	return err
}
