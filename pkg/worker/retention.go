package worker

import (
	"context"
	"time"

	"github.com/fleetyard/backoffice-api/internal/repository"
	"github.com/fleetyard/backoffice-api/pkg/logger"
)

// RetentionSweeper prunes old audit logs and processed outbox events on a
// fixed interval.
type RetentionSweeper struct {
	auditRepo  repository.AuditRepository
	outboxRepo repository.OutboxRepository
	retention  time.Duration
	interval   time.Duration
	logger     *logger.Logger
}

func NewRetentionSweeper(auditRepo repository.AuditRepository, outboxRepo repository.OutboxRepository, retention, interval time.Duration, logger *logger.Logger) *RetentionSweeper {
	return &RetentionSweeper{
		auditRepo:  auditRepo,
		outboxRepo: outboxRepo,
		retention:  retention,
		interval:   interval,
		logger:     logger,
	}
}

func (s *RetentionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("starting retention sweeper")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down retention sweeper")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *RetentionSweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.retention)

	audits, err := s.auditRepo.DeleteBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error(err, "failed to prune audit logs")
	} else if audits > 0 {
		s.logger.Info("pruned audit logs", "count", audits)
	}

	// Processed outbox events only need to survive long enough for debugging.
	outbox, err := s.outboxRepo.DeleteProcessedBefore(ctx, time.Now().Add(-7*24*time.Hour))
	if err != nil {
		s.logger.Error(err, "failed to prune outbox events")
	} else if outbox > 0 {
		s.logger.Info("pruned outbox events", "count", outbox)
	}
}
