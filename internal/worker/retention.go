package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/strikeprep/staffing-api/internal/repository"
	"github.com/strikeprep/staffing-api/pkg/logger"
)

// RetentionWorker prunes audit logs past the retention window and
// outbox events that have already been published.
type RetentionWorker struct {
	audits          repository.AuditRepository
	outbox          repository.OutboxRepository
	logger          *logger.Logger
	retentionDays   int
	cleanupInterval time.Duration
}

func NewRetentionWorker(
	audits repository.AuditRepository,
	outbox repository.OutboxRepository,
	logger *logger.Logger,
	retentionDays int,
	cleanupInterval time.Duration,
) *RetentionWorker {
	return &RetentionWorker{
		audits:          audits,
		outbox:          outbox,
		logger:          logger,
		retentionDays:   retentionDays,
		cleanupInterval: cleanupInterval,
	}
}

func (w *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	w.logger.Info("Starting retention worker", "retention_days", w.retentionDays)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Shutting down retention worker")
			return
		case <-ticker.C:
			if err := w.cleanup(ctx); err != nil {
				w.logger.Error(err, "Retention cleanup failed")
			}
		}
	}
}

func (w *RetentionWorker) cleanup(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -w.retentionDays)

	auditRows, err := w.audits.Cleanup(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup audit logs: %w", err)
	}

	outboxRows, err := w.outbox.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup outbox events: %w", err)
	}

	w.logger.Info("Retention cleanup complete",
		"audit_rows", auditRows,
		"outbox_rows", outboxRows,
		"cutoff", cutoff.Format(time.RFC3339))
	return nil
}
