package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/payments"
)

// NewOverdueScanHandler processes TaskPaymentsOverdueScan tasks. Overdue is
// always derived at read time; the scan persists the flag so listings and
// reports agree without a read.
func NewOverdueScanHandler(svc *payments.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		asOf := scanTime(t)
		n, err := svc.MarkOverdue(ctx, asOf)
		if err != nil {
			logger.Error("overdue scan failed", slog.Any("error", err))
			return err
		}
		if n > 0 {
			logger.Info("overdue scan complete", slog.Int64("steps_flagged", n))
		}
		return nil
	}
}
