package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/quotation"
)

// NewExpiryScanHandler processes TaskQuotationExpiryScan tasks, persisting
// the EXPIRED status for quotations whose validity has lapsed.
func NewExpiryScanHandler(svc *quotation.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		asOf := scanTime(t)
		if _, err := svc.ExpireLapsed(ctx, asOf); err != nil {
			logger.Error("expiry scan failed", slog.Any("error", err))
			return err
		}
		return nil
	}
}
