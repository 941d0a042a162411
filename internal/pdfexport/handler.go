package pdfexport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/payments"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/quotation"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// QuotationSource loads the quotation to render.
type QuotationSource interface {
	Get(ctx context.Context, id int64) (*quotation.Quotation, error)
}

// ScheduleSource supplies live payment progress for the schedule section.
type ScheduleSource interface {
	Schedule(ctx context.Context, quotationID int64) ([]payments.StepView, error)
}

// Handler serves render-ready export payloads.
type Handler struct {
	logger     *slog.Logger
	quotations QuotationSource
	schedules  ScheduleSource
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, quotations QuotationSource, schedules ScheduleSource) *Handler {
	return &Handler{logger: logger, quotations: quotations, schedules: schedules}
}

// MountRoutes registers the export API under the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/quotations/{id}/export-payload", h.payload)
}

func (h *Handler) payload(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quotation id")
		return
	}
	q, err := h.quotations.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "quotation not found")
			return
		}
		h.logger.Error("export payload failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	// Payment progress only exists once the schedule is live.
	var steps []payments.StepView
	if q.Status == quotation.StatusSalesApproved {
		if steps, err = h.schedules.Schedule(r.Context(), id); err != nil {
			h.logger.Warn("schedule lookup failed, exporting without progress",
				slog.Int64("quotation_id", id), slog.Any("error", err))
			steps = nil
		}
	}
	httpx.JSON(w, http.StatusOK, Build(q, steps))
}
