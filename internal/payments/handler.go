package payments

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler exposes the payment submission API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers the payments API under the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/payments", func(r chi.Router) {
		r.Post("/submissions", h.submit)
		r.Post("/submissions/{id}/status", h.review)
	})
	r.Get("/quotations/{quotationID}/payment-schedule", h.schedule)
	r.Get("/quotations/{quotationID}/submissions", h.listSubmissions)
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrTransition):
		httpx.Problem(w, http.StatusConflict, "Transition Not Allowed", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "record not found")
	default:
		h.logger.Error("payments request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func quotationIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "quotationID"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req CreateSubmissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	sub, err := h.service.Submit(r.Context(), req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sub)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid submission id")
		return
	}
	var req ReviewSubmissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	sub, err := h.service.Review(r.Context(), id, req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sub)
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	id, ok := quotationIDParam(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quotation id")
		return
	}
	steps, err := h.service.Schedule(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"steps": steps})
}

func (h *Handler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	id, ok := quotationIDParam(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quotation id")
		return
	}
	subs, err := h.service.ListByQuotation(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"submissions": subs})
}
