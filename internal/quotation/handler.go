package quotation

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler exposes the quotation API.
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

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrTransition):
		httpx.Problem(w, http.StatusConflict, "Transition Not Allowed", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "quotation not found")
	default:
		h.logger.Error("quotation request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) quotationID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid quotation id")
	}
	return id, nil
}

// actorID reads the acting staff user from the gateway-provided header. The
// auth layer itself lives in front of this service.
func actorID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
	return id
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	q, err := h.service.Create(r.Context(), req, actorID(r))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := h.quotationID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	q, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) getByRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := strconv.ParseInt(chi.URLParam(r, "requestID"), 10, 64)
	if err != nil || requestID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request id")
		return
	}
	q, err := h.service.GetByRequestID(r.Context(), requestID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListQuotationsRequest{Limit: 50}

	if v := r.URL.Query().Get("status"); v != "" {
		s := Status(v)
		req.Status = &s
	}
	if v := r.URL.Query().Get("customer_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.CustomerID = &id
		}
	}
	if t := parseDate(r.URL.Query().Get("date_from")); t != nil {
		req.DateFrom = t
	}
	if t := parseDate(r.URL.Query().Get("date_to")); t != nil {
		req.DateTo = t
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			req.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			req.Offset = n
		}
	}

	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	page := req.Offset/req.Limit + 1
	httpx.JSON(w, http.StatusOK, map[string]any{
		"quotations": items,
		"total":      total,
		"pagination": shared.NewPagination(page, req.Limit, total),
	})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := h.quotationID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	var req UpdateQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	q, err := h.service.UpdateDraft(r.Context(), id, req)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) removeStep(w http.ResponseWriter, r *http.Request) {
	id, err := h.quotationID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	stepNumber, err := strconv.Atoi(chi.URLParam(r, "stepNumber"))
	if err != nil || stepNumber <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid step number")
		return
	}
	q, err := h.service.RemovePaymentStep(r.Context(), id, stepNumber)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int64) (*Quotation, error) {
		return h.service.Send(r.Context(), id, actorID(r))
	})
}

func (h *Handler) customerApprove(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int64) (*Quotation, error) {
		return h.service.CustomerApprove(r.Context(), id)
	})
}

func (h *Handler) salesApprove(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int64) (*Quotation, error) {
		return h.service.SalesApprove(r.Context(), id, actorID(r))
	})
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	id, err := h.quotationID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	var req RejectQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	q, err := h.service.Reject(r.Context(), id, actorID(r), req.Reason)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(int64) (*Quotation, error)) {
	id, err := h.quotationID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	q, err := fn(id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
