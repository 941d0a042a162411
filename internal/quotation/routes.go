package quotation

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the quotation API under the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/quotations", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}/payment-steps/{stepNumber}", h.removeStep)
		r.Post("/{id}/send", h.send)
		r.Post("/{id}/customer-approve", h.customerApprove)
		r.Post("/{id}/approve", h.salesApprove)
		r.Post("/{id}/reject", h.reject)
	})
	r.Get("/requests/{requestID}/quotation", h.getByRequest)
}
