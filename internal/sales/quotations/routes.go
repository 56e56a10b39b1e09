package quotations

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/quotations", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Get("/{id}/render", h.Render)
		r.Get("/{id}/approvals", h.Approvals)
		r.Post("/{id}/send", h.Send)
		r.Post("/{id}/accept", h.Accept)
		r.Post("/{id}/reject", h.Reject)
		r.Post("/{id}/expire", h.Expire)
		r.Post("/{id}/approval/approve", h.ApproveDiscount)
		r.Post("/{id}/approval/reject", h.RejectDiscount)
		r.Put("/{id}/delivery-batches", h.UpdateDeliveryBatches)
	})

	// Deal-originated creation shares the pipeline but rejects on guardrail
	// violations instead of flagging.
	r.Post("/deals/quotations", h.CreateForDeal)
}
