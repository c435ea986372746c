package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all fund routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/funds", func(r chi.Router) {
		r.Get("/", h.HandleListFunds)
		r.Post("/", h.HandleCreateFund)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGetFund)
			r.Put("/", h.HandleUpdateFund)
			r.Delete("/", h.HandleDeleteFund)

			r.Get("/holdings", h.HandleGetHoldings)
			r.Put("/holdings", h.HandleReplaceHoldings)
			r.Post("/holdings", h.HandleAddHolding)

			r.Get("/history", h.HandleGetHistory)
			r.Put("/history", h.HandleReplaceHistory)

			r.Get("/analysis", h.HandleGetAnalysis)
		})
	})
}
