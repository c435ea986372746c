package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all liquidity routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/liquidity", func(r chi.Router) {
		r.Post("/analyze", h.HandleAnalyze)
		r.Get("/vertices", h.HandleGetVertices)
		r.Get("/template", h.HandleGetTemplate)
		r.Get("/policy", h.HandleGetPolicy)
	})
}
