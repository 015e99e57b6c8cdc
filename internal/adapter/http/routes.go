package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": h.Version})
		})

		// Applications
		r.Post("/applications", h.SubmitApplication)
		r.Post("/applications/demo", h.SubmitDemo)
		r.Get("/applications", h.ListApplications)
		r.Get("/applications/{id}", h.GetApplication)
		r.Get("/applications/{id}/events", h.ApplicationEvents)
		r.Post("/applications/{id}/process", h.ProcessApplication)

		// One-shot submit and process
		r.Post("/assessments", h.Assess)

		// Human review queue
		r.Get("/reviews", h.ListReviews)
		r.Get("/reviews/{id}", h.GetReview)
		r.Post("/reviews/{id}/decision", h.ResolveReview)

		// Decision cascade
		r.Get("/rules", h.ListRules)
		r.Post("/decisions/evaluate", h.EvaluateDecision)
	})
}
