// internal/app/features/recommendations/routes.go
package recommendations

import (
	"github.com/dalemusser/missionhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for recommendations, mounted at
// /api/recommendations. Status changes are open to every signed-in
// role; the lifecycle engine decides who may perform which transition.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/{recID}", h.ServeGet)
		pr.Put("/{recID}/status", h.ServeStatus)

		pr.Group(func(mr chi.Router) {
			mr.Use(sm.RequireRole("admin", "chief"))
			mr.Post("/", h.ServeCreate)
			mr.Put("/{recID}", h.ServeUpdate)
			mr.Delete("/{recID}", h.ServeDelete)
		})
	})

	return r
}
