// internal/app/features/missions/routes.go
package missions

import (
	"github.com/dalemusser/missionhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for missions, mounted at /api/missions.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/{missionID}", h.ServeGet)

		pr.Group(func(mr chi.Router) {
			mr.Use(sm.RequireRole("admin", "chief"))
			mr.Post("/", h.ServeCreate)
			mr.Put("/{missionID}", h.ServeUpdate)
			mr.Put("/{missionID}/status", h.ServeStatus)
			mr.Delete("/{missionID}", h.ServeDelete)
		})
	})

	return r
}
