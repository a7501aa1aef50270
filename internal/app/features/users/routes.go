// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/missionhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for user accounts, mounted at /api/users.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/me", h.ServeMe)
		pr.Put("/{userID}/password", h.ServePassword)

		pr.Group(func(dr chi.Router) {
			dr.Use(sm.RequireRole("admin", "chief"))
			dr.Get("/", h.ServeList)
		})

		pr.Group(func(ar chi.Router) {
			ar.Use(sm.RequireRole("admin"))
			ar.Post("/", h.ServeCreate)
			ar.Put("/{userID}", h.ServeUpdate)
			ar.Delete("/{userID}", h.ServeDisable)
		})
	})

	return r
}
