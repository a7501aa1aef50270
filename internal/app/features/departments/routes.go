// internal/app/features/departments/routes.go
package departments

import (
	"github.com/dalemusser/missionhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for the department directory, mounted at
// /api/departments.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)

		pr.Group(func(ar chi.Router) {
			ar.Use(sm.RequireRole("admin"))
			ar.Post("/", h.ServeCreate)
			ar.Put("/{deptID}", h.ServeRename)
			ar.Delete("/{deptID}", h.ServeDelete)
		})
	})

	return r
}
