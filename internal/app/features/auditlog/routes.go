// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/missionhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit log API under the path where this router is
// mounted (typically "/api/audit" from bootstrap).
//
// Access is restricted to admins and chiefs. Admins see all events;
// chiefs see only events for their own department.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("admin", "chief"))

		pr.Get("/", h.ServeList)
		pr.Get("/types", h.ServeTypes)
	})

	return r
}
