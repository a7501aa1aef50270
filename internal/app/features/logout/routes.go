package logout

import "github.com/go-chi/chi/v5"

// Routes answers POST /logout for everyone; the handler is idempotent
// for requests that never had a session.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeLogout)
	return r
}
