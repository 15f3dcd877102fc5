package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/zk/internal/zettelservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *zettelservice.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/zettels", h.ListZettels)
	r.Route("/zettels/{id}", func(r chi.Router) {
		r.Get("/", h.GetZettel)
		r.Put("/", h.SaveZettel)
		r.Delete("/", h.DeleteZettel)
		r.Post("/prepare", h.Prepare)
		r.Post("/rename", h.Rename)
		r.Get("/neighbors", h.Neighbors)
	})

	r.Get("/search", h.Search)
	r.Get("/graph", h.Graph)

	return r
}

// Health mounts the unauthenticated liveness and readiness probes.
func Health(r chi.Router) {
	ok := func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
	r.Get("/health/live", ok)
	r.Get("/health/ready", ok)
}
