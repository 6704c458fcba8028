package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"OrderPlus/pkg/kit"
)

func NewHandler(s *Server, deps kit.HTTPDeps) http.Handler {
	r := chi.NewRouter()
	kit.Instrument(r, deps)

	r.Get("/healthz", kit.Healthz)
	r.Get("/readyz", s.readyz)

	r.Group(func(pr chi.Router) {
		pr.Use(RequireUser)
		pr.Get("/products", s.browse)
		pr.Post("/products", s.create)
		pr.Get("/products/{id}", s.get)
		pr.Put("/products/{id}", s.update)
		pr.Get("/notifications", s.notifications)
	})

	return r
}
