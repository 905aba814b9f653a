package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/catmanduz/link-reminder/internal/httpserver/deps"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	reg Registrar
	mws []Middleware
}

var (
	registry    []entry // mounted at the root
	apiRegistry []entry // mounted under /api
)

// Register a root-level registrar with optional per-route middlewares.
func Register(reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{reg: reg, mws: mws})
}

// RegisterAPI registers a registrar mounted under /api.
func RegisterAPI(reg Registrar, mws ...Middleware) {
	apiRegistry = append(apiRegistry, entry{reg: reg, mws: mws})
}

// RegisterAll is called once from server.New()
func RegisterAll(r chi.Router, d deps.Deps) {
	mount(r, registry, d)
}

// RegisterAllAPI is called once from server.New() with the /api sub-router
func RegisterAllAPI(r chi.Router, d deps.Deps) {
	mount(r, apiRegistry, d)
}

func mount(r chi.Router, entries []entry, d deps.Deps) {
	for _, e := range entries {
		if len(e.mws) == 0 {
			e.reg(r, d)
			continue
		}
		sub := r.With(e.mws...) // apply per-route middlewares
		e.reg(sub, d)
	}
}
