package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/catmanduz/link-reminder/internal/httpserver/deps"
	"github.com/catmanduz/link-reminder/internal/httpserver/handlers"
	"github.com/catmanduz/link-reminder/internal/httpserver/mw"
)

func init() { RegisterAPI(registerImport) }

func registerImport(r chi.Router, d deps.Deps) {
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger), mw.EnforceHost(d.AllowedHosts, d.Logger)).Post("/import", handlers.TriggerImport(d))
}
