package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/catmanduz/link-reminder/internal/httpserver/deps"
	"github.com/catmanduz/link-reminder/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerAlerts) }

func registerAlerts(r chi.Router, d deps.Deps) {
	r.Get("/alerts", handlers.ListAlerts(d))
	r.Post("/alerts/{name}/actions/{index}", handlers.AlertAction(d))
	r.Get("/alerts/{name}/open", handlers.OpenAlert(d))
	r.Delete("/alerts/{name}", handlers.DismissAlert(d))
}
