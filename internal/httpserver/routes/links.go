package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/catmanduz/link-reminder/internal/httpserver/deps"
	"github.com/catmanduz/link-reminder/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerLinks) }

func registerLinks(r chi.Router, d deps.Deps) {
	r.Get("/links", handlers.ListLinks(d))
	r.Get("/links/export", handlers.ExportLinks(d))
	r.Get("/links/{id}", handlers.GetLink(d))
	r.Post("/links", handlers.SaveLink(d))
	r.Post("/links/quick", handlers.QuickSave(d))
	r.Delete("/links/{id}", handlers.DeleteLink(d))
	r.Delete("/links", handlers.ClearLinks(d))

	r.Get("/categories", handlers.Categories(d))
}
