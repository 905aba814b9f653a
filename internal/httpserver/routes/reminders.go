package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/catmanduz/link-reminder/internal/httpserver/deps"
	"github.com/catmanduz/link-reminder/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerReminders) }

func registerReminders(r chi.Router, d deps.Deps) {
	r.Put("/links/{id}/reminder", handlers.ArmReminder(d))
	r.Delete("/links/{id}/reminder", handlers.DisarmReminder(d))
	r.Post("/links/{id}/snooze", handlers.SnoozeReminder(d))
	r.Get("/snooze-options", handlers.SnoozeOptions(d))
}
