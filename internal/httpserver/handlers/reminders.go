package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/catmanduz/link-reminder/internal/httpserver/deps"
)

// ArmReminder sets or moves the reminder of a link.
// Body: {"at": RFC3339} or {"inMinutes": n}.
func ArmReminder(d deps.Deps) http.HandlerFunc {
	return reminderHandler(d, func(r *http.Request, id string, req timeRequest) error {
		when, err := req.resolve(d.Now())
		if err != nil {
			return err
		}
		return d.Reminders.Arm(r.Context(), id, &when)
	})
}

// SnoozeReminder confirms the snooze picker of a fired reminder.
func SnoozeReminder(d deps.Deps) http.HandlerFunc {
	return reminderHandler(d, func(r *http.Request, id string, req timeRequest) error {
		when, err := req.resolve(d.Now())
		if err != nil {
			return err
		}
		return d.Dispatcher.Snooze(r.Context(), id, when)
	})
}

func DisarmReminder(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, "id")

		if _, err := d.Links.Get(ctx, id); err != nil {
			writeError(w, r, d, err)
			return
		}
		if err := d.Reminders.Disarm(ctx, id); err != nil {
			writeError(w, r, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SnoozeOptions lists the quick offsets of the snooze picker, in minutes.
func SnoozeOptions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offsets := d.Dispatcher.SnoozeOptions()
		minutes := make([]int, 0, len(offsets))
		for _, o := range offsets {
			minutes = append(minutes, int(o.Minutes()))
		}
		writeJSON(w, http.StatusOK, map[string][]int{"inMinutes": minutes})
	}
}

// reminderHandler checks the link exists, runs apply, then returns the updated link.
func reminderHandler(d deps.Deps, apply func(r *http.Request, id string, req timeRequest) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, "id")

		var req timeRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		if _, err := d.Links.Get(ctx, id); err != nil {
			writeError(w, r, d, err)
			return
		}
		if err := apply(r, id, req); err != nil {
			writeError(w, r, d, err)
			return
		}

		link, err := d.Links.Get(ctx, id)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, link)
	}
}
