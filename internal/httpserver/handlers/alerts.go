package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/catmanduz/link-reminder/internal/dispatcher"
	"github.com/catmanduz/link-reminder/internal/httpserver/deps"
)

// ListAlerts returns the live reminder alerts, oldest first.
func ListAlerts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Alerts.List())
	}
}

// AlertAction runs a button of an alert: 0 = Open, 1 = Snooze.
func AlertAction(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			writeError(w, r, d, fmt.Errorf("%w: action index must be an integer", errBadRequest))
			return
		}

		out, err := d.Dispatcher.HandleAction(r.Context(), chi.URLParam(r, "name"), index)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// OpenAlert runs the Open action and redirects to the link.
func OpenAlert(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := d.Dispatcher.HandleAction(r.Context(), chi.URLParam(r, "name"), dispatcher.ActionOpen)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		http.Redirect(w, r, out.URL, http.StatusFound)
	}
}

func DismissAlert(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Dispatcher.Dismiss(r.Context(), chi.URLParam(r, "name")); err != nil {
			writeError(w, r, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
