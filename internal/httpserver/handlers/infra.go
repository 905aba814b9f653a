package handlers

import (
	"net/http"

	"github.com/catmanduz/link-reminder/internal/httpserver/deps"
	"github.com/catmanduz/link-reminder/internal/reminder"
)

type componentStatus struct {
	OK        bool   `json:"ok"`
	Count     *int   `json:"count,omitempty"`
	Next      string `json:"next,omitempty"`
	LastWrite string `json:"last_write,omitempty"`
	Mode      string `json:"mode,omitempty"`
	Impact    string `json:"impact,omitempty"`
	Error     string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode        string                     `json:"mode"`
	Components  map[string]componentStatus `json:"components"`
	Rehydration *reminder.RehydrateReport  `json:"rehydration,omitempty"`
}

// Infra reports the state of the store, the timer service and the alerts.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		components := map[string]componentStatus{
			"store":  storeStatus(r, d),
			"timers": timersStatus(r, d),
		}

		alerts := d.Alerts.Count()
		components["alerts"] = componentStatus{OK: true, Count: &alerts}

		if all, err := d.Links.List(ctx); err == nil {
			n := len(all)
			components["links"] = componentStatus{OK: true, Count: &n}
		} else {
			components["links"] = componentStatus{OK: false, Error: err.Error()}
		}

		resp := infraResponse{
			Mode:       determineMode(components),
			Components: components,
		}
		if d.Rehydration != nil {
			report := d.Rehydration()
			resp.Rehydration = &report
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func storeStatus(r *http.Request, d deps.Deps) componentStatus {
	mode := d.StoreKind
	if err := pingStore(r.Context(), d); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   mode,
			Impact: "saves-and-reminders-unavailable",
			Error:  err.Error(),
		}
	}

	status := componentStatus{OK: true, Mode: mode, Impact: "none"}
	if d.Store == nil {
		status.Impact = "lost-on-restart"
	}
	if d.Stats != nil {
		n := d.Stats.Count()
		status.Count = &n
		if lw := d.Stats.GetLastWrite(); !lw.IsZero() {
			status.LastWrite = lw.UTC().Format("2006-01-02 15:04:05")
		}
	}
	return status
}

func timersStatus(r *http.Request, d deps.Deps) componentStatus {
	alarms, err := d.Alarms.All(r.Context())
	if err != nil {
		return componentStatus{OK: false, Error: err.Error()}
	}

	n := len(alarms)
	status := componentStatus{OK: true, Count: &n}
	if n > 0 {
		status.Next = alarms[0].When.UTC().Format("2006-01-02 15:04:05")
	}
	return status
}

func determineMode(components map[string]componentStatus) string {
	if store, ok := components["store"]; ok && !store.OK {
		return "critical"
	}
	for _, c := range components {
		if !c.OK {
			return "degraded"
		}
	}
	return "operational"
}
