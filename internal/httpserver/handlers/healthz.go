package handlers

import (
	"net/http"

	"github.com/catmanduz/link-reminder/internal/httpserver/deps"
)

type buildInfo struct {
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	GoVersion string `json:"go,omitempty"`
}

type healthzResponse struct {
	Status        string    `json:"status"`
	Store         string    `json:"store"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	PendingAlerts int       `json:"pending_alerts"`
	Build         buildInfo `json:"build"`
}

// Healthz is the liveness probe. It never touches the store.
func Healthz(d deps.Deps) http.HandlerFunc {
	build := buildInfo{
		Version:   d.Version,
		Commit:    d.Commit,
		Date:      d.BuildDate,
		GoVersion: d.GoVersion,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthzResponse{
			Status:        "ok",
			Store:         d.StoreKind,
			UptimeSeconds: int64(d.Now().Sub(d.StartTime).Seconds()),
			Build:         build,
		}
		if d.Alerts != nil {
			resp.PendingAlerts = d.Alerts.Count()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
