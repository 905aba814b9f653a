package handlers

import (
	"net/http"

	"github.com/catmanduz/link-reminder/internal/httpserver/deps"
	"github.com/catmanduz/link-reminder/internal/logger"
)

// TriggerImport asks the bookmark importer for an immediate pass
func TriggerImport(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.ImportTrigger == nil {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "bookmark import is not configured"})
			return
		}

		select {
		case d.ImportTrigger <- struct{}{}:
			d.Logger.Info("manual bookmark import triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "import triggered"})
		default:
			d.Logger.Warn("bookmark import already pending",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "import already in progress, please wait"})
		}
	}
}
