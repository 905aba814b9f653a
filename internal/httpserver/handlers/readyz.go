package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/catmanduz/link-reminder/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Store string `json:"store"`
	Error string `json:"error,omitempty"`
}

// Readyz is the readiness probe: ready when the store answers.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pingStore(r.Context(), d); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{
				Ready: false,
				Store: d.StoreKind,
				Error: err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true, Store: d.StoreKind})
	}
}

func pingStore(ctx context.Context, d deps.Deps) error {
	if d.Store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return d.Store.Ping(ctx)
}
