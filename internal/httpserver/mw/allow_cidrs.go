package mw

import (
	"net/http"

	"github.com/catmanduz/link-reminder/internal/logger"
	"github.com/catmanduz/link-reminder/internal/utils"
)

// AllowOnlyCIDRS restricts a route to clients inside the given IPs/CIDRs.
// An empty list disables the check.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if m.Allow(ip) {
				next.ServeHTTP(w, r)
				return
			}

			log.Debug("request rejected by cidr filter",
				logger.String("ip", ip),
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path))
			forbidden(w)
		})
	}
}

func forbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"forbidden"}` + "\n"))
}
