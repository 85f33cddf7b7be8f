package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Middleware records request count and duration for the given handler.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := pathLabel(r.URL.Path)
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rec.status)
		RequestTotal.WithLabelValues(r.Method, path, status).Inc()
		RequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

var staticRoutes = map[string]string{
	"/":                    "home",
	"/tokens":              "tokens",
	"/dashboard":           "dashboard",
	"/api/auth/exchange":   "auth_exchange",
	"/api/auth/refresh":    "auth_refresh",
	"/api/auth/logout":     "auth_logout",
	"/api/auth/logout-all": "auth_logout_all",
	"/api/user/me":         "user_me",
	"/api/user/token":      "user_token",
	"/api/user/stats":      "user_stats",
	"/api/user/events":     "user_events",
	"/api/upload":          "upload",
	"/api/leaderboard":     "leaderboard",
	"/api/health":          "health",
}

// pathLabel maps a request path onto a fixed set of route names. Anything
// not served by a known route is "other", so ids and scanner paths never end up
// in a label.
func pathLabel(p string) string {
	if p == "" {
		p = "/"
	}
	if label, ok := staticRoutes[p]; ok {
		return label
	}

	parts := strings.Split(strings.Trim(p, "/"), "/")
	switch {
	case len(parts) == 4 && parts[0] == "api" && parts[1] == "auth":
		switch parts[3] {
		case "login", "consent", "callback":
			return "auth_" + parts[3]
		}
	case len(parts) == 3 && parts[0] == "tokens" && parts[2] == "delete":
		return "tokens_delete"
	case len(parts) == 2 && parts[0] == "theme":
		return "theme"
	}
	return "other"
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
