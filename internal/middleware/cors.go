package middleware

import (
	"log/slog"
	"net/http"
	"slices"
)

// CORS answers preflight requests and reflects the request origin when it is
// one of allowedOrigins. A "*" entry allows every origin.
func CORS(allowedOrigins []string, logger *slog.Logger) func(http.Handler) http.Handler {
	allowAll := slices.Contains(allowedOrigins, "*")
	logger = logger.With(slog.String("component", "cors"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || slices.Contains(allowedOrigins, origin)) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Access-Control-Allow-Headers, Authorization, X-Requested-With")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				logger.Debug("handled preflight", slog.String("path", r.URL.Path), slog.String("origin", origin))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
