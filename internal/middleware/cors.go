package middleware

import (
	"net/http"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// CORSMiddleware lets the dashboard read the health API from another origin
type CORSMiddleware struct {
	// AllowedOrigins contains the list of allowed origins; "*" allows any
	AllowedOrigins []string
	logger         *zap.Logger
}

// NewCORSMiddleware creates a new CORS middleware
func NewCORSMiddleware(allowedOrigins []string, logger *zap.Logger) *CORSMiddleware {
	return &CORSMiddleware{
		AllowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

func (m *CORSMiddleware) allowed(origin string) bool {
	if slices.Contains(m.AllowedOrigins, "*") || slices.Contains(m.AllowedOrigins, origin) {
		return true
	}
	// Support wildcard subdomains like https://*.example.com
	for _, pattern := range m.AllowedOrigins {
		prefix, suffix, ok := strings.Cut(pattern, "*")
		if ok && strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) {
			return true
		}
	}
	return false
}

// EnableCORS adds CORS headers for allowed origins and answers preflight requests.
// The API is read-only, so only GET and OPTIONS are advertised.
func (m *CORSMiddleware) EnableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" {
			if m.allowed(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-Request-ID")
				w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)
				w.Header().Set("Access-Control-Max-Age", "86400")
			} else {
				m.logger.Warn("CORS: Origin not allowed",
					zap.String("origin", origin),
					zap.Strings("allowed_origins", m.AllowedOrigins))
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
