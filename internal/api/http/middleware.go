package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"leasing-backoffice/internal/config"
	"leasing-backoffice/internal/logger"
	"leasing-backoffice/internal/security"
)

type contextKey string

const claimsKey contextKey = "operator-claims"

// ClaimsFromContext returns the claims the auth middleware attached.
func ClaimsFromContext(ctx context.Context) (*security.OperatorClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*security.OperatorClaims)
	return claims, ok
}

// AuthMiddleware validates the bearer token and checks the role claim
// against config.RoutePermissions.
type AuthMiddleware struct {
	tokenManager security.TokenManager
}

func NewAuthMiddleware(tm security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm}
}

func (m *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if config.IsPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || token == "" {
			writeError(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}

		claims, err := m.tokenManager.ValidateToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		if !config.IsRoleAllowed(claims.Role, r.Method, r.URL.Path) {
			logger.Warn("Role not allowed", "role", claims.Role, "method", r.Method, "path", r.URL.Path)
			writeError(w, http.StatusForbidden, "Role '"+claims.Role+"' not allowed for "+r.Method+" "+r.URL.Path)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// LoggingMiddleware logs one line per request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
