package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/SantiagoArteche/ober-api/logging"
	"github.com/SantiagoArteche/ober-api/services"
)

// JWTAuth guards the project and task routes. The token is read from the
// Authorization header (Bearer) or, failing that, from the auth_token cookie
// the login endpoint sets.
func JWTAuth(jwtService *services.JWTService, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if cookie, err := r.Cookie("auth_token"); err == nil {
					token = cookie.Value
				}
			}

			if token == "" {
				logger.Warnf("Event ID: JWT_AUTH_MISSING_TOKEN, Description: no token for request to %s %s", r.Method, r.URL.Path)
				writeUnauthorized(w, "You need to login before use the API")
				return
			}

			if _, err := jwtService.ValidateToken(token); err != nil {
				logger.Warnf("Event ID: JWT_AUTH_INVALID_TOKEN, Description: invalid token for request to %s %s: %v", r.Method, r.URL.Path, err)
				writeUnauthorized(w, "Invalid Token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"msg":   "ERROR",
		"error": message,
	})
}

// CORS allows any origin; the API is consumed cross-origin by the frontend.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
