package middleware

import (
	"net/http"
	"strings"

	"temple-backend/internal/data/entity"
	"temple-backend/pkg/cache"
	"temple-backend/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthJWT middleware untuk validasi access token
func AuthJWT(config utils.JWTConfig, store *cache.Store, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := authenticate(r, config, store, logger)
			if !ok {
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			// Set context dengan user info
			ctx := utils.SetUserContext(r.Context(), userID, claims.Role, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches user context when a valid token is present and lets
// anonymous requests through untouched. Guest donation routes use this.
func OptionalAuth(config utils.JWTConfig, store *cache.Store, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, ok := authenticate(r, config, store, logger)
			if !ok {
				// A token was sent but does not check out. Reject instead of
				// silently downgrading to guest.
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := utils.SetUserContext(r.Context(), userID, claims.Role, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Admin - middleware cek role admin
func Admin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := utils.GetRoleFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			if !entity.UserRole(role).IsAdmin() {
				userID, _ := utils.GetUserIDFromContext(r.Context())
				logger.Warn("Admin check: non-admin access attempt",
					zap.String("user_id", userID.String()),
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func authenticate(r *http.Request, config utils.JWTConfig, store *cache.Store, logger *zap.Logger) (*utils.AuthClaims, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}

	claims, err := utils.ParseToken(config, parts[1], utils.TokenTypeAccess)
	if err != nil {
		logger.Warn("Token validation failed", zap.Error(err))
		return nil, false
	}

	// Session marker check makes logout revoke live access tokens too.
	// Only enforced while the credential store is reachable.
	if store.Available() {
		subject := claims.Subject + ":" + claims.DeviceID
		if _, ok := store.Read(r.Context(), cache.NamespaceSession, subject); !ok {
			logger.Warn("Session revoked or expired", zap.String("user_id", claims.Subject))
			return nil, false
		}
	}

	return claims, true
}
