package wire

import (
	"temple-backend/internal/adaptor"
	"temple-backend/pkg/cache"
	"temple-backend/pkg/middleware"
	"temple-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAuth(
	r chi.Router,
	authHandler *adaptor.AuthHandler,
	store *cache.Store,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// Public routes (tanpa auth middleware)
	r.Post("/api/auth/register", authHandler.Register)
	r.Post("/api/auth/login", authHandler.Login)
	r.Post("/api/auth/verify-otp", authHandler.VerifyOTP)
	r.Post("/api/auth/refresh", authHandler.RefreshToken)

	// ==================== PROTECTED ROUTES ====================
	auth := middleware.AuthJWT(config.JWT, store, log)
	r.With(auth).Post("/api/auth/logout", authHandler.Logout)
	r.With(auth).Post("/api/auth/logout-all", authHandler.LogoutAll)
	r.With(auth).Get("/api/auth/me", authHandler.GetProfile)
}
