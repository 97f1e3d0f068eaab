package wire

import (
	"temple-backend/internal/adaptor"
	"temple-backend/pkg/cache"
	"temple-backend/pkg/middleware"
	"temple-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireDonation(
	r chi.Router,
	donationHandler *adaptor.DonationHandler,
	store *cache.Store,
	config *utils.Config,
	log *zap.Logger,
) {
	auth := middleware.AuthJWT(config.JWT, store, log)
	optional := middleware.OptionalAuth(config.JWT, store, log)
	admin := middleware.Admin(log)

	// ==================== PUBLIC ROUTES ====================
	// Donations can start as guest or logged-in, so auth is optional
	r.With(optional).Post("/api/donations", donationHandler.CreateDonation)
	r.With(optional).Post("/api/donations/{id}/upload-proof", donationHandler.UploadPaymentProof)
	r.Get("/api/donations/public/{id}", donationHandler.GetPublicReceipt)

	// ==================== PROTECTED ROUTES ====================
	r.With(auth).Get("/api/donations/my", donationHandler.GetMyDonations)
	r.With(auth).Get("/api/donations/{id}", donationHandler.GetDonation)

	// ==================== ADMIN ROUTES ====================
	r.With(auth, admin).Get("/api/admin/donations", donationHandler.GetAllDonations)
	r.With(auth, admin).Get("/api/admin/donations/stats", donationHandler.GetStats)
	r.With(auth, admin).Patch("/api/admin/donations/{id}/verify", donationHandler.VerifyDonation)
}
