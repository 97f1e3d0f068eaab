package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"temple-backend/internal/data/entity"
	"temple-backend/internal/dto/request"
	"temple-backend/internal/usecase"
	"temple-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DonationHandler struct {
	service usecase.DonationService
	log     *zap.Logger
}

func NewDonationHandler(service usecase.DonationService, log *zap.Logger) *DonationHandler {
	return &DonationHandler{
		service: service,
		log:     log.With(zap.String("handler", "donation")),
	}
}

// CreateDonation handles POST /api/donations (public, optional auth)
func (h *DonationHandler) CreateDonation(w http.ResponseWriter, r *http.Request) {
	var req request.CreateDonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	// Logged-in donors own the record, guests get an upload token
	var userID *uuid.UUID
	if id, ok := utils.GetUserIDFromContext(r.Context()); ok {
		userID = &id
	}

	donation, err := h.service.CreateDonation(r.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(w, err, "create donation")
		return
	}

	utils.ResponseCreated(w, "success", donation)
}

// UploadPaymentProof handles POST /api/donations/{id}/upload-proof (public, optional auth)
func (h *DonationHandler) UploadPaymentProof(w http.ResponseWriter, r *http.Request) {
	donationID := chi.URLParam(r, "id")
	if donationID == "" {
		utils.ResponseBadRequest(w, "Donation ID is required", nil)
		return
	}

	var req request.UploadPaymentProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	var userID *uuid.UUID
	if id, ok := utils.GetUserIDFromContext(r.Context()); ok {
		userID = &id
	}

	donation, err := h.service.UploadPaymentProof(r.Context(), donationID, &req, userID)
	if err != nil {
		h.handleServiceError(w, err, "upload payment proof")
		return
	}

	utils.ResponseSuccess(w, "success", donation)
}

// GetPublicReceipt handles GET /api/donations/public/{id} (public)
func (h *DonationHandler) GetPublicReceipt(w http.ResponseWriter, r *http.Request) {
	donationID := chi.URLParam(r, "id")
	if donationID == "" {
		utils.ResponseBadRequest(w, "Donation ID is required", nil)
		return
	}

	receipt, err := h.service.GetPublicReceipt(r.Context(), donationID)
	if err != nil {
		h.handleServiceError(w, err, "get public receipt")
		return
	}

	utils.ResponseSuccess(w, "success", receipt)
}

// GetMyDonations handles GET /api/donations/my (protected)
func (h *DonationHandler) GetMyDonations(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	email, _ := utils.GetEmailFromContext(r.Context())

	// Parse query parameters
	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	donations, err := h.service.GetMyDonations(r.Context(), userID, email, req)
	if err != nil {
		h.handleServiceError(w, err, "get my donations")
		return
	}

	utils.ResponseSuccess(w, "success", donations)
}

// GetDonation handles GET /api/donations/{id} (protected)
func (h *DonationHandler) GetDonation(w http.ResponseWriter, r *http.Request) {
	donationID := chi.URLParam(r, "id")
	if donationID == "" {
		utils.ResponseBadRequest(w, "Donation ID is required", nil)
		return
	}

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	role, _ := utils.GetRoleFromContext(r.Context())
	email, _ := utils.GetEmailFromContext(r.Context())

	donation, err := h.service.GetDonation(r.Context(), donationID, userID, email, entity.UserRole(role))
	if err != nil {
		h.handleServiceError(w, err, "get donation")
		return
	}

	utils.ResponseSuccess(w, "success", donation)
}

// ==================== ADMIN METHODS ====================

// GetAllDonations handles GET /api/admin/donations (admin only)
func (h *DonationHandler) GetAllDonations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req := &request.ListDonationsRequest{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("per_page"), 10),
		},
	}
	if status := query.Get("status"); status != "" {
		req.Status = &status
	}

	donations, err := h.service.GetAllDonations(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, err, "get all donations")
		return
	}

	utils.ResponseSuccess(w, "success", donations)
}

// GetStats handles GET /api/admin/donations/stats (admin only)
func (h *DonationHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		h.handleServiceError(w, err, "get donation stats")
		return
	}

	utils.ResponseSuccess(w, "success", stats)
}

// VerifyDonation handles PATCH /api/admin/donations/{id}/verify (admin only)
func (h *DonationHandler) VerifyDonation(w http.ResponseWriter, r *http.Request) {
	donationID := chi.URLParam(r, "id")
	if donationID == "" {
		utils.ResponseBadRequest(w, "Donation ID is required", nil)
		return
	}

	adminID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.VerifyDonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	donation, err := h.service.VerifyDonation(r.Context(), donationID, &req, adminID)
	if err != nil {
		h.handleServiceError(w, err, "verify donation")
		return
	}

	utils.ResponseSuccess(w, "success", donation)
}

// handleServiceError handles errors untuk donation operations
func (h *DonationHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, usecase.ErrValidation):
		h.log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrReceiptNotAvailable):
		// Missing and non-verified donations answer identically
		h.log.Warn(operation+" - receipt not available", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrNotFound):
		h.log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrForbidden):
		h.log.Warn(operation+" failed - forbidden", zap.Error(err))
		utils.ResponseForbidden(w, err.Error())

	case errors.Is(err, usecase.ErrExpired):
		h.log.Warn(operation+" failed - expired", zap.Error(err))
		utils.ResponseGone(w, err.Error())

	case errors.Is(err, usecase.ErrInvalidState):
		h.log.Warn(operation+" failed - invalid state", zap.Error(err))
		utils.ResponseConflict(w, err.Error())

	default:
		h.log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
