package usecase

import (
	"context"
	"fmt"
	"time"

	"temple-backend/internal/data/entity"
	"temple-backend/internal/data/repository"
	"temple-backend/internal/dto/request"
	"temple-backend/internal/dto/response"
	"temple-backend/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DonationService interface {
	CreateDonation(ctx context.Context, req *request.CreateDonationRequest, userID *uuid.UUID) (*response.DonationCreatedResponse, error)
	UploadPaymentProof(ctx context.Context, donationID string, req *request.UploadPaymentProofRequest, userID *uuid.UUID) (*response.DonationResponse, error)
	VerifyDonation(ctx context.Context, donationID string, req *request.VerifyDonationRequest, adminID uuid.UUID) (*response.DonationResponse, error)
	GetDonation(ctx context.Context, donationID string, userID uuid.UUID, email string, role entity.UserRole) (*response.DonationResponse, error)
	GetPublicReceipt(ctx context.Context, donationID string) (*response.PublicReceiptResponse, error)
	GetMyDonations(ctx context.Context, userID uuid.UUID, email string, page *request.PaginatedRequest) (*response.PaginatedResponse[response.DonationResponse], error)
	GetAllDonations(ctx context.Context, req *request.ListDonationsRequest) (*response.PaginatedResponse[response.DonationResponse], error)
	GetStats(ctx context.Context) (*response.DonationStatsResponse, error)
}

type donationService struct {
	repo   *repository.Repository
	config *utils.Config
	log    *zap.Logger
}

func NewDonationService(
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) DonationService {
	return &donationService{
		repo:   repo,
		config: config,
		log:    log.With(zap.String("service", "donation")),
	}
}

// ==================== CREATE ====================

func (s *donationService) CreateDonation(ctx context.Context, req *request.CreateDonationRequest, userID *uuid.UUID) (*response.DonationCreatedResponse, error) {
	// 1. Validasi input
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create donation validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	// 2. Build entity. Guests get a single-use upload token; logged-in
	// donors are identified by ownership instead.
	now := time.Now()
	donation := &entity.Donation{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		DonationID:    utils.GenerateDonationID(),
		UserID:        userID,
		DonorName:     req.DonorName,
		DonorEmail:    req.DonorEmail,
		DonorPhone:    req.DonorPhone,
		DonorPAN:      req.DonorPAN,
		Address:       req.Address,
		City:          req.City,
		Pincode:       req.Pincode,
		Category:      req.Category,
		Amount:        req.Amount,
		PaymentMethod: entity.PaymentMethod(req.PaymentMethod),
		Status:        entity.DonationStatusPending,
		ExpiresAt:     now.Add(time.Duration(s.config.Donation.PaymentWindowMinutes) * time.Minute),
	}

	if userID == nil {
		token := utils.GenerateUploadToken()
		donation.UploadToken = &token
	}

	// 3. Save
	if err := s.repo.Donation.Create(ctx, donation); err != nil {
		s.log.Error("Failed to create donation", zap.Error(err))
		return nil, fmt.Errorf("failed to create donation")
	}

	s.log.Info("Donation created",
		zap.String("donation_id", donation.DonationID),
		zap.String("category", donation.Category),
		zap.Bool("guest", userID == nil))

	resp := response.DonationToCreatedResponse(donation)
	return &resp, nil
}

// ==================== UPLOAD PROOF ====================

func (s *donationService) UploadPaymentProof(ctx context.Context, donationID string, req *request.UploadPaymentProofRequest, userID *uuid.UUID) (*response.DonationResponse, error) {
	// 1. Validasi input
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Upload proof validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	// 2. Find donation
	donation, err := s.repo.Donation.FindByDonationID(ctx, donationID)
	if err != nil {
		return nil, fmt.Errorf("failed to find donation")
	}
	if donation == nil {
		return nil, ErrNotFound
	}

	// 3. Lazy expiry: a PENDING donation past its deadline is expired the
	// moment anything touches it, never by a background job.
	donation, err = s.freshen(ctx, donation)
	if err != nil {
		return nil, err
	}

	// 4. Authorization: owner XOR upload token
	if err := authorizeUpload(donation, req.UploadToken, userID); err != nil {
		return nil, err
	}

	// 5. State guards
	if donation.Status == entity.DonationStatusExpired {
		return nil, ErrExpired
	}
	if donation.Status != entity.DonationStatusPending {
		return nil, ErrInvalidState
	}

	// 6. Conditional transition PENDING -> PAYMENT_UPLOADED
	ok, err := s.repo.Donation.AttachPaymentProof(ctx, donationID, req.PaymentProofURL, req.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to upload payment proof")
	}
	if !ok {
		// Raced with expiry or another upload
		return nil, ErrInvalidState
	}

	s.log.Info("Payment proof uploaded", zap.String("donation_id", donationID))

	donation, err = s.repo.Donation.FindByDonationID(ctx, donationID)
	if err != nil || donation == nil {
		return nil, fmt.Errorf("failed to reload donation")
	}

	resp := response.DonationToResponse(donation)
	return &resp, nil
}

// authorizeUpload enforces the two mutually exclusive upload credentials:
// a guest donation needs its single-use token, an owned donation needs the
// owner. Anything else is forbidden.
func authorizeUpload(donation *entity.Donation, token string, userID *uuid.UUID) error {
	if donation.UserID != nil {
		if userID == nil || *userID != *donation.UserID {
			return ErrForbidden
		}
		return nil
	}

	if donation.UploadToken == nil || token == "" || token != *donation.UploadToken {
		return ErrForbidden
	}

	return nil
}

// ==================== VERIFY / REJECT ====================

func (s *donationService) VerifyDonation(ctx context.Context, donationID string, req *request.VerifyDonationRequest, adminID uuid.UUID) (*response.DonationResponse, error) {
	// 1. Validasi input
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Verify donation validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}
	if req.Status == string(entity.DonationStatusRejected) && req.RejectionReason == nil {
		return nil, fmt.Errorf("%w: rejection_reason is required", ErrValidation)
	}

	// 2. Find donation
	donation, err := s.repo.Donation.FindByDonationID(ctx, donationID)
	if err != nil {
		return nil, fmt.Errorf("failed to find donation")
	}
	if donation == nil {
		return nil, ErrNotFound
	}

	donation, err = s.freshen(ctx, donation)
	if err != nil {
		return nil, err
	}

	// 3. Only uploaded proofs can be reviewed
	if donation.Status != entity.DonationStatusPaymentUploaded {
		return nil, ErrInvalidState
	}

	// 4. Apply decision. The conditional update means two admins reviewing
	// the same donation cannot both win; the loser gets invalid state.
	now := time.Now()
	var ok bool
	if req.Status == string(entity.DonationStatusVerified) {
		// Receipt is minted here and only here, namespaced by the year the
		// verification happened in, not the pledge year.
		receiptNumber := utils.GenerateReceiptNumber(now.Year())
		ok, err = s.repo.Donation.Verify(ctx, donationID, receiptNumber, adminID, now)
	} else {
		ok, err = s.repo.Donation.Reject(ctx, donationID, *req.RejectionReason, adminID, now)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update donation status")
	}
	if !ok {
		return nil, ErrInvalidState
	}

	s.log.Info("Donation reviewed",
		zap.String("donation_id", donationID),
		zap.String("decision", req.Status),
		zap.String("admin_id", adminID.String()))

	donation, err = s.repo.Donation.FindByDonationID(ctx, donationID)
	if err != nil || donation == nil {
		return nil, fmt.Errorf("failed to reload donation")
	}

	resp := response.DonationToResponse(donation)
	return &resp, nil
}

// ==================== READS ====================

func (s *donationService) GetDonation(ctx context.Context, donationID string, userID uuid.UUID, email string, role entity.UserRole) (*response.DonationResponse, error) {
	donation, err := s.repo.Donation.FindByDonationID(ctx, donationID)
	if err != nil {
		return nil, fmt.Errorf("failed to find donation")
	}
	if donation == nil {
		return nil, ErrNotFound
	}

	donation, err = s.freshen(ctx, donation)
	if err != nil {
		return nil, err
	}

	// Owner (by id, or by the contact identity on a guest pledge) or admin.
	// Everyone else gets not-found, never a hint that the record exists.
	if !role.IsAdmin() {
		owned := donation.UserID != nil && *donation.UserID == userID
		sameContact := email != "" && donation.DonorEmail == email
		if !owned && !sameContact {
			return nil, ErrNotFound
		}
	}

	resp := response.DonationToResponse(donation)
	return &resp, nil
}

func (s *donationService) GetPublicReceipt(ctx context.Context, donationID string) (*response.PublicReceiptResponse, error) {
	donation, err := s.repo.Donation.FindByDonationID(ctx, donationID)
	if err != nil {
		return nil, fmt.Errorf("failed to find donation")
	}
	if donation == nil {
		return nil, ErrReceiptNotAvailable
	}

	donation, err = s.freshen(ctx, donation)
	if err != nil {
		return nil, err
	}

	// Anything short of VERIFIED answers exactly like a missing donation
	if donation.Status != entity.DonationStatusVerified || donation.ReceiptNumber == nil {
		return nil, ErrReceiptNotAvailable
	}

	resp := response.DonationToPublicReceipt(donation)
	return &resp, nil
}

func (s *donationService) GetMyDonations(ctx context.Context, userID uuid.UUID, email string, page *request.PaginatedRequest) (*response.PaginatedResponse[response.DonationResponse], error) {
	donations, err := s.repo.Donation.FindByUser(ctx, userID, email, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to get donations")
	}

	total, err := s.repo.Donation.CountByUser(ctx, userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to count donations")
	}

	return s.toPage(ctx, donations, page.Page, page.Limit(), total)
}

func (s *donationService) GetAllDonations(ctx context.Context, req *request.ListDonationsRequest) (*response.PaginatedResponse[response.DonationResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	var status *entity.DonationStatus
	if req.Status != nil {
		st := entity.DonationStatus(*req.Status)
		status = &st
	}

	donations, err := s.repo.Donation.FindAll(ctx, status, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to get donations")
	}

	total, err := s.repo.Donation.CountAll(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to count donations")
	}

	return s.toPage(ctx, donations, req.Page, req.Limit(), total)
}

func (s *donationService) GetStats(ctx context.Context) (*response.DonationStatsResponse, error) {
	stats, err := s.repo.Donation.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats")
	}

	resp := response.StatsToResponse(stats)
	return &resp, nil
}

// ==================== INTERNAL ====================

// freshen applies the lazy deadline check. A PENDING donation past its
// deadline transitions to EXPIRED via the status-guarded update; losing
// that race just means someone else already moved it, so re-read.
func (s *donationService) freshen(ctx context.Context, donation *entity.Donation) (*entity.Donation, error) {
	if donation.Status != entity.DonationStatusPending || time.Now().Before(donation.ExpiresAt) {
		return donation, nil
	}

	ok, err := s.repo.Donation.MarkExpired(ctx, donation.DonationID)
	if err != nil {
		return nil, fmt.Errorf("failed to expire donation")
	}
	if ok {
		s.log.Info("Donation expired", zap.String("donation_id", donation.DonationID))
		donation.Status = entity.DonationStatusExpired
		return donation, nil
	}

	fresh, err := s.repo.Donation.FindByDonationID(ctx, donation.DonationID)
	if err != nil || fresh == nil {
		return nil, fmt.Errorf("failed to reload donation")
	}
	return fresh, nil
}

func (s *donationService) toPage(ctx context.Context, donations []*entity.Donation, page, perPage int, total int64) (*response.PaginatedResponse[response.DonationResponse], error) {
	items := make([]response.DonationResponse, 0, len(donations))
	for _, donation := range donations {
		// Listings apply the same lazy expiry so callers never see a
		// PENDING row that is already past its deadline
		fresh, err := s.freshen(ctx, donation)
		if err != nil {
			return nil, err
		}
		items = append(items, response.DonationToResponse(fresh))
	}

	return response.NewPaginatedResponse(items, page, perPage, total), nil
}
