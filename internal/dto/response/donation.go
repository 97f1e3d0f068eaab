package response

import (
	"time"

	"temple-backend/internal/data/entity"
)

type DonationResponse struct {
	DonationID      string                `json:"donation_id"`
	DonorName       string                `json:"donor_name"`
	DonorEmail      string                `json:"donor_email"`
	DonorPhone      *string               `json:"donor_phone,omitempty"`
	DonorPAN        *string               `json:"donor_pan,omitempty"`
	Address         *string               `json:"address,omitempty"`
	City            *string               `json:"city,omitempty"`
	Pincode         *string               `json:"pincode,omitempty"`
	Category        string                `json:"category"`
	Amount          float64               `json:"amount"`
	PaymentMethod   entity.PaymentMethod  `json:"payment_method"`
	PaymentProofURL *string               `json:"payment_proof_url,omitempty"`
	TransactionID   *string               `json:"transaction_id,omitempty"`
	Status          entity.DonationStatus `json:"status"`
	ExpiresAt       time.Time             `json:"expires_at"`
	ReceiptNumber   *string               `json:"receipt_number,omitempty"`
	VerifiedAt      *time.Time            `json:"verified_at,omitempty"`
	RejectionReason *string               `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

// DonationCreatedResponse carries the single-use upload token back to a
// guest donor. This is the only place the token ever leaves the system.
type DonationCreatedResponse struct {
	DonationResponse
	UploadToken *string `json:"upload_token,omitempty"`
}

// PublicReceiptResponse is the donor-shareable projection of a verified
// donation. Contact and tax fields stay private.
type PublicReceiptResponse struct {
	DonationID    string               `json:"donation_id"`
	DonorName     string               `json:"donor_name"`
	Category      string               `json:"category"`
	Amount        float64              `json:"amount"`
	PaymentMethod entity.PaymentMethod `json:"payment_method"`
	ReceiptNumber string               `json:"receipt_number"`
	VerifiedAt    time.Time            `json:"verified_at"`
}

type DonationStatsResponse struct {
	TotalCount     int64   `json:"total_count"`
	PendingCount   int64   `json:"pending_count"`
	UploadedCount  int64   `json:"uploaded_count"`
	VerifiedCount  int64   `json:"verified_count"`
	RejectedCount  int64   `json:"rejected_count"`
	ExpiredCount   int64   `json:"expired_count"`
	VerifiedAmount float64 `json:"verified_amount"`
}

// Helper converters
func DonationToResponse(donation *entity.Donation) DonationResponse {
	return DonationResponse{
		DonationID:      donation.DonationID,
		DonorName:       donation.DonorName,
		DonorEmail:      donation.DonorEmail,
		DonorPhone:      donation.DonorPhone,
		DonorPAN:        donation.DonorPAN,
		Address:         donation.Address,
		City:            donation.City,
		Pincode:         donation.Pincode,
		Category:        donation.Category,
		Amount:          donation.Amount,
		PaymentMethod:   donation.PaymentMethod,
		PaymentProofURL: donation.PaymentProofURL,
		TransactionID:   donation.TransactionID,
		Status:          donation.Status,
		ExpiresAt:       donation.ExpiresAt,
		ReceiptNumber:   donation.ReceiptNumber,
		VerifiedAt:      donation.VerifiedAt,
		RejectionReason: donation.RejectionReason,
		CreatedAt:       donation.CreatedAt,
	}
}

func DonationToCreatedResponse(donation *entity.Donation) DonationCreatedResponse {
	return DonationCreatedResponse{
		DonationResponse: DonationToResponse(donation),
		UploadToken:      donation.UploadToken,
	}
}

func DonationToPublicReceipt(donation *entity.Donation) PublicReceiptResponse {
	resp := PublicReceiptResponse{
		DonationID:    donation.DonationID,
		DonorName:     donation.DonorName,
		Category:      donation.Category,
		Amount:        donation.Amount,
		PaymentMethod: donation.PaymentMethod,
	}

	if donation.ReceiptNumber != nil {
		resp.ReceiptNumber = *donation.ReceiptNumber
	}
	if donation.VerifiedAt != nil {
		resp.VerifiedAt = *donation.VerifiedAt
	}

	return resp
}

func StatsToResponse(stats *entity.DonationStats) DonationStatsResponse {
	return DonationStatsResponse{
		TotalCount:     stats.TotalCount,
		PendingCount:   stats.PendingCount,
		UploadedCount:  stats.UploadedCount,
		VerifiedCount:  stats.VerifiedCount,
		RejectedCount:  stats.RejectedCount,
		ExpiredCount:   stats.ExpiredCount,
		VerifiedAmount: stats.VerifiedAmount,
	}
}
