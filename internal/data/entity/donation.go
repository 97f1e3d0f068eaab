package entity

import (
	"time"

	"github.com/google/uuid"
)

type DonationStatus string

const (
	DonationStatusPending         DonationStatus = "PENDING"
	DonationStatusPaymentUploaded DonationStatus = "PAYMENT_UPLOADED"
	DonationStatusVerified        DonationStatus = "VERIFIED"
	DonationStatusRejected        DonationStatus = "REJECTED"
	DonationStatusExpired         DonationStatus = "EXPIRED"
)

// Terminal reports whether the status admits no further transitions.
func (s DonationStatus) Terminal() bool {
	return s == DonationStatusVerified || s == DonationStatusRejected || s == DonationStatusExpired
}

type PaymentMethod string

const (
	PaymentMethodUPI          PaymentMethod = "UPI"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCheque       PaymentMethod = "CHEQUE"
)

// Donation records one pledge through its whole lifecycle. Exactly one of
// UserID and UploadToken identifies who may attach a payment proof: logged-in
// donors own the record, guests hold the single-use token.
type Donation struct {
	Base
	DonationID      string         `db:"donation_id"`
	UserID          *uuid.UUID     `db:"user_id"`
	UploadToken     *string        `db:"upload_token"`
	DonorName       string         `db:"donor_name"`
	DonorEmail      string         `db:"donor_email"`
	DonorPhone      *string        `db:"donor_phone"`
	DonorPAN        *string        `db:"donor_pan"`
	Address         *string        `db:"address"`
	City            *string        `db:"city"`
	Pincode         *string        `db:"pincode"`
	Category        string         `db:"category"`
	Amount          float64        `db:"amount"`
	PaymentMethod   PaymentMethod  `db:"payment_method"`
	PaymentProofURL *string        `db:"payment_proof_url"`
	TransactionID   *string        `db:"transaction_id"`
	Status          DonationStatus `db:"status"`
	ExpiresAt       time.Time      `db:"expires_at"`
	ReceiptNumber   *string        `db:"receipt_number"`
	VerifiedAt      *time.Time     `db:"verified_at"`
	VerifiedBy      *uuid.UUID     `db:"verified_by"`
	RejectionReason *string        `db:"rejection_reason"`
}

// DonationStats aggregates the admin dashboard numbers in one row.
type DonationStats struct {
	TotalCount     int64   `db:"total_count"`
	PendingCount   int64   `db:"pending_count"`
	UploadedCount  int64   `db:"uploaded_count"`
	VerifiedCount  int64   `db:"verified_count"`
	RejectedCount  int64   `db:"rejected_count"`
	ExpiredCount   int64   `db:"expired_count"`
	VerifiedAmount float64 `db:"verified_amount"`
}
