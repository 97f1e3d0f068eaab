package repository

import (
	"context"
	"fmt"
	"time"

	"temple-backend/internal/data/entity"
	"temple-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type DonationRepository interface {
	Create(ctx context.Context, donation *entity.Donation) error
	FindByDonationID(ctx context.Context, donationID string) (*entity.Donation, error)
	FindByUser(ctx context.Context, userID uuid.UUID, email string, limit, offset int) ([]*entity.Donation, error)
	CountByUser(ctx context.Context, userID uuid.UUID, email string) (int64, error)
	FindAll(ctx context.Context, status *entity.DonationStatus, limit, offset int) ([]*entity.Donation, error)
	CountAll(ctx context.Context, status *entity.DonationStatus) (int64, error)
	MarkExpired(ctx context.Context, donationID string) (bool, error)
	AttachPaymentProof(ctx context.Context, donationID string, proofURL string, transactionID *string) (bool, error)
	Verify(ctx context.Context, donationID, receiptNumber string, verifiedBy uuid.UUID, verifiedAt time.Time) (bool, error)
	Reject(ctx context.Context, donationID, reason string, verifiedBy uuid.UUID, verifiedAt time.Time) (bool, error)
	Stats(ctx context.Context) (*entity.DonationStats, error)
}

type donationRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewDonationRepository(db database.PgxIface, log *zap.Logger) DonationRepository {
	return &donationRepository{
		db:  db,
		log: log,
	}
}

const donationColumns = `
	id, donation_id, user_id, upload_token, donor_name, donor_email,
	donor_phone, donor_pan, address, city, pincode, category, amount,
	payment_method, payment_proof_url, transaction_id, status, expires_at,
	receipt_number, verified_at, verified_by, rejection_reason,
	created_at, updated_at, deleted_at
`

func scanDonation(row pgx.Row) (*entity.Donation, error) {
	var d entity.Donation
	err := row.Scan(
		&d.ID,
		&d.DonationID,
		&d.UserID,
		&d.UploadToken,
		&d.DonorName,
		&d.DonorEmail,
		&d.DonorPhone,
		&d.DonorPAN,
		&d.Address,
		&d.City,
		&d.Pincode,
		&d.Category,
		&d.Amount,
		&d.PaymentMethod,
		&d.PaymentProofURL,
		&d.TransactionID,
		&d.Status,
		&d.ExpiresAt,
		&d.ReceiptNumber,
		&d.VerifiedAt,
		&d.VerifiedBy,
		&d.RejectionReason,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new donation record into the database
func (dr *donationRepository) Create(ctx context.Context, donation *entity.Donation) error {
	// SQL query
	query := `
		INSERT INTO donations (id, donation_id, user_id, upload_token,
		                      donor_name, donor_email, donor_phone, donor_pan,
		                      address, city, pincode, category, amount,
		                      payment_method, status, expires_at,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18)
	`

	// Execute query
	_, err := dr.db.Exec(ctx, query,
		donation.ID,
		donation.DonationID,
		donation.UserID,
		donation.UploadToken,
		donation.DonorName,
		donation.DonorEmail,
		donation.DonorPhone,
		donation.DonorPAN,
		donation.Address,
		donation.City,
		donation.Pincode,
		donation.Category,
		donation.Amount,
		donation.PaymentMethod,
		donation.Status,
		donation.ExpiresAt,
		donation.CreatedAt,
		donation.UpdatedAt,
	)

	if err != nil {
		dr.log.Error("Failed to create donation",
			zap.Error(err),
			zap.String("donation_id", donation.DonationID),
		)
		return fmt.Errorf("create donation %s: %w", donation.DonationID, err)
	}

	return nil
}

func (dr *donationRepository) FindByDonationID(ctx context.Context, donationID string) (*entity.Donation, error) {
	query := `
		SELECT ` + donationColumns + `
		FROM donations
		WHERE donation_id = $1 AND deleted_at IS NULL
	`

	// QueryRow returns at most one row
	donation, err := scanDonation(dr.db.QueryRow(ctx, query, donationID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		dr.log.Error("Failed to find donation",
			zap.Error(err),
			zap.String("donation_id", donationID),
		)
		return nil, fmt.Errorf("find donation %s: %w", donationID, err)
	}

	return donation, nil
}

// FindByUser retrieves donations owned by the user ID or made as a guest
// with the same email before registering
func (dr *donationRepository) FindByUser(ctx context.Context, userID uuid.UUID, email string, limit, offset int) ([]*entity.Donation, error) {
	query := `
		SELECT ` + donationColumns + `
		FROM donations
		WHERE (user_id = $1 OR donor_email = $2) AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	// Query returns multiple rows
	rows, err := dr.db.Query(ctx, query, userID, email, limit, offset)
	if err != nil {
		dr.log.Error("Failed to get user donations",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find donations for user %s: %w", userID.String(), err)
	}
	defer rows.Close() // IMPORTANT: Close rows to release database connection

	return collectDonations(rows)
}

func (dr *donationRepository) CountByUser(ctx context.Context, userID uuid.UUID, email string) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM donations
		WHERE (user_id = $1 OR donor_email = $2) AND deleted_at IS NULL
	`

	var count int64
	err := dr.db.QueryRow(ctx, query, userID, email).Scan(&count)
	if err != nil {
		dr.log.Error("Database error counting user donations",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count donations for user %s: %w", userID.String(), err)
	}

	return count, nil
}

// FindAll retrieves paginated list of donations, optionally filtered by status
func (dr *donationRepository) FindAll(ctx context.Context, status *entity.DonationStatus, limit, offset int) ([]*entity.Donation, error) {
	query := `
		SELECT ` + donationColumns + `
		FROM donations
		WHERE ($1::text IS NULL OR status = $1) AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := dr.db.Query(ctx, query, status, limit, offset)
	if err != nil {
		dr.log.Error("Failed to get all donations",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find all donations limit %d offset %d: %w", limit, offset, err)
	}
	defer rows.Close()

	return collectDonations(rows)
}

func (dr *donationRepository) CountAll(ctx context.Context, status *entity.DonationStatus) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM donations
		WHERE ($1::text IS NULL OR status = $1) AND deleted_at IS NULL
	`

	var count int64
	err := dr.db.QueryRow(ctx, query, status).Scan(&count)
	if err != nil {
		dr.log.Error("Database error counting donations", zap.Error(err))
		return 0, fmt.Errorf("count all donations: %w", err)
	}

	return count, nil
}

// MarkExpired flips a PENDING donation to EXPIRED. The status guard in the
// WHERE clause makes concurrent callers race safely: only one row update
// ever happens, and a donation that already moved on is left untouched.
func (dr *donationRepository) MarkExpired(ctx context.Context, donationID string) (bool, error) {
	query := `
		UPDATE donations
		SET status = $2, updated_at = NOW()
		WHERE donation_id = $1 AND status = $3 AND deleted_at IS NULL
	`

	result, err := dr.db.Exec(ctx, query,
		donationID,
		entity.DonationStatusExpired,
		entity.DonationStatusPending,
	)
	if err != nil {
		dr.log.Error("Failed to mark donation expired",
			zap.Error(err),
			zap.String("donation_id", donationID),
		)
		return false, fmt.Errorf("mark donation %s expired: %w", donationID, err)
	}

	return result.RowsAffected() > 0, nil
}

// AttachPaymentProof records the payment proof and advances PENDING to
// PAYMENT_UPLOADED, conditional on the donation still being PENDING.
func (dr *donationRepository) AttachPaymentProof(ctx context.Context, donationID string, proofURL string, transactionID *string) (bool, error) {
	query := `
		UPDATE donations
		SET status = $2, payment_proof_url = $3, transaction_id = $4,
		    upload_token = NULL, updated_at = NOW()
		WHERE donation_id = $1 AND status = $5 AND deleted_at IS NULL
	`

	result, err := dr.db.Exec(ctx, query,
		donationID,
		entity.DonationStatusPaymentUploaded,
		proofURL,
		transactionID,
		entity.DonationStatusPending,
	)
	if err != nil {
		dr.log.Error("Failed to attach payment proof",
			zap.Error(err),
			zap.String("donation_id", donationID),
		)
		return false, fmt.Errorf("attach payment proof %s: %w", donationID, err)
	}

	return result.RowsAffected() > 0, nil
}

// Verify moves PAYMENT_UPLOADED to VERIFIED and mints the receipt number in
// the same statement, so the receipt can never be written twice.
func (dr *donationRepository) Verify(ctx context.Context, donationID, receiptNumber string, verifiedBy uuid.UUID, verifiedAt time.Time) (bool, error) {
	query := `
		UPDATE donations
		SET status = $2, receipt_number = $3, verified_by = $4,
		    verified_at = $5, updated_at = NOW()
		WHERE donation_id = $1 AND status = $6
		      AND receipt_number IS NULL AND deleted_at IS NULL
	`

	result, err := dr.db.Exec(ctx, query,
		donationID,
		entity.DonationStatusVerified,
		receiptNumber,
		verifiedBy,
		verifiedAt,
		entity.DonationStatusPaymentUploaded,
	)
	if err != nil {
		dr.log.Error("Failed to verify donation",
			zap.Error(err),
			zap.String("donation_id", donationID),
		)
		return false, fmt.Errorf("verify donation %s: %w", donationID, err)
	}

	return result.RowsAffected() > 0, nil
}

// Reject moves PAYMENT_UPLOADED to REJECTED with the reviewer's reason.
func (dr *donationRepository) Reject(ctx context.Context, donationID, reason string, verifiedBy uuid.UUID, verifiedAt time.Time) (bool, error) {
	query := `
		UPDATE donations
		SET status = $2, rejection_reason = $3, verified_by = $4,
		    verified_at = $5, updated_at = NOW()
		WHERE donation_id = $1 AND status = $6 AND deleted_at IS NULL
	`

	result, err := dr.db.Exec(ctx, query,
		donationID,
		entity.DonationStatusRejected,
		reason,
		verifiedBy,
		verifiedAt,
		entity.DonationStatusPaymentUploaded,
	)
	if err != nil {
		dr.log.Error("Failed to reject donation",
			zap.Error(err),
			zap.String("donation_id", donationID),
		)
		return false, fmt.Errorf("reject donation %s: %w", donationID, err)
	}

	return result.RowsAffected() > 0, nil
}

// Stats aggregates the dashboard counters in a single scan
func (dr *donationRepository) Stats(ctx context.Context) (*entity.DonationStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'PENDING'),
			COUNT(*) FILTER (WHERE status = 'PAYMENT_UPLOADED'),
			COUNT(*) FILTER (WHERE status = 'VERIFIED'),
			COUNT(*) FILTER (WHERE status = 'REJECTED'),
			COUNT(*) FILTER (WHERE status = 'EXPIRED'),
			COALESCE(SUM(amount) FILTER (WHERE status = 'VERIFIED'), 0)
		FROM donations
		WHERE deleted_at IS NULL
	`

	var stats entity.DonationStats
	err := dr.db.QueryRow(ctx, query).Scan(
		&stats.TotalCount,
		&stats.PendingCount,
		&stats.UploadedCount,
		&stats.VerifiedCount,
		&stats.RejectedCount,
		&stats.ExpiredCount,
		&stats.VerifiedAmount,
	)
	if err != nil {
		dr.log.Error("Failed to aggregate donation stats", zap.Error(err))
		return nil, fmt.Errorf("donation stats: %w", err)
	}

	return &stats, nil
}

func collectDonations(rows pgx.Rows) ([]*entity.Donation, error) {
	var donations []*entity.Donation
	// Iterate through each row
	for rows.Next() {
		donation, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan donation row: %w", err)
		}
		donations = append(donations, donation)
	}

	// Check for errors during iteration (not just database errors)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donations rows: %w", err)
	}

	return donations, nil
}
