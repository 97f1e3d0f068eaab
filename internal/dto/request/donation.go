package request

type CreateDonationRequest struct {
	DonorName     string  `json:"donor_name" validate:"required,min=2,max=100"`
	DonorEmail    string  `json:"donor_email" validate:"required,email"`
	DonorPhone    *string `json:"donor_phone,omitempty" validate:"omitempty,min=10,max=15"`
	DonorPAN      *string `json:"donor_pan,omitempty" validate:"omitempty,len=10"`
	Address       *string `json:"address,omitempty" validate:"omitempty,max=255"`
	City          *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Pincode       *string `json:"pincode,omitempty" validate:"omitempty,len=6"`
	Category      string  `json:"category" validate:"required,max=100"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" validate:"required,oneof=UPI BANK_TRANSFER CASH CHEQUE"`
}

type UploadPaymentProofRequest struct {
	UploadToken     string  `json:"upload_token,omitempty" validate:"omitempty,uuid4"`
	PaymentProofURL string  `json:"payment_proof_url" validate:"required,url"`
	TransactionID   *string `json:"transaction_id,omitempty" validate:"omitempty,max=100"`
}

type VerifyDonationRequest struct {
	Status          string  `json:"status" validate:"required,oneof=VERIFIED REJECTED"`
	RejectionReason *string `json:"rejection_reason,omitempty" validate:"omitempty,min=3,max=500"`
}

type ListDonationsRequest struct {
	PaginatedRequest
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=PENDING PAYMENT_UPLOADED VERIFIED REJECTED EXPIRED"`
}
