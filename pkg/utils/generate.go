package utils

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mathrand "math/rand"
	"time"

	"github.com/google/uuid"
)

// ==================== UUID & TOKEN ====================

func GenerateUUID() uuid.UUID {
	return uuid.New()
}

func ParseUUID(uuidStr string) (uuid.UUID, error) {
	return uuid.Parse(uuidStr)
}

// GenerateUploadToken creates the single-use bearer token handed to guest
// donors. uuid v4 reads from crypto/rand.
func GenerateUploadToken() string {
	return uuid.NewString()
}

// ==================== OTP ====================

// GenerateOTP creates a numeric one-time code of the given length
// from crypto/rand
func GenerateOTP(length int) string {
	if length <= 0 {
		length = 6
	}

	max := uint32(1)
	for i := 0; i < length; i++ {
		max *= 10
	}

	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failure berarti sistem bermasalah, fallback ke waktu
		return fmt.Sprintf("%0*d", length, time.Now().UnixNano()%int64(max))
	}

	n := binary.BigEndian.Uint32(buf[:]) % max
	return fmt.Sprintf("%0*d", length, n)
}

// ==================== DONATION ID & RECEIPT ====================

const receiptAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateDonationID creates the public donation identifier.
// Format: DON-YYYYMMDD-HHMMSS-RANDOM
func GenerateDonationID() string {
	now := time.Now()

	datePart := now.Format("20060102")
	timePart := now.Format("150405")
	randomPart := fmt.Sprintf("%04d", mathrand.Intn(10000))

	return fmt.Sprintf("DON-%s-%s-%s", datePart, timePart, randomPart)
}

// GenerateReceiptNumber creates a receipt number namespaced by the
// given calendar year. Format: RCPT-YYYY-RANDOM
func GenerateReceiptNumber(year int) string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = receiptAlphabet[mathrand.Intn(len(receiptAlphabet))]
	}

	return fmt.Sprintf("RCPT-%d-%s", year, suffix)
}
