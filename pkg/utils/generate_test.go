package utils

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	otp := GenerateOTP(6)
	require.Len(t, otp, 6)
	for _, c := range otp {
		assert.True(t, c >= '0' && c <= '9', "OTP must be numeric, got %q", otp)
	}

	// Bogus length falls back to 6 digits
	assert.Len(t, GenerateOTP(0), 6)
	assert.Len(t, GenerateOTP(4), 4)
}

func TestGenerateDonationID(t *testing.T) {
	id := GenerateDonationID()

	parts := strings.Split(id, "-")
	require.Len(t, parts, 4)
	assert.Equal(t, "DON", parts[0])
	assert.Equal(t, time.Now().Format("20060102"), parts[1])
	assert.Len(t, parts[2], 6)
	assert.Len(t, parts[3], 4)
}

func TestGenerateReceiptNumber(t *testing.T) {
	receipt := GenerateReceiptNumber(2026)

	assert.True(t, strings.HasPrefix(receipt, "RCPT-2026-"))
	assert.Len(t, receipt, len("RCPT-2026-")+6)
}

func TestGenerateUploadToken(t *testing.T) {
	token := GenerateUploadToken()
	_, err := uuid.Parse(token)
	assert.NoError(t, err)
	assert.NotEqual(t, token, GenerateUploadToken())
}

func TestAccessTokenRoundTrip(t *testing.T) {
	config := JWTConfig{Secret: "test-secret", AccessExpiryMins: 15, RefreshExpiryHours: 72}
	userID := uuid.New()

	token, expiresAt, err := GenerateAccessToken(config, userID, "USER", "a@b.com", "phone-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := ParseToken(config, token, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, "USER", claims.Role)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "phone-1", claims.DeviceID)

	// An access token is not a refresh token
	_, err = ParseToken(config, token, TokenTypeRefresh)
	assert.Error(t, err)

	// Wrong secret is rejected
	_, err = ParseToken(JWTConfig{Secret: "other"}, token, TokenTypeAccess)
	assert.Error(t, err)
}

func TestTokenHash(t *testing.T) {
	token := fmt.Sprintf("some.very.long.token.%s", strings.Repeat("x", 200))

	hash := HashToken(token)
	assert.True(t, CheckTokenHash(token, hash))
	assert.False(t, CheckTokenHash(token+"tampered", hash))
}
