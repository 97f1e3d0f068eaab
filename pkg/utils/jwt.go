package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// AuthClaims adalah payload JWT untuk access & refresh token
type AuthClaims struct {
	Role      string `json:"role,omitempty"`
	Email     string `json:"email,omitempty"`
	DeviceID  string `json:"device_id,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// GenerateAccessToken creates a short-lived token carrying identity, role
// and the device it was issued to
func GenerateAccessToken(config JWTConfig, userID uuid.UUID, role, email, deviceID string) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(config.AccessExpiryMins) * time.Minute)

	claims := AuthClaims{
		Role:      role,
		Email:     email,
		DeviceID:  deviceID,
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}

	return signed, expiresAt, nil
}

// GenerateRefreshToken creates the long-lived token bound to one device.
// The token itself only proves identity; whether it is still accepted is
// decided by the server-side hash it is checked against.
func GenerateRefreshToken(config JWTConfig, userID uuid.UUID, deviceID string) (string, error) {
	expiresAt := time.Now().Add(time.Duration(config.RefreshExpiryHours) * time.Hour)

	claims := AuthClaims{
		DeviceID:  deviceID,
		TokenType: TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(config.Secret))
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}

	return signed, nil
}

// ParseToken validates signature and expiry and enforces the expected type
func ParseToken(config JWTConfig, tokenString, expectedType string) (*AuthClaims, error) {
	claims := &AuthClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(config.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TokenType != expectedType {
		return nil, fmt.Errorf("unexpected token type %s", claims.TokenType)
	}

	return claims, nil
}
