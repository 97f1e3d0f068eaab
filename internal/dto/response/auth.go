package response

import (
	"time"

	"temple-backend/internal/data/entity"
)

type AuthResponse struct {
	UserID       string          `json:"user_id"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresAt    time.Time       `json:"expires_at"`
	Email        string          `json:"email"`
	Name         string          `json:"name"`
	Role         entity.UserRole `json:"role"`
}

type OTPSentResponse struct {
	Email     string `json:"email"`
	ExpiresIn int64  `json:"expires_in"`
}

type UserResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Phone     *string         `json:"phone,omitempty"`
	Role      entity.UserRole `json:"role"`
	CreatedAt time.Time       `json:"created_at"`
}

// Helper converters
func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

func AuthToResponse(user *entity.User, accessToken, refreshToken string, expiresAt time.Time) AuthResponse {
	return AuthResponse{
		UserID:       user.ID.String(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
	}
}
