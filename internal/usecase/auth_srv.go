package usecase

import (
	"context"
	"fmt"
	"time"

	"temple-backend/internal/data/entity"
	"temple-backend/internal/data/repository"
	"temple-backend/internal/dto/request"
	"temple-backend/internal/dto/response"
	"temple-backend/pkg/cache"
	"temple-backend/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.UserResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.OTPSentResponse, error)
	VerifyOTP(ctx context.Context, req *request.VerifyOTPRequest) (*response.AuthResponse, error)
	RefreshToken(ctx context.Context, req *request.RefreshTokenRequest) (*response.AuthResponse, error)
	Logout(ctx context.Context, userID uuid.UUID, deviceID string) error
	LogoutAll(ctx context.Context, userID uuid.UUID) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error)
}

type authService struct {
	repo   *repository.Repository
	store  *cache.Store
	config *utils.Config
	log    *zap.Logger
}

func NewAuthService(
	repo *repository.Repository,
	store *cache.Store,
	config *utils.Config,
	log *zap.Logger,
) AuthService {
	return &authService{
		repo:   repo,
		store:  store,
		config: config,
		log:    log.With(zap.String("service", "auth")),
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*response.UserResponse, error) {
	// 1. Validasi input
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Register validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	// 2. Cek email sudah terdaftar
	existingUser, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email")
	}
	if existingUser != nil {
		return nil, ErrEmailTaken
	}

	// 3. Hash password
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("failed to process password")
	}

	// 4. Create user entity
	now := time.Now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Phone:        req.Phone,
		Role:         entity.RoleUser,
		IsActive:     true,
	}

	// 5. Save user
	if err := s.repo.User.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create account")
	}

	s.log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email))

	resp := response.UserToResponse(user)
	return &resp, nil
}

// Login checks the password and issues a one-time code. Login only
// completes after the code comes back through VerifyOTP.
func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.OTPSentResponse, error) {
	// 1. Validasi
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Login validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	// 2. Find user
	user, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user")
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidLogin
	}

	// 3. Check password
	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, ErrInvalidLogin
	}

	// 4. Rate limit OTP requests per email, fixed window
	count := s.store.IncrementWithWindow(ctx, cache.NamespaceOTPAttempts, req.Email+":req", time.Hour)
	if count > int64(s.config.OTP.MaxRequestsPerHour) {
		s.log.Warn("OTP request rate limit hit", zap.String("email", req.Email))
		if wait := s.store.TTL(ctx, cache.NamespaceOTPAttempts, req.Email+":req"); wait > 0 {
			return nil, fmt.Errorf("%w: try again in %d seconds", ErrTooManyRequests, wait)
		}
		return nil, ErrTooManyRequests
	}

	// 5. Issue OTP. Re-login sebelum expiry menimpa kode lama.
	otp := utils.GenerateOTP(s.config.OTP.Length)
	expiry := time.Duration(s.config.OTP.ExpiryMinutes) * time.Minute
	s.store.Issue(ctx, cache.NamespaceOTP, req.Email, otp, expiry)

	// Delivery goes through the notification pipeline; here we only record
	// that a code went out. The code itself is never logged.
	s.log.Info("Login OTP issued", zap.String("email", req.Email))

	return &response.OTPSentResponse{
		Email:     req.Email,
		ExpiresIn: int64(expiry.Seconds()),
	}, nil
}

func (s *authService) VerifyOTP(ctx context.Context, req *request.VerifyOTPRequest) (*response.AuthResponse, error) {
	// 1. Validasi
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	// 2. Lockout check: setiap percobaan dihitung dulu, benar atau salah
	lockout := time.Duration(s.config.OTP.LockoutMinutes) * time.Minute
	attempts := s.store.IncrementWithWindow(ctx, cache.NamespaceOTPAttempts, req.Email+":verify", lockout)
	if attempts > int64(s.config.OTP.MaxVerifyAttempts) {
		s.log.Warn("OTP verify lockout", zap.String("email", req.Email))
		if wait := s.store.TTL(ctx, cache.NamespaceOTPAttempts, req.Email+":verify"); wait > 0 {
			return nil, fmt.Errorf("%w: try again in %d seconds", ErrAccountLocked, wait)
		}
		return nil, ErrAccountLocked
	}

	// 3. Compare against the stored code
	stored, ok := s.store.Read(ctx, cache.NamespaceOTP, req.Email)
	if !ok || stored != req.OTP {
		return nil, ErrInvalidOTP
	}

	// 4. Claim the code atomically. If a concurrent verify got here first,
	// this one loses even though the comparison passed.
	claimed, ok := s.store.ConsumeOnce(ctx, cache.NamespaceOTP, req.Email)
	if !ok || claimed != req.OTP {
		return nil, ErrInvalidOTP
	}

	// 5. Load user
	user, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user")
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidLogin
	}

	// 6. Reset counters dan tandai email verified di login pertama
	s.store.Delete(ctx, cache.NamespaceOTPAttempts, req.Email+":verify")
	s.store.Delete(ctx, cache.NamespaceOTPAttempts, req.Email+":req")

	if !user.EmailVerified {
		user.EmailVerified = true
		user.UpdatedAt = time.Now()
		if err := s.repo.User.Update(ctx, user); err != nil {
			s.log.Warn("Failed to mark email verified", zap.Error(err))
		}
	}

	// 7. Issue token pair
	resp, err := s.issueTokens(ctx, user, req.DeviceID)
	if err != nil {
		return nil, err
	}

	s.log.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("device_id", req.DeviceID))

	return resp, nil
}

func (s *authService) RefreshToken(ctx context.Context, req *request.RefreshTokenRequest) (*response.AuthResponse, error) {
	// 1. Validasi
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	// 2. The token must be a valid refresh JWT for this device
	claims, err := utils.ParseToken(s.config.JWT, req.RefreshToken, utils.TokenTypeRefresh)
	if err != nil || claims.DeviceID != req.DeviceID {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	// 3. Consume the server-side hash: each refresh token works exactly
	// once, rotation stores a fresh hash. A replayed token finds nothing.
	storedHash, ok := s.store.ConsumeOnce(ctx, cache.NamespaceRefresh, refreshSubject(userID, req.DeviceID))
	if !ok || !utils.CheckTokenHash(req.RefreshToken, storedHash) {
		return nil, ErrInvalidToken
	}

	// 4. Load user
	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user")
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidToken
	}

	// 5. Rotate
	resp, err := s.issueTokens(ctx, user, req.DeviceID)
	if err != nil {
		return nil, err
	}

	s.log.Info("Token refreshed",
		zap.String("user_id", user.ID.String()),
		zap.String("device_id", req.DeviceID))

	return resp, nil
}

func (s *authService) Logout(ctx context.Context, userID uuid.UUID, deviceID string) error {
	s.store.Delete(ctx, cache.NamespaceRefresh, refreshSubject(userID, deviceID))
	s.store.Delete(ctx, cache.NamespaceSession, sessionSubject(userID, deviceID))

	s.log.Info("User logged out",
		zap.String("user_id", userID.String()),
		zap.String("device_id", deviceID))
	return nil
}

// LogoutAll revokes every device's refresh token and live session at once
func (s *authService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	s.store.RevokeAllForSubject(ctx, cache.NamespaceRefresh, userID.String())
	s.store.RevokeAllForSubject(ctx, cache.NamespaceSession, userID.String())

	s.log.Info("All sessions revoked", zap.String("user_id", userID.String()))
	return nil
}

func (s *authService) GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error) {
	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user")
	}
	if user == nil {
		return nil, ErrNotFound
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

// ==================== INTERNAL ====================

// issueTokens mints an access/refresh pair for one device and records the
// server-side state: a digest of the refresh token (so a Redis dump never
// leaks usable tokens) and a session marker the middleware checks for
// revocation.
func (s *authService) issueTokens(ctx context.Context, user *entity.User, deviceID string) (*response.AuthResponse, error) {
	accessToken, expiresAt, err := utils.GenerateAccessToken(s.config.JWT, user.ID, string(user.Role), user.Email, deviceID)
	if err != nil {
		s.log.Error("Failed to sign access token", zap.Error(err))
		return nil, fmt.Errorf("failed to issue tokens")
	}

	refreshToken, err := utils.GenerateRefreshToken(s.config.JWT, user.ID, deviceID)
	if err != nil {
		s.log.Error("Failed to sign refresh token", zap.Error(err))
		return nil, fmt.Errorf("failed to issue tokens")
	}

	refreshHash := utils.HashToken(refreshToken)
	refreshTTL := time.Duration(s.config.JWT.RefreshExpiryHours) * time.Hour
	s.store.Issue(ctx, cache.NamespaceRefresh, refreshSubject(user.ID, deviceID), refreshHash, refreshTTL)
	s.store.Issue(ctx, cache.NamespaceSession, sessionSubject(user.ID, deviceID), "1", refreshTTL)

	resp := response.AuthToResponse(user, accessToken, refreshToken, expiresAt)
	return &resp, nil
}

func refreshSubject(userID uuid.UUID, deviceID string) string {
	return userID.String() + ":" + deviceID
}

func sessionSubject(userID uuid.UUID, deviceID string) string {
	return userID.String() + ":" + deviceID
}
