package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"temple-backend/internal/data/entity"
	"temple-backend/internal/data/repository"
	"temple-backend/internal/dto/request"
	"temple-backend/pkg/cache"
	"temple-backend/pkg/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	clone := *stored
	return &clone, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stored := range f.users {
		if stored.Email == email {
			clone := *stored
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func authTestConfig() *utils.Config {
	return &utils.Config{
		JWT: utils.JWTConfig{
			Secret:             "test-secret",
			AccessExpiryMins:   15,
			RefreshExpiryHours: 72,
		},
		OTP: utils.OTPConfig{
			ExpiryMinutes:      5,
			Length:             6,
			MaxRequestsPerHour: 5,
			MaxVerifyAttempts:  5,
			LockoutMinutes:     15,
		},
	}
}

func newAuthService(t *testing.T) (AuthService, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store := cache.NewStore(utils.RedisConfig{Host: mr.Host(), Port: mr.Port()}, zap.NewNop())
	require.True(t, store.Available())
	t.Cleanup(func() { store.Close() })

	repo := &repository.Repository{User: newFakeUserRepo()}
	return NewAuthService(repo, store, authTestConfig(), zap.NewNop()), mr
}

func registerUser(t *testing.T, service AuthService, email string) {
	t.Helper()

	_, err := service.Register(context.Background(), &request.RegisterRequest{
		Name:     "Priya Sharma",
		Email:    email,
		Password: "secret123",
	})
	require.NoError(t, err)
}

// otpFor reads the issued code straight out of the store
func otpFor(t *testing.T, mr *miniredis.Miniredis, email string) string {
	t.Helper()

	otp, err := mr.Get("otp:" + email)
	require.NoError(t, err)
	return otp
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service, _ := newAuthService(t)
	registerUser(t, service, "priya@example.com")

	_, err := service.Register(context.Background(), &request.RegisterRequest{
		Name:     "Priya Again",
		Email:    "priya@example.com",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginAndVerifyOTP(t *testing.T) {
	service, mr := newAuthService(t)
	ctx := context.Background()
	registerUser(t, service, "priya@example.com")

	sent, err := service.Login(ctx, &request.LoginRequest{
		Email:    "priya@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "priya@example.com", sent.Email)
	assert.EqualValues(t, 300, sent.ExpiresIn)

	otp := otpFor(t, mr, "priya@example.com")
	require.Len(t, otp, 6)

	auth, err := service.VerifyOTP(ctx, &request.VerifyOTPRequest{
		Email:    "priya@example.com",
		OTP:      otp,
		DeviceID: "phone-1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, auth.AccessToken)
	assert.NotEmpty(t, auth.RefreshToken)
	assert.Equal(t, entity.RoleUser, auth.Role)

	// Server-side state exists for this device
	assert.True(t, mr.Exists("refresh:"+auth.UserID+":phone-1"))
	assert.True(t, mr.Exists("session:"+auth.UserID+":phone-1"))

	// The access token carries identity and device
	claims, err := utils.ParseToken(authTestConfig().JWT, auth.AccessToken, utils.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, auth.UserID, claims.Subject)
	assert.Equal(t, "phone-1", claims.DeviceID)
	assert.Equal(t, string(entity.RoleUser), claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	service, _ := newAuthService(t)
	registerUser(t, service, "priya@example.com")

	_, err := service.Login(context.Background(), &request.LoginRequest{
		Email:    "priya@example.com",
		Password: "wrong-pass",
	})
	assert.ErrorIs(t, err, ErrInvalidLogin)

	// Unknown email answers the same
	_, err = service.Login(context.Background(), &request.LoginRequest{
		Email:    "nobody@example.com",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, ErrInvalidLogin)
}

func TestLoginRateLimit(t *testing.T) {
	service, _ := newAuthService(t)
	ctx := context.Background()
	registerUser(t, service, "priya@example.com")

	req := &request.LoginRequest{Email: "priya@example.com", Password: "secret123"}
	for i := 0; i < 5; i++ {
		_, err := service.Login(ctx, req)
		require.NoError(t, err)
	}

	_, err := service.Login(ctx, req)
	assert.ErrorIs(t, err, ErrTooManyRequests)
}

func TestVerifyOTPWrongThenRight(t *testing.T) {
	service, mr := newAuthService(t)
	ctx := context.Background()
	registerUser(t, service, "priya@example.com")

	_, err := service.Login(ctx, &request.LoginRequest{Email: "priya@example.com", Password: "secret123"})
	require.NoError(t, err)
	otp := otpFor(t, mr, "priya@example.com")

	wrong := "000000"
	if wrong == otp {
		wrong = "111111"
	}

	_, err = service.VerifyOTP(ctx, &request.VerifyOTPRequest{
		Email: "priya@example.com", OTP: wrong, DeviceID: "phone-1",
	})
	assert.ErrorIs(t, err, ErrInvalidOTP)

	// A wrong guess does not burn the code
	_, err = service.VerifyOTP(ctx, &request.VerifyOTPRequest{
		Email: "priya@example.com", OTP: otp, DeviceID: "phone-1",
	})
	assert.NoError(t, err)
}

func TestVerifyOTPConsumedOnce(t *testing.T) {
	service, mr := newAuthService(t)
	ctx := context.Background()
	registerUser(t, service, "priya@example.com")

	_, err := service.Login(ctx, &request.LoginRequest{Email: "priya@example.com", Password: "secret123"})
	require.NoError(t, err)
	otp := otpFor(t, mr, "priya@example.com")

	_, err = service.VerifyOTP(ctx, &request.VerifyOTPRequest{
		Email: "priya@example.com", OTP: otp, DeviceID: "phone-1",
	})
	require.NoError(t, err)

	// Replaying the same code finds nothing
	_, err = service.VerifyOTP(ctx, &request.VerifyOTPRequest{
		Email: "priya@example.com", OTP: otp, DeviceID: "phone-2",
	})
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestVerifyOTPLockout(t *testing.T) {
	service, mr := newAuthService(t)
	ctx := context.Background()
	registerUser(t, service, "priya@example.com")

	_, err := service.Login(ctx, &request.LoginRequest{Email: "priya@example.com", Password: "secret123"})
	require.NoError(t, err)
	otp := otpFor(t, mr, "priya@example.com")

	wrong := "000000"
	if wrong == otp {
		wrong = "111111"
	}

	for i := 0; i < 5; i++ {
		_, err := service.VerifyOTP(ctx, &request.VerifyOTPRequest{
			Email: "priya@example.com", OTP: wrong, DeviceID: "phone-1",
		})
		assert.ErrorIs(t, err, ErrInvalidOTP)
	}

	// Even the right code is refused during lockout
	_, err = service.VerifyOTP(ctx, &request.VerifyOTPRequest{
		Email: "priya@example.com", OTP: otp, DeviceID: "phone-1",
	})
	assert.ErrorIs(t, err, ErrAccountLocked)

	// The window elapses and attempts start over
	mr.FastForward(16 * time.Minute)
	_, err = service.VerifyOTP(ctx, &request.VerifyOTPRequest{
		Email: "priya@example.com", OTP: otp, DeviceID: "phone-1",
	})
	assert.ErrorIs(t, err, ErrInvalidOTP) // the OTP itself expired with time too
}

func loginAndVerify(t *testing.T, service AuthService, mr *miniredis.Miniredis, email, deviceID string) *request.RefreshTokenRequest {
	t.Helper()
	ctx := context.Background()

	_, err := service.Login(ctx, &request.LoginRequest{Email: email, Password: "secret123"})
	require.NoError(t, err)

	auth, err := service.VerifyOTP(ctx, &request.VerifyOTPRequest{
		Email: email, OTP: otpFor(t, mr, email), DeviceID: deviceID,
	})
	require.NoError(t, err)

	return &request.RefreshTokenRequest{RefreshToken: auth.RefreshToken, DeviceID: deviceID}
}

func TestRefreshRotation(t *testing.T) {
	service, mr := newAuthService(t)
	ctx := context.Background()
	registerUser(t, service, "priya@example.com")

	first := loginAndVerify(t, service, mr, "priya@example.com", "phone-1")

	rotated, err := service.RefreshToken(ctx, first)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, rotated.RefreshToken)

	// The old token was consumed by the rotation
	_, err = service.RefreshToken(ctx, first)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// The new one works
	_, err = service.RefreshToken(ctx, &request.RefreshTokenRequest{
		RefreshToken: rotated.RefreshToken, DeviceID: "phone-1",
	})
	assert.NoError(t, err)
}

func TestRefreshWrongDevice(t *testing.T) {
	service, mr := newAuthService(t)
	registerUser(t, service, "priya@example.com")

	req := loginAndVerify(t, service, mr, "priya@example.com", "phone-1")
	req.DeviceID = "phone-2"

	_, err := service.RefreshToken(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout(t *testing.T) {
	service, mr := newAuthService(t)
	ctx := context.Background()
	registerUser(t, service, "priya@example.com")

	req := loginAndVerify(t, service, mr, "priya@example.com", "phone-1")

	claims, err := utils.ParseToken(authTestConfig().JWT, req.RefreshToken, utils.TokenTypeRefresh)
	require.NoError(t, err)
	userID, err := uuid.Parse(claims.Subject)
	require.NoError(t, err)

	require.NoError(t, service.Logout(ctx, userID, "phone-1"))

	assert.False(t, mr.Exists("refresh:"+userID.String()+":phone-1"))
	assert.False(t, mr.Exists("session:"+userID.String()+":phone-1"))

	_, err = service.RefreshToken(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutAllDevices(t *testing.T) {
	service, mr := newAuthService(t)
	ctx := context.Background()
	registerUser(t, service, "priya@example.com")

	first := loginAndVerify(t, service, mr, "priya@example.com", "phone-1")
	second := loginAndVerify(t, service, mr, "priya@example.com", "laptop-1")

	claims, err := utils.ParseToken(authTestConfig().JWT, first.RefreshToken, utils.TokenTypeRefresh)
	require.NoError(t, err)
	userID, err := uuid.Parse(claims.Subject)
	require.NoError(t, err)

	require.NoError(t, service.LogoutAll(ctx, userID))

	_, err = service.RefreshToken(ctx, first)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = service.RefreshToken(ctx, second)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthWithDisabledStore(t *testing.T) {
	store := cache.NewStore(utils.RedisConfig{}, zap.NewNop())
	repo := &repository.Repository{User: newFakeUserRepo()}
	service := NewAuthService(repo, store, authTestConfig(), zap.NewNop())
	ctx := context.Background()

	registerUser(t, service, "priya@example.com")

	// Login still answers politely, the code just never lands anywhere
	sent, err := service.Login(ctx, &request.LoginRequest{
		Email: "priya@example.com", Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "priya@example.com", sent.Email)

	// So no code can ever verify
	_, err = service.VerifyOTP(ctx, &request.VerifyOTPRequest{
		Email: "priya@example.com", OTP: "123456", DeviceID: "phone-1",
	})
	assert.ErrorIs(t, err, ErrInvalidOTP)
}
