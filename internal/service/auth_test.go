package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tillhouse/pos/internal/auth"
	"github.com/tillhouse/pos/internal/domain"
	apperrors "github.com/tillhouse/pos/pkg/errors"
)

func newAuthService(userRepo *mockUserRepository, shopRepo *mockShopRepository) *AuthService {
	jwtManager := auth.NewJWTManager("test-secret-key-that-is-long-enough", 15*time.Minute, 24*time.Hour)
	return NewAuthService(userRepo, shopRepo, jwtManager, testLogger())
}

func activeUser(password string) *domain.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &domain.User{
		ID:           "u-1",
		ShopID:       "s-1",
		Email:        "owner@cafe.test",
		PasswordHash: string(hash),
		Name:         "Olive Owner",
		Role:         domain.RoleOwner,
		IsActive:     true,
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	shopRepo := new(mockShopRepository)
	svc := newAuthService(userRepo, shopRepo)

	shopRepo.On("CreateWithOwner", mock.Anything, mock.AnythingOfType("*domain.Shop"), mock.AnythingOfType("*domain.User")).
		Return(nil)

	shop, owner, tokens, err := svc.Register(context.Background(), RegisterInput{
		ShopName: "Corner Cafe",
		Email:    "owner@cafe.test",
		Password: "Sup3rsecret",
		Name:     "Olive Owner",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, shop.ID)
	assert.Equal(t, shop.ID, owner.ShopID)
	assert.Equal(t, owner.ID, shop.OwnerID)
	assert.Equal(t, domain.RoleOwner, owner.Role)
	assert.True(t, owner.IsActive)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	// Password must be stored hashed, never in the clear.
	assert.NotEqual(t, "Sup3rsecret", owner.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(owner.PasswordHash), []byte("Sup3rsecret")))

	shopRepo.AssertExpectations(t)
}

func TestAuthService_Register_WeakPassword(t *testing.T) {
	svc := newAuthService(new(mockUserRepository), new(mockShopRepository))

	tests := []struct {
		name     string
		password string
	}{
		{"too short", "Ab1"},
		{"no digit", "onlyletters"},
		{"no letter", "1234567890"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := svc.Register(context.Background(), RegisterInput{
				ShopName: "Corner Cafe",
				Email:    "owner@cafe.test",
				Password: tt.password,
				Name:     "Olive Owner",
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestAuthService_Register_MissingFields(t *testing.T) {
	svc := newAuthService(new(mockUserRepository), new(mockShopRepository))

	_, _, _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "owner@cafe.test",
		Password: "Sup3rsecret",
		Name:     "Olive Owner",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAuthService_Login_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newAuthService(userRepo, new(mockShopRepository))

	user := activeUser("Sup3rsecret")
	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	got, tokens, err := svc.Login(context.Background(), LoginInput{
		Email:    user.Email,
		Password: "Sup3rsecret",
	})

	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, tokens.AccessToken)
	userRepo.AssertExpectations(t)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newAuthService(userRepo, new(mockShopRepository))

	user := activeUser("Sup3rsecret")
	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	_, _, err := svc.Login(context.Background(), LoginInput{
		Email:    user.Email,
		Password: "wrong-password1",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newAuthService(userRepo, new(mockShopRepository))

	userRepo.On("GetByEmail", mock.Anything, "nobody@cafe.test").Return(nil, apperrors.ErrNotFound)

	_, _, err := svc.Login(context.Background(), LoginInput{
		Email:    "nobody@cafe.test",
		Password: "Sup3rsecret",
	})

	// Unknown email and wrong password must be indistinguishable.
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_Login_InactiveAccount(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newAuthService(userRepo, new(mockShopRepository))

	user := activeUser("Sup3rsecret")
	user.IsActive = false
	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	_, _, err := svc.Login(context.Background(), LoginInput{
		Email:    user.Email,
		Password: "Sup3rsecret",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_RefreshToken_RoundTrip(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newAuthService(userRepo, new(mockShopRepository))

	user := activeUser("Sup3rsecret")
	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	_, tokens, err := svc.Login(context.Background(), LoginInput{
		Email:    user.Email,
		Password: "Sup3rsecret",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEmpty(t, refreshed.RefreshToken)
}

func TestAuthService_RefreshToken_Garbage(t *testing.T) {
	svc := newAuthService(new(mockUserRepository), new(mockShopRepository))

	_, err := svc.RefreshToken(context.Background(), "not-a-jwt")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_CreateStaff_RejectsOwnerRole(t *testing.T) {
	svc := newAuthService(new(mockUserRepository), new(mockShopRepository))

	_, err := svc.CreateStaff(context.Background(), "s-1", CreateStaffInput{
		Email:    "staff@cafe.test",
		Password: "Sup3rsecret",
		Name:     "Sam Staff",
		Role:     domain.RoleOwner,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAuthService_CreateStaff_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newAuthService(userRepo, new(mockShopRepository))

	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	user, err := svc.CreateStaff(context.Background(), "s-1", CreateStaffInput{
		Email:    "staff@cafe.test",
		Password: "Sup3rsecret",
		Name:     "Sam Staff",
		Role:     domain.RoleCashier,
	})

	require.NoError(t, err)
	assert.Equal(t, "s-1", user.ShopID)
	assert.Equal(t, domain.RoleCashier, user.Role)
	userRepo.AssertExpectations(t)
}
