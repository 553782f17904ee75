package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tillhouse/pos/internal/auth"
	"github.com/tillhouse/pos/internal/domain"
	"github.com/tillhouse/pos/internal/repository"
	apperrors "github.com/tillhouse/pos/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// AuthService implements registration, login, and token operations.
type AuthService struct {
	userRepo   repository.UserRepository
	shopRepo   repository.ShopRepository
	jwtManager *auth.JWTManager
	logger     *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	userRepo repository.UserRepository,
	shopRepo repository.ShopRepository,
	jwtManager *auth.JWTManager,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		shopRepo:   shopRepo,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// RegisterInput holds the parameters for registering a new shop and its owner.
type RegisterInput struct {
	ShopName string
	Email    string
	Password string
	Name     string
	Address  string
	Phone    string
}

// LoginInput holds the parameters for logging in.
type LoginInput struct {
	Email    string
	Password string
}

// Register creates a new shop together with its owner account. The two rows
// are written in one transaction so a failed owner insert leaves no orphan
// shop behind.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.Shop, *domain.User, *domain.TokenPair, error) {
	if input.ShopName == "" {
		return nil, nil, nil, apperrors.InvalidInput("shop name is required")
	}
	if input.Email == "" {
		return nil, nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Name == "" {
		return nil, nil, nil, apperrors.InvalidInput("name is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, nil, nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	shopID := uuid.New().String()
	ownerID := uuid.New().String()

	shop := &domain.Shop{
		ID:        shopID,
		Name:      input.ShopName,
		OwnerID:   ownerID,
		Address:   input.Address,
		Phone:     input.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}

	owner := &domain.User{
		ID:           ownerID,
		ShopID:       shopID,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Name:         input.Name,
		Role:         domain.RoleOwner,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.shopRepo.CreateWithOwner(ctx, shop, owner); err != nil {
		return nil, nil, nil, fmt.Errorf("create shop with owner: %w", err)
	}

	tokens, err := s.generateTokenPair(owner)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "shop registered",
		slog.String("shop_id", shop.ID),
		slog.String("owner_id", owner.ID),
	)

	return shop, owner, tokens, nil
}

// Login authenticates a user with email and password, returning tokens.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.TokenPair, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	if !user.IsActive {
		return nil, nil, apperrors.Unauthorized("account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("shop_id", user.ShopID),
	)

	return user, tokens, nil
}

// RefreshToken validates a refresh token and issues a new token pair. The
// user is re-read so role or shop changes are picked up by the new access
// token, and a deactivated account cannot refresh its way back in.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidInput("refresh token is required")
	}

	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Unauthorized("user no longer exists")
	}

	if !user.IsActive {
		return nil, apperrors.Unauthorized("account is deactivated")
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "tokens refreshed",
		slog.String("user_id", user.ID),
	)

	return tokens, nil
}

// GetProfile retrieves a user by their ID.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user profile: %w", err)
	}
	return user, nil
}

// GetShop retrieves the shop for an authenticated user.
func (s *AuthService) GetShop(ctx context.Context, shopID string) (*domain.Shop, error) {
	shop, err := s.shopRepo.GetByID(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("get shop: %w", err)
	}
	return shop, nil
}

// CreateStaffInput holds the parameters for adding a staff account to a shop.
type CreateStaffInput struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// CreateStaff adds a manager or cashier account to the given shop.
func (s *AuthService) CreateStaff(ctx context.Context, shopID string, input CreateStaffInput) (*domain.User, error) {
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if !domain.IsValidRole(input.Role) || input.Role == domain.RoleOwner {
		return nil, apperrors.InvalidInput(fmt.Sprintf("role must be %q or %q", domain.RoleManager, domain.RoleCashier))
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		ShopID:       shopID,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Name:         input.Name,
		Role:         input.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create staff user: %w", err)
	}

	s.logger.InfoContext(ctx, "staff account created",
		slog.String("shop_id", shopID),
		slog.String("user_id", user.ID),
		slog.String("role", user.Role),
	)

	return user, nil
}

// ListStaff returns all user accounts belonging to the given shop.
func (s *AuthService) ListStaff(ctx context.Context, shopID string) ([]domain.User, error) {
	users, err := s.userRepo.ListByShop(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return users, nil
}

// generateTokenPair creates an access/refresh token pair for the user.
func (s *AuthService) generateTokenPair(user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role, user.ShopID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// validatePassword checks that the password meets minimum complexity requirements.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasLetter, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsLetter(ch):
			hasLetter = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasLetter || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one letter and one digit")
	}

	return nil
}
