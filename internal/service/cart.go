package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tillhouse/pos/internal/domain"
	"github.com/tillhouse/pos/internal/event"
	"github.com/tillhouse/pos/internal/repository"
	apperrors "github.com/tillhouse/pos/pkg/errors"
)

// CartService implements the business logic for cart operations. Carts live
// in Redis with a TTL and are keyed by (shop, user).
type CartService struct {
	repo        repository.CartRepository
	productRepo repository.ProductRepository
	producer    *event.Producer
	logger      *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, productRepo repository.ProductRepository, producer *event.Producer, logger *slog.Logger) *CartService {
	return &CartService{
		repo:        repo,
		productRepo: productRepo,
		producer:    producer,
		logger:      logger,
	}
}

// GetCart retrieves the cart for the given shop and user. A missing cart is
// returned as an empty one rather than an error.
func (s *CartService) GetCart(ctx context.Context, shopID, userID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, shopID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return emptyCart(shopID, userID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

// AddItem adds a product to the cart, merging with an existing line for the
// same product. Name and price are snapshotted from the catalog.
func (s *CartService) AddItem(ctx context.Context, shopID, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be positive")
	}

	product, err := s.productRepo.GetByID(ctx, shopID, productID)
	if err != nil {
		return nil, fmt.Errorf("get product for cart: %w", err)
	}
	if !product.IsAvailable {
		return nil, apperrors.InvalidInput(fmt.Sprintf("product %q is not available", product.Name))
	}

	cart, err := s.getOrCreateCart(ctx, shopID, userID)
	if err != nil {
		return nil, err
	}

	cart.AddItem(domain.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  quantity,
	})

	if err := s.saveCart(ctx, cart); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart item added",
		slog.String("shop_id", shopID),
		slog.String("user_id", userID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)

	return cart, nil
}

// SetItemQuantity sets the quantity of a cart line. Zero removes the line;
// negative quantities are rejected.
func (s *CartService) SetItemQuantity(ctx context.Context, shopID, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity < 0 {
		return nil, apperrors.InvalidInput("quantity must not be negative")
	}

	cart, err := s.repo.Get(ctx, shopID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("cart", userID)
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	if !cart.SetQuantity(productID, quantity) {
		return nil, apperrors.NotFound("cart item", productID)
	}

	if cart.IsEmpty() {
		if err := s.repo.Delete(ctx, shopID, userID); err != nil {
			return nil, fmt.Errorf("delete emptied cart: %w", err)
		}
		if err := s.producer.PublishCartCleared(ctx, shopID, userID); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish cart cleared event", slog.Any("error", err))
		}
		return emptyCart(shopID, userID), nil
	}

	if err := s.saveCart(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

// RemoveItem deletes a cart line. Removing an absent line or from an absent
// cart is a no-op.
func (s *CartService) RemoveItem(ctx context.Context, shopID, userID, productID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, shopID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return emptyCart(shopID, userID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	if !cart.RemoveItem(productID) {
		return cart, nil
	}

	if cart.IsEmpty() {
		if err := s.repo.Delete(ctx, shopID, userID); err != nil {
			return nil, fmt.Errorf("delete emptied cart: %w", err)
		}
		if err := s.producer.PublishCartCleared(ctx, shopID, userID); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish cart cleared event", slog.Any("error", err))
		}
		return emptyCart(shopID, userID), nil
	}

	if err := s.saveCart(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

// ClearCart removes the user's cart entirely.
func (s *CartService) ClearCart(ctx context.Context, shopID, userID string) error {
	if err := s.repo.Delete(ctx, shopID, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	if err := s.producer.PublishCartCleared(ctx, shopID, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart cleared event", slog.Any("error", err))
	}

	s.logger.InfoContext(ctx, "cart cleared",
		slog.String("shop_id", shopID),
		slog.String("user_id", userID),
	)

	return nil
}

func (s *CartService) getOrCreateCart(ctx context.Context, shopID, userID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, shopID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return emptyCart(shopID, userID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) saveCart(ctx context.Context, cart *domain.Cart) error {
	cart.Version++
	cart.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, cart); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}

	if err := s.producer.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart updated event", slog.Any("error", err))
	}

	return nil
}

func emptyCart(shopID, userID string) *domain.Cart {
	now := time.Now().UTC()
	return &domain.Cart{
		ShopID:    shopID,
		UserID:    userID,
		Items:     []domain.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
