package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tillhouse/pos/internal/domain"
	"github.com/tillhouse/pos/internal/event"
	"github.com/tillhouse/pos/internal/repository"
	apperrors "github.com/tillhouse/pos/pkg/errors"
)

// ProductService implements the business logic for catalog operations.
type ProductService struct {
	repo     repository.ProductRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(repo repository.ProductRepository, producer *event.Producer, logger *slog.Logger) *ProductService {
	return &ProductService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name              string
	Description       string
	Category          string
	Price             int64
	ImageURL          string
	IsAvailable       *bool
	StockQuantity     int
	LowStockThreshold int
}

// UpdateProductInput holds the parameters for updating a product.
// Nil fields are left untouched.
type UpdateProductInput struct {
	Name              *string
	Description       *string
	Category          *string
	Price             *int64
	ImageURL          *string
	IsAvailable       *bool
	StockQuantity     *int
	LowStockThreshold *int
}

// CreateProduct adds a product to the shop's catalog.
func (s *ProductService) CreateProduct(ctx context.Context, shopID string, input CreateProductInput) (*domain.Product, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.Category == "" {
		return nil, apperrors.InvalidInput("category is required")
	}
	if input.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	if input.StockQuantity < 0 {
		return nil, apperrors.InvalidInput("stock quantity must not be negative")
	}

	available := true
	if input.IsAvailable != nil {
		available = *input.IsAvailable
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:                uuid.New().String(),
		ShopID:            shopID,
		Name:              input.Name,
		Description:       input.Description,
		Category:          input.Category,
		Price:             input.Price,
		ImageURL:          input.ImageURL,
		IsAvailable:       available,
		StockQuantity:     input.StockQuantity,
		LowStockThreshold: input.LowStockThreshold,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if err := s.producer.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("shop_id", shopID),
		slog.String("product_id", product.ID),
		slog.String("name", product.Name),
	)

	return product, nil
}

// GetProduct retrieves a product within the shop.
func (s *ProductService) GetProduct(ctx context.Context, shopID, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, shopID, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// ListProducts returns the shop's catalog, optionally filtered.
func (s *ProductService) ListProducts(ctx context.Context, shopID string, filter repository.ProductFilter) ([]domain.Product, error) {
	products, err := s.repo.ListByShop(ctx, shopID, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// UpdateProduct applies the non-nil fields of the input to a product.
func (s *ProductService) UpdateProduct(ctx context.Context, shopID, id string, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, shopID, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("name must not be empty")
		}
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Category != nil {
		if *input.Category == "" {
			return nil, apperrors.InvalidInput("category must not be empty")
		}
		product.Category = *input.Category
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, apperrors.InvalidInput("price must not be negative")
		}
		product.Price = *input.Price
	}
	if input.ImageURL != nil {
		product.ImageURL = *input.ImageURL
	}
	if input.IsAvailable != nil {
		product.IsAvailable = *input.IsAvailable
	}
	if input.StockQuantity != nil {
		if *input.StockQuantity < 0 {
			return nil, apperrors.InvalidInput("stock quantity must not be negative")
		}
		product.StockQuantity = *input.StockQuantity
	}
	if input.LowStockThreshold != nil {
		product.LowStockThreshold = *input.LowStockThreshold
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	if err := s.producer.PublishProductUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	if product.IsLowStock() {
		s.logger.WarnContext(ctx, "product stock below threshold",
			slog.String("shop_id", shopID),
			slog.String("product_id", product.ID),
			slog.Int("stock_quantity", product.StockQuantity),
			slog.Int("low_stock_threshold", product.LowStockThreshold),
		)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("shop_id", shopID),
		slog.String("product_id", product.ID),
	)

	return product, nil
}

// DeleteProduct removes a product from the shop's catalog.
func (s *ProductService) DeleteProduct(ctx context.Context, shopID, id string) error {
	if err := s.repo.Delete(ctx, shopID, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if err := s.producer.PublishProductDeleted(ctx, shopID, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("shop_id", shopID),
		slog.String("product_id", id),
	)

	return nil
}
