package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linemk/agriconnect/internal/access"
	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/linemk/agriconnect/internal/scope"
	"github.com/linemk/agriconnect/internal/storage"
	"github.com/shopspring/decimal"
)

// ProductInput поля нового товара; фермером становится актор
type ProductInput struct {
	Title       string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Category    models.Category
	Location    string
	HarvestDate models.Date
	IsOrganic   bool
	Quantity    int
}

// ProductPatch изменяемые поля товара; nil означает "не менять"
type ProductPatch struct {
	Title       *string
	Description *string
	Price       *decimal.Decimal
	ImageURL    *string
	Category    *models.Category
	Location    *string
	HarvestDate *models.Date
	IsOrganic   *bool
	Quantity    *int
}

type ProductService interface {
	List(ctx context.Context, f scope.ProductFilter) ([]*models.Product, error)
	Get(ctx context.Context, id int64) (*models.Product, error)
	// Mine товары, выставленные актором
	Mine(ctx context.Context, actor access.Actor) ([]*models.Product, error)
	Create(ctx context.Context, actor access.Actor, in ProductInput) (*models.Product, error)
	Update(ctx context.Context, actor access.Actor, id int64, patch ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, actor access.Actor, id int64) error
	// Reviews отзывы о товаре; 404, если товара нет
	Reviews(ctx context.Context, productID int64) ([]*models.Review, error)
}

type productService struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
	reviewRepo  storage.ReviewStorage
}

func NewProductService(log *slog.Logger, productRepo storage.ProductStorage, reviewRepo storage.ReviewStorage) ProductService {
	return &productService{
		log:         log,
		productRepo: productRepo,
		reviewRepo:  reviewRepo,
	}
}

func (s *productService) List(ctx context.Context, f scope.ProductFilter) ([]*models.Product, error) {
	const op = "service.Products.List"

	products, err := s.productRepo.ListProducts(ctx, f)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

func (s *productService) Get(ctx context.Context, id int64) (*models.Product, error) {
	const op = "service.Products.Get"

	p, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *productService) Mine(ctx context.Context, actor access.Actor) ([]*models.Product, error) {
	if !actor.Authenticated() {
		return nil, models.ErrUnauthenticated
	}
	return s.List(ctx, scope.ProductFilter{FarmerID: actor.ID})
}

func (s *productService) Create(ctx context.Context, actor access.Actor, in ProductInput) (*models.Product, error) {
	const op = "service.Products.Create"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actor.ID))

	if !actor.Authenticated() {
		return nil, models.ErrUnauthenticated
	}
	if !actor.IsFarmer() {
		logger.Warn("non-farmer tried to create product")
		return nil, fmt.Errorf("%w: only farmers can create products", models.ErrForbidden)
	}

	p := &models.Product{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
		Category:    in.Category,
		FarmerID:    actor.ID,
		Location:    in.Location,
		HarvestDate: in.HarvestDate,
		IsOrganic:   in.IsOrganic,
		Quantity:    in.Quantity,
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	created, err := s.productRepo.CreateProduct(ctx, p)
	if err != nil {
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("product created", slog.Int64("productID", created.ID))
	return created, nil
}

func (s *productService) Update(ctx context.Context, actor access.Actor, id int64, patch ProductPatch) (*models.Product, error) {
	const op = "service.Products.Update"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", id))

	p, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := access.Authorize(actor, p, access.OpUpdate); err != nil {
		logger.Warn("update denied", slog.Int64("userID", actor.ID))
		return nil, err
	}

	setString(&p.Title, patch.Title)
	setString(&p.Description, patch.Description)
	setString(&p.ImageURL, patch.ImageURL)
	setString(&p.Location, patch.Location)
	p.Title = strings.TrimSpace(p.Title)
	p.Location = strings.TrimSpace(p.Location)
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.HarvestDate != nil {
		p.HarvestDate = *patch.HarvestDate
	}
	if patch.IsOrganic != nil {
		p.IsOrganic = *patch.IsOrganic
	}
	if patch.Quantity != nil {
		p.Quantity = *patch.Quantity
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	if err := s.productRepo.UpdateProduct(ctx, p); err != nil {
		logger.Error("failed to update product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("product updated")
	return p, nil
}

func (s *productService) Delete(ctx context.Context, actor access.Actor, id int64) error {
	const op = "service.Products.Delete"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", id))

	p, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := access.Authorize(actor, p, access.OpDelete); err != nil {
		logger.Warn("delete denied", slog.Int64("userID", actor.ID))
		return err
	}
	if err := s.productRepo.DeleteProduct(ctx, id); err != nil {
		logger.Error("failed to delete product", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("product deleted")
	return nil
}

func (s *productService) Reviews(ctx context.Context, productID int64) ([]*models.Review, error) {
	const op = "service.Products.Reviews"

	if _, err := s.productRepo.GetProductByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	reviews, err := s.reviewRepo.ListReviews(ctx, scope.ReviewFilter{ProductID: productID})
	if err != nil {
		s.log.Error("failed to list reviews", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return reviews, nil
}

func validateProduct(p *models.Product) error {
	switch {
	case strings.TrimSpace(p.Title) == "":
		return fmt.Errorf("%w: title is required", models.ErrValidation)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", models.ErrValidation)
	case !models.ValidAmount(p.Price):
		return fmt.Errorf("%w: price must be below %s with at most 2 decimal places", models.ErrValidation, models.MaxAmount)
	case p.Quantity < 0:
		return fmt.Errorf("%w: quantity must not be negative", models.ErrValidation)
	case p.Quantity > models.MaxQuantity:
		return fmt.Errorf("%w: quantity must not exceed %d", models.ErrValidation, models.MaxQuantity)
	case strings.TrimSpace(p.Location) == "":
		return fmt.Errorf("%w: location is required", models.ErrValidation)
	case p.HarvestDate.IsZero():
		return fmt.Errorf("%w: harvest_date is required", models.ErrValidation)
	}
	if _, ok := models.ParseCategory(string(p.Category)); !ok {
		return fmt.Errorf("%w: unknown category %q", models.ErrValidation, p.Category)
	}
	return nil
}
