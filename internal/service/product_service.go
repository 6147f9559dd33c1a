package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"techtrove/internal/auth"
	"techtrove/internal/model"
	"techtrove/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// List returns one page of products matching filter.
func (s *productService) List(ctx context.Context, filter model.ProductFilter) (*model.ProductPage, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, model.NewValidationError("Invalid category", "category must be one of "+categoryList())
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, model.NewValidationError("Invalid price range", "minPrice must not exceed maxPrice")
	}

	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).
			Int("page", filter.Page).
			Int("limit", filter.Limit).
			Msg("failed to list products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("total", total).
		Msg("retrieved products")

	return &model.ProductPage{
		Products:      products,
		CurrentPage:   filter.Page,
		TotalPages:    model.TotalPages(total, filter.Limit),
		TotalProducts: total,
	}, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}
	return product, nil
}

// Create adds a product to the catalog.
func (s *productService) Create(ctx context.Context, caller auth.Identity, req *model.CreateProductRequest) (*model.Product, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	stock := 0
	if req.Stock != nil {
		stock = *req.Stock
	}

	now := time.Now().UTC()
	product := &model.Product{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price.Round(2),
		Category:    req.Category,
		Stock:       stock,
		Image:       req.Image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().Str("product_id", product.ID.String()).Str("name", product.Name).Msg("product created")
	return product, nil
}

// Update applies the non-nil fields of req. The row stays locked between
// read and write so concurrent checkouts never lose their stock decrement.
func (s *productService) Update(ctx context.Context, caller auth.Identity, id uuid.UUID, req *model.UpdateProductRequest) (_ *model.Product, err error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	tx, err := s.productRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	defer s.rollbackOnError(ctx, tx, &err)

	product, err := s.productRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = req.Price.Round(2)
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Image != nil {
		product.Image = *req.Image
	}
	if err = validateProduct(product); err != nil {
		return nil, err
	}

	product.UpdatedAt = time.Now().UTC()
	if err = s.productRepo.Update(ctx, tx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.productRepo.Invalidate(ctx, id)

	s.logger.Info().Str("product_id", id.String()).Msg("product updated")
	return product, nil
}

// Delete removes a product from the catalog.
func (s *productService) Delete(ctx context.Context, caller auth.Identity, id uuid.UUID) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info().Str("product_id", id.String()).Msg("product deleted")
	return nil
}

// AddReview stores one review per user and product and recomputes the mean rating.
func (s *productService) AddReview(ctx context.Context, caller auth.Identity, productID uuid.UUID, req *model.ReviewRequest) (_ *model.Product, err error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, model.NewValidationError("Invalid review", "rating must be between 1 and 5")
	}
	if strings.TrimSpace(req.Comment) == "" {
		return nil, model.NewValidationError("Invalid review", "comment is required")
	}

	tx, err := s.productRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to add review: %w", err)
	}
	defer s.rollbackOnError(ctx, tx, &err)

	// Reviews of one product serialise on its row so the derived rating
	// always covers every committed review.
	product, err := s.productRepo.GetForUpdate(ctx, tx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to add review: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	reviewed, err := s.productRepo.HasReviewed(ctx, tx, productID, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to add review: %w", err)
	}
	if reviewed {
		return nil, model.ErrAlreadyReviewed
	}

	review := &model.Review{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    caller.ID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
		CreatedAt: time.Now().UTC(),
	}
	if err = s.productRepo.CreateReview(ctx, tx, review); err != nil {
		if errors.Is(err, model.ErrAlreadyReviewed) {
			return nil, model.ErrAlreadyReviewed
		}
		return nil, fmt.Errorf("failed to add review: %w", err)
	}

	ratings, err := s.productRepo.GetRatings(ctx, tx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to add review: %w", err)
	}

	if err = s.productRepo.UpdateRating(ctx, tx, productID, model.AverageRating(ratings), len(ratings)); err != nil {
		return nil, fmt.Errorf("failed to add review: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to add review: %w", err)
	}

	s.productRepo.Invalidate(ctx, productID)

	s.logger.Info().
		Str("product_id", productID.String()).
		Int("rating", req.Rating).
		Int("num_reviews", len(ratings)).
		Msg("review added")

	return s.GetByID(ctx, productID)
}

func (s *productService) rollbackOnError(ctx context.Context, tx pgx.Tx, err *error) {
	if *err == nil {
		return
	}
	if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
		s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
	}
}

func validateProduct(p *model.Product) error {
	var details []string

	if p.Name == "" || utf8.RuneCountInString(p.Name) > 100 {
		details = append(details, "name must be between 1 and 100 characters")
	}
	if p.Price.LessThan(decimal.Zero) {
		details = append(details, "price must not be negative")
	}
	if !p.Category.Valid() {
		details = append(details, "category must be one of "+categoryList())
	}
	if p.Stock < 0 {
		details = append(details, "stock must not be negative")
	}

	if len(details) > 0 {
		return model.NewValidationError("Invalid product", details...)
	}
	return nil
}

func categoryList() string {
	names := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
