package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/agriconnect/internal/access"
	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/linemk/agriconnect/internal/scope"
	"github.com/linemk/agriconnect/internal/storage"
)

// ReviewPatch изменяемые поля отзыва
type ReviewPatch struct {
	Rating  *int
	Comment *string
}

type ReviewService interface {
	List(ctx context.Context, f scope.ReviewFilter) ([]*models.Review, error)
	Get(ctx context.Context, id int64) (*models.Review, error)
	Mine(ctx context.Context, actor access.Actor) ([]*models.Review, error)
	Create(ctx context.Context, actor access.Actor, productID int64, rating int, comment string) (*models.Review, error)
	Update(ctx context.Context, actor access.Actor, id int64, patch ReviewPatch) (*models.Review, error)
	Delete(ctx context.Context, actor access.Actor, id int64) error
}

type reviewService struct {
	log         *slog.Logger
	reviewRepo  storage.ReviewStorage
	productRepo storage.ProductStorage
}

func NewReviewService(log *slog.Logger, reviewRepo storage.ReviewStorage, productRepo storage.ProductStorage) ReviewService {
	return &reviewService{
		log:         log,
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
	}
}

func (s *reviewService) List(ctx context.Context, f scope.ReviewFilter) ([]*models.Review, error) {
	const op = "service.Reviews.List"

	reviews, err := s.reviewRepo.ListReviews(ctx, f)
	if err != nil {
		s.log.Error("failed to list reviews", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return reviews, nil
}

func (s *reviewService) Get(ctx context.Context, id int64) (*models.Review, error) {
	const op = "service.Reviews.Get"

	r, err := s.reviewRepo.GetReviewByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

func (s *reviewService) Mine(ctx context.Context, actor access.Actor) ([]*models.Review, error) {
	if !actor.Authenticated() {
		return nil, models.ErrUnauthenticated
	}
	return s.List(ctx, scope.ReviewFilter{UserID: actor.ID})
}

func (s *reviewService) Create(ctx context.Context, actor access.Actor, productID int64, rating int, comment string) (*models.Review, error) {
	const op = "service.Reviews.Create"
	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("userID", actor.ID),
		slog.Int64("productID", productID),
	)

	if !actor.Authenticated() {
		return nil, models.ErrUnauthenticated
	}
	if err := validateRating(rating); err != nil {
		return nil, err
	}
	if _, err := s.productRepo.GetProductByID(ctx, productID); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, storage.ErrUnknownProduct
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	review, err := s.reviewRepo.CreateReview(ctx, &models.Review{
		ProductID: productID,
		UserID:    actor.ID,
		Rating:    rating,
		Comment:   comment,
	})
	if err != nil {
		logger.Warn("failed to create review", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("review created", slog.Int64("reviewID", review.ID))
	return review, nil
}

func (s *reviewService) Update(ctx context.Context, actor access.Actor, id int64, patch ReviewPatch) (*models.Review, error) {
	const op = "service.Reviews.Update"
	logger := s.log.With(slog.String("op", op), slog.Int64("reviewID", id))

	r, err := s.reviewRepo.GetReviewByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := access.Authorize(actor, r, access.OpUpdate); err != nil {
		logger.Warn("update denied", slog.Int64("userID", actor.ID))
		return nil, err
	}

	if patch.Rating != nil {
		if err := validateRating(*patch.Rating); err != nil {
			return nil, err
		}
		r.Rating = *patch.Rating
	}
	setString(&r.Comment, patch.Comment)

	if err := s.reviewRepo.UpdateReview(ctx, r); err != nil {
		logger.Error("failed to update review", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

func (s *reviewService) Delete(ctx context.Context, actor access.Actor, id int64) error {
	const op = "service.Reviews.Delete"
	logger := s.log.With(slog.String("op", op), slog.Int64("reviewID", id))

	r, err := s.reviewRepo.GetReviewByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := access.Authorize(actor, r, access.OpDelete); err != nil {
		logger.Warn("delete denied", slog.Int64("userID", actor.ID))
		return err
	}
	if err := s.reviewRepo.DeleteReview(ctx, id); err != nil {
		logger.Error("failed to delete review", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func validateRating(rating int) error {
	if rating < models.MinRating || rating > models.MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", models.ErrValidation, models.MinRating, models.MaxRating)
	}
	return nil
}
