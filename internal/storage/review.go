package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/linemk/agriconnect/internal/scope"
)

type ReviewStorage interface {
	CreateReview(ctx context.Context, review *models.Review) (*models.Review, error)
	GetReviewByID(ctx context.Context, id int64) (*models.Review, error)
	ListReviews(ctx context.Context, f scope.ReviewFilter) ([]*models.Review, error)
	UpdateReview(ctx context.Context, review *models.Review) error
	DeleteReview(ctx context.Context, id int64) error
}

type reviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) ReviewStorage {
	return &reviewRepository{db: db}
}

const reviewSelect = `SELECT r.id, r.product_id, r.user_id, u.first_name, u.last_name, r.rating, r.comment, r.created_at
	FROM reviews r
	JOIN users u ON u.id = r.user_id`

func scanReview(row rowScanner) (*models.Review, error) {
	rv := &models.Review{}
	var first, last string
	if err := row.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &first, &last, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
		return nil, err
	}
	rv.UserName = strings.TrimSpace(first + " " + last)
	return rv, nil
}

// CreateReview нарушение уникальности (product_id, user_id) возвращается как ErrReviewExists
func (r *reviewRepository) CreateReview(ctx context.Context, review *models.Review) (*models.Review, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO reviews (product_id, user_id, rating, comment, created_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 RETURNING id, created_at`,
		review.ProductID, review.UserID, review.Rating, review.Comment,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		switch pqCode(err) {
		case codeUniqueViolation:
			return nil, ErrReviewExists
		case codeForeignKeyViolation:
			return nil, ErrUnknownProduct
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return review, nil
}

func (r *reviewRepository) GetReviewByID(ctx context.Context, id int64) (*models.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx, reviewSelect+" WHERE r.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return rv, nil
}

func (r *reviewRepository) ListReviews(ctx context.Context, f scope.ReviewFilter) ([]*models.Review, error) {
	var (
		conds []string
		args  []any
	)
	if f.ProductID != 0 {
		args = append(args, f.ProductID)
		conds = append(conds, "r.product_id = $"+strconv.Itoa(len(args)))
	}
	if f.UserID != 0 {
		args = append(args, f.UserID)
		conds = append(conds, "r.user_id = $"+strconv.Itoa(len(args)))
	}
	query := reviewSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY r.created_at DESC, r.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*models.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) UpdateReview(ctx context.Context, review *models.Review) error {
	res, err := r.db.ExecContext(ctx, "UPDATE reviews SET rating = $1, comment = $2 WHERE id = $3",
		review.Rating, review.Comment, review.ID)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	return expectAffected(res, ErrReviewNotFound)
}

func (r *reviewRepository) DeleteReview(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return expectAffected(res, ErrReviewNotFound)
}
