package storage

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/linemk/agriconnect/internal/domain/models"
)

var (
	ErrUserNotFound    = fmt.Errorf("user %w", models.ErrNotFound)
	ErrProductNotFound = fmt.Errorf("product %w", models.ErrNotFound)
	ErrOrderNotFound   = fmt.Errorf("order %w", models.ErrNotFound)
	ErrReviewNotFound  = fmt.Errorf("review %w", models.ErrNotFound)

	ErrUserExists     = fmt.Errorf("%w: username or email already taken", models.ErrConflict)
	ErrReviewExists   = fmt.Errorf("%w: you have already reviewed this product", models.ErrConflict)
	ErrUnknownProduct = fmt.Errorf("%w: product does not exist", models.ErrValidation)
)

// коды ошибок PostgreSQL
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
