package models

import "errors"

// Классы ошибок; конкретные ошибки оборачивают один из них через %w,
// а транспортный слой сопоставляет их с HTTP-кодами через errors.Is.
var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)
