package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/agriconnect/internal/scope"
	"github.com/linemk/agriconnect/internal/security/jwtmiddleware"
	"github.com/linemk/agriconnect/internal/service"
)

// CreateReviewRequest тело POST /api/reviews/
type CreateReviewRequest struct {
	Product int64  `json:"product" validate:"required,gt=0"`
	Rating  int    `json:"rating" validate:"required"`
	Comment string `json:"comment"`
}

// UpdateReviewRequest тело PUT/PATCH /api/reviews/{id}/
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

// ListReviewsHandler обрабатывает GET /api/reviews/?product=&user=
func ListReviewsHandler(log *slog.Logger, reviews service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.ListReviewsHandler"))

		filter, err := scope.ParseReviewFilter(r.URL.Query())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		list, err := reviews.List(r.Context(), filter)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, list)
	}
}

// MyReviewsHandler обрабатывает GET /api/reviews/my_reviews/
func MyReviewsHandler(log *slog.Logger, reviews service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.MyReviewsHandler"))

		list, err := reviews.Mine(r.Context(), jwtmiddleware.ActorOrAnonymous(r.Context()))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, list)
	}
}

// GetReviewHandler обрабатывает GET /api/reviews/{id}/
func GetReviewHandler(log *slog.Logger, reviews service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.GetReviewHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		review, err := reviews.Get(r.Context(), id)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, review)
	}
}

// CreateReviewHandler обрабатывает POST /api/reviews/; рейтинг проверяет сервис
func CreateReviewHandler(log *slog.Logger, reviews service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.CreateReviewHandler"))

		var req CreateReviewRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}

		review, err := reviews.Create(r.Context(), jwtmiddleware.ActorOrAnonymous(r.Context()), req.Product, req.Rating, req.Comment)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, review)
	}
}

// UpdateReviewHandler обрабатывает PUT и PATCH /api/reviews/{id}/
func UpdateReviewHandler(log *slog.Logger, reviews service.ReviewService, partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.UpdateReviewHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		var req UpdateReviewRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}
		if !partial {
			if err := requireFields(map[string]bool{"rating": req.Rating != nil}); err != nil {
				writeError(w, logger, err)
				return
			}
		}

		review, err := reviews.Update(r.Context(), jwtmiddleware.ActorOrAnonymous(r.Context()), id, service.ReviewPatch{
			Rating:  req.Rating,
			Comment: req.Comment,
		})
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, review)
	}
}

// DeleteReviewHandler обрабатывает DELETE /api/reviews/{id}/
func DeleteReviewHandler(log *slog.Logger, reviews service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.DeleteReviewHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if err := reviews.Delete(r.Context(), jwtmiddleware.ActorOrAnonymous(r.Context()), id); err != nil {
			writeError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
