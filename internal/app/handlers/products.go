package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/linemk/agriconnect/internal/scope"
	"github.com/linemk/agriconnect/internal/security/jwtmiddleware"
	"github.com/linemk/agriconnect/internal/service"
	"github.com/shopspring/decimal"
)

// ProductRequest тело POST, PUT и PATCH для товаров
type ProductRequest struct {
	Title       *string          `json:"title" validate:"omitempty,min=1,max=100"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	ImageURL    *string          `json:"image_url" validate:"omitempty,url"`
	Category    *string          `json:"category"`
	Location    *string          `json:"location" validate:"omitempty,max=100"`
	HarvestDate *models.Date     `json:"harvest_date"`
	IsOrganic   *bool            `json:"is_organic"`
	Quantity    *int             `json:"quantity" validate:"omitempty,min=0,max=2147483647"`
}

func (req ProductRequest) category() (*models.Category, error) {
	if req.Category == nil {
		return nil, nil
	}
	c, ok := models.ParseCategory(*req.Category)
	if !ok {
		return nil, errUnknownCategory(*req.Category)
	}
	return &c, nil
}

func (req ProductRequest) required() error {
	return requireFields(map[string]bool{
		"title":        req.Title != nil,
		"price":        req.Price != nil,
		"category":     req.Category != nil,
		"location":     req.Location != nil,
		"harvest_date": req.HarvestDate != nil,
		"quantity":     req.Quantity != nil,
	})
}

func (req ProductRequest) patch() (service.ProductPatch, error) {
	c, err := req.category()
	if err != nil {
		return service.ProductPatch{}, err
	}
	return service.ProductPatch{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Category:    c,
		Location:    req.Location,
		HarvestDate: req.HarvestDate,
		IsOrganic:   req.IsOrganic,
		Quantity:    req.Quantity,
	}, nil
}

func (req ProductRequest) input() (service.ProductInput, error) {
	p, err := req.patch()
	if err != nil {
		return service.ProductInput{}, err
	}
	in := service.ProductInput{
		Title:    *p.Title,
		Price:    *p.Price,
		Category: *p.Category,
	}
	deref(&in.Description, p.Description)
	deref(&in.ImageURL, p.ImageURL)
	deref(&in.Location, p.Location)
	deref(&in.HarvestDate, p.HarvestDate)
	deref(&in.IsOrganic, p.IsOrganic)
	deref(&in.Quantity, p.Quantity)
	return in, nil
}

func deref[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// ListProductsHandler обрабатывает GET /api/products/ с фильтрами из query
func ListProductsHandler(log *slog.Logger, products service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.ListProductsHandler"))

		filter, err := scope.ParseProductFilter(r.URL.Query())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		list, err := products.List(r.Context(), filter)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, list)
	}
}

// MyProductsHandler обрабатывает GET /api/products/my_products/
func MyProductsHandler(log *slog.Logger, products service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.MyProductsHandler"))

		list, err := products.Mine(r.Context(), jwtmiddleware.ActorOrAnonymous(r.Context()))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, list)
	}
}

// GetProductHandler обрабатывает GET /api/products/{id}/
func GetProductHandler(log *slog.Logger, products service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.GetProductHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		p, err := products.Get(r.Context(), id)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, p)
	}
}

// CreateProductHandler обрабатывает POST /api/products/
func CreateProductHandler(log *slog.Logger, products service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.CreateProductHandler"))

		var req ProductRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}
		if err := req.required(); err != nil {
			writeError(w, logger, err)
			return
		}
		in, err := req.input()
		if err != nil {
			writeError(w, logger, err)
			return
		}

		p, err := products.Create(r.Context(), jwtmiddleware.ActorOrAnonymous(r.Context()), in)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, p)
	}
}

// UpdateProductHandler обрабатывает PUT (partial=false) и PATCH /api/products/{id}/
func UpdateProductHandler(log *slog.Logger, products service.ProductService, partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.UpdateProductHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		var req ProductRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}
		if !partial {
			if err := req.required(); err != nil {
				writeError(w, logger, err)
				return
			}
		}
		patch, err := req.patch()
		if err != nil {
			writeError(w, logger, err)
			return
		}

		p, err := products.Update(r.Context(), jwtmiddleware.ActorOrAnonymous(r.Context()), id, patch)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, p)
	}
}

// DeleteProductHandler обрабатывает DELETE /api/products/{id}/
func DeleteProductHandler(log *slog.Logger, products service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.DeleteProductHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if err := products.Delete(r.Context(), jwtmiddleware.ActorOrAnonymous(r.Context()), id); err != nil {
			writeError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ProductReviewsHandler обрабатывает GET /api/products/{id}/reviews/
func ProductReviewsHandler(log *slog.Logger, products service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.ProductReviewsHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		list, err := products.Reviews(r.Context(), id)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, list)
	}
}
