package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/linemk/agriconnect/internal/app/handlers"
	"github.com/linemk/agriconnect/internal/config"
	"github.com/linemk/agriconnect/internal/lib/logger/handlers/urllog"
	"github.com/linemk/agriconnect/internal/security"
	"github.com/linemk/agriconnect/internal/security/jwtmiddleware"
)

// NewRouter собирает маршруты /api. Чтение товаров и отзывов, регистрация,
// выдача токенов и сброс пароля доступны без токена, остальное требует его.
func NewRouter(log *slog.Logger, cfg *config.Config, tokens *security.TokenManager, svc *Services, db handlers.Pinger) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	maxUpload := cfg.Media.MaxUploadBytes

	router.Route("/api", func(r chi.Router) {
		r.Get("/healthz", handlers.HealthHandler(log, db))

		r.Post("/token", handlers.TokenHandler(log, svc.Auth))
		r.Post("/token/refresh", handlers.RefreshHandler(log, svc.Auth))

		r.Post("/password-reset", handlers.PasswordResetHandler(log, svc.PasswordReset))
		r.Post("/password-reset/validate_token", handlers.ValidateResetTokenHandler(log, svc.PasswordReset))
		r.Post("/password-reset/confirm", handlers.ConfirmResetHandler(log, svc.PasswordReset))

		// публичные маршруты: токен необязателен, но если передан, должен быть валиден
		r.Group(func(r chi.Router) {
			r.Use(jwtmiddleware.NewOptionalJWTMiddleware(tokens, svc.Auth))

			r.Post("/users", handlers.RegisterHandler(log, svc.Users))

			r.Get("/products", handlers.ListProductsHandler(log, svc.Products))
			r.Get("/products/{id}", handlers.GetProductHandler(log, svc.Products))
			r.Get("/products/{id}/reviews", handlers.ProductReviewsHandler(log, svc.Products))

			r.Get("/reviews", handlers.ListReviewsHandler(log, svc.Reviews))
			r.Get("/reviews/{id}", handlers.GetReviewHandler(log, svc.Reviews))
		})

		r.Group(func(r chi.Router) {
			r.Use(jwtmiddleware.NewJWTMiddleware(tokens, svc.Auth))

			r.Get("/users", handlers.ListUsersHandler(log, svc.Users))
			r.Get("/users/farmers", handlers.FarmersHandler(log, svc.Users))
			r.Get("/users/me", handlers.MeHandler(log, svc.Users))
			r.Post("/users/me/image", handlers.ProfileImageHandler(log, svc.Media, maxUpload))
			r.Get("/users/{id}", handlers.GetUserHandler(log, svc.Users))
			r.Put("/users/{id}", handlers.UpdateUserHandler(log, svc.Users, false))
			r.Patch("/users/{id}", handlers.UpdateUserHandler(log, svc.Users, true))
			r.Delete("/users/{id}", handlers.DeleteUserHandler(log, svc.Users))

			r.Get("/products/my_products", handlers.MyProductsHandler(log, svc.Products))
			r.Post("/products", handlers.CreateProductHandler(log, svc.Products))
			r.Put("/products/{id}", handlers.UpdateProductHandler(log, svc.Products, false))
			r.Patch("/products/{id}", handlers.UpdateProductHandler(log, svc.Products, true))
			r.Delete("/products/{id}", handlers.DeleteProductHandler(log, svc.Products))
			r.Post("/products/{id}/image", handlers.ProductImageHandler(log, svc.Media, maxUpload))

			r.Get("/orders", handlers.ListOrdersHandler(log, svc.Orders))
			r.Post("/orders", handlers.CreateOrderHandler(log, svc.Orders))
			r.Get("/orders/my_orders", handlers.MyOrdersHandler(log, svc.Orders))
			r.Get("/orders/{id}", handlers.GetOrderHandler(log, svc.Orders))
			r.Put("/orders/{id}", handlers.UpdateOrderHandler(log, svc.Orders, false))
			r.Patch("/orders/{id}", handlers.UpdateOrderHandler(log, svc.Orders, true))
			r.Delete("/orders/{id}", handlers.DeleteOrderHandler(log, svc.Orders))
			r.Post("/orders/{id}/update_status", handlers.UpdateOrderStatusHandler(log, svc.Orders))

			r.Get("/reviews/my_reviews", handlers.MyReviewsHandler(log, svc.Reviews))
			r.Post("/reviews", handlers.CreateReviewHandler(log, svc.Reviews))
			r.Put("/reviews/{id}", handlers.UpdateReviewHandler(log, svc.Reviews, false))
			r.Patch("/reviews/{id}", handlers.UpdateReviewHandler(log, svc.Reviews, true))
			r.Delete("/reviews/{id}", handlers.DeleteReviewHandler(log, svc.Reviews))
		})
	})

	return router
}
