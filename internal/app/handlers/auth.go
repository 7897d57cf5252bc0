package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/agriconnect/internal/service"
)

// TokenRequest запрос на получение пары токенов
type TokenRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest запрос на обновление токенов
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// TokenHandler обрабатывает POST /api/token/
func TokenHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.TokenHandler"
		logger := log.With(slog.String("op", op))

		var req TokenRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}

		pair, err := authService.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, pair)
	}
}

// RefreshHandler обрабатывает POST /api/token/refresh/
func RefreshHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RefreshHandler"
		logger := log.With(slog.String("op", op))

		var req RefreshRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}

		pair, err := authService.Refresh(r.Context(), req.Refresh)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, pair)
	}
}
