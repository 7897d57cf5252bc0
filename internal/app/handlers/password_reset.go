package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/agriconnect/internal/service"
)

type ResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type ResetConfirmRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// PasswordResetHandler обрабатывает POST /api/password-reset/.
// Ответ одинаков для известных и неизвестных адресов.
func PasswordResetHandler(log *slog.Logger, resetService service.PasswordResetService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.PasswordResetHandler"))

		var req ResetRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}
		if err := resetService.RequestReset(r.Context(), req.Email); err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, statusOK)
	}
}

// ValidateResetTokenHandler обрабатывает POST /api/password-reset/validate_token/
func ValidateResetTokenHandler(log *slog.Logger, resetService service.PasswordResetService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.ValidateResetTokenHandler"))

		var req ResetTokenRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}
		if err := resetService.ValidateToken(r.Context(), req.Token); err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, statusOK)
	}
}

// ConfirmResetHandler обрабатывает POST /api/password-reset/confirm/
func ConfirmResetHandler(log *slog.Logger, resetService service.PasswordResetService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.ConfirmResetHandler"))

		var req ResetConfirmRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}
		if err := resetService.Confirm(r.Context(), req.Token, req.Password); err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, statusOK)
	}
}
