package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger проверка доступности базы (*sql.DB)
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler обрабатывает GET /api/healthz
func HealthHandler(log *slog.Logger, db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.HealthHandler"))

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.Error("database ping failed", slog.Any("error", err))
			writeJSON(w, logger, http.StatusServiceUnavailable, StatusResponse{Status: "unavailable"})
			return
		}
		writeJSON(w, logger, http.StatusOK, statusOK)
	}
}
