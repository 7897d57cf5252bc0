package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/linemk/agriconnect/internal/domain/models"
)

var validate = validator.New()

// ErrorResponse тело любого ответа с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse тело ответа без данных
type StatusResponse struct {
	Status string `json:"status"`
}

var statusOK = StatusResponse{Status: "OK"}

func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", slog.Any("error", err))
	}
}

// statusFor сопоставляет класс ошибки с HTTP-кодом
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError пишет ошибку в виде {"error": msg}; внутренние ошибки наружу не попадают
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	status := statusFor(err)
	msg := publicMessage(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", slog.Any("error", err))
		msg = "internal server error"
	} else {
		log.Warn("request rejected", slog.Int("status", status), slog.Any("error", err))
	}
	writeJSON(w, log, status, ErrorResponse{Error: msg})
}

// publicMessage отрезает префиксы op ("service.Orders.Create: ...") у сообщения
func publicMessage(err error) string {
	msg := err.Error()
	for {
		head, rest, ok := strings.Cut(msg, ": ")
		if !ok || !strings.Contains(head, ".") || strings.Contains(head, " ") {
			return msg
		}
		msg = rest
	}
}

func badRequest(w http.ResponseWriter, log *slog.Logger, format string, args ...any) {
	writeError(w, log, fmt.Errorf("%w: "+format, append([]any{models.ErrValidation}, args...)...))
}

// decodeJSON разбирает тело запроса и проверяет его тегами validate
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", models.ErrValidation)
		}
		return fmt.Errorf("%w: invalid JSON: %v", models.ErrValidation, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", models.ErrValidation, describeValidation(err))
	}
	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// idParam извлекает положительный числовой параметр пути
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", models.ErrValidation, name, raw)
	}
	return id, nil
}

// requireFields для PUT: все перечисленные поля должны присутствовать
func requireFields(fields map[string]bool) error {
	var missing []string
	for name, present := range fields {
		if !present {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: missing required fields: %s", models.ErrValidation, strings.Join(missing, ", "))
}

func errUnknownCategory(c string) error {
	return fmt.Errorf("%w: unknown category %q", models.ErrValidation, c)
}
