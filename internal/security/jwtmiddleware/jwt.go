package jwtmiddleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/linemk/agriconnect/internal/access"
	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/linemk/agriconnect/internal/security"
)

type contextKey string

const ActorKey contextKey = "actor"

// ActorResolver загружает актора по id из токена. Ошибка, оборачивающая
// models.ErrUnauthenticated, означает удаленного или неактивного пользователя.
type ActorResolver interface {
	Authenticate(ctx context.Context, userID int64) (access.Actor, error)
}

// NewJWTMiddleware требует валидный Bearer access-токен и кладет актора в контекст.
func NewJWTMiddleware(tokens *security.TokenManager, users ActorResolver) func(http.Handler) http.Handler {
	return newMiddleware(tokens, users, true)
}

// NewOptionalJWTMiddleware пропускает запросы без заголовка Authorization как анонимные,
// но отклоняет запросы с невалидным токеном.
func NewOptionalJWTMiddleware(tokens *security.TokenManager, users ActorResolver) func(http.Handler) http.Handler {
	return newMiddleware(tokens, users, false)
}

func newMiddleware(tokens *security.TokenManager, users ActorResolver, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Извлекаем токен из заголовка Authorization (формат: "Bearer <token>")
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				if required {
					unauthorized(w, "missing token")
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				unauthorized(w, "invalid token format")
				return
			}

			claims, err := tokens.Parse(parts[1], security.TokenAccess)
			if err != nil {
				if errors.Is(err, security.ErrTokenExpired) {
					unauthorized(w, "token expired")
					return
				}
				unauthorized(w, "invalid token")
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				unauthorized(w, "invalid token claims: invalid user id")
				return
			}

			// роль в claims только подсказка, актор строится по записи в БД
			actor, err := users.Authenticate(r.Context(), userID)
			if err != nil {
				if errors.Is(err, models.ErrUnauthenticated) {
					unauthorized(w, "user not found or inactive")
					return
				}
				writeJSON(w, http.StatusInternalServerError, "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	writeJSON(w, http.StatusUnauthorized, msg)
}

func writeJSON(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// WithActor кладет актора в контекст запроса
func WithActor(ctx context.Context, actor access.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// FromContext извлекает актора из контекста.
func FromContext(ctx context.Context) (access.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(access.Actor)
	return actor, ok && actor.Authenticated()
}

// ActorOrAnonymous возвращает актора из контекста или анонимного актора
func ActorOrAnonymous(ctx context.Context) access.Actor {
	if actor, ok := FromContext(ctx); ok {
		return actor
	}
	return access.Anonymous()
}
