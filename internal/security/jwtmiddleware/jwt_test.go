package jwtmiddleware_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/linemk/agriconnect/internal/access"
	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/linemk/agriconnect/internal/security"
	"github.com/linemk/agriconnect/internal/security/jwtmiddleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokens() *security.TokenManager {
	return security.NewTokenManager("testsecret", "agriconnect", time.Hour, 24*time.Hour, time.Hour)
}

// fakeUsers актуальные роли активных пользователей
type fakeUsers map[int64]models.Role

func (f fakeUsers) Authenticate(ctx context.Context, userID int64) (access.Actor, error) {
	role, ok := f[userID]
	if !ok {
		return access.Actor{}, fmt.Errorf("%w: user not found or inactive", models.ErrUnauthenticated)
	}
	return access.Actor{ID: userID, Role: role}, nil
}

type brokenUsers struct{}

func (brokenUsers) Authenticate(ctx context.Context, userID int64) (access.Actor, error) {
	return access.Actor{}, errors.New("connection refused")
}

func defaultUsers() fakeUsers {
	return fakeUsers{5: models.RoleBuyer, 123: models.RoleFarmer}
}

// echoActor отвечает id актора или 0 для анонимного запроса
func echoActor() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := jwtmiddleware.ActorOrAnonymous(r.Context())
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(strconv.FormatInt(actor.ID, 10) + ":" + string(actor.Role)))
	})
}

func TestJWTMiddleware_MissingAuthorization(t *testing.T) {
	handler := jwtmiddleware.NewJWTMiddleware(newTokens(), defaultUsers())(echoActor())

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code, "Expected unauthorized status when no token provided")
	assert.Contains(t, rr.Body.String(), "missing token")
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestJWTMiddleware_InvalidAuthorizationFormat(t *testing.T) {
	handler := jwtmiddleware.NewJWTMiddleware(newTokens(), defaultUsers())(echoActor())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "InvalidFormat")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid token format")
}

func TestJWTMiddleware_InvalidToken(t *testing.T) {
	handler := jwtmiddleware.NewJWTMiddleware(newTokens(), defaultUsers())(echoActor())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer invalid.token.value")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid token")
}

func TestJWTMiddleware_RefreshTokenRejected(t *testing.T) {
	tokens := newTokens()
	pair, err := tokens.NewTokenPair(&models.User{ID: 5, Role: models.RoleBuyer})
	require.NoError(t, err)

	handler := jwtmiddleware.NewJWTMiddleware(tokens, defaultUsers())(echoActor())
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Refresh)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	tokens := newTokens()
	pair, err := tokens.NewTokenPair(&models.User{ID: 123, Role: models.RoleFarmer})
	require.NoError(t, err)

	handler := jwtmiddleware.NewJWTMiddleware(tokens, defaultUsers())(echoActor())
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Access)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "Expected OK status for valid token")
	assert.Equal(t, "123:farmer", rr.Body.String())
}

func TestJWTMiddleware_RoleFromStore(t *testing.T) {
	tokens := newTokens()
	// токен выдан, пока пользователь был покупателем
	pair, err := tokens.NewTokenPair(&models.User{ID: 5, Role: models.RoleBuyer})
	require.NoError(t, err)

	handler := jwtmiddleware.NewJWTMiddleware(tokens, fakeUsers{5: models.RoleFarmer})(echoActor())
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Access)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "5:farmer", rr.Body.String())
}

func TestJWTMiddleware_UnknownUser(t *testing.T) {
	tokens := newTokens()
	pair, err := tokens.NewTokenPair(&models.User{ID: 77, Role: models.RoleBuyer})
	require.NoError(t, err)

	for name, mw := range map[string]func(http.Handler) http.Handler{
		"required": jwtmiddleware.NewJWTMiddleware(tokens, defaultUsers()),
		"optional": jwtmiddleware.NewOptionalJWTMiddleware(tokens, defaultUsers()),
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("Authorization", "Bearer "+pair.Access)
			rr := httptest.NewRecorder()
			mw(echoActor()).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Contains(t, rr.Body.String(), "user not found or inactive")
		})
	}
}

func TestJWTMiddleware_StoreFailure(t *testing.T) {
	tokens := newTokens()
	pair, err := tokens.NewTokenPair(&models.User{ID: 5, Role: models.RoleBuyer})
	require.NoError(t, err)

	handler := jwtmiddleware.NewJWTMiddleware(tokens, brokenUsers{})(echoActor())
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Access)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "connection refused")
}

func TestOptionalJWTMiddleware_Anonymous(t *testing.T) {
	handler := jwtmiddleware.NewOptionalJWTMiddleware(newTokens(), defaultUsers())(echoActor())

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "0:", rr.Body.String())
}

func TestOptionalJWTMiddleware_BadTokenStillRejected(t *testing.T) {
	handler := jwtmiddleware.NewOptionalJWTMiddleware(newTokens(), defaultUsers())(echoActor())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestFromContext(t *testing.T) {
	ctx := jwtmiddleware.WithActor(context.Background(), access.Actor{ID: 456, Role: models.RoleBuyer})
	actor, ok := jwtmiddleware.FromContext(ctx)
	assert.True(t, ok, "Expected to retrieve actor from context")
	assert.Equal(t, int64(456), actor.ID)

	_, ok = jwtmiddleware.FromContext(context.Background())
	assert.False(t, ok)
}
