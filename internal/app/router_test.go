package app_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/linemk/agriconnect/internal/access"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/linemk/agriconnect/internal/app"
	"github.com/linemk/agriconnect/internal/config"
	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/linemk/agriconnect/internal/mailer"
	"github.com/linemk/agriconnect/internal/scope"
	"github.com/linemk/agriconnect/internal/security"
	"github.com/linemk/agriconnect/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProducts struct {
	service.ProductService
}

func (stubProducts) List(ctx context.Context, f scope.ProductFilter) ([]*models.Product, error) {
	return []*models.Product{}, nil
}

func (stubProducts) Mine(ctx context.Context, actor access.Actor) ([]*models.Product, error) {
	return []*models.Product{{ID: 1, FarmerID: actor.ID}}, nil
}

type stubOrders struct {
	service.OrderService
}

func (stubOrders) List(ctx context.Context, actor access.Actor) ([]*models.Order, error) {
	return []*models.Order{}, nil
}

// stubAuth знает одного активного фермера с id 7
type stubAuth struct {
	service.AuthServiceInterface
}

func (stubAuth) Authenticate(ctx context.Context, userID int64) (access.Actor, error) {
	if userID != 7 {
		return access.Actor{}, fmt.Errorf("%w: user not found or inactive", models.ErrUnauthenticated)
	}
	return access.Actor{ID: userID, Role: models.RoleFarmer}, nil
}

type okPinger struct{}

func (okPinger) PingContext(ctx context.Context) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		CORS:  config.CORSConfig{AllowedOrigins: []string{"*"}},
		Media: config.MediaConfig{MaxUploadBytes: 1 << 20},
	}
}

func testTokens() *security.TokenManager {
	return security.NewTokenManager("secret", "agriconnect", time.Hour, 2*time.Hour, time.Hour)
}

func newTestRouter(t *testing.T) (http.Handler, *security.TokenManager) {
	t.Helper()
	tokens := testTokens()
	svc := &app.Services{Auth: stubAuth{}, Products: stubProducts{}, Orders: stubOrders{}}
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return app.NewRouter(log, testConfig(), tokens, svc, okPinger{}), tokens
}

func TestRouter_PublicAndProtected(t *testing.T) {
	router, tokens := newTestRouter(t)
	pair, err := tokens.NewTokenPair(&models.User{ID: 7, Role: models.RoleFarmer})
	require.NoError(t, err)
	stranger, err := tokens.NewTokenPair(&models.User{ID: 8, Role: models.RoleFarmer})
	require.NoError(t, err)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{name: "health", method: http.MethodGet, path: "/api/healthz", wantStatus: http.StatusOK},
		{name: "public list with trailing slash", method: http.MethodGet, path: "/api/products/", wantStatus: http.StatusOK},
		{name: "public list rejects bad token", method: http.MethodGet, path: "/api/products/", token: "junk", wantStatus: http.StatusUnauthorized},
		{name: "orders need token", method: http.MethodGet, path: "/api/orders/", wantStatus: http.StatusUnauthorized},
		{name: "orders with token", method: http.MethodGet, path: "/api/orders/", token: pair.Access, wantStatus: http.StatusOK},
		{name: "refresh token is not access", method: http.MethodGet, path: "/api/orders/", token: pair.Refresh, wantStatus: http.StatusUnauthorized},
		{name: "my products before id route", method: http.MethodGet, path: "/api/products/my_products/", token: pair.Access, wantStatus: http.StatusOK},
		{name: "token of unknown user", method: http.MethodGet, path: "/api/orders/", token: stranger.Access, wantStatus: http.StatusUnauthorized},
		{name: "unknown route", method: http.MethodGet, path: "/api/coins", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/orders/", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Less(t, rr.Code, 300)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

var userColumns = []string{"id", "username", "email", "pass_hash", "first_name", "last_name", "user_type",
	"phone_number", "address", "profile_image", "is_active", "date_joined"}

var orderColumns = []string{"id", "buyer_id", "first_name", "last_name", "total_amount", "shipping_address",
	"phone_number", "status", "created_at", "updated_at"}

// newStoreRouter собирает роутер поверх настоящих сервисов и sqlmock
func newStoreRouter(t *testing.T) (http.Handler, *security.TokenManager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := testConfig()
	tokens := testTokens()
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := app.NewServices(log, cfg, db, tokens, mailer.NewLogMailer(log), nil)
	return app.NewRouter(log, cfg, tokens, svc, db), tokens, mock
}

func expectUser(mock sqlmock.Sqlmock, id int64, role models.Role, active bool) {
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(id, "ivan", "ivan@example.com", []byte("hash"), "Ivan", "Petrov", string(role),
				"", "", "", active, time.Now()))
}

func TestRouter_RoleComesFromStore(t *testing.T) {
	router, tokens, mock := newStoreRouter(t)

	// токен выдан покупателю, который с тех пор стал фермером
	pair, err := tokens.NewTokenPair(&models.User{ID: 7, Role: models.RoleBuyer})
	require.NoError(t, err)

	expectUser(mock, 7, models.RoleFarmer, true)
	mock.ExpectQuery(`WHERE EXISTS \(SELECT 1 FROM order_items`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(orderColumns))

	req := httptest.NewRequest(http.MethodGet, "/api/orders/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Access)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, "[]", rr.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouter_DeletedOrInactiveUser(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		expect func(mock sqlmock.Sqlmock)
	}{
		{
			name:   "deleted user creates review",
			method: http.MethodPost,
			path:   "/api/reviews/",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
					WithArgs(int64(7)).
					WillReturnRows(sqlmock.NewRows(userColumns))
			},
		},
		{
			name:   "inactive user creates product",
			method: http.MethodPost,
			path:   "/api/products/",
			expect: func(mock sqlmock.Sqlmock) { expectUser(mock, 7, models.RoleFarmer, false) },
		},
		{
			name:   "deleted user on public route",
			method: http.MethodGet,
			path:   "/api/products/",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
					WithArgs(int64(7)).
					WillReturnRows(sqlmock.NewRows(userColumns))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, tokens, mock := newStoreRouter(t)
			pair, err := tokens.NewTokenPair(&models.User{ID: 7, Role: models.RoleFarmer})
			require.NoError(t, err)
			tt.expect(mock)

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{"product": 1, "rating": 5}`))
			req.Header.Set("Authorization", "Bearer "+pair.Access)
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code, rr.Body.String())
			assert.Contains(t, rr.Body.String(), "user not found or inactive")
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
