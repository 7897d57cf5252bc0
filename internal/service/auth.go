package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/agriconnect/internal/access"
	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/linemk/agriconnect/internal/security"
	"github.com/linemk/agriconnect/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: no active account found with the given credentials", models.ErrUnauthenticated)
	ErrInactiveUser       = fmt.Errorf("%w: user not found or inactive", models.ErrUnauthenticated)
)

type AuthServiceInterface interface {
	Login(ctx context.Context, username, password string) (security.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (security.TokenPair, error)
	// Authenticate собирает актора по id из access-токена
	Authenticate(ctx context.Context, userID int64) (access.Actor, error)
}

type AuthService struct {
	log      *slog.Logger
	userRepo storage.UserStorage
	tokens   *security.TokenManager
}

func NewAuthService(log *slog.Logger, userRepo storage.UserStorage, tokens *security.TokenManager) *AuthService {
	return &AuthService{
		log:      log,
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// Login проверяет имя пользователя и пароль и выдает пару access/refresh токенов.
// Неизвестный пользователь и неверный пароль неразличимы для клиента.
func (a *AuthService) Login(ctx context.Context, username, password string) (security.TokenPair, error) {
	const op = "service.Auth.Login"
	logger := a.log.With(
		slog.String("op", op),
		slog.String("username", username),
	)
	logger.Info("checking user")

	user, err := a.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("user not found")
			return security.TokenPair{}, ErrInvalidCredentials
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return security.TokenPair{}, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if !user.IsActive {
		logger.Warn("inactive user")
		return security.TokenPair{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return security.TokenPair{}, ErrInvalidCredentials
	}

	pair, err := a.tokens.NewTokenPair(user)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return security.TokenPair{}, fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user logged in successfully", slog.Int64("userID", user.ID))
	return pair, nil
}

// Refresh обменивает refresh-токен на новую пару; старый refresh при этом
// остается валидным до истечения срока, черного списка нет.
func (a *AuthService) Refresh(ctx context.Context, refreshToken string) (security.TokenPair, error) {
	const op = "service.Auth.Refresh"
	logger := a.log.With(slog.String("op", op))

	claims, err := a.tokens.Parse(refreshToken, security.TokenRefresh)
	if err != nil {
		logger.Warn("invalid refresh token", slog.Any("error", err))
		return security.TokenPair{}, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return security.TokenPair{}, err
	}

	user, err := a.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return security.TokenPair{}, security.ErrTokenInvalid
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return security.TokenPair{}, fmt.Errorf("%s: failed to get user: %w", op, err)
	}
	if !user.IsActive {
		return security.TokenPair{}, ErrInvalidCredentials
	}

	pair, err := a.tokens.NewTokenPair(user)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return security.TokenPair{}, fmt.Errorf("%s: failed to generate token: %w", op, err)
	}
	return pair, nil
}

// Authenticate перечитывает пользователя на каждый запрос: роль берется из
// хранилища, удаленный или деактивированный пользователь не проходит.
func (a *AuthService) Authenticate(ctx context.Context, userID int64) (access.Actor, error) {
	const op = "service.Auth.Authenticate"

	user, err := a.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return access.Actor{}, ErrInactiveUser
		}
		a.log.Error("failed to get user", slog.String("op", op), slog.Any("error", err))
		return access.Actor{}, fmt.Errorf("%s: failed to get user: %w", op, err)
	}
	if !user.IsActive {
		a.log.Warn("inactive user", slog.String("op", op), slog.Int64("userID", userID))
		return access.Actor{}, ErrInactiveUser
	}
	return access.Actor{ID: user.ID, Role: user.Role}, nil
}

// HashPassword хэширование пароля с помощью bcrypt (автоматически добавляет соль)
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}
