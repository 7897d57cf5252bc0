package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/linemk/agriconnect/internal/mailer"
	"github.com/linemk/agriconnect/internal/security"
	"github.com/linemk/agriconnect/internal/storage"
)

const resetSubject = "AgriConnect password reset"

type PasswordResetService interface {
	// RequestReset отправляет письмо со ссылкой; для неизвестного email молча ничего не делает
	RequestReset(ctx context.Context, email string) error
	ValidateToken(ctx context.Context, token string) error
	Confirm(ctx context.Context, token, password string) error
}

type passwordResetService struct {
	log      *slog.Logger
	userRepo storage.UserStorage
	tokens   *security.TokenManager
	mail     mailer.Mailer
	appURL   string
}

func NewPasswordResetService(
	log *slog.Logger,
	userRepo storage.UserStorage,
	tokens *security.TokenManager,
	mail mailer.Mailer,
	appURL string,
) PasswordResetService {
	return &passwordResetService{
		log:      log,
		userRepo: userRepo,
		tokens:   tokens,
		mail:     mail,
		appURL:   strings.TrimRight(appURL, "/"),
	}
}

func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	const op = "service.PasswordReset.RequestReset"
	logger := s.log.With(slog.String("op", op))

	user, err := s.userRepo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Info("reset requested for unknown email")
			return nil
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get user: %w", op, err)
	}
	if !user.IsActive {
		return nil
	}

	token, err := s.tokens.NewResetToken(user)
	if err != nil {
		logger.Error("failed to generate reset token", slog.Any("error", err))
		return fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	link := s.appURL + "/reset-password?token=" + url.QueryEscape(token)
	msg := mailer.Message{
		To:      user.Email,
		Subject: resetSubject,
		Text: fmt.Sprintf("Hello %s,\n\nFollow the link to choose a new password:\n%s\n\n"+
			"If you did not request a reset, ignore this message.\n", user.Username, link),
		HTML: fmt.Sprintf(`<p>Hello %s,</p><p><a href="%s">Choose a new password</a></p>`+
			`<p>If you did not request a reset, ignore this message.</p>`, user.Username, link),
	}
	// ответ одинаков для известных и неизвестных адресов: ошибка отправки только логируется
	if err := s.mail.Send(ctx, msg); err != nil {
		logger.Error("failed to send reset mail", slog.Int64("userID", user.ID), slog.Any("error", err))
		return nil
	}

	logger.Info("reset mail sent", slog.Int64("userID", user.ID))
	return nil
}

// resolve проверяет токен сброса и что пароль с момента выдачи не менялся
func (s *passwordResetService) resolve(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Parse(token, security.TokenReset)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, security.ErrTokenInvalid
		}
		return nil, err
	}
	if claims.Fingerprint != security.PasswordFingerprint(user.PassHash) {
		return nil, security.ErrTokenInvalid
	}
	return user, nil
}

func (s *passwordResetService) ValidateToken(ctx context.Context, token string) error {
	const op = "service.PasswordReset.ValidateToken"

	if _, err := s.resolve(ctx, token); err != nil {
		s.log.Warn("invalid reset token", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *passwordResetService) Confirm(ctx context.Context, token, password string) error {
	const op = "service.PasswordReset.Confirm"
	logger := s.log.With(slog.String("op", op))

	user, err := s.resolve(ctx, token)
	if err != nil {
		logger.Warn("invalid reset token", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	passHash, err := HashPassword(password)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return fmt.Errorf("%s: failed to hash password: %w", op, err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, passHash); err != nil {
		logger.Error("failed to update password", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("password reset", slog.Int64("userID", user.ID))
	return nil
}
