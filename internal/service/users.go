package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linemk/agriconnect/internal/access"
	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/linemk/agriconnect/internal/storage"
)

// RegisterInput данные для регистрации пользователя
type RegisterInput struct {
	Username     string
	Email        string
	Password     string
	FirstName    string
	LastName     string
	Role         models.Role
	PhoneNumber  string
	Address      string
	ProfileImage string
}

// UserPatch изменяемые поля профиля; nil означает "не менять"
type UserPatch struct {
	Username     *string
	Email        *string
	FirstName    *string
	LastName     *string
	Role         *models.Role
	PhoneNumber  *string
	Address      *string
	ProfileImage *string
}

type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Get(ctx context.Context, actor access.Actor, id int64) (*models.User, error)
	// List возвращает пользователей, видимых актору, то есть только его самого
	List(ctx context.Context, actor access.Actor) ([]*models.User, error)
	Farmers(ctx context.Context) ([]*models.User, error)
	Me(ctx context.Context, actor access.Actor) (*models.User, error)
	Update(ctx context.Context, actor access.Actor, id int64, patch UserPatch) (*models.User, error)
	Delete(ctx context.Context, actor access.Actor, id int64) error
}

type userService struct {
	log      *slog.Logger
	userRepo storage.UserStorage
}

func NewUserService(log *slog.Logger, userRepo storage.UserStorage) UserService {
	return &userService{log: log, userRepo: userRepo}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	const op = "service.Users.Register"
	logger := s.log.With(slog.String("op", op), slog.String("username", in.Username))

	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: user_type must be farmer or buyer", models.ErrValidation)
	}

	passHash, err := HashPassword(in.Password)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user, err := s.userRepo.CreateUser(ctx, &models.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		PassHash:     passHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         in.Role,
		PhoneNumber:  in.PhoneNumber,
		Address:      in.Address,
		ProfileImage: in.ProfileImage,
	})
	if err != nil {
		logger.Warn("failed to create user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("user registered", slog.Int64("userID", user.ID), slog.String("role", string(user.Role)))
	return user, nil
}

// load загружает пользователя и проверяет право op над ним
func (s *userService) load(ctx context.Context, actor access.Actor, id int64, op access.Operation) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, user, op); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Get(ctx context.Context, actor access.Actor, id int64) (*models.User, error) {
	const op = "service.Users.Get"

	user, err := s.load(ctx, actor, id, access.OpRead)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, actor access.Actor) ([]*models.User, error) {
	me, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	return []*models.User{me}, nil
}

func (s *userService) Farmers(ctx context.Context) ([]*models.User, error) {
	const op = "service.Users.Farmers"

	farmers, err := s.userRepo.ListUsersByRole(ctx, models.RoleFarmer)
	if err != nil {
		s.log.Error("failed to list farmers", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return farmers, nil
}

func (s *userService) Me(ctx context.Context, actor access.Actor) (*models.User, error) {
	const op = "service.Users.Me"

	if !actor.Authenticated() {
		return nil, models.ErrUnauthenticated
	}
	user, err := s.userRepo.GetUserByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, actor access.Actor, id int64, patch UserPatch) (*models.User, error) {
	const op = "service.Users.Update"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", id))

	user, err := s.load(ctx, actor, id, access.OpUpdate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if patch.Role != nil && !patch.Role.Valid() {
		return nil, fmt.Errorf("%w: user_type must be farmer or buyer", models.ErrValidation)
	}
	setString(&user.Username, patch.Username)
	setString(&user.Email, patch.Email)
	setString(&user.FirstName, patch.FirstName)
	setString(&user.LastName, patch.LastName)
	setString(&user.PhoneNumber, patch.PhoneNumber)
	setString(&user.Address, patch.Address)
	setString(&user.ProfileImage, patch.ProfileImage)
	if patch.Role != nil {
		user.Role = *patch.Role
	}

	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		logger.Warn("failed to update user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("user updated")
	return user, nil
}

func (s *userService) Delete(ctx context.Context, actor access.Actor, id int64) error {
	const op = "service.Users.Delete"

	if _, err := s.load(ctx, actor, id, access.OpDelete); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.userRepo.DeleteUser(ctx, id); err != nil {
		s.log.Error("failed to delete user", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user deleted", slog.String("op", op), slog.Int64("userID", id))
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
