package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/agriconnect/internal/domain/models"
)

type UserStorage interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsersByRole(ctx context.Context, role models.Role) ([]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int64, passHash []byte) error
	DeleteUser(ctx context.Context, id int64) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserStorage {
	return &userRepository{db: db}
}

const userColumns = `id, username, email, pass_hash, first_name, last_name, user_type,
	phone_number, address, profile_image, is_active, date_joined`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PassHash, &u.FirstName, &u.LastName, &u.Role,
		&u.PhoneNumber, &u.Address, &u.ProfileImage, &u.IsActive, &u.DateJoined)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "username = $1", username)
}

// email сравнивается без учета регистра
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "LOWER(email) = LOWER($1)", email)
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (username, email, pass_hash, first_name, last_name, user_type, phone_number, address, profile_image)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, is_active, date_joined`,
		user.Username, user.Email, user.PassHash, user.FirstName, user.LastName, user.Role,
		user.PhoneNumber, user.Address, user.ProfileImage,
	).Scan(&user.ID, &user.IsActive, &user.DateJoined)
	if err != nil {
		if pqCode(err) == codeUniqueViolation {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (r *userRepository) ListUsersByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users WHERE user_type = $1 ORDER BY id", role)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, user *models.User) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET username = $1, email = $2, first_name = $3, last_name = $4, user_type = $5,
		 phone_number = $6, address = $7, profile_image = $8 WHERE id = $9`,
		user.Username, user.Email, user.FirstName, user.LastName, user.Role,
		user.PhoneNumber, user.Address, user.ProfileImage, user.ID,
	)
	if err != nil {
		if pqCode(err) == codeUniqueViolation {
			return ErrUserExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return expectAffected(res, ErrUserNotFound)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passHash []byte) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET pass_hash = $1 WHERE id = $2", passHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return expectAffected(res, ErrUserNotFound)
}

// DeleteUser удаляет пользователя; товары, заказы и отзывы удаляются каскадно
func (r *userRepository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return expectAffected(res, ErrUserNotFound)
}

func expectAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
