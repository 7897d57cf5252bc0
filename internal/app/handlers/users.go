package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/linemk/agriconnect/internal/security/jwtmiddleware"
	"github.com/linemk/agriconnect/internal/service"
)

// RegisterRequest тело POST /api/users/
type RegisterRequest struct {
	Username     string `json:"username" validate:"required,max=150"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	FirstName    string `json:"first_name" validate:"max=150"`
	LastName     string `json:"last_name" validate:"max=150"`
	UserType     string `json:"user_type" validate:"required,oneof=farmer buyer"`
	PhoneNumber  string `json:"phone_number" validate:"max=15"`
	Address      string `json:"address"`
	ProfileImage string `json:"profile_image" validate:"omitempty,url"`
}

// UserUpdateRequest тело PUT/PATCH /api/users/{id}/
type UserUpdateRequest struct {
	Username     *string `json:"username" validate:"omitempty,min=1,max=150"`
	Email        *string `json:"email" validate:"omitempty,email"`
	FirstName    *string `json:"first_name" validate:"omitempty,max=150"`
	LastName     *string `json:"last_name" validate:"omitempty,max=150"`
	UserType     *string `json:"user_type" validate:"omitempty,oneof=farmer buyer"`
	PhoneNumber  *string `json:"phone_number" validate:"omitempty,max=15"`
	Address      *string `json:"address"`
	ProfileImage *string `json:"profile_image" validate:"omitempty,url"`
}

func (req UserUpdateRequest) patch() service.UserPatch {
	p := service.UserPatch{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNumber:  req.PhoneNumber,
		Address:      req.Address,
		ProfileImage: req.ProfileImage,
	}
	if req.UserType != nil {
		role := models.Role(*req.UserType)
		p.Role = &role
	}
	return p
}

// RegisterHandler обрабатывает POST /api/users/ (регистрация без токена)
func RegisterHandler(log *slog.Logger, users service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.RegisterHandler"))

		var req RegisterRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}

		user, err := users.Register(r.Context(), service.RegisterInput{
			Username:     req.Username,
			Email:        req.Email,
			Password:     req.Password,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Role:         models.Role(req.UserType),
			PhoneNumber:  req.PhoneNumber,
			Address:      req.Address,
			ProfileImage: req.ProfileImage,
		})
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, user)
	}
}

// ListUsersHandler обрабатывает GET /api/users/
func ListUsersHandler(log *slog.Logger, users service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.ListUsersHandler"))

		list, err := users.List(r.Context(), jwtmiddleware.ActorOrAnonymous(r.Context()))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, list)
	}
}

// FarmersHandler обрабатывает GET /api/users/farmers/
func FarmersHandler(log *slog.Logger, users service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.FarmersHandler"))

		list, err := users.Farmers(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, list)
	}
}

// MeHandler обрабатывает GET /api/users/me/
func MeHandler(log *slog.Logger, users service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.MeHandler"))

		user, err := users.Me(r.Context(), jwtmiddleware.ActorOrAnonymous(r.Context()))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, user)
	}
}

// GetUserHandler обрабатывает GET /api/users/{id}/
func GetUserHandler(log *slog.Logger, users service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.GetUserHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		user, err := users.Get(r.Context(), jwtmiddleware.ActorOrAnonymous(r.Context()), id)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, user)
	}
}

// UpdateUserHandler обрабатывает PUT (partial=false) и PATCH /api/users/{id}/
func UpdateUserHandler(log *slog.Logger, users service.UserService, partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.UpdateUserHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		var req UserUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}
		if !partial {
			err := requireFields(map[string]bool{
				"username":  req.Username != nil,
				"email":     req.Email != nil,
				"user_type": req.UserType != nil,
			})
			if err != nil {
				writeError(w, logger, err)
				return
			}
		}

		user, err := users.Update(r.Context(), jwtmiddleware.ActorOrAnonymous(r.Context()), id, req.patch())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, user)
	}
}

// DeleteUserHandler обрабатывает DELETE /api/users/{id}/
func DeleteUserHandler(log *slog.Logger, users service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.DeleteUserHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if err := users.Delete(r.Context(), jwtmiddleware.ActorOrAnonymous(r.Context()), id); err != nil {
			writeError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
