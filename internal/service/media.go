package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/linemk/agriconnect/internal/access"
	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/linemk/agriconnect/internal/media"
	"github.com/linemk/agriconnect/internal/storage"
)

var ErrUploadsDisabled = fmt.Errorf("%w: image uploads are not configured", models.ErrValidation)

// Upload загружаемый файл
type Upload struct {
	Body io.Reader
	Size int64
}

type MediaService interface {
	UploadProductImage(ctx context.Context, actor access.Actor, productID int64, up Upload) (*models.Product, error)
	UploadProfileImage(ctx context.Context, actor access.Actor, up Upload) (*models.User, error)
}

type mediaService struct {
	log         *slog.Logger
	uploader    media.Uploader
	productRepo storage.ProductStorage
	userRepo    storage.UserStorage
}

// NewMediaService; uploader может быть nil, тогда загрузки отклоняются
func NewMediaService(log *slog.Logger, uploader media.Uploader, productRepo storage.ProductStorage, userRepo storage.UserStorage) MediaService {
	return &mediaService{
		log:         log,
		uploader:    uploader,
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

func (s *mediaService) UploadProductImage(ctx context.Context, actor access.Actor, productID int64, up Upload) (*models.Product, error) {
	const op = "service.Media.UploadProductImage"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", productID))

	p, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := access.Authorize(actor, p, access.OpUpdate); err != nil {
		logger.Warn("upload denied", slog.Int64("userID", actor.ID))
		return nil, err
	}

	url, err := s.store(ctx, "products", p.ID, up)
	if err != nil {
		logger.Warn("upload failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p.ImageURL = url
	if err := s.productRepo.UpdateProduct(ctx, p); err != nil {
		logger.Error("failed to save image url", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("product image uploaded", slog.String("url", url))
	return p, nil
}

func (s *mediaService) UploadProfileImage(ctx context.Context, actor access.Actor, up Upload) (*models.User, error) {
	const op = "service.Media.UploadProfileImage"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actor.ID))

	if !actor.Authenticated() {
		return nil, models.ErrUnauthenticated
	}
	user, err := s.userRepo.GetUserByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	url, err := s.store(ctx, "profiles", user.ID, up)
	if err != nil {
		logger.Warn("upload failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user.ProfileImage = url
	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		logger.Error("failed to save image url", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("profile image uploaded", slog.String("url", url))
	return user, nil
}

func (s *mediaService) store(ctx context.Context, prefix string, ownerID int64, up Upload) (string, error) {
	if s.uploader == nil {
		return "", ErrUploadsDisabled
	}
	body, contentType, err := media.SniffImage(up.Body)
	if err != nil {
		return "", err
	}
	return s.uploader.Upload(ctx, media.ObjectKey(prefix, ownerID, contentType), body, up.Size, contentType)
}
