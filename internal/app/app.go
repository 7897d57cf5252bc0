package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/linemk/agriconnect/internal/config"
	"github.com/linemk/agriconnect/internal/mailer"
	"github.com/linemk/agriconnect/internal/media"
	"github.com/linemk/agriconnect/internal/security"
	"github.com/linemk/agriconnect/internal/service"
	"github.com/linemk/agriconnect/internal/storage"
)

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *sql.DB
	Tokens   *security.TokenManager
	Services *Services
}

// Services сценарии, которые обслуживают HTTP-обработчики
type Services struct {
	Users         service.UserService
	Auth          service.AuthServiceInterface
	PasswordReset service.PasswordResetService
	Products      service.ProductService
	Orders        service.OrderService
	Reviews       service.ReviewService
	Media         service.MediaService
}

// NewApp подключается к БД и собирает сервисы
func NewApp(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxOpenConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	uploader, err := newUploader(ctx, log, cfg.Media)
	if err != nil {
		db.Close()
		return nil, err
	}

	tokens := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL, cfg.JWT.ResetTTL)

	app := &App{
		Config:   cfg,
		Logger:   log,
		DB:       db,
		Tokens:   tokens,
		Services: NewServices(log, cfg, db, tokens, newMailer(log, cfg.SMTP), uploader),
	}

	return app, nil
}

// NewServices связывает репозитории с сервисами
func NewServices(
	log *slog.Logger,
	cfg *config.Config,
	db *sql.DB,
	tokens *security.TokenManager,
	mail mailer.Mailer,
	uploader media.Uploader,
) *Services {
	userRepo := storage.NewUserRepository(db)
	productRepo := storage.NewProductRepository(db)
	orderRepo := storage.NewOrderRepository(db)
	reviewRepo := storage.NewReviewRepository(db)

	return &Services{
		Users:         service.NewUserService(log, userRepo),
		Auth:          service.NewAuthService(log, userRepo, tokens),
		PasswordReset: service.NewPasswordResetService(log, userRepo, tokens, mail, cfg.AppURL),
		Products:      service.NewProductService(log, productRepo, reviewRepo),
		Orders:        service.NewOrderService(log, db, orderRepo, productRepo),
		Reviews:       service.NewReviewService(log, reviewRepo, productRepo),
		Media:         service.NewMediaService(log, uploader, productRepo, userRepo),
	}
}

// без SMTP-хоста письма только пишутся в лог
func newMailer(log *slog.Logger, cfg config.SMTPConfig) mailer.Mailer {
	if cfg.Host == "" {
		log.Warn("smtp host is not set, mail will only be logged")
		return mailer.NewLogMailer(log)
	}
	return mailer.NewSMTPMailer(log, cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Sender)
}

// без бакета загрузка изображений отключена (nil)
func newUploader(ctx context.Context, log *slog.Logger, cfg config.MediaConfig) (media.Uploader, error) {
	if cfg.Bucket == "" {
		log.Warn("media bucket is not set, image uploads are disabled")
		return nil, nil
	}
	client, err := media.NewS3Client(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	return media.NewS3Uploader(client, cfg.Bucket, cfg.Region, cfg.PublicURL), nil
}
