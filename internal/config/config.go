package config

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env        string           `yaml:"env" env:"APP_ENV" env-default:"local"` // environment
	AppURL     string           `yaml:"app_url" env:"APP_URL" env-default:"http://localhost:3000"`
	HTTPServer HTTPServerConfig `yaml:"http_server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	Migrations MigrationsConfig `yaml:"migrations"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	Media      MediaConfig      `yaml:"media"`
	CORS       CORSConfig       `yaml:"cors"`
}

// HTTPServerConfig структура http сервера
type HTTPServerConfig struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// DatabaseConfig структура по работе с БД
type DatabaseConfig struct {
	Host         string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port         int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User         string `yaml:"user" env:"DB_USER" env-required:"true"`
	Password     string `yaml:"-" env:"DB_PASSWORD" env-required:"true"`
	Name         string `yaml:"name" env:"DB_NAME" env-required:"true"`
	SSLMode      string `yaml:"sslmode" env-default:"disable"`
	MaxOpenConns int    `yaml:"max_open_conns" env-default:"10"`
}

// DSN строка подключения lib/pq; extra добавляется к параметрам запроса
func (d DatabaseConfig) DSN(extra ...string) string {
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	for i := 0; i+1 < len(extra); i += 2 {
		q.Set(extra[i], extra[i+1])
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// JWTConfig настройка jwt; сроки жизни как у simplejwt: access сутки, refresh неделя
type JWTConfig struct {
	Secret     string        `yaml:"-" env:"JWT_SECRET" env-required:"true"`
	Issuer     string        `yaml:"issuer" env-default:"agriconnect"`
	AccessTTL  time.Duration `yaml:"access_ttl" env-default:"24h"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env-default:"168h"`
	ResetTTL   time.Duration `yaml:"reset_ttl" env-default:"1h"`
}

type MigrationsConfig struct {
	Path string `yaml:"path" env-default:"./migrations"`
}

// SMTPConfig почта для писем сброса пароля; при пустом Host письма только логируются
type SMTPConfig struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"-" env:"SMTP_PASSWORD"`
	Sender   string `yaml:"sender" env-default:"AgriConnect <no-reply@agriconnect.local>"`
}

// MediaConfig S3-совместимое хранилище изображений; пустой Bucket отключает загрузку
type MediaConfig struct {
	Bucket         string `yaml:"bucket" env:"MEDIA_BUCKET"`
	Region         string `yaml:"region" env:"MEDIA_REGION" env-default:"us-east-1"`
	Endpoint       string `yaml:"endpoint" env:"MEDIA_ENDPOINT"`
	PublicURL      string `yaml:"public_url" env:"MEDIA_PUBLIC_URL"`
	AccessKey      string `yaml:"-" env:"MEDIA_ACCESS_KEY"`
	SecretKey      string `yaml:"-" env:"MEDIA_SECRET_KEY"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" env-default:"5242880"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env-default:"*"`
}

// MustLoad - если не загружаем - паникуем
func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		log.Fatal("CONFIG_PATH not exists")
	}
	return MustLoadByPath(configPath)
}

func fetchConfigPath() string {
	var path string

	flag.StringVar(&path, "config", "", "path to config file")
	flag.Parse()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}

func MustLoadByPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file not found: " + configPath)
	}

	// .env необязателен; уже выставленные переменные окружения не перезаписываются
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("can't read config file %s: %v", configPath, err)
	}

	return &cfg
}
