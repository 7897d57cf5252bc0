// Package media загружает изображения товаров и профилей в S3-совместимое хранилище.
package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/linemk/agriconnect/internal/config"
)

// Uploader сохраняет объект и возвращает его публичный URL
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

// PutObjectAPI подмножество *s3.Client, используемое загрузчиком
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client создает клиента; при заданном Endpoint используется path-style (MinIO и т.п.)
func NewS3Client(ctx context.Context, cfg config.MediaConfig) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

type s3Uploader struct {
	client    PutObjectAPI
	bucket    string
	publicURL string
}

// NewS3Uploader: publicURL задает базовый адрес раздачи объектов; если пуст,
// используется виртуальный хост бакета в AWS.
func NewS3Uploader(client PutObjectAPI, bucket, region, publicURL string) Uploader {
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &s3Uploader{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (u *s3Uploader) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	const op = "media.S3.Upload"

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000"),
	})
	if err != nil {
		return "", fmt.Errorf("%s: failed to put object %s: %w", op, key, err)
	}
	return u.publicURL + "/" + key, nil
}
