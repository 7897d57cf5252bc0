package media_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/linemk/agriconnect/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, nil
}

// минимальная сигнатура PNG
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestS3Uploader_Upload(t *testing.T) {
	client := &fakeS3{}
	up := media.NewS3Uploader(client, "agri-media", "eu-central-1", "https://cdn.agri.test/")

	url, err := up.Upload(context.Background(), "products/1/a.png", bytes.NewReader(pngHeader), int64(len(pngHeader)), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.agri.test/products/1/a.png", url)
	require.NotNil(t, client.input)
	assert.Equal(t, "agri-media", *client.input.Bucket)
	assert.Equal(t, "products/1/a.png", *client.input.Key)
	assert.Equal(t, "image/png", *client.input.ContentType)
	assert.Equal(t, pngHeader, client.body)
}

func TestS3Uploader_DefaultPublicURL(t *testing.T) {
	up := media.NewS3Uploader(&fakeS3{}, "agri-media", "eu-central-1", "")
	url, err := up.Upload(context.Background(), "users/2/b.jpg", strings.NewReader("x"), 1, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://agri-media.s3.eu-central-1.amazonaws.com/users/2/b.jpg", url)
}

func TestS3Uploader_Error(t *testing.T) {
	up := media.NewS3Uploader(&fakeS3{err: errors.New("access denied")}, "b", "r", "")
	_, err := up.Upload(context.Background(), "k", strings.NewReader("x"), 1, "image/png")
	assert.Error(t, err)
}

func TestSniffImage(t *testing.T) {
	r, ct, err := media.SniffImage(bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data, "sniffed bytes must not be consumed")

	_, _, err = media.SniffImage(strings.NewReader("just some text"))
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestObjectKey(t *testing.T) {
	key := media.ObjectKey("products", 12, "image/png")
	assert.True(t, strings.HasPrefix(key, "products/12/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotEqual(t, key, media.ObjectKey("products", 12, "image/png"))
}
