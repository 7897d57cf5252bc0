package media

import (
	"bufio"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/linemk/agriconnect/internal/domain/models"
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// SniffImage определяет тип содержимого по первым байтам и отклоняет не-изображения.
// Возвращенный reader отдает поток целиком, включая просмотренные байты.
func SniffImage(r io.Reader) (io.Reader, string, error) {
	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	contentType := http.DetectContentType(head)
	if _, ok := imageExtensions[contentType]; !ok {
		return nil, "", fmt.Errorf("%w: unsupported image type %s", models.ErrValidation, contentType)
	}
	return br, contentType, nil
}

// ObjectKey уникальный ключ объекта, например products/12/<uuid>.png
func ObjectKey(prefix string, ownerID int64, contentType string) string {
	return fmt.Sprintf("%s/%d/%s%s", prefix, ownerID, uuid.NewString(), imageExtensions[contentType])
}
