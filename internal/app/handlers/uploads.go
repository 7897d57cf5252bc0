package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/linemk/agriconnect/internal/security/jwtmiddleware"
	"github.com/linemk/agriconnect/internal/service"
)

const imageField = "image"

// readImage достает файл из multipart-поля image, ограничивая размер тела
func readImage(w http.ResponseWriter, r *http.Request, log *slog.Logger, maxBytes int64) (service.Upload, func(), bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			badRequest(w, log, "image exceeds %d bytes", maxBytes)
			return service.Upload{}, nil, false
		}
		badRequest(w, log, "expected multipart form with field %q", imageField)
		return service.Upload{}, nil, false
	}
	file, header, err := r.FormFile(imageField)
	if err != nil {
		badRequest(w, log, "field %q is required", imageField)
		return service.Upload{}, nil, false
	}
	if header.Size > maxBytes {
		file.Close()
		badRequest(w, log, "image exceeds %d bytes", maxBytes)
		return service.Upload{}, nil, false
	}
	return service.Upload{Body: file, Size: header.Size}, func() { file.Close() }, true
}

// ProductImageHandler обрабатывает POST /api/products/{id}/image
func ProductImageHandler(log *slog.Logger, mediaService service.MediaService, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.ProductImageHandler"))

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		up, done, ok := readImage(w, r, logger, maxBytes)
		if !ok {
			return
		}
		defer done()

		p, err := mediaService.UploadProductImage(r.Context(), jwtmiddleware.ActorOrAnonymous(r.Context()), id, up)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, p)
	}
}

// ProfileImageHandler обрабатывает POST /api/users/me/image
func ProfileImageHandler(log *slog.Logger, mediaService service.MediaService, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.ProfileImageHandler"))

		up, done, ok := readImage(w, r, logger, maxBytes)
		if !ok {
			return
		}
		defer done()

		user, err := mediaService.UploadProfileImage(r.Context(), jwtmiddleware.ActorOrAnonymous(r.Context()), up)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, user)
	}
}
