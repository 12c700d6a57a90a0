package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Dutta2005/Medi-Track/api/responses"
	productsvc "github.com/Dutta2005/Medi-Track/internal/products"
	pkgerrors "github.com/Dutta2005/Medi-Track/pkg/errors"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
	"github.com/Dutta2005/Medi-Track/pkg/storage/gcs"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const multipartOverhead = 1 << 20

type imageService interface {
	Upload(ctx context.Context, userID uuid.UUID, body io.Reader) (*productsvc.ImageDTO, error)
	Open(ctx context.Context, userID uuid.UUID, fileID string) (*gcs.Object, error)
	Delete(ctx context.Context, userID uuid.UUID, fileID string) error
}

// UploadImage stores the multipart "file" field for the caller.
func UploadImage(svc imageService, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "image service")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
		file, _, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "image too large"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file field is required"))
			return
		}
		defer file.Close()

		image, err := svc.Upload(r.Context(), userID, file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, image)
	}
}

// GetImage streams the stored image bytes.
func GetImage(svc imageService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "image service")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		object, err := svc.Open(r.Context(), userID, chi.URLParam(r, "imageId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer object.Body.Close()

		if object.ContentType != "" {
			w.Header().Set("Content-Type", object.ContentType)
		}
		if object.Size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(object.Size, 10))
		}
		w.Header().Set("Cache-Control", "private, max-age=3600")
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, object.Body); err != nil {
			logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "images.stream_failed")
		}
	}
}

func DeleteImage(svc imageService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "image service")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), userID, chi.URLParam(r, "imageId")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
