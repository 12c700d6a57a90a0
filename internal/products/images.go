package products

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Dutta2005/Medi-Track/pkg/db"
	pkgerrors "github.com/Dutta2005/Medi-Track/pkg/errors"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
	"github.com/Dutta2005/Medi-Track/pkg/storage/gcs"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var allowedImageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

// ObjectStore is the slice of the GCS client used for product images.
type ObjectStore interface {
	Upload(ctx context.Context, object, contentType string, body io.Reader) error
	Open(ctx context.Context, object string) (*gcs.Object, error)
	Delete(ctx context.Context, object string) error
}

type imageDetacher interface {
	ClearImage(ctx context.Context, userID uuid.UUID, imageID string) error
}

// ImageDTO is returned after an upload.
type ImageDTO struct {
	ID          string `json:"id"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// ImageService stores product photos under a per-user prefix.
type ImageService struct {
	store    ObjectStore
	products imageDetacher
	maxBytes int64
	logg     *logger.Logger
}

// NewImageService wires image storage. products may be nil when deleted
// images do not need to be detached from rows.
func NewImageService(store ObjectStore, products imageDetacher, maxBytes int64, logg *logger.Logger) (*ImageService, error) {
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("image size limit must be positive")
	}
	return &ImageService{store: store, products: products, maxBytes: maxBytes, logg: logg}, nil
}

// ObjectKey is the bucket path of a user's image.
func ObjectKey(userID uuid.UUID, fileID string) string {
	return fmt.Sprintf("images/%s/%s", userID, fileID)
}

// Upload sniffs the content, enforces the size cap, and stores the file.
func (s *ImageService) Upload(ctx context.Context, userID uuid.UUID, body io.Reader) (*ImageDTO, error) {
	data, err := io.ReadAll(io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read image")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "file exceeds %d bytes", s.maxBytes)
	}

	detected := mimetype.Detect(data)
	contentType := ""
	for _, allowed := range allowedImageTypes {
		if detected.Is(allowed) {
			contentType = allowed
			break
		}
	}
	if contentType == "" {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported image type %s", detected.String())
	}

	fileID := uuid.NewString()
	if err := s.store.Upload(ctx, ObjectKey(userID, fileID), contentType, bytes.NewReader(data)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload image")
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"image_id": fileID, "content_type": contentType})
		s.logg.Info(logCtx, "images.uploaded")
	}
	return &ImageDTO{ID: fileID, ContentType: contentType, Size: int64(len(data))}, nil
}

// Open streams one of the user's images. Callers must close the body.
func (s *ImageService) Open(ctx context.Context, userID uuid.UUID, fileID string) (*gcs.Object, error) {
	if _, err := uuid.Parse(fileID); err != nil {
		return nil, pkgerrors.NotFound("image")
	}
	obj, err := s.store.Open(ctx, ObjectKey(userID, fileID))
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotFound) {
			return nil, pkgerrors.NotFound("image")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open image")
	}
	return obj, nil
}

// Delete removes the object and unsets it on any product referencing it.
func (s *ImageService) Delete(ctx context.Context, userID uuid.UUID, fileID string) error {
	if _, err := uuid.Parse(fileID); err != nil {
		return pkgerrors.NotFound("image")
	}
	if err := s.store.Delete(ctx, ObjectKey(userID, fileID)); err != nil {
		if errors.Is(err, gcs.ErrObjectNotFound) {
			return pkgerrors.NotFound("image")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete image")
	}
	if s.products != nil {
		if err := s.products.ClearImage(ctx, userID, fileID); err != nil && !db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "detach image")
		}
	}
	return nil
}
