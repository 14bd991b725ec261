package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// PhotoStorage keeps profile photos attached to resumes.
type PhotoStorage interface {
	Upload(ctx context.Context, file io.Reader, publicID string) (*StoredPhoto, error)
	Delete(ctx context.Context, publicID string) error
}

type StoredPhoto struct {
	URL      string
	PublicID string
}

type CloudinaryStorage struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryStorage(cloudinaryURL, folder string) (*CloudinaryStorage, error) {
	if cloudinaryURL == "" {
		return nil, fmt.Errorf("CLOUDINARY_URL is not set")
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	return &CloudinaryStorage{cld: cld, folder: folder}, nil
}

func (s *CloudinaryStorage) Upload(ctx context.Context, file io.Reader, publicID string) (*StoredPhoto, error) {
	overwrite := true
	result, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:       publicID,
		Folder:         s.folder,
		AllowedFormats: []string{"jpg", "jpeg", "png", "webp"},
		ResourceType:   "image",
		Overwrite:      &overwrite,
	})
	if err != nil {
		slog.Error("cloudinary upload failed", "public_id", publicID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPhotoStorage, err)
	}
	if result.Error.Message != "" {
		return nil, fmt.Errorf("%w: %s", ErrPhotoStorage, result.Error.Message)
	}
	return &StoredPhoto{URL: result.SecureURL, PublicID: result.PublicID}, nil
}

func (s *CloudinaryStorage) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		slog.Error("cloudinary delete failed", "public_id", publicID, "error", err)
		return fmt.Errorf("%w: %v", ErrPhotoStorage, err)
	}
	return nil
}
