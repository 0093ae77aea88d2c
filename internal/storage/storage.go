// Package storage stores uploaded car images. Two backends implement
// ImageStore: the local filesystem served under /uploads, and Cloudinary.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/iliyamo/car-rental-marketplace/internal/config"
)

// Upload limits.
const (
	MaxImageBytes   = 5 << 20
	MaxImagesPerReq = 6
)

// ErrNotFound is returned by Delete when no image has the given public id.
var ErrNotFound = errors.New("image not found")

// ErrUnsupportedType rejects files that are not jpg, jpeg, png or webp images.
var ErrUnsupportedType = errors.New("only image files are allowed")

var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// Image is a stored upload.
type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// ImageStore persists images and removes them by public id.
type ImageStore interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader) (Image, error)
	Delete(ctx context.Context, publicID string) error
}

// CheckImage validates the declared content type and file extension.
func CheckImage(name, contentType string) (string, error) {
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return "", ErrUnsupportedType
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExt[ext] {
		return "", ErrUnsupportedType
	}
	return ext, nil
}

// QualifyPublicID prefixes a bare id with folder. Ids that already carry
// a path are returned unchanged.
func QualifyPublicID(folder, publicID string) string {
	if strings.Contains(publicID, "/") || folder == "" {
		return publicID
	}
	return strings.TrimSuffix(folder, "/") + "/" + publicID
}

// New builds the backend selected by cfg.Driver.
func New(cfg config.StorageConfig) (ImageStore, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStore(cfg.UploadDir, cfg.BaseURL, cfg.CloudinaryFolder)
	case "cloudinary":
		return NewCloudinaryStore(CloudinaryOptions{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryFolder,
		}), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
