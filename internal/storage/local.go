package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore writes images below dir and serves them from baseURL.
// Object names are random UUIDs so client file names never reach the disk.
type LocalStore struct {
	dir     string
	baseURL string
	folder  string
}

func NewLocalStore(dir, baseURL, folder string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, filepath.FromSlash(folder)), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/"), folder: folder}, nil
}

// Dir is the filesystem root served at the base URL.
func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) Upload(ctx context.Context, name, contentType string, r io.Reader) (Image, error) {
	ext, err := CheckImage(name, contentType)
	if err != nil {
		return Image{}, err
	}
	publicID := QualifyPublicID(s.folder, uuid.NewString()+ext)
	full, err := s.path(publicID)
	if err != nil {
		return Image{}, err
	}

	f, err := os.Create(full)
	if err != nil {
		return Image{}, fmt.Errorf("failed to create file: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(r, MaxImageBytes+1))
	closeErr := f.Close()
	if err == nil && n > MaxImageBytes {
		err = errors.New("file too large")
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(full)
		return Image{}, err
	}
	return Image{URL: s.baseURL + "/" + publicID, PublicID: publicID}, nil
}

func (s *LocalStore) Delete(ctx context.Context, publicID string) error {
	full, err := s.path(QualifyPublicID(s.folder, publicID))
	if err != nil {
		return ErrNotFound
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// path resolves publicID inside dir and refuses anything that escapes it.
func (s *LocalStore) path(publicID string) (string, error) {
	root, err := filepath.Abs(s.dir)
	if err != nil {
		return "", err
	}
	full := filepath.Join(root, filepath.FromSlash(publicID))
	if !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid public id %q", publicID)
	}
	return full, nil
}
