// Package storage keeps uploaded media files on the local filesystem.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidImage = errors.New("upload a valid image: the file is not a gif, png or jpeg picture")
	ErrTooLarge     = errors.New("uploaded file is too large")
)

// MediaStorage stores files under a root and exposes them under a URL prefix.
type MediaStorage interface {
	SaveImage(ctx context.Context, dir string, fh *multipart.FileHeader) (string, error)
	Delete(ctx context.Context, name string) error
	URL(name string) string
}

type LocalStorage struct {
	root     string
	baseURL  string
	maxBytes int64
}

func NewLocalStorage(root, baseURL string, maxBytes int64) *LocalStorage {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalStorage{root: root, baseURL: baseURL, maxBytes: maxBytes}
}

// SaveImage validates the upload as an image and writes it to dir under a
// random name. The returned name is relative to the storage root.
func (s *LocalStorage) SaveImage(ctx context.Context, dir string, fh *multipart.FileHeader) (string, error) {
	if s.maxBytes > 0 && fh.Size > s.maxBytes {
		return "", ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if s.maxBytes > 0 {
		r = io.LimitReader(f, s.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", ErrInvalidImage
	}
	ext := "." + format
	if format == "jpeg" {
		ext = ".jpg"
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := path.Join(dir, uuid.NewString()+ext)
	full := filepath.Join(s.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}
	return name, nil
}

// Delete removes a stored file; a missing file is not an error.
func (s *LocalStorage) Delete(_ context.Context, name string) error {
	if name == "" {
		return nil
	}
	clean := path.Clean("/" + name)[1:]
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStorage) URL(name string) string {
	if name == "" {
		return ""
	}
	return s.baseURL + strings.TrimPrefix(name, "/")
}
