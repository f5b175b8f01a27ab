package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// maxPhotoBytes caps employee photo uploads at 5MB.
const maxPhotoBytes = 5 << 20

// UploadStore saves employee photos under a local directory and serves them
// back at /uploads/.
type UploadStore struct {
	dir string
}

// NewUploadStore creates the uploads directory if needed.
func NewUploadStore(dir string) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &UploadStore{dir: dir}, nil
}

// SavePhoto validates and stores an uploaded photo, returning the public URL
// path. Only image content types are accepted.
func (u *UploadStore) SavePhoto(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > maxPhotoBytes {
		return "", fmt.Errorf("photo too large: %d bytes (max %d)", header.Size, maxPhotoBytes)
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("photo must be an image, got %q", contentType)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" {
		ext = ".jpg"
	}
	name := fmt.Sprintf("employee-%d%s", time.Now().UnixNano(), ext)

	dst, err := os.Create(filepath.Join(u.dir, name))
	if err != nil {
		return "", fmt.Errorf("save photo: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, maxPhotoBytes)); err != nil {
		return "", fmt.Errorf("save photo: %w", err)
	}
	return "/uploads/" + name, nil
}

// Handler serves stored photos. Mounted under /uploads/ behind admin auth.
func (u *UploadStore) Handler() http.Handler {
	return http.StripPrefix("/uploads/", http.FileServer(http.Dir(u.dir)))
}
