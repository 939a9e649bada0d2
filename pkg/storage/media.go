package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MediaStore persists uploaded avatars and outline images on disk and mints
// the opaque references stored on accounts and outlines. The rest of the
// application treats those references as verbatim strings.
type MediaStore struct {
	baseDir string
	baseURL string
}

// NewMediaStore ensures the base directory exists and returns a handle.
func NewMediaStore(baseDir, baseURL string) (*MediaStore, error) {
	if baseDir == "" {
		baseDir = "./media"
	}
	if baseURL == "" {
		baseURL = "/media"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}
	return &MediaStore{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// SaveStream stores the uploaded content under a generated name and returns
// the reference to persist.
func (s *MediaStore) SaveStream(kind, originalName string, r io.Reader) (string, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
	rel := filepath.Join(kind, name)

	target := filepath.Join(s.baseDir, rel)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare media directory: %w", err)
	}
	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		return "", fmt.Errorf("write media stream: %w", err)
	}

	return s.baseURL + "/" + path.Join(kind, name), nil
}

// Delete removes a stored file given its reference. References that do not
// point into the store are ignored.
func (s *MediaStore) Delete(ref string) error {
	rel, ok := strings.CutPrefix(ref, s.baseURL+"/")
	if !ok {
		return nil
	}
	target := filepath.Join(s.baseDir, filepath.FromSlash(rel))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete media file: %w", err)
	}
	return nil
}

// Dir exposes the base directory for static file serving.
func (s *MediaStore) Dir() string {
	return s.baseDir
}

// BaseURL exposes the public prefix references are minted under.
func (s *MediaStore) BaseURL() string {
	return s.baseURL
}
