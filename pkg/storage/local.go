package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalStorage implements Storage using the local filesystem. Files are
// stored one directory per import job, alongside a metadata sidecar.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local filesystem storage
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Upload stores a file and returns its metadata
func (s *LocalStorage) Upload(ctx context.Context, importID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error) {
	dir := filepath.Join(s.basePath, importID.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create import directory: %w", err)
	}

	safeFilename := sanitizeFilename(filename)
	filePath := filepath.Join(dir, safeFilename)

	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(filePath) // Cleanup on error
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	info := &FileInfo{
		ID:          importID,
		Name:        filename,
		Size:        size,
		ContentType: contentType,
		Path:        filePath,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.writeMetadata(dir, info); err != nil {
		os.Remove(filePath)
		return nil, err
	}

	return info, nil
}

// Download retrieves the stored file for an import
func (s *LocalStorage) Download(ctx context.Context, importID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	dir := filepath.Join(s.basePath, importID.String())
	info, err := s.readMetadata(dir)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(info.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, info, nil
}

// Delete removes the stored file and metadata for an import
func (s *LocalStorage) Delete(ctx context.Context, importID uuid.UUID) error {
	dir := filepath.Join(s.basePath, importID.String())
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete import files: %w", err)
	}
	return nil
}

func (s *LocalStorage) writeMetadata(dir string, info *FileInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".meta.json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

func (s *LocalStorage) readMetadata(dir string) (*FileInfo, error) {
	data, err := os.ReadFile(filepath.Join(dir, ".meta.json"))
	if err != nil {
		return nil, fmt.Errorf("file not found: %w", err)
	}
	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &info, nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	if name == "" || name == "." {
		name = "upload.ofx"
	}
	return name
}
