package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const tmpPrefix = ".tmp-"

// LocalStorage implements Storage for the local filesystem.
type LocalStorage struct {
	basePath string
}

// LocalConfig holds configuration for local storage.
type LocalConfig struct {
	BasePath string `mapstructure:"base_path"`
}

// NewLocalStorage creates a new LocalStorage rooted at cfg.BasePath.
// The directory itself is created lazily by EnsureReady and Write.
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	if cfg.BasePath == "" {
		return nil, errors.New("local storage base path is required")
	}

	absPath, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	return &LocalStorage{basePath: absPath}, nil
}

// fullPath returns the filesystem path for a key, confined to basePath.
func (s *LocalStorage) fullPath(key string) string {
	cleanKey := filepath.Clean(filepath.FromSlash(key))
	if cleanKey == ".." || strings.HasPrefix(cleanKey, ".."+string(os.PathSeparator)) || filepath.IsAbs(cleanKey) {
		cleanKey = filepath.Base(cleanKey)
	}
	return filepath.Join(s.basePath, cleanKey)
}

// EnsureReady creates the base directory if it is missing.
func (s *LocalStorage) EnsureReady(ctx context.Context) error {
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return fmt.Errorf("failed to create base path: %w", err)
	}
	return nil
}

// Write stores content via a temp file and an atomic rename.
func (s *LocalStorage) Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	path := s.fullPath(key)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, r); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write content: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Read opens the file stored under key.
func (s *LocalStorage) Read(ctx context.Context, key string) (io.ReadCloser, error) {
	file, err := os.Open(s.fullPath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes the file stored under key.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.fullPath(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// List walks the base directory and returns every object whose key has the prefix.
// In-progress temp files are skipped.
func (s *LocalStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	files := []ObjectInfo{}

	err := filepath.WalkDir(s.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tmpPrefix) {
			return nil
		}

		rel, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}

		files = append(files, ObjectInfo{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return files, nil
}

// Exists checks if a regular file is stored under key.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	info, err := os.Stat(s.fullPath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
	return !info.IsDir(), nil
}

// BasePath returns the absolute root directory.
func (s *LocalStorage) BasePath() string {
	return s.basePath
}
