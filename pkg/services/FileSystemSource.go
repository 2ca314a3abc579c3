package services

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/adampresley/randomgallery/pkg/models"
)

type FileSystemSourceConfig struct {
	Root string
}

type FileSystemSource struct {
	root string
}

func NewFileSystemSource(config FileSystemSourceConfig) FileSystemSource {
	return FileSystemSource{
		root: filepath.Clean(config.Root),
	}
}

func (s FileSystemSource) Name() string {
	return "filesystem:" + s.root
}

func (s FileSystemSource) Root() string {
	return s.root
}

func (s FileSystemSource) Delete(key string) error {
	var (
		err      error
		fullPath string
	)

	if fullPath, err = s.resolve(key); err != nil {
		return err
	}

	if err = os.Remove(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error deleting '%s': %w", key, models.ErrPhotoNotFound)
		}

		return fmt.Errorf("error deleting '%s': %w", key, err)
	}

	return nil
}

func (s FileSystemSource) List() ([]models.SourceObject, error) {
	result := []models.SourceObject{}

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return s.walkError(p, d, err)
		}

		if d.IsDir() {
			if p != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}

			return nil
		}

		if !d.Type().IsRegular() || !IsImageKey(d.Name()) {
			return nil
		}

		info, err := d.Info()

		if err != nil {
			slog.Error("error reading library file, skipping", "path", p, "error", err)
			return nil
		}

		rel, err := filepath.Rel(s.root, p)

		if err != nil {
			return err
		}

		result = append(result, models.SourceObject{
			Key:          filepath.ToSlash(rel),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})

		return nil
	})

	if err != nil {
		return result, fmt.Errorf("error walking library '%s': %w", s.root, err)
	}

	return result, nil
}

/*
walkError keeps one unreadable directory from failing the whole walk.
Only a failure on the root itself is returned.
*/
func (s FileSystemSource) walkError(p string, d fs.DirEntry, err error) error {
	if p == s.root || d == nil {
		return err
	}

	slog.Error("error reading library path, skipping", "path", p, "error", err)

	if d.IsDir() {
		return filepath.SkipDir
	}

	return nil
}

func (s FileSystemSource) Open(key string) (io.ReadCloser, error) {
	var (
		err      error
		fullPath string
		f        *os.File
	)

	if fullPath, err = s.resolve(key); err != nil {
		return nil, err
	}

	if f, err = os.Open(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error opening '%s': %w", key, models.ErrPhotoNotFound)
		}

		return nil, fmt.Errorf("error opening '%s': %w", key, err)
	}

	return f, nil
}

/*
Stat returns nil and ErrPhotoNotFound when the file is gone.
*/
func (s FileSystemSource) Stat(key string) (*models.SourceObject, error) {
	var (
		err      error
		fullPath string
		info     os.FileInfo
	)

	if fullPath, err = s.resolve(key); err != nil {
		return nil, err
	}

	if info, err = os.Stat(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading '%s': %w", key, models.ErrPhotoNotFound)
		}

		return nil, fmt.Errorf("error reading '%s': %w", key, err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("'%s' is a directory: %w", key, models.ErrInvalidKey)
	}

	return &models.SourceObject{
		Key:          key,
		Size:         info.Size(),
		LastModified: info.ModTime(),
	}, nil
}

func (s FileSystemSource) resolve(key string) (string, error) {
	cleaned := path.Clean("/" + key)

	if key == "" || cleaned == "/" || strings.Contains(key, "\\") {
		return "", fmt.Errorf("'%s': %w", key, models.ErrInvalidKey)
	}

	if path.Clean(key) != strings.TrimPrefix(cleaned, "/") {
		return "", fmt.Errorf("'%s': %w", key, models.ErrInvalidKey)
	}

	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}
