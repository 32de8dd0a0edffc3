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

// DiskStorage stores objects as files below a root directory.
type DiskStorage struct {
	root string
}

// NewDiskStorage creates root if needed.
func NewDiskStorage(root string) (*DiskStorage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return &DiskStorage{root: abs}, nil
}

func (d *DiskStorage) resolve(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	full := filepath.Join(d.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(d.root, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return full, nil
}

func (d *DiskStorage) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	full, err := d.resolve(key)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return 0, fmt.Errorf("create directory: %w", err)
	}

	// O_EXCL: two uploads can never share a destination file.
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, ErrExists
		}
		return 0, fmt.Errorf("create file: %w", err)
	}

	buf := make([]byte, ChunkSize)
	// Hide ReadFrom so the copy goes through buf in ChunkSize pieces.
	_, copyErr := io.CopyBuffer(struct{ io.Writer }{f}, withContext(ctx, r), buf)
	if copyErr == nil {
		copyErr = f.Sync()
	}
	closeErr := f.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(full)
		return 0, fmt.Errorf("write file: %w", copyErr)
	}

	info, err := os.Stat(full)
	if err != nil {
		_ = os.Remove(full)
		return 0, fmt.Errorf("stat file: %w", err)
	}
	return info.Size(), nil
}

func (d *DiskStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	full, err := d.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, ErrNotExist
	}
	return f, nil
}

func (d *DiskStorage) Remove(ctx context.Context, key string) error {
	full, err := d.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}
