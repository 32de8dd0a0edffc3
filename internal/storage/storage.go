// Package storage holds the byte content of uploaded files. Keys are
// slash-separated paths relative to the backend root.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ChunkSize is the copy buffer used when streaming uploads to a backend.
const ChunkSize = 1 << 20

var (
	ErrExists     = errors.New("object already exists")
	ErrNotExist   = errors.New("object does not exist")
	ErrInvalidKey = errors.New("invalid object key")
)

// Storage is a blob backend.
type Storage interface {
	// Put streams r under key and returns the size measured by the backend.
	// It fails with ErrExists, before reading from r, when key is already
	// taken, and leaves no partial object behind on error.
	Put(ctx context.Context, key string, r io.Reader) (int64, error)
	// Open returns the content of key or ErrNotExist.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// Key builds the object key for filename inside dir. dir may not climb above
// the storage root and filename is reduced to its base name.
func Key(dir, filename string) (string, error) {
	name := path.Base(toSlash(filename))
	switch name {
	case "", ".", "..", "/":
		return "", ErrInvalidKey
	}

	d := path.Clean(toSlash(dir))
	d = strings.TrimLeft(d, "/")
	if d == "." {
		d = ""
	}
	if d == ".." || strings.HasPrefix(d, "../") {
		return "", ErrInvalidKey
	}

	return path.Join(d, name), nil
}

// toSlash also converts backslashes, which some clients send in Windows file names.
func toSlash(p string) string {
	return strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
}

// ctxReader stops a copy as soon as ctx is cancelled, e.g. when the client
// of an upload disconnects.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func withContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
