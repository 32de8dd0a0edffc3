package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"filedrop-backend/internal/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioPartSize is the multipart chunk used for uploads of unknown length.
// minio-go buffers one part per upload, and with 10000 parts it caps an
// object at about 156 GiB.
const MinioPartSize = 16 << 20

// MinioStorage stores objects in an S3-compatible bucket.
type MinioStorage struct {
	client *minio.Client
	bucket string
}

// NewMinioStorage connects to endpoint and checks that bucket exists.
// endpoint may be "host:port" or a full http(s) URL.
func NewMinioStorage(ctx context.Context, rawEndpoint, accessKey, secretKey, bucket string) (*MinioStorage, error) {
	endpoint, secure, err := normaliseEndpoint(rawEndpoint)
	if err != nil {
		return nil, fmt.Errorf("minio endpoint: %w", err)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("minio bucket does not exist: %s", bucket)
	}

	return &MinioStorage{client: client, bucket: bucket}, nil
}

func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}

	// Accept either "minio:9000" or "http://minio:9000" / "https://minio:9000".
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("endpoint must not contain a path")
		}
		return u.Host, u.Scheme == "https", nil
	}

	return raw, false, nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func (m *MinioStorage) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	if key == "" {
		return 0, ErrInvalidKey
	}

	// Best effort: S3 has no create-if-absent, so two racing puts on the same
	// key can still both succeed here.
	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err == nil {
		return 0, ErrExists
	} else if !isNoSuchKey(err) {
		return 0, fmt.Errorf("stat object: %w", err)
	}

	_, err := m.client.PutObject(ctx, m.bucket, key, withContext(ctx, r), -1, putOptions())
	if err != nil {
		m.cleanup(key)
		return 0, fmt.Errorf("put object: %w", err)
	}

	info, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		m.cleanup(key)
		return 0, fmt.Errorf("stat object: %w", err)
	}
	return info.Size, nil
}

func putOptions() minio.PutObjectOptions {
	return minio.PutObjectOptions{
		ContentType: "application/octet-stream",
		PartSize:    MinioPartSize,
	}
}

// cleanup runs detached from the request context, which may already be cancelled.
func (m *MinioStorage) cleanup(key string) {
	if err := m.client.RemoveObject(context.Background(), m.bucket, key, minio.RemoveObjectOptions{}); err != nil && !isNoSuchKey(err) {
		logger.Warn("minio cleanup of %s failed: %v", key, err)
	}
}

func (m *MinioStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}

	// Force an early error for a missing object.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isNoSuchKey(err) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("stat object: %w", err)
	}
	return obj, nil
}

func (m *MinioStorage) Remove(ctx context.Context, key string) error {
	err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && !isNoSuchKey(err) {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}
