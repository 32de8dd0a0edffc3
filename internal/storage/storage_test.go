package storage

import (
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	tests := []struct {
		dir, name string
		want      string
		wantErr   bool
	}{
		{dir: "some/test/path", name: "testfile.txt", want: "some/test/path/testfile.txt"},
		{dir: "", name: "a.txt", want: "a.txt"},
		{dir: ".", name: "a.txt", want: "a.txt"},
		{dir: "/abs/dir/", name: "a.txt", want: "abs/dir/a.txt"},
		{dir: "a/./b//c", name: "a.txt", want: "a/b/c/a.txt"},
		{dir: "docs", name: "../../etc/passwd", want: "docs/passwd"},
		{dir: `win\style`, name: `C:\tmp\x.txt`, want: "win/style/x.txt"},
		{dir: "../up", name: "a.txt", wantErr: true},
		{dir: "a/../../up", name: "a.txt", wantErr: true},
		{dir: "docs", name: "", wantErr: true},
		{dir: "docs", name: "..", wantErr: true},
		{dir: "docs", name: "/", wantErr: true},
	}

	for _, tt := range tests {
		got, err := Key(tt.dir, tt.name)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidKey, "%q + %q", tt.dir, tt.name)
			continue
		}
		assert.NoError(t, err, "%q + %q", tt.dir, tt.name)
		assert.Equal(t, tt.want, got)
	}
}

func TestNormaliseEndpoint(t *testing.T) {
	tests := []struct {
		raw      string
		endpoint string
		secure   bool
		wantErr  bool
	}{
		{raw: "minio:9000", endpoint: "minio:9000"},
		{raw: "http://minio:9000", endpoint: "minio:9000"},
		{raw: "https://s3.example.com", endpoint: "s3.example.com", secure: true},
		{raw: "https://s3.example.com/", endpoint: "s3.example.com", secure: true},
		{raw: "", wantErr: true},
		{raw: "http://", wantErr: true},
		{raw: "http://minio:9000/bucket", wantErr: true},
	}

	for _, tt := range tests {
		endpoint, secure, err := normaliseEndpoint(tt.raw)
		if tt.wantErr {
			assert.Error(t, err, tt.raw)
			continue
		}
		assert.NoError(t, err, tt.raw)
		assert.Equal(t, tt.endpoint, endpoint)
		assert.Equal(t, tt.secure, secure)
	}
}

func TestPutOptions_BoundedPartSize(t *testing.T) {
	opts := putOptions()
	assert.EqualValues(t, MinioPartSize, opts.PartSize)

	// Uploads have unknown length; minio-go allocates one part of this size per upload.
	parts, partSize, _, err := minio.OptimalPartInfo(-1, opts.PartSize)
	require.NoError(t, err)
	assert.EqualValues(t, 16<<20, partSize)
	assert.Equal(t, 10000, parts)
}
