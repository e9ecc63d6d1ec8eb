package s3

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homio/internal/infra/config"
)

func TestNewImageStoreValidatesConfig(t *testing.T) {
	_, err := NewImageStore(config.S3Config{Bucket: "b"}, nil)
	assert.Error(t, err)

	_, err = NewImageStore(config.S3Config{Endpoint: "localhost:9000", Bucket: " "}, nil)
	assert.Error(t, err)
}

func TestObjectURL(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.S3Config
		want string
	}{
		{
			name: "public endpoint",
			cfg:  config.S3Config{Endpoint: "http://minio:9000", PublicEndpoint: "https://cdn.homio.test/", Bucket: "homio-photos"},
			want: "https://cdn.homio.test/homio-photos/listings/l1/a.png",
		},
		{
			name: "bare host falls back to endpoint",
			cfg:  config.S3Config{Endpoint: "localhost:9000", Bucket: "homio-photos"},
			want: "http://localhost:9000/homio-photos/listings/l1/a.png",
		},
		{
			name: "ssl bare host",
			cfg:  config.S3Config{Endpoint: "s3.example.com", Bucket: "photos", UseSSL: true},
			want: "https://s3.example.com/photos/listings/l1/a.png",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := NewImageStore(tc.cfg, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, store.objectURL("/listings/l1/a.png"))
		})
	}
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "minio:9000", hostOf("http://minio:9000"))
	assert.Equal(t, "minio:9000", hostOf("minio:9000"))
}

func TestUploadRejectsEmptyInput(t *testing.T) {
	store, err := NewImageStore(config.S3Config{Endpoint: "localhost:9000", Bucket: "b"}, nil)
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), "k", nil, "image/png")
	assert.Error(t, err)
}
