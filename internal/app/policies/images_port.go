package policies

import (
	"context"
	"io"
)

// ImageStore persists listing photos and returns the URL to display.
type ImageStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (publicURL string, err error)
}
