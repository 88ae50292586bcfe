package ports

import (
	"context"
	"io"
)

// Fetcher retrieves remote resources. Non-success responses are reported as
// *application.TransportError.
type Fetcher interface {
	// Get returns the full response body
	Get(ctx context.Context, url string) ([]byte, error)

	// Download streams the response body into w
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}
