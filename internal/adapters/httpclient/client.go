package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"intelstack/internal/application"
	"intelstack/internal/ports"
)

const (
	userAgent = "intelstack/1.0"

	// maxScriptSize bounds a single script download
	maxScriptSize = 32 << 20
)

// Client implements ports.Fetcher over net/http
type Client struct {
	http *http.Client
}

// Ensure Client implements Fetcher
var _ ports.Fetcher = (*Client)(nil)

// New creates a client. A zero timeout leaves the transport defaults in place.
func New(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return errors.New("too many redirects")
				}
				if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
					return fmt.Errorf("redirect to disallowed scheme: %s", req.URL.Scheme)
				}
				return nil
			},
		},
	}
}

// Get returns the full response body of url
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxScriptSize+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if len(data) > maxScriptSize {
		return nil, fmt.Errorf("response from %s exceeds maximum size (%d bytes)", url, maxScriptSize)
	}
	return data, nil
}

// Download streams the response body of url into w
func (c *Client) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	resp, err := c.do(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, io.LimitReader(resp.Body, maxScriptSize+1))
	if err != nil {
		return n, fmt.Errorf("download %s: %w", url, err)
	}
	if n > maxScriptSize {
		return n, fmt.Errorf("download %s exceeds maximum size (%d bytes)", url, maxScriptSize)
	}
	return n, nil
}

func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &application.TransportError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp, nil
}
