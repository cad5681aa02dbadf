package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// MaxSourceSize bounds a single source file (8MB). The largest Flipper-IRDB
// universal remotes are well under 1MB.
const MaxSourceSize = 8 << 20

// Fetcher reads sources from disk or over HTTP.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a Fetcher. A zero timeout means 30 seconds.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// IsURL reports whether location is an http(s) URL.
func IsURL(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// RawURL rewrites a github.com "/blob/" page URL to the file's
// raw.githubusercontent.com address. Other locations are returned unchanged.
//
// Example:
//
//	RawURL("https://github.com/o/r/blob/main/TVs/Sony.ir")
//	// "https://raw.githubusercontent.com/o/r/main/TVs/Sony.ir"
func RawURL(location string) string {
	const gh = "https://github.com/"
	if !strings.HasPrefix(location, gh) || !strings.Contains(location, "/blob/") {
		return location
	}
	rest := strings.Replace(strings.TrimPrefix(location, gh), "/blob/", "/", 1)
	return "https://raw.githubusercontent.com/" + rest
}

// Fetch returns the content at location: a local path or an http(s) URL.
//
// Parameters:
//   - ctx: Cancels an in-flight download
//   - location: File path or URL
//
// Returns:
//   - []byte: The source content
//   - error: ErrFetchFailed or ErrTooLarge, wrapped with the location
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if IsURL(location) {
		return f.fetchHTTP(ctx, RawURL(location))
	}

	fh, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer fh.Close()
	return readLimited(fh, location)
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: HTTP %d", ErrFetchFailed, url, resp.StatusCode)
	}
	return readLimited(resp.Body, url)
}

func readLimited(r io.Reader, location string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSourceSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrFetchFailed, location, err)
	}
	if len(data) > MaxSourceSize {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, location)
	}
	return data, nil
}
