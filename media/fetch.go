// Package media moves images referenced by an article into the publishing
// gateway: it downloads them to scoped temp files, uploads them through an
// Uploader and rewrites the article, and resolves the draft cover.
package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultDownloadTimeout bounds a single image download.
const DefaultDownloadTimeout = 30 * time.Second

var allowedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
}

// TransportError reports a download that failed to connect, timed out or
// answered with a non-200 status.
type TransportError struct {
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("download %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("download %s: status %d", e.URL, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExtensionFor guesses the file extension of an image URL from its last
// dot segment, ignoring any query string. Unknown extensions become "jpg".
func ExtensionFor(rawURL string) string {
	parts := strings.Split(rawURL, ".")
	ext := strings.ToLower(strings.SplitN(parts[len(parts)-1], "?", 2)[0])
	if allowedExtensions[ext] {
		return ext
	}
	return "jpg"
}

// Fetcher downloads images into temp files.
type Fetcher struct {
	http *resty.Client
	dir  string
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithTempDir sets where downloads are written. Defaults to os.TempDir.
func WithTempDir(dir string) FetcherOption {
	return func(f *Fetcher) {
		f.dir = dir
	}
}

// WithFetchClient replaces the underlying HTTP client.
func WithFetchClient(hc *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.http = resty.NewWithClient(hc)
	}
}

// NewFetcher returns a Fetcher whose downloads time out after timeout.
func NewFetcher(timeout time.Duration, opts ...FetcherOption) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultDownloadTimeout
	}
	f := &Fetcher{http: resty.New()}
	for _, opt := range opts {
		opt(f)
	}
	f.http.SetTimeout(timeout)
	return f
}

// Download fetches rawURL into a new temp file and returns its path. The
// caller owns the file. Only a 200 response counts as success.
func (f *Fetcher) Download(ctx context.Context, rawURL string) (string, error) {
	resp, err := f.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return "", &TransportError{URL: rawURL, Err: err}
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.StatusCode() != http.StatusOK {
		return "", &TransportError{URL: rawURL, Status: resp.StatusCode()}
	}

	tmp, err := os.CreateTemp(f.dir, "draftpub-*."+ExtensionFor(rawURL))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", &TransportError{URL: rawURL, Status: resp.StatusCode(), Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return tmp.Name(), nil
}
