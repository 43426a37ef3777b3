// Package download streams remote archives to local files.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	pkgerrors "github.com/glorpus-work/playsync/pkg/errors"
	"github.com/glorpus-work/playsync/pkg/fsutil"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "playsync/1.0"

// Fetcher is a plain HTTP GET downloader. A zero timeout means requests
// are never cut off.
type Fetcher struct {
	client    *http.Client
	userAgent string
	requests  atomic.Int64
}

// NewFetcher creates a fetcher with the given timeout and user agent.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Requests returns how many downloads were attempted.
func (f *Fetcher) Requests() int64 {
	return f.requests.Load()
}

// Download streams url into dest and returns dest once the file is fully written.
// The body goes to a temp file next to dest which then replaces dest, so a failed
// transfer never leaves a truncated archive behind.
func (f *Fetcher) Download(ctx context.Context, url, dest string) (string, error) {
	f.requests.Add(1)

	resp, err := f.doRequest(ctx, url)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	tmpPath, err := writeBodyToTemp(resp.Body, dest)
	if err != nil {
		return "", err
	}
	if err := fsutil.Move(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("could not finalize %s: %w: %w", dest, pkgerrors.ErrIO, err)
	}
	return dest, nil
}

func (f *Fetcher) doRequest(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w: %w", url, pkgerrors.ErrNetwork, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s failed: %w: %w", url, pkgerrors.ErrNetwork, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("download %s: unexpected status code: %d: %w", url, resp.StatusCode, pkgerrors.ErrNetwork)
	}
	return resp, nil
}

func writeBodyToTemp(body io.Reader, dest string) (string, error) {
	if err := fsutil.EnsureFileDir(dest); err != nil {
		return "", fmt.Errorf("could not create download dir: %w: %w", pkgerrors.ErrIO, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "dl-*.tmp")
	if err != nil {
		return "", fmt.Errorf("could not create temp file: %w: %w", pkgerrors.ErrIO, err)
	}
	tmpPath := tmp.Name()

	fail := func(msg string, cause, err error) (string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("%s %s: %w: %w", msg, dest, cause, err)
	}

	if _, err := io.Copy(tmp, bodyReader{body}); err != nil {
		var readErr *readError
		if errors.As(err, &readErr) {
			return fail("could not read body for", pkgerrors.ErrNetwork, readErr.err)
		}
		return fail("could not write", pkgerrors.ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("could not sync", pkgerrors.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("could not close %s: %w: %w", dest, pkgerrors.ErrIO, err)
	}
	if err := os.Chmod(tmpPath, fsutil.FileModeDefault); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("could not set permissions on %s: %w: %w", dest, pkgerrors.ErrIO, err)
	}
	return tmpPath, nil
}

// readError marks failures on the response side of the copy so they are
// reported as network errors rather than local write errors.
type readError struct{ err error }

func (e *readError) Error() string { return e.err.Error() }
func (e *readError) Unwrap() error { return e.err }

type bodyReader struct{ r io.Reader }

func (b bodyReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && err != io.EOF {
		return n, &readError{err: err}
	}
	return n, err
}
