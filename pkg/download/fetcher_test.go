package download

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/glorpus-work/playsync/pkg/errors"
)

func TestNewFetcher(t *testing.T) {
	tests := []struct {
		name       string
		timeout    time.Duration
		userAgent  string
		expectedUA string
	}{
		{
			name:       "default user agent, no timeout",
			expectedUA: DefaultUserAgent,
		},
		{
			name:       "custom user agent",
			timeout:    2 * time.Second,
			userAgent:  "test-agent/1.0",
			expectedUA: "test-agent/1.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFetcher(tt.timeout, tt.userAgent)
			require.NotNil(t, f)
			assert.Equal(t, tt.timeout, f.client.Timeout)
			assert.Equal(t, tt.expectedUA, f.userAgent)
		})
	}
}

func TestDownload(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		expectError error
		expectBody  string
	}{
		{
			name: "successful download",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("aar content"))
			},
			expectBody: "aar content",
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			expectError: pkgerrors.ErrNetwork,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			expectError: pkgerrors.ErrNetwork,
		},
		{
			name: "truncated body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Length", "100")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("short"))
			},
			expectError: pkgerrors.ErrNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			dir := t.TempDir()
			dest := filepath.Join(dir, "lib", "play-services-base-1.0.0.aar")
			f := NewFetcher(time.Second, "test")

			path, err := f.Download(context.Background(), server.URL+"/file.aar", dest)
			assert.Equal(t, int64(1), f.Requests())

			if tt.expectError != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.expectError), "got %v", err)
				_, statErr := os.Stat(dest)
				assert.True(t, os.IsNotExist(statErr), "no partial file should remain")
				leftovers, _ := filepath.Glob(filepath.Join(dir, "lib", "dl-*.tmp"))
				assert.Empty(t, leftovers)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, dest, path)
			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.expectBody, string(content))
		})
	}
}

func TestDownload_OverwritesExisting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("fresh"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "lib.aar")
	require.NoError(t, os.WriteFile(dest, []byte("stale bytes that are longer"), 0o644))

	_, err := NewFetcher(0, "").Download(context.Background(), server.URL, dest)
	require.NoError(t, err)

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(content))
}

func TestDownload_SendsUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	_, err := NewFetcher(0, "ua-check/2.0").Download(context.Background(), server.URL, filepath.Join(t.TempDir(), "x"))
	require.NoError(t, err)
	assert.Equal(t, "ua-check/2.0", gotUA)
}

func TestDownload_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFetcher(0, "").Download(ctx, server.URL, filepath.Join(t.TempDir(), "x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.ErrNetwork))
}

func TestDownload_LocalWriteFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("aar content"))
	}))
	defer server.Close()

	tests := []struct {
		name  string
		setup func(t *testing.T, dir string) string
	}{
		{
			name: "read-only destination directory",
			setup: func(t *testing.T, dir string) string {
				if os.Geteuid() == 0 {
					t.Skip("directory permissions are not enforced for root")
				}
				require.NoError(t, os.Chmod(dir, 0o555))
				t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })
				return filepath.Join(dir, "play-services-base-1.0.0.aar")
			},
		},
		{
			name: "destination is a directory",
			setup: func(t *testing.T, dir string) string {
				dest := filepath.Join(dir, "play-services-base-1.0.0.aar")
				require.NoError(t, os.MkdirAll(dest, 0o755))
				require.NoError(t, os.WriteFile(filepath.Join(dest, "keep"), []byte("x"), 0o644))
				return dest
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "lib")
			require.NoError(t, os.MkdirAll(dir, 0o755))
			dest := tt.setup(t, dir)

			_, err := NewFetcher(time.Second, "test").Download(context.Background(), server.URL+"/file.aar", dest)

			require.Error(t, err)
			assert.True(t, errors.Is(err, pkgerrors.ErrIO), "got %v", err)
			leftovers, _ := filepath.Glob(filepath.Join(dir, "dl-*.tmp"))
			assert.Empty(t, leftovers)
		})
	}
}
