package artifact

//go:generate mockgen -destination=./mocks/downloader.go -package=mocks . Downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/glorpus-work/playsync/internal/logger"
	pkgerrors "github.com/glorpus-work/playsync/pkg/errors"
	"github.com/glorpus-work/playsync/pkg/fsutil"
	"github.com/glorpus-work/playsync/pkg/integrity"
)

// Downloader fetches a URL into a local file.
type Downloader interface {
	Download(ctx context.Context, url, dest string) (string, error)
}

// Verifier keeps downloaded archives in line with their pinned digests.
type Verifier struct {
	dl Downloader
}

// NewVerifier creates a Verifier that fetches through dl.
func NewVerifier(dl Downloader) *Verifier {
	return &Verifier{dl: dl}
}

// DownloadIfNecessary makes sure dest holds the bytes described by expected.
//
// An existing file that verifies is returned untouched. An existing file that
// does not verify is deleted and fetched again once. A freshly fetched file
// that still does not verify is an ErrIntegrity; there is no second retry.
func (v *Verifier) DownloadIfNecessary(ctx context.Context, url, dest, expected string) (string, error) {
	if strings.TrimSpace(expected) == "" {
		return "", fmt.Errorf("no integrity value given for %s, run \"upgrade\" to regenerate the lockfile with integrity hashes: %w",
			url, pkgerrors.ErrConfig)
	}
	if _, err := integrity.Parse(expected); err != nil {
		return "", fmt.Errorf("%s: %w", url, err)
	}

	exists, err := fsutil.Exists(dest)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w: %w", dest, pkgerrors.ErrIO, err)
	}
	if !exists {
		return v.downloadWithIntegrity(ctx, url, dest, expected)
	}

	err = integrity.CheckFile(dest, expected)
	switch {
	case err == nil:
		logger.Debug("Cached archive verified", logger.Fields{"path": dest})
		return dest, nil
	case errors.Is(err, pkgerrors.ErrIntegrity):
		logger.Warn("Cached archive failed verification, fetching again", logger.Fields{"path": dest, "url": url})
		if err := os.Remove(dest); err != nil {
			return "", fmt.Errorf("removing corrupted %s: %w: %w", dest, pkgerrors.ErrIO, err)
		}
		return v.downloadWithIntegrity(ctx, url, dest, expected)
	default:
		return "", err
	}
}

func (v *Verifier) downloadWithIntegrity(ctx context.Context, url, dest, expected string) (string, error) {
	logger.Info("Downloading", logger.Fields{"path": dest})
	path, err := v.dl.Download(ctx, url, dest)
	if err != nil {
		return "", err
	}
	if err := integrity.CheckFile(path, expected); err != nil {
		return "", fmt.Errorf("downloaded %s from %s: %w", path, url, err)
	}
	return path, nil
}
