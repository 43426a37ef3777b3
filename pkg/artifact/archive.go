// Package artifact verifies downloaded Android archives: their pinned
// integrity digests and their basic structure.
package artifact

import (
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/mholt/archives"

	pkgerrors "github.com/glorpus-work/playsync/pkg/errors"
)

// ManifestEntry is present at the root of every Android archive.
const ManifestEntry = "AndroidManifest.xml"

// ValidateArchive opens path as an archive and checks that every required
// entry exists. With no required entries only ManifestEntry is checked.
func ValidateArchive(ctx context.Context, path string, required ...string) error {
	if len(required) == 0 {
		required = []string{ManifestEntry}
	}

	fsys, err := archives.FileSystem(ctx, path, nil)
	if err != nil {
		return fmt.Errorf("open archive %s: %w: %w", path, pkgerrors.ErrInvalidArchive, err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer closer.Close()
	}

	for _, name := range required {
		if _, err := fs.Stat(fsys, name); err != nil {
			return fmt.Errorf("%s has no %s: %w", path, name, pkgerrors.ErrInvalidArchive)
		}
	}
	return nil
}
