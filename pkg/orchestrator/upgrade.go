package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/glorpus-work/playsync/internal/logger"
	"github.com/glorpus-work/playsync/pkg/artifact"
	pkgerrors "github.com/glorpus-work/playsync/pkg/errors"
	"github.com/glorpus-work/playsync/pkg/fsutil"
	"github.com/glorpus-work/playsync/pkg/integrity"
	"github.com/glorpus-work/playsync/pkg/listing"
	"github.com/glorpus-work/playsync/pkg/lockfile"
)

const pinLatest = "latest"

// Upgrade lists the repository, filters the libraries, downloads the chosen
// archive of each one into the emptied destination directory and replaces the
// lockfile with the resulting entries in filtered order. The lockfile is left
// untouched when any library fails.
func (o *Orchestrator) Upgrade(ctx context.Context) error {
	if o.Lister == nil {
		return fmt.Errorf("listing provider is not configured: %w", pkgerrors.ErrConfig)
	}
	if o.DL == nil {
		return fmt.Errorf("downloader is not configured: %w", pkgerrors.ErrConfig)
	}
	if err := o.requireDestination(); err != nil {
		return err
	}

	emit(o.Hooks, Event{Phase: "listing", Msg: o.Options.BaseURL})
	ids, err := o.Lister.ListLibraries(ctx, o.Options.BaseURL)
	if err != nil {
		return err
	}

	libraries, err := o.Options.Policy.Filter(ids)
	if err != nil {
		return err
	}
	libraries = dedupe(libraries)
	emit(o.Hooks, Event{Phase: "filtering", Msg: fmt.Sprintf("%d of %d libraries selected", len(libraries), len(ids))})

	if err := fsutil.EmptyDir(o.Options.DestDir); err != nil {
		return fmt.Errorf("emptying %s: %w: %w", o.Options.DestDir, pkgerrors.ErrIO, err)
	}

	entries := make([]lockfile.Entry, len(libraries))
	err = o.forEach(ctx, len(libraries), func(ctx context.Context, i int) error {
		entry, err := o.upgradeLibrary(ctx, libraries[i])
		if err != nil {
			return err
		}
		entries[i] = entry
		return nil
	})
	if err != nil {
		return err
	}

	emit(o.Hooks, Event{Phase: "locking", Msg: o.Options.LockfilePath})
	if err := lockfile.Write(o.Options.LockfilePath, entries); err != nil {
		return err
	}
	emit(o.Hooks, Event{Phase: "done", Msg: fmt.Sprintf("%d libraries locked", len(entries))})
	return nil
}

func (o *Orchestrator) upgradeLibrary(ctx context.Context, library string) (lockfile.Entry, error) {
	ver, err := o.resolveVersion(ctx, library)
	if err != nil {
		return lockfile.Entry{}, err
	}

	ext := o.extension()
	files, err := o.Lister.ListFiles(ctx, listing.VersionURL(o.Options.BaseURL, library, ver), ext)
	if err != nil {
		return lockfile.Entry{}, err
	}
	if len(files) != 1 {
		return lockfile.Entry{}, fmt.Errorf("%s@%s: expected exactly one .%s archive, found %d %v: %w",
			library, ver, ext, len(files), files, pkgerrors.ErrAmbiguousArchive)
	}

	name := lockfile.FileName(library, ver, ext)
	emit(o.Hooks, Event{Phase: "downloading", ID: library, Msg: name})
	path, err := o.DL.Download(ctx, files[0], filepath.Join(o.Options.DestDir, name))
	if err != nil {
		return lockfile.Entry{}, fmt.Errorf("%s@%s: %w", library, ver, err)
	}

	if o.Options.VerifyArchives {
		if err := artifact.ValidateArchive(ctx, path, o.Options.RequiredEntries...); err != nil {
			return lockfile.Entry{}, fmt.Errorf("%s@%s: %w", library, ver, err)
		}
	}

	algo := o.Options.Algorithm
	if algo == "" {
		algo = integrity.DefaultAlgorithm
	}
	sum, err := integrity.FromFile(path, algo)
	if err != nil {
		return lockfile.Entry{}, err
	}

	return lockfile.Entry{URL: files[0], Name: name, Integrity: sum.String()}, nil
}

// resolveVersion returns the pinned version of library or asks the listing
// provider for the newest release. Versions that do not look like semantic
// versions are still used, but flagged in the "resolved" event.
func (o *Orchestrator) resolveVersion(ctx context.Context, library string) (string, error) {
	ver := strings.TrimSpace(o.Options.Pins[library])
	if ver == "" || ver == pinLatest {
		emit(o.Hooks, Event{Phase: "resolving", ID: library})
		var err error
		ver, err = o.Lister.LatestVersion(ctx, listing.LibraryURL(o.Options.BaseURL, library, o.Options.RepoQuery))
		if err != nil {
			return "", fmt.Errorf("%s: %w", library, err)
		}
		if ver == "" {
			return "", fmt.Errorf("%s: no release listed: %w", library, pkgerrors.ErrVersionUnresolved)
		}
	}

	detail := ver
	if _, err := version.NewVersion(ver); err != nil {
		logger.Warn("Version is not semantic, using it verbatim", logger.Fields{"library": library, "version": ver})
		detail = ver + " (not semantic)"
	}
	emit(o.Hooks, Event{Phase: "resolved", ID: library, Msg: detail})
	return ver, nil
}

func (o *Orchestrator) extension() string {
	if o.Options.Extension == "" {
		return "aar"
	}
	return strings.TrimPrefix(o.Options.Extension, ".")
}

// dedupe drops repeated identifiers, keeping the first occurrence.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
