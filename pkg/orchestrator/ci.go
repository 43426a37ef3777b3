package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"

	pkgerrors "github.com/glorpus-work/playsync/pkg/errors"
	"github.com/glorpus-work/playsync/pkg/fsutil"
	"github.com/glorpus-work/playsync/pkg/lockfile"
)

// CI restores every archive pinned in the lockfile into the emptied
// destination directory. The lockfile is validated before anything is
// removed or fetched, so a lockfile without integrity values fails fast.
func (o *Orchestrator) CI(ctx context.Context) error {
	if o.Verifier == nil {
		return fmt.Errorf("verifier is not configured: %w", pkgerrors.ErrConfig)
	}
	if err := o.requireDestination(); err != nil {
		return err
	}

	entries, err := lockfile.Read(o.Options.LockfilePath)
	if err != nil {
		return err
	}
	if err := lockfile.Validate(entries); err != nil {
		return fmt.Errorf("%s: %w", o.Options.LockfilePath, err)
	}

	if err := fsutil.EmptyDir(o.Options.DestDir); err != nil {
		return fmt.Errorf("emptying %s: %w: %w", o.Options.DestDir, pkgerrors.ErrIO, err)
	}

	err = o.forEach(ctx, len(entries), func(ctx context.Context, i int) error {
		e := entries[i]
		emit(o.Hooks, Event{Phase: "verifying", ID: e.Name, Msg: e.URL})
		if _, err := o.Verifier.DownloadIfNecessary(ctx, e.URL, filepath.Join(o.Options.DestDir, e.Name), e.Integrity); err != nil {
			return fmt.Errorf("%s: %w", e.Name, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	emit(o.Hooks, Event{Phase: "done", Msg: fmt.Sprintf("%d archives verified", len(entries))})
	return nil
}
