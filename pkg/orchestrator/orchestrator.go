// Package orchestrator runs the two playsync workflows: upgrade, which
// resolves the newest archives and pins them in the lockfile, and ci, which
// restores the destination directory from the lockfile.
package orchestrator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/glorpus-work/playsync/internal/logger"
	pkgerrors "github.com/glorpus-work/playsync/pkg/errors"
	"github.com/glorpus-work/playsync/pkg/listing"
)

// New constructs an Orchestrator from its collaborators. Helper for wiring.
func New(lister listing.Provider, dl Downloader, verifier Verifier, opts Options, hooks Hooks) *Orchestrator {
	return &Orchestrator{
		Lister:   lister,
		DL:       dl,
		Verifier: verifier,
		Options:  opts,
		Hooks:    hooks,
	}
}

// Run dispatches to Upgrade or CI.
func (o *Orchestrator) Run(ctx context.Context, mode Mode) error {
	logger.Debug("Starting run", logger.Fields{"mode": string(mode)})
	if mode == ModeUpgrade {
		return o.Upgrade(ctx)
	}
	return o.CI(ctx)
}

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

// forEach runs fn for 0..n-1 concurrently. The first error cancels the
// context passed to the remaining calls and is returned once all of them
// have finished.
func (o *Orchestrator) forEach(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if o.Options.Concurrency > 0 {
		g.SetLimit(o.Options.Concurrency)
	}
	for i := range n {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}

func (o *Orchestrator) requireDestination() error {
	if o.Options.DestDir == "" {
		return fmt.Errorf("destination directory is not configured: %w", pkgerrors.ErrConfig)
	}
	if o.Options.LockfilePath == "" {
		return fmt.Errorf("lockfile path is not configured: %w", pkgerrors.ErrConfig)
	}
	return nil
}
