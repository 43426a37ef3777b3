//go:generate mockgen -destination=./mocks/orchestrator.go -package=mocks . Downloader,Verifier

package orchestrator

import (
	"context"

	"github.com/glorpus-work/playsync/pkg/filter"
	"github.com/glorpus-work/playsync/pkg/listing"
)

// Downloader fetches a URL into dest and returns the written path.
type Downloader interface {
	Download(ctx context.Context, url, dest string) (string, error)
}

// Verifier makes sure dest holds the bytes pinned by an integrity value.
type Verifier interface {
	DownloadIfNecessary(ctx context.Context, url, dest, integrity string) (string, error)
}

// Orchestrator ties the listing provider, the downloader and the verifier
// together for the upgrade and ci runs.
type Orchestrator struct {
	Lister   listing.Provider
	DL       Downloader
	Verifier Verifier
	Hooks    Hooks // Hooks for progress and event notifications
	Options  Options
}

// Mode selects what Run does.
type Mode string

const (
	// ModeUpgrade re-resolves every library and rewrites the lockfile.
	ModeUpgrade Mode = "upgrade"
	// ModeCI restores the destination directory from the lockfile.
	ModeCI Mode = "ci"
)

// ParseMode maps a command-line directive to a Mode. Anything but "upgrade"
// selects ModeCI.
func ParseMode(arg string) Mode {
	if arg == string(ModeUpgrade) {
		return ModeUpgrade
	}
	return ModeCI
}

// Event represents a simple progress notification.
type Event struct {
	Phase string // listing|filtering|resolving|resolved|downloading|verifying|locking|done
	ID    string // library identifier or archive name
	Msg   string
}

// Hooks carries callbacks for progress events. OnEvent is called from the
// worker goroutines and must be safe for concurrent use.
type Hooks struct {
	OnEvent func(Event)
}

// Options control orchestrator execution.
type Options struct {
	// BaseURL is the repository group page, e.g.
	// https://mvnrepository.com/artifact/com.google.android.gms.
	BaseURL string
	// RepoQuery selects the hosting repository on library pages.
	RepoQuery string

	DestDir      string
	LockfilePath string

	Policy filter.Policy
	// Extension is the archive type to vendor, without the dot.
	Extension string
	// Pins fixes the version of individual libraries. "latest" or a missing
	// entry resolves the newest release.
	Pins map[string]string

	// Concurrency caps the number of libraries processed at once.
	// 0 launches every library at the same time.
	Concurrency int

	// Algorithm is the SRI algorithm recorded in the lockfile.
	Algorithm string

	// VerifyArchives opens every downloaded archive during upgrade and
	// requires RequiredEntries (AndroidManifest.xml when empty).
	VerifyArchives  bool
	RequiredEntries []string
}
