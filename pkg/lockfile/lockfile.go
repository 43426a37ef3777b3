// Package lockfile persists the pinned set of vendored archives.
//
// The lockfile is a JSON array of {url, name, integrity} objects indented with
// tabs. It is always written and read as a whole.
package lockfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/glorpus-work/playsync/pkg/errors"
	"github.com/glorpus-work/playsync/pkg/fsutil"
)

// DefaultPath is the lockfile location relative to the working directory.
const DefaultPath = "libraries-lock.json"

// Entry is one pinned archive.
type Entry struct {
	URL       string `json:"url"`
	Name      string `json:"name"`
	Integrity string `json:"integrity"`
}

// FileName derives the local archive name of library@version.
func FileName(library, version, ext string) string {
	return fmt.Sprintf("%s-%s.%s", library, version, ext)
}

// Write replaces the lockfile at path with entries. The document is written to
// a temp file first and renamed into place, so readers never see a partial lockfile.
func Write(path string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "\t")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encoding lockfile: %w: %w", pkgerrors.ErrIO, err)
	}
	data := buf.Bytes()

	if err := fsutil.EnsureFileDir(path); err != nil {
		return fmt.Errorf("creating lockfile directory: %w: %w", pkgerrors.ErrIO, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".lock-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp lockfile: %w: %w", pkgerrors.ErrIO, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing lockfile: %w: %w", pkgerrors.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing lockfile: %w: %w", pkgerrors.ErrIO, err)
	}
	if err := os.Chmod(tmpPath, fsutil.FileModeDefault); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("setting lockfile permissions: %w: %w", pkgerrors.ErrIO, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing lockfile %s: %w: %w", path, pkgerrors.ErrIO, err)
	}
	return nil
}

// Read loads every entry from the lockfile at path.
func Read(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lockfile %s: %w: %w", path, pkgerrors.ErrIO, err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing lockfile %s: %w: %w", path, pkgerrors.ErrIO, err)
	}
	return entries, nil
}

// Validate checks every entry up front so that a broken lockfile fails before
// any download starts.
func Validate(entries []Entry) error {
	names := make(map[string]int, len(entries))
	for i, e := range entries {
		switch {
		case strings.TrimSpace(e.Integrity) == "":
			return fmt.Errorf("entry %d (%s): no integrity value given for %s, run \"upgrade\" to regenerate the lockfile with integrity hashes: %w",
				i, e.Name, e.URL, pkgerrors.ErrConfig)
		case e.URL == "":
			return fmt.Errorf("entry %d (%s): missing url: %w", i, e.Name, pkgerrors.ErrConfig)
		case e.Name == "" || e.Name != filepath.Base(e.Name) || e.Name == "." || e.Name == "..":
			return fmt.Errorf("entry %d: invalid file name %q: %w", i, e.Name, pkgerrors.ErrConfig)
		}
		if prev, dup := names[e.Name]; dup {
			return fmt.Errorf("entries %d and %d both write %s: %w", prev, i, e.Name, pkgerrors.ErrConfig)
		}
		names[e.Name] = i
	}
	return nil
}
