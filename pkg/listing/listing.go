// Package listing discovers libraries, versions and archive URLs from a
// repository's browsable listing pages.
package listing

//go:generate mockgen -destination=./mocks/provider.go -package=mocks . Provider

import (
	"context"
	"net/url"
	"strings"
)

// Provider is a source of library listings. The orchestrator only talks to
// this interface so a different repository format can be dropped in without
// touching filtering, locking or verification.
type Provider interface {
	// ListLibraries returns every library identifier under baseURL, walking all
	// listing pages. Order is page order, then in-page order. Duplicates are kept.
	ListLibraries(ctx context.Context, baseURL string) ([]string, error)

	// LatestVersion returns the first release listed on the library page.
	LatestVersion(ctx context.Context, libraryURL string) (string, error)

	// ListFiles returns the download links of a version page. When extensions
	// are given only links whose final dot-separated segment matches are kept.
	ListFiles(ctx context.Context, versionURL string, extensions ...string) ([]string, error)
}

// LibraryURL builds the detail page URL of library under base.
// repo selects the hosting repository tab (e.g. "google"); empty omits it.
func LibraryURL(base, library, repo string) string {
	u := strings.TrimRight(base, "/") + "/" + url.PathEscape(library)
	if repo != "" {
		u += "?repo=" + url.QueryEscape(repo)
	}
	return u
}

// VersionURL builds the page URL for one version of library under base.
func VersionURL(base, library, version string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(library) + "/" + url.PathEscape(version)
}

// lastSegment returns the final non-empty path segment of href, ignoring any
// query or fragment.
func lastSegment(href string) string {
	if idx := strings.IndexAny(href, "?#"); idx >= 0 {
		href = href[:idx]
	}
	href = strings.TrimRight(href, "/")
	if idx := strings.LastIndexByte(href, '/'); idx >= 0 {
		return href[idx+1:]
	}
	return href
}

// extension returns the final dot-separated segment of the link's path.
func extension(link string) string {
	if u, err := url.Parse(link); err == nil && u.Path != "" {
		link = u.Path
	}
	if idx := strings.LastIndexByte(link, '.'); idx >= 0 {
		return link[idx+1:]
	}
	return link
}
