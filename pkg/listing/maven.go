package listing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/glorpus-work/playsync/internal/logger"
	pkgerrors "github.com/glorpus-work/playsync/pkg/errors"
)

// DefaultMaxPages bounds how many listing pages ListLibraries will follow.
const DefaultMaxPages = 100

// Selectors used on mvnrepository-style pages.
const (
	selectorTitle      = ".im-title"
	selectorRelease    = ".release"
	selectorDownload   = ".vbtn"
	selectorPagination = ".search-nav"
	classCurrentPage   = "current"
)

// MavenRepository scrapes the HTML pages of an mvnrepository-style site.
type MavenRepository struct {
	client    *http.Client
	userAgent string
	maxPages  int
}

var _ Provider = (*MavenRepository)(nil)

// NewMavenRepository creates a scraper. A zero timeout disables request
// timeouts; maxPages <= 0 selects DefaultMaxPages.
func NewMavenRepository(timeout time.Duration, userAgent string, maxPages int) *MavenRepository {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &MavenRepository{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		maxPages:  maxPages,
	}
}

// ListLibraries implements Provider.
func (r *MavenRepository) ListLibraries(ctx context.Context, baseURL string) ([]string, error) {
	var libraries []string
	visited := make(map[string]bool)
	pageURL := baseURL

	for page := 1; ; page++ {
		if page > r.maxPages {
			return nil, fmt.Errorf("listing %s: more than %d pages: %w", baseURL, r.maxPages, pkgerrors.ErrPageLimit)
		}
		visited[pageURL] = true

		doc, err := r.fetchDocument(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		doc.Find(selectorTitle).Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Find("a").First().Attr("href")
			if !ok || href == "" {
				return
			}
			libraries = append(libraries, lastSegment(href))
		})
		logger.Debug("Scraped listing page", logger.Fields{"page": page, "url": pageURL, "total": len(libraries)})

		next, ok := nextPage(doc, pageURL)
		if !ok {
			return libraries, nil
		}
		if visited[next] {
			return nil, fmt.Errorf("listing %s: pagination loops back to %s: %w", baseURL, next, pkgerrors.ErrPageLimit)
		}
		pageURL = next
	}
}

// nextPage inspects the pagination control. The last entry is either the
// current page (we are done) or a link to the following page.
func nextPage(doc *goquery.Document, pageURL string) (string, bool) {
	nav := doc.Find(selectorPagination).First()
	if nav.Length() == 0 {
		return "", false
	}
	last := nav.Children().Last()
	if last.Length() == 0 || last.HasClass(classCurrentPage) {
		return "", false
	}
	link := last.Children().Last()
	if link.Length() == 0 {
		link = last
	}
	href, ok := link.Attr("href")
	if !ok || href == "" {
		return "", false
	}
	next, err := resolve(pageURL, href)
	if err != nil {
		return "", false
	}
	return next, true
}

// LatestVersion implements Provider.
func (r *MavenRepository) LatestVersion(ctx context.Context, libraryURL string) (string, error) {
	doc, err := r.fetchDocument(ctx, libraryURL)
	if err != nil {
		return "", err
	}

	href, _ := doc.Find(selectorRelease).First().Attr("href")
	version := lastSegment(href)
	if version == "" {
		return "", fmt.Errorf("no release link on %s: %w", libraryURL, pkgerrors.ErrVersionUnresolved)
	}
	return version, nil
}

// ListFiles implements Provider.
func (r *MavenRepository) ListFiles(ctx context.Context, versionURL string, extensions ...string) ([]string, error) {
	doc, err := r.fetchDocument(ctx, versionURL)
	if err != nil {
		return nil, err
	}

	var files []string
	doc.Find(selectorDownload).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		link, err := resolve(versionURL, href)
		if err != nil {
			logger.Warn("Skipping unparsable download link", logger.Fields{"href": href, "page": versionURL})
			return
		}
		if len(extensions) > 0 && !slices.Contains(extensions, extension(link)) {
			return
		}
		files = append(files, link)
	})
	return files, nil
}

func (r *MavenRepository) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w: %w", pageURL, pkgerrors.ErrNetwork, err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w: %w", pageURL, pkgerrors.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d: %w", pageURL, resp.StatusCode, pkgerrors.ErrNetwork)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w: %w", pageURL, pkgerrors.ErrNetwork, err)
	}
	return doc, nil
}

func resolve(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(ref).String(), nil
}
