// Package testutil provides a fake mvnrepository-style site for tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// GroupPath is the listing path served by FakeRepository.
const GroupPath = "/artifact/com.google.android.gms"

// FakeRepository serves listing, release and version pages plus archive
// downloads, and counts every request by path.
type FakeRepository struct {
	Server   *httptest.Server
	PageSize int

	mu        sync.Mutex
	libraries []string
	releases  map[string][]string
	downloads map[string][]string
	blobs     map[string][]byte
	hits      map[string]int
	failPaths map[string]int
}

// NewFakeRepository starts a fake repository that is closed when the test ends.
func NewFakeRepository(t *testing.T) *FakeRepository {
	t.Helper()
	f := &FakeRepository{
		PageSize:  2,
		releases:  make(map[string][]string),
		downloads: make(map[string][]string),
		blobs:     make(map[string][]byte),
		hits:      make(map[string]int),
		failPaths: make(map[string]int),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// BaseURL is the repository root to hand to the listing client.
func (f *FakeRepository) BaseURL() string {
	return f.Server.URL + GroupPath
}

// BlobPath is where AddLibrary publishes the archive of library@version.
func BlobPath(library, version, ext string) string {
	return fmt.Sprintf("/maven2/%s/%s/%s-%s.%s", library, version, library, version, ext)
}

// ListOnly adds identifiers to the listing without any detail pages.
func (f *FakeRepository) ListOnly(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.libraries = append(f.libraries, names...)
}

// AddLibrary lists library with a single release whose version page links
// the archive (as .aar) and its pom. It returns the archive URL.
func (f *FakeRepository) AddLibrary(library, version string, archive []byte) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.libraries = append(f.libraries, library)
	f.releases[library] = append(f.releases[library], version)
	aar := BlobPath(library, version, "aar")
	pom := BlobPath(library, version, "pom")
	f.downloads[library+"/"+version] = []string{f.Server.URL + pom, f.Server.URL + aar}
	f.blobs[aar] = archive
	f.blobs[pom] = []byte("<project/>")
	return f.Server.URL + aar
}

// SetReleases overrides the releases shown on a library page, newest first.
func (f *FakeRepository) SetReleases(library string, versions ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases[library] = versions
}

// SetDownloads overrides the download links of a version page.
func (f *FakeRepository) SetDownloads(library, version string, hrefs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads[library+"/"+version] = hrefs
}

// SetBlob replaces the bytes served at path.
func (f *FakeRepository) SetBlob(path string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[path] = content
}

// FailNext makes the next n requests for path answer 500. A path carrying a
// query, such as GroupPath+"?p=2", only matches that exact request.
func (f *FakeRepository) FailNext(path string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPaths[path] = n
}

// Hits returns how many requests were made for path.
func (f *FakeRepository) Hits(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

// BlobHits returns how many archive downloads were served.
func (f *FakeRepository) BlobHits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for path, n := range f.hits {
		if strings.HasPrefix(path, "/maven2/") {
			total += n
		}
	}
	return total
}

func (f *FakeRepository) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	f.hits[path]++
	for _, key := range []string{r.URL.RequestURI(), path} {
		if n := f.failPaths[key]; n > 0 {
			f.failPaths[key] = n - 1
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
	}

	if blob, ok := f.blobs[path]; ok {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(blob)
		return
	}

	rest, ok := strings.CutPrefix(path, GroupPath)
	if !ok {
		http.NotFound(w, r)
		return
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	switch {
	case rest == "" || rest == "/":
		f.writeListing(w, r)
	case len(parts) == 1:
		f.writeReleases(w, parts[0])
	case len(parts) == 2:
		f.writeVersion(w, parts[0], parts[1])
	default:
		http.NotFound(w, r)
	}
}

func (f *FakeRepository) writeListing(w http.ResponseWriter, r *http.Request) {
	pageSize := max(f.PageSize, 1)
	pages := max((len(f.libraries)+pageSize-1)/pageSize, 1)
	page, err := strconv.Atoi(r.URL.Query().Get("p"))
	if err != nil || page < 1 {
		page = 1
	}
	if page > pages {
		http.NotFound(w, r)
		return
	}

	var b strings.Builder
	b.WriteString("<html><body>\n")
	start := (page - 1) * pageSize
	end := min(start+pageSize, len(f.libraries))
	for _, lib := range f.libraries[start:end] {
		fmt.Fprintf(&b, "<div class=\"im\"><h2 class=\"im-title\">\n<a href=\"%s/%s\">%s</a></h2></div>\n",
			GroupPath, html.EscapeString(lib), html.EscapeString(lib))
	}
	b.WriteString("<ul class=\"search-nav\">")
	for i := 1; i <= pages; i++ {
		if i == page {
			fmt.Fprintf(&b, "<li class=\"current\"><a>%d</a></li>", i)
		} else {
			fmt.Fprintf(&b, "<li><a href=\"?p=%d\">%d</a></li>", i, i)
		}
	}
	if page < pages {
		fmt.Fprintf(&b, "<li><a href=\"?p=%d\">Next</a></li>", page+1)
	}
	b.WriteString("</ul>\n</body></html>")
	_, _ = w.Write([]byte(b.String()))
}

func (f *FakeRepository) writeReleases(w http.ResponseWriter, library string) {
	var b strings.Builder
	b.WriteString("<html><body><table>\n")
	for _, v := range f.releases[library] {
		fmt.Fprintf(&b, "<tr><td><a class=\"vbtn release\" href=\"%s/%s\">%s</a></td></tr>\n",
			html.EscapeString(library), html.EscapeString(v), html.EscapeString(v))
	}
	b.WriteString("</table></body></html>")
	_, _ = w.Write([]byte(b.String()))
}

func (f *FakeRepository) writeVersion(w http.ResponseWriter, library, version string) {
	var b strings.Builder
	b.WriteString("<html><body>\n")
	for _, href := range f.downloads[library+"/"+version] {
		fmt.Fprintf(&b, "<a class=\"vbtn\" href=\"%s\">file</a>\n", html.EscapeString(href))
	}
	b.WriteString("<a class=\"vbtn\">no link</a>\n</body></html>")
	_, _ = w.Write([]byte(b.String()))
}

// AAR builds a minimal Android archive containing the given entries plus
// AndroidManifest.xml. The payload makes archives of different libraries differ.
func AAR(t *testing.T, payload string, extra ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entries := append([]string{"AndroidManifest.xml", "classes.jar"}, extra...)
	for _, name := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating %s: %v", name, err)
		}
		if _, err := w.Write([]byte(payload + ":" + name)); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}
	return buf.Bytes()
}
