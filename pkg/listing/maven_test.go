package listing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/glorpus-work/playsync/pkg/errors"
	"github.com/glorpus-work/playsync/test/testutil"
)

func TestListLibraries_Paginates(t *testing.T) {
	repo := testutil.NewFakeRepository(t)
	repo.PageSize = 2
	repo.ListOnly("play-a", "play-b", "play-services", "license-x")

	r := NewMavenRepository(0, "test", 0)
	got, err := r.ListLibraries(context.Background(), repo.BaseURL())

	require.NoError(t, err)
	assert.Equal(t, []string{"play-a", "play-b", "play-services", "license-x"}, got)
	assert.Equal(t, 2, repo.Hits(testutil.GroupPath))
}

func TestListLibraries_SinglePageKeepsDuplicates(t *testing.T) {
	repo := testutil.NewFakeRepository(t)
	repo.PageSize = 10
	repo.ListOnly("play-a", "play-a", "play-b")

	got, err := NewMavenRepository(0, "", 0).ListLibraries(context.Background(), repo.BaseURL())

	require.NoError(t, err)
	assert.Equal(t, []string{"play-a", "play-a", "play-b"}, got)
}

func TestListLibraries_PageFailureAborts(t *testing.T) {
	repo := testutil.NewFakeRepository(t)
	repo.PageSize = 1
	repo.ListOnly("play-a", "play-b", "play-c")
	repo.FailNext(testutil.GroupPath+"?p=2", 1)

	got, err := NewMavenRepository(0, "", 0).ListLibraries(context.Background(), repo.BaseURL())

	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, pkgerrors.ErrNetwork))
	assert.Equal(t, 2, repo.Hits(testutil.GroupPath), "listing stops at the failing page")
}

func TestListLibraries_PageLimit(t *testing.T) {
	repo := testutil.NewFakeRepository(t)
	repo.PageSize = 1
	repo.ListOnly("play-a", "play-b", "play-c")

	_, err := NewMavenRepository(0, "", 2).ListLibraries(context.Background(), repo.BaseURL())

	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.ErrPageLimit))
}

func TestListLibraries_PaginationLoop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
<h2 class="im-title"><a href="/artifact/g/play-a">play-a</a></h2>
<ul class="search-nav"><li><a href="?p=1">Next</a></li></ul>
</body></html>`))
	}))
	defer server.Close()

	_, err := NewMavenRepository(0, "", 0).ListLibraries(context.Background(), server.URL+"/artifact/g?p=1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.ErrPageLimit))
}

func TestLatestVersion(t *testing.T) {
	repo := testutil.NewFakeRepository(t)
	repo.AddLibrary("play-services-base", "18.5.0", []byte("x"))
	repo.SetReleases("play-services-base", "18.5.0", "18.4.0", "17.0.0")
	repo.SetReleases("play-services-empty")

	r := NewMavenRepository(0, "", 0)

	t.Run("first release wins", func(t *testing.T) {
		v, err := r.LatestVersion(context.Background(), LibraryURL(repo.BaseURL(), "play-services-base", "google"))
		require.NoError(t, err)
		assert.Equal(t, "18.5.0", v)
	})

	t.Run("no release is fatal", func(t *testing.T) {
		_, err := r.LatestVersion(context.Background(), LibraryURL(repo.BaseURL(), "play-services-empty", "google"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, pkgerrors.ErrVersionUnresolved))
	})

	t.Run("missing page", func(t *testing.T) {
		_, err := r.LatestVersion(context.Background(), repo.Server.URL+"/nowhere")
		require.Error(t, err)
		assert.True(t, errors.Is(err, pkgerrors.ErrNetwork))
	})
}

func TestListFiles(t *testing.T) {
	repo := testutil.NewFakeRepository(t)
	aar := repo.AddLibrary("play-services-maps", "19.0.0", []byte("x"))
	pom := repo.Server.URL + testutil.BlobPath("play-services-maps", "19.0.0", "pom")
	versionURL := VersionURL(repo.BaseURL(), "play-services-maps", "19.0.0")

	r := NewMavenRepository(0, "", 0)

	tests := []struct {
		name       string
		extensions []string
		want       []string
	}{
		{name: "no filter keeps all in page order", want: []string{pom, aar}},
		{name: "aar only", extensions: []string{"aar"}, want: []string{aar}},
		{name: "several extensions", extensions: []string{"jar", "pom"}, want: []string{pom}},
		{name: "nothing matches", extensions: []string{"jar"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ListFiles(context.Background(), versionURL, tt.extensions...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListFiles_ResolvesRelativeLinks(t *testing.T) {
	repo := testutil.NewFakeRepository(t)
	repo.AddLibrary("play-services-tasks", "18.2.0", []byte("x"))
	repo.SetDownloads("play-services-tasks", "18.2.0", "/maven2/tasks.aar")

	got, err := NewMavenRepository(0, "", 0).ListFiles(context.Background(),
		VersionURL(repo.BaseURL(), "play-services-tasks", "18.2.0"), "aar")

	require.NoError(t, err)
	assert.Equal(t, []string{repo.Server.URL + "/maven2/tasks.aar"}, got)
}

func TestURLBuilders(t *testing.T) {
	assert.Equal(t, "https://h/artifact/g/play-base?repo=google", LibraryURL("https://h/artifact/g/", "play-base", "google"))
	assert.Equal(t, "https://h/artifact/g/play-base", LibraryURL("https://h/artifact/g", "play-base", ""))
	assert.Equal(t, "https://h/artifact/g/play-base/1.2.3", VersionURL("https://h/artifact/g", "play-base", "1.2.3"))
}

func TestHelpers(t *testing.T) {
	tests := []struct {
		href    string
		segment string
		ext     string
	}{
		{href: "play-services-base/18.5.0", segment: "18.5.0", ext: "0"},
		{href: "/artifact/com.google.android.gms/play-services-base", segment: "play-services-base", ext: "gms/play-services-base"},
		{href: "https://maven.google.com/x/lib-1.0.aar", segment: "lib-1.0.aar", ext: "aar"},
		{href: "https://maven.google.com/x/lib-1.0.aar?dl=1", segment: "lib-1.0.aar", ext: "aar"},
		{href: "dir/", segment: "dir", ext: "dir/"},
	}
	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			assert.Equal(t, tt.segment, lastSegment(tt.href))
			assert.Equal(t, tt.ext, extension(tt.href))
		})
	}
}
