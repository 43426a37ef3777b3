package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/glorpus-work/playsync/pkg/errors"
)

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "updater", DefaultPath)
	entries := []Entry{
		{URL: "https://maven.google.com/a/play-services-base-18.5.0.aar?x=1&y=2", Name: "play-services-base-18.5.0.aar", Integrity: "sha512-AAAA"},
		{URL: "https://maven.google.com/b/play-services-maps-19.0.0.aar", Name: "play-services-maps-19.0.0.aar", Integrity: "sha512-BBBB"},
	}

	require.NoError(t, Write(path, entries))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	expected := "[\n" +
		"\t{\n" +
		"\t\t\"url\": \"https://maven.google.com/a/play-services-base-18.5.0.aar?x=1&y=2\",\n" +
		"\t\t\"name\": \"play-services-base-18.5.0.aar\",\n" +
		"\t\t\"integrity\": \"sha512-AAAA\"\n" +
		"\t},\n" +
		"\t{\n" +
		"\t\t\"url\": \"https://maven.google.com/b/play-services-maps-19.0.0.aar\",\n" +
		"\t\t\"name\": \"play-services-maps-19.0.0.aar\",\n" +
		"\t\t\"integrity\": \"sha512-BBBB\"\n" +
		"\t}\n" +
		"]\n"
	assert.Equal(t, expected, string(raw))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".lock-*.tmp"))
	assert.Empty(t, leftovers)
}

func TestWrite_ReplacesWholesale(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, Write(path, []Entry{{URL: "u1", Name: "a.aar", Integrity: "sha512-A"}, {URL: "u2", Name: "b.aar", Integrity: "sha512-B"}}))
	require.NoError(t, Write(path, []Entry{{URL: "u3", Name: "c.aar", Integrity: "sha512-C"}}))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{URL: "u3", Name: "c.aar", Integrity: "sha512-C"}}, got)
}

func TestWrite_EmptySetIsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, Write(path, nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(raw))
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{not json"), 0o644))

	tests := []struct {
		name string
		path string
	}{
		{name: "missing lockfile", path: filepath.Join(dir, "absent.json")},
		{name: "malformed lockfile", path: broken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(tt.path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, pkgerrors.ErrIO))
		})
	}
}

func TestRead_MissingIntegrityFieldDecodesEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte(`[{"url":"https://x/a.aar","name":"a.aar"}]`), 0o644))

	got, err := Read(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Integrity)
}

func TestValidate(t *testing.T) {
	ok := Entry{URL: "https://x/a.aar", Name: "a.aar", Integrity: "sha512-AAAA"}

	tests := []struct {
		name    string
		entries []Entry
		wantErr bool
	}{
		{name: "valid", entries: []Entry{ok}},
		{name: "empty lockfile", entries: nil},
		{name: "missing integrity", entries: []Entry{ok, {URL: "https://x/b.aar", Name: "b.aar"}}, wantErr: true},
		{name: "missing url", entries: []Entry{{Name: "b.aar", Integrity: "sha512-B"}}, wantErr: true},
		{name: "path traversal", entries: []Entry{{URL: "u", Name: "../evil.aar", Integrity: "sha512-B"}}, wantErr: true},
		{name: "duplicate name", entries: []Entry{ok, ok}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.entries)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, pkgerrors.ErrConfig))
		})
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "play-services-base-18.5.0.aar", FileName("play-services-base", "18.5.0", "aar"))
}
