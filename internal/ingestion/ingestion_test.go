package ingestion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	got, err := Validate([]string{"  Go developer \n", "SRE"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go developer", "SRE"}, got)
}

func TestValidate_Empty(t *testing.T) {
	_, err := Validate(nil)
	assert.ErrorIs(t, err, ErrEmptyDescription)

	_, err = Validate([]string{"ok", "   "})
	assert.ErrorIs(t, err, ErrEmptyDescription)
	assert.Contains(t, err.Error(), "job description 2")
}

func TestValidate_TooMany(t *testing.T) {
	_, err := Validate([]string{"a", "b", "c", "d"})
	assert.ErrorIs(t, err, ErrTooManyDescriptions)

	_, err = Validate([]string{"a", "b", "c"})
	assert.NoError(t, err)
}

func TestCollect_MixedSources(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><main><p>Remote posting</p></main></body></html>`))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "job.txt")
	require.NoError(t, os.WriteFile(path, []byte("File posting"), 0o644))

	descs, err := Collect(context.Background(), []Source{
		TextSource("Inline posting"),
		FileSource(path),
		URLSource(server.URL),
	}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Inline posting", "File posting", "Remote posting"}, Texts(descs))
	assert.Equal(t, SourceURL, descs[2].Source)
	assert.Equal(t, server.URL, descs[2].Origin)
}

func TestCollect_RejectsTooManyBeforeFetching(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits++ }))
	defer server.Close()

	sources := []Source{URLSource(server.URL), URLSource(server.URL), URLSource(server.URL), URLSource(server.URL)}
	_, err := Collect(context.Background(), sources, Options{})
	assert.ErrorIs(t, err, ErrTooManyDescriptions)
	assert.Zero(t, hits)
}

func TestCollect_EmptyText(t *testing.T) {
	_, err := Collect(context.Background(), []Source{TextSource("ok"), TextSource(" \n ")}, Options{})
	assert.ErrorIs(t, err, ErrEmptyDescription)

	_, err = Collect(context.Background(), nil, Options{})
	assert.ErrorIs(t, err, ErrEmptyDescription)
}

func TestCollect_PropagatesSourceError(t *testing.T) {
	_, err := Collect(context.Background(), []Source{FileSource(filepath.Join(t.TempDir(), "missing.txt"))}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestIngest_UnknownKind(t *testing.T) {
	_, err := Ingest(context.Background(), Source{Kind: "fax"}, Options{})
	assert.Error(t, err)
}
