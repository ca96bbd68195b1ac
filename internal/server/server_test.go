package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-matcher/internal/api"
	"github.com/jonathan/resume-matcher/internal/artifact"
	"github.com/jonathan/resume-matcher/internal/i18n"
	"github.com/jonathan/resume-matcher/internal/server/ratelimit"
	"github.com/jonathan/resume-matcher/internal/session"
	"github.com/jonathan/resume-matcher/internal/types"
)

// fakeService implements the analysis service calls the server reaches
type fakeService struct {
	release chan struct{} // when set, UploadResume waits for it

	mu           sync.Mutex
	downloadArgs []string
	downloadErr  error
	healthErr    error
}

func (f *fakeService) UploadResume(ctx context.Context, _ api.Upload) (string, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "r1", nil
}

func (f *fakeService) SubmitJobs(_ context.Context, _ []string, _ string) (string, error) {
	return "j1", nil
}

func (f *fakeService) Improve(_ context.Context, resumeID, jobID, _ string) (*types.RawAnalysisResult, error) {
	return &types.RawAnalysisResult{
		ResumeID:      resumeID,
		JobID:         jobID,
		OriginalScore: 0.65,
		NewScore:      0.85,
		Details:       "Strong backend match",
		ResumePreview: map[string]any{"personalInfo": map[string]any{"name": "Ana Souza"}},
	}, nil
}

func (f *fakeService) DownloadPDF(_ context.Context, resumeID, jobID, language string) (*api.Download, error) {
	f.mu.Lock()
	f.downloadArgs = []string{resumeID, jobID, language}
	f.mu.Unlock()
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	body := "%PDF-1.4 generated"
	return &api.Download{
		Body:               io.NopCloser(strings.NewReader(body)),
		ContentDisposition: `attachment; filename="cv.pdf"`,
		ContentType:        "application/pdf",
		ContentLength:      int64(len(body)),
	}, nil
}

func (f *fakeService) Health(_ context.Context) (*api.HealthStatus, error) {
	if f.healthErr != nil {
		return nil, f.healthErr
	}
	return &api.HealthStatus{Status: "healthy", Service: "resume-matcher-api"}, nil
}

func newTestServer(t *testing.T, svc *fakeService, limits *ratelimit.Config) *Server {
	t.Helper()
	if limits == nil {
		limits = &ratelimit.Config{Enabled: false}
	}
	resolver := i18n.NewResolver(context.Background(), i18n.MustLoadTable(), nil)
	s, err := New(Config{
		Manager:    session.NewManager(svc, resolver, session.Options{}),
		Downloader: artifact.NewDownloader(svc, nil, artifact.Options{TempDir: t.TempDir()}),
		Resolver:   resolver,
		Upstream:   svc,
		RateLimit:  limits,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func sessionForm(t *testing.T, filename string, descriptions []string, locale string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4 resume"))
		require.NoError(t, err)
	}
	for _, d := range descriptions {
		require.NoError(t, mw.WriteField("job_description", d))
	}
	if locale != "" {
		require.NoError(t, mw.WriteField("locale", locale))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postSession(t *testing.T, s *Server, filename string, descriptions []string, locale string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := sessionForm(t, filename, descriptions, locale)
	req := httptest.NewRequest(http.MethodPost, "/sessions", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func waitForState(t *testing.T, s *Server, want session.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap, ok := s.manager.Current()
		return ok && snap.State == want
	}, 2*time.Second, 5*time.Millisecond)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	svc := &fakeService{}
	s := newTestServer(t, svc, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "healthy", body["upstream"].(map[string]any)["status"])
}

func TestHealth_UpstreamDown(t *testing.T) {
	svc := &fakeService{healthErr: errors.New("connection refused")}
	s := newTestServer(t, svc, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body["upstream_error"], "connection refused")
}

func TestStartSession_RunsToReady(t *testing.T) {
	s := newTestServer(t, &fakeService{}, nil)

	rec := postSession(t, s, "cv.pdf", []string{"  Senior Go engineer  "}, "pt")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["job_descriptions"])

	waitForState(t, s, session.Ready)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/current", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "ready", body["state"])
	assert.Equal(t, "pt", body["locale"])
	assert.Equal(t, "r1", body["resume_id"])
	assert.Equal(t, "j1", body["job_id"])
	rep := body["report"].(map[string]any)
	assert.Equal(t, float64(85), rep["score"])
	assert.Equal(t, "high", rep["band"])
	assert.Equal(t, "Ana Souza", body["view"].(map[string]any)["personalInfo"].(map[string]any)["name"])
}

func TestStartSession_Rejects(t *testing.T) {
	tests := []struct {
		name         string
		filename     string
		descriptions []string
		locale       string
	}{
		{name: "missing file", descriptions: []string{"Go"}},
		{name: "no descriptions", filename: "cv.pdf"},
		{name: "blank description", filename: "cv.pdf", descriptions: []string{"   "}},
		{name: "too many descriptions", filename: "cv.pdf", descriptions: []string{"a", "b", "c", "d"}},
		{name: "unsupported locale", filename: "cv.pdf", descriptions: []string{"Go"}, locale: "fr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeService{}, nil)
			rec := postSession(t, s, tt.filename, tt.descriptions, tt.locale)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			_, started := s.manager.Current()
			assert.False(t, started)
		})
	}
}

func TestCurrentSession_NoneYet(t *testing.T) {
	s := newTestServer(t, &fakeService{}, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/current", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func readEvents(t *testing.T, body io.Reader) (names []string, lastData string) {
	t.Helper()
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			names = append(names, strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			lastData = strings.TrimPrefix(line, "data: ")
		}
	}
	return names, lastData
}

func TestSessionStream_FollowsToCompletion(t *testing.T) {
	svc := &fakeService{release: make(chan struct{})}
	s := newTestServer(t, svc, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	require.Equal(t, http.StatusAccepted, postSession(t, s, "cv.pdf", []string{"Go"}, "en").Code)
	waitForState(t, s, session.Uploading)

	resp, err := http.Get(ts.URL + "/sessions/current/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	close(svc.release)
	names, lastData := readEvents(t, resp.Body)

	assert.Equal(t, []string{"state", "state", "state", "state", "complete"}, names)
	assert.Contains(t, lastData, `"state":"ready"`)
}

func TestSessionStream_AlreadyTerminal(t *testing.T) {
	s := newTestServer(t, &fakeService{}, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	require.Equal(t, http.StatusAccepted, postSession(t, s, "cv.pdf", []string{"Go"}, "").Code)
	waitForState(t, s, session.Ready)

	resp, err := http.Get(ts.URL + "/sessions/current/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	names, _ := readEvents(t, resp.Body)
	assert.Equal(t, []string{"state", "complete"}, names)
}

func TestStartSession_NewSessionSupersedesPrevious(t *testing.T) {
	svc := &fakeService{}
	s := newTestServer(t, svc, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	require.Equal(t, http.StatusAccepted, postSession(t, s, "first.pdf", []string{"Go"}, "en").Code)
	waitForState(t, s, session.Ready)
	first, ok := s.manager.Current()
	require.True(t, ok)

	svc.release = make(chan struct{})
	rec := postSession(t, s, "second.pdf", []string{"Go"}, "en")
	require.Equal(t, http.StatusAccepted, rec.Code)
	secondID, _ := decode(t, rec)["session_id"].(string)
	require.NotEmpty(t, secondID)
	assert.NotEqual(t, first.ID.String(), secondID)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/current", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, secondID, body["id"])
	assert.Contains(t, []any{"idle", "uploading"}, body["state"])
	assert.Nil(t, body["report"])

	resp, err := http.Get(ts.URL + "/sessions/current/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	close(svc.release)

	var names, data []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			names = append(names, strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}

	require.NotEmpty(t, names)
	assert.Equal(t, "complete", names[len(names)-1])
	for _, d := range data {
		assert.Contains(t, d, secondID)
		assert.NotContains(t, d, first.ID.String())
	}
	assert.Contains(t, data[len(data)-1], `"state":"ready"`)
}

func TestCurrentSession_ReportsLoading(t *testing.T) {
	svc := &fakeService{release: make(chan struct{})}
	s := newTestServer(t, svc, nil)

	require.Equal(t, http.StatusAccepted, postSession(t, s, "cv.pdf", []string{"Go"}, "en").Code)
	waitForState(t, s, session.Uploading)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/current", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["loading"])

	close(svc.release)
	waitForState(t, s, session.Ready)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/current", nil))
	assert.Equal(t, false, decode(t, rec)["loading"])
}

func TestSnapshotStream_SkipsRepeatsAndOlderSessions(t *testing.T) {
	rec := httptest.NewRecorder()
	sse, err := NewSSEWriter(rec)
	require.NoError(t, err)
	stream := &snapshotStream{sse: sse}

	assert.False(t, stream.send(session.Snapshot{Seq: 2, State: session.Uploading}))
	assert.False(t, stream.send(session.Snapshot{Seq: 2, State: session.Uploading}))
	assert.False(t, stream.send(session.Snapshot{Seq: 1, State: session.Ready}))
	assert.False(t, stream.send(session.Snapshot{Seq: 2, State: session.Improving}))
	assert.True(t, stream.send(session.Snapshot{Seq: 2, State: session.Ready}))

	names, _ := readEvents(t, rec.Body)
	assert.Equal(t, []string{"state", "state", "state", "complete"}, names)
}

func TestDownload_UsesCurrentSession(t *testing.T) {
	svc := &fakeService{}
	s := newTestServer(t, svc, nil)

	require.Equal(t, http.StatusAccepted, postSession(t, s, "cv.pdf", []string{"Go"}, "es").Code)
	waitForState(t, s, session.Ready)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/download", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="cv.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4 generated", rec.Body.String())
	assert.Equal(t, []string{"r1", "j1", "es"}, svc.downloadArgs)
}

func TestDownload_ExplicitIDs(t *testing.T) {
	svc := &fakeService{}
	s := newTestServer(t, svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/download", strings.NewReader(`{"resume_id":"r9","job_id":"j9","locale":"pt"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"r9", "j9", "pt"}, svc.downloadArgs)
}

func TestDownload_MissingIDs(t *testing.T) {
	s := newTestServer(t, &fakeService{}, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/download", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "ResumeID")
}

func TestDownload_UpstreamFailure(t *testing.T) {
	svc := &fakeService{downloadErr: &api.Error{Op: api.OpDownload, Kind: api.KindDownload, StatusCode: 500, Body: "boom"}}
	s := newTestServer(t, svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/download", strings.NewReader(`{"resume_id":"r1","job_id":"j1"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestTranslate(t *testing.T) {
	s := newTestServer(t, &fakeService{}, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/translate?key=report.band.low&key=missing.key&locale=pt", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "pt", body["locale"])
	translations := body["translations"].(map[string]any)
	assert.Equal(t, "Baixa compatibilidade", translations["report.band.low"])
	assert.Equal(t, "missing.key", translations["missing.key"])
}

func TestTranslate_BadRequests(t *testing.T) {
	s := newTestServer(t, &fakeService{}, nil)

	for _, target := range []string{"/translate", "/translate?key=a&locale=fr"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestLocale_GetAndSet(t *testing.T) {
	s := newTestServer(t, &fakeService{}, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/locale", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "en", decode(t, rec)["locale"])

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/locale", strings.NewReader(`{"locale":"pt"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "pt", body["locale"])
	assert.Equal(t, true, body["persisted"])
	assert.Equal(t, i18n.LocalePT, s.resolver.Current())

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/locale", strings.NewReader(`{"locale":"fr"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, i18n.LocalePT, s.resolver.Current())
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, &fakeService{}, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/sessions", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestRateLimit(t *testing.T) {
	limits := &ratelimit.Config{Enabled: true, Rules: []ratelimit.Rule{
		{Method: "POST", Path: "/sessions", Limit: 1, Window: time.Hour, Burst: 1},
	}}
	s := newTestServer(t, &fakeService{}, limits)

	assert.Equal(t, http.StatusAccepted, postSession(t, s, "cv.pdf", []string{"Go"}, "").Code)

	rec := postSession(t, s, "cv.pdf", []string{"Go"}, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
