package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-matcher/internal/api"
	"github.com/jonathan/resume-matcher/internal/artifact"
	"github.com/jonathan/resume-matcher/internal/i18n"
	"github.com/jonathan/resume-matcher/internal/ingestion"
	"github.com/jonathan/resume-matcher/internal/report"
	"github.com/jonathan/resume-matcher/internal/session"
)

const (
	// maxUploadBytes bounds the résumé file in POST /sessions
	maxUploadBytes = 10 << 20
	// upstreamHealthTimeout bounds the analysis service probe in GET /health
	upstreamHealthTimeout = 5 * time.Second
	// streamBuffer is how many transitions a slow stream client may lag behind
	streamBuffer = 32
)

type startSessionRequest struct {
	Filename string `validate:"required"`
	Size     int    `validate:"gt=0,lte=10485760"`
	Locale   string `validate:"omitempty,oneof=en pt es"`
}

type downloadRequest struct {
	ResumeID string `json:"resume_id" validate:"required"`
	JobID    string `json:"job_id" validate:"required"`
	Locale   string `json:"locale" validate:"omitempty,oneof=en pt es"`
}

type setLocaleRequest struct {
	Locale string `json:"locale" validate:"required,oneof=en pt es"`
}

// sessionResponse is a snapshot plus its presentation once ready
type sessionResponse struct {
	session.Snapshot
	Loading bool           `json:"loading"`
	Report  *report.Report `json:"report,omitempty"`
}

// handleHealth returns server health and, when configured, upstream health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if s.upstream != nil {
		ctx, cancel := context.WithTimeout(r.Context(), upstreamHealthTimeout)
		defer cancel()
		status, err := s.upstream.Health(ctx)
		if err != nil {
			resp["upstream_error"] = err.Error()
		} else {
			resp["upstream"] = status
		}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleStartSession accepts a résumé and job descriptions and starts a session.
// The session runs in the background; poll or stream /sessions/current.
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.failResponse(w, &ErrValidation{Field: "body", Message: "expected multipart form: " + err.Error()})
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile("file")
	if err != nil {
		s.failResponse(w, &ErrValidation{Field: "file", Message: "is required"})
		return
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	req := startSessionRequest{Filename: header.Filename, Size: len(data), Locale: r.FormValue("locale")}
	if err := s.validateRequest(req); err != nil {
		s.failResponse(w, err)
		return
	}

	descriptions, err := ingestion.Validate(r.MultipartForm.Value["job_description"])
	if err != nil {
		s.failResponse(w, err)
		return
	}

	input := session.Input{
		Resume:          api.Upload{Filename: req.Filename, Data: data},
		JobDescriptions: descriptions,
		Locale:          i18n.Locale(req.Locale),
	}

	// the session is current before the response goes out
	idle, run := s.manager.Begin(input)

	s.sessionsGroup.Add(1)
	go func() {
		defer s.sessionsGroup.Done()
		if _, err := run(s.sessionCtx); err != nil && !errors.Is(err, session.ErrSuperseded) {
			log.Printf("[server] session %s for %s ended with error: %v", idle.ID, input.Resume.Filename, err)
		}
	}()

	s.jsonResponse(w, http.StatusAccepted, map[string]any{
		"status":           "accepted",
		"session_id":       idle.ID,
		"job_descriptions": len(descriptions),
	})
}

// handleCurrentSession returns the latest session
func (s *Server) handleCurrentSession(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.manager.Current()
	if !ok {
		s.failResponse(w, ErrNoSession)
		return
	}
	s.jsonResponse(w, http.StatusOK, newSessionResponse(snap))
}

// handleSessionStream streams transitions of the current session as SSE.
// Only snapshots newer than the last one written are sent, so a superseded
// session never reaches the client. The stream ends with a complete event
// once the latest session reaches a terminal state.
func (s *Server) handleSessionStream(w http.ResponseWriter, r *http.Request) {
	events := make(chan session.Snapshot, streamBuffer)
	unsubscribe := s.manager.Subscribe(func(snap session.Snapshot) {
		select {
		case events <- snap:
		default:
			log.Printf("[server] stream client lagging, dropped %s transition", snap.State)
		}
	})
	defer unsubscribe()

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	stream := &snapshotStream{sse: sse}
	if snap, ok := s.manager.Current(); ok {
		if stream.send(snap) {
			return
		}
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case snap := <-events:
			if current, ok := s.manager.Current(); ok && current.Seq != snap.Seq {
				continue
			}
			if stream.send(snap) {
				return
			}
		}
	}
}

// snapshotStream writes snapshots in order, skipping repeats and older sessions
type snapshotStream struct {
	sse  *SSEWriter
	last *session.Snapshot
}

// send writes snap and reports whether the stream is finished
func (st *snapshotStream) send(snap session.Snapshot) bool {
	if st.last != nil && !snap.Newer(*st.last) {
		return false
	}
	st.last = &snap
	if err := st.sse.WriteState(snap); err != nil {
		return true
	}
	if snap.State.Terminal() {
		st.sse.WriteComplete(snap)
		return true
	}
	return false
}

// handleDownload streams the generated PDF. Missing ids come from the current session.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if snap, ok := s.manager.Current(); ok {
		if req.ResumeID == "" {
			req.ResumeID = snap.ResumeID
		}
		if req.JobID == "" {
			req.JobID = snap.JobID
		}
		if req.Locale == "" {
			req.Locale = string(snap.Locale)
		}
	}
	if req.Locale == "" {
		req.Locale = string(s.resolver.Current())
	}
	if err := s.validateRequest(req); err != nil {
		s.failResponse(w, err)
		return
	}

	saved, err := s.downloader.WithSink(artifact.ResponseSink{W: w}).
		Download(r.Context(), req.ResumeID, req.JobID, i18n.Locale(req.Locale))
	if err != nil {
		var artifactErr *artifact.Error
		if errors.As(err, &artifactErr) && artifactErr.Stage == artifact.StageSave {
			// headers are already on the wire
			log.Printf("[server] download interrupted: %v", err)
			return
		}
		s.failResponse(w, err)
		return
	}
	log.Printf("[server] streamed %s (%d bytes)", saved.Filename, saved.Size)
}

// handleTranslate resolves one or more keys
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	keys := query["key"]
	if len(keys) == 0 {
		s.failResponse(w, &ErrValidation{Field: "key", Message: "at least one key is required"})
		return
	}

	locale := s.resolver.Current()
	if raw := query.Get("locale"); raw != "" {
		l, ok := i18n.ParseLocale(raw)
		if !ok {
			s.failResponse(w, &ErrValidation{Field: "locale", Message: "unsupported locale " + raw})
			return
		}
		locale = l
	}

	translations := make(map[string]string, len(keys))
	for _, key := range keys {
		translations[key] = s.resolver.Resolve(locale, key)
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"locale":       locale,
		"translations": translations,
	})
}

// handleGetLocale returns the current locale selection
func (s *Server) handleGetLocale(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"locale":    s.resolver.Current(),
		"available": i18n.Locales(),
	})
}

// handleSetLocale changes the current locale
func (s *Server) handleSetLocale(w http.ResponseWriter, r *http.Request) {
	var req setLocaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validateRequest(req); err != nil {
		s.failResponse(w, err)
		return
	}

	persisted := true
	if err := s.resolver.SetLocale(r.Context(), i18n.Locale(req.Locale)); err != nil {
		persisted = false
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"locale":    s.resolver.Current(),
		"persisted": persisted,
	})
}

// validateRequest runs struct validation and reports the first failing field
func (s *Server) validateRequest(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ErrValidation{Field: fe.Field(), Message: "failed " + fe.Tag() + " validation"}
	}
	return &ErrValidation{Field: "request", Message: err.Error()}
}

func newSessionResponse(snap session.Snapshot) sessionResponse {
	resp := sessionResponse{Snapshot: snap, Loading: snap.State.Loading()}
	if snap.State == session.Ready {
		resp.Report = report.Build(snap.Result, snap.View)
		if resp.Report != nil && resp.Report.ResumeID == "" {
			resp.Report.ResumeID = snap.ResumeID
			resp.Report.JobID = snap.JobID
		}
	}
	return resp
}
