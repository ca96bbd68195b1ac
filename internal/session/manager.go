package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-matcher/internal/api"
	"github.com/jonathan/resume-matcher/internal/i18n"
	"github.com/jonathan/resume-matcher/internal/preview"
	"github.com/jonathan/resume-matcher/internal/types"
)

// ErrSuperseded is returned by Start when a newer session began before this one finished
var ErrSuperseded = errors.New("session superseded by a newer session")

// maxLoggedBody bounds how much of a failed response body is logged
const maxLoggedBody = 2048

// APIClient is the subset of the analysis service used by a session
type APIClient interface {
	UploadResume(ctx context.Context, upload api.Upload) (string, error)
	SubmitJobs(ctx context.Context, descriptions []string, resumeID string) (string, error)
	Improve(ctx context.Context, resumeID, jobID, language string) (*types.RawAnalysisResult, error)
}

// Input is what the user provides to start an analysis
type Input struct {
	Resume          api.Upload
	JobDescriptions []string
	Locale          i18n.Locale
}

// ErrorDescriptor describes why a session failed.
// Kind is the failed step; Cause is the transport classification, empty for
// a plain HTTP status failure.
type ErrorDescriptor struct {
	Kind       api.ErrorKind `json:"kind"`
	Cause      api.ErrorKind `json:"cause,omitempty"`
	StatusCode int           `json:"status_code,omitempty"`
	Body       string        `json:"body,omitempty"`
	Message    string        `json:"message"`

	err error
}

func (d *ErrorDescriptor) Error() string {
	if d.err != nil {
		return fmt.Sprintf("%s: %v", d.Kind, d.err)
	}
	return string(d.Kind) + ": " + d.Message
}

func (d *ErrorDescriptor) Unwrap() error {
	return d.err
}

// Snapshot is the observable state of one session
type Snapshot struct {
	ID        uuid.UUID                `json:"id"`
	Seq       uint64                   `json:"seq"`
	State     State                    `json:"state"`
	Locale    i18n.Locale              `json:"locale"`
	ResumeID  string                   `json:"resume_id,omitempty"`
	JobID     string                   `json:"job_id,omitempty"`
	Result    *types.RawAnalysisResult `json:"result,omitempty"`
	View      *types.ResumeView        `json:"view,omitempty"`
	Err       *ErrorDescriptor         `json:"error,omitempty"`
	StartedAt time.Time                `json:"started_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// Newer reports whether s is a later observation than prev: a newer session,
// or a later state of the same session.
func (s Snapshot) Newer(prev Snapshot) bool {
	if s.Seq != prev.Seq {
		return s.Seq > prev.Seq
	}
	return s.State > prev.State
}

// Observer receives a snapshot after every transition of the current session.
// Observers run synchronously on the session goroutine and must not call Start.
type Observer func(Snapshot)

// Options configures a Manager
type Options struct {
	// StepTimeout bounds each network step. Zero leaves only the HTTP client timeout.
	StepTimeout time.Duration
	// CancelSuperseded cancels the previous session's requests when a new session starts.
	CancelSuperseded bool
}

// Manager starts sessions and tracks the latest one
type Manager struct {
	client   APIClient
	resolver *i18n.Resolver
	opts     Options

	seq atomic.Uint64

	mu        sync.Mutex
	latest    uint64
	current   *Snapshot
	cancel    context.CancelFunc
	observers map[int]Observer
	nextObs   int

	// notifyMu serialises the current-check and observer delivery
	notifyMu sync.Mutex
}

// NewManager creates a manager. resolver localizes failure messages.
func NewManager(client APIClient, resolver *i18n.Resolver, opts Options) *Manager {
	if resolver == nil {
		resolver = i18n.NewResolver(context.Background(), i18n.MustLoadTable(), nil)
	}
	return &Manager{
		client:    client,
		resolver:  resolver,
		opts:      opts,
		observers: make(map[int]Observer),
	}
}

// Subscribe registers fn and returns a function that removes it
func (m *Manager) Subscribe(fn Observer) func() {
	m.mu.Lock()
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.observers, id)
			m.mu.Unlock()
		})
	}
}

// Current returns the latest session's snapshot
func (m *Manager) Current() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Snapshot{}, false
	}
	return *m.current, true
}

// Start runs a new session to completion and makes it current.
// The returned snapshot is the session's final state. A failed session returns
// its *ErrorDescriptor as the error; a session overtaken by a newer Start
// returns ErrSuperseded and its outcome is not published.
func (m *Manager) Start(ctx context.Context, in Input) (*Snapshot, error) {
	_, exec := m.Begin(in)
	return exec(ctx)
}

// Begin registers a new session and makes it current, publishing its Idle
// snapshot before returning. The returned function runs the workflow and must
// be called exactly once; its results are those of Start.
func (m *Manager) Begin(in Input) (Snapshot, func(ctx context.Context) (*Snapshot, error)) {
	locale, ok := i18n.ParseLocale(string(in.Locale))
	if !ok {
		locale = m.resolver.Current()
	}

	now := time.Now()
	r := &run{
		m: m,
		snap: Snapshot{
			ID:        uuid.New(),
			Seq:       m.seq.Add(1),
			State:     Idle,
			Locale:    locale,
			StartedAt: now,
			UpdatedAt: now,
		},
	}

	m.mu.Lock()
	if r.snap.Seq > m.latest {
		if m.opts.CancelSuperseded && m.cancel != nil {
			m.cancel()
		}
		m.latest = r.snap.Seq
		m.cancel = nil
	}
	m.mu.Unlock()

	log.Printf("[session] %s started (seq %d, locale %s)", r.snap.ID, r.snap.Seq, locale)
	r.publish()
	idle := r.snap

	exec := func(ctx context.Context) (*Snapshot, error) {
		sessCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		m.mu.Lock()
		latest := m.latest == r.snap.Seq
		if latest {
			m.cancel = cancel
		}
		m.mu.Unlock()
		if !latest {
			log.Printf("[session] %s superseded before it ran", r.snap.ID)
			final := r.snap
			return &final, ErrSuperseded
		}

		err := r.execute(sessCtx, in)

		if !m.isLatest(r.snap.Seq) {
			log.Printf("[session] %s superseded, discarding %s outcome", r.snap.ID, r.snap.State)
			final := r.snap
			return &final, ErrSuperseded
		}

		final := r.snap
		if err != nil {
			return &final, err
		}
		return &final, nil
	}
	return idle, exec
}

func (m *Manager) isLatest(seq uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest == seq
}

// run is one session's private state. Only its own goroutine touches snap.
type run struct {
	m    *Manager
	snap Snapshot
}

func (r *run) execute(ctx context.Context, in Input) error {
	r.transition(Uploading)
	resumeID, err := step(ctx, r.m.opts.StepTimeout, func(ctx context.Context) (string, error) {
		return r.m.client.UploadResume(ctx, in.Resume)
	})
	if err != nil {
		return r.fail(api.KindUpload, err)
	}
	r.snap.ResumeID = resumeID

	r.transition(SubmittingJob)
	jobID, err := step(ctx, r.m.opts.StepTimeout, func(ctx context.Context) (string, error) {
		return r.m.client.SubmitJobs(ctx, in.JobDescriptions, resumeID)
	})
	if err != nil {
		return r.fail(api.KindJobSubmit, err)
	}
	r.snap.JobID = jobID

	r.transition(Improving)
	result, err := step(ctx, r.m.opts.StepTimeout, func(ctx context.Context) (*types.RawAnalysisResult, error) {
		return r.m.client.Improve(ctx, resumeID, jobID, string(r.snap.Locale))
	})
	if err != nil {
		return r.fail(api.KindImprove, err)
	}
	if result == nil {
		return r.fail(api.KindImprove, &api.Error{Op: api.OpImprove, Kind: api.KindParse, Message: "empty result"})
	}

	r.snap.Result = result
	r.snap.View = preview.Normalize(result.ResumePreview)
	r.transition(Ready)
	log.Printf("[session] %s ready (resume %s, job %s)", r.snap.ID, resumeID, jobID)
	return nil
}

// step runs fn under its own timeout when one is configured
func step[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err := fn(stepCtx)
	if err != nil && errors.Is(stepCtx.Err(), context.DeadlineExceeded) && api.KindOf(err) != api.KindTimeout {
		err = &api.Error{Kind: api.KindTimeout, Message: "step timed out", Cause: err}
	}
	return v, err
}

func (r *run) fail(kind api.ErrorKind, err error) error {
	desc := &ErrorDescriptor{Kind: kind, err: err}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		desc.StatusCode = apiErr.StatusCode
		desc.Body = apiErr.Body
		if apiErr.Kind != kind && apiErr.Kind != "" {
			desc.Cause = apiErr.Kind
		}
	} else if errors.Is(err, context.DeadlineExceeded) {
		desc.Cause = api.KindTimeout
	} else {
		desc.Cause = api.KindNetwork
	}
	desc.Message = r.m.resolver.Resolve(r.snap.Locale, messageKey(desc))

	log.Printf("[session] %s failed during %s: kind=%s cause=%s status=%d body=%q err=%v",
		r.snap.ID, r.snap.State, desc.Kind, desc.Cause, desc.StatusCode, truncate(desc.Body, maxLoggedBody), err)

	r.snap.Err = desc
	r.transition(Failed)
	return desc
}

func messageKey(desc *ErrorDescriptor) string {
	if desc.Cause == api.KindTimeout {
		return "error.timeout"
	}
	switch desc.Kind {
	case api.KindUpload:
		return "error.upload"
	case api.KindJobSubmit:
		return "error.jobSubmit"
	default:
		return "error.improve"
	}
}

func (r *run) transition(state State) {
	r.snap.State = state
	r.snap.UpdatedAt = time.Now()
	r.publish()
}

// publish makes the snapshot current and notifies observers, unless a newer
// session has started
func (r *run) publish() {
	r.m.notifyMu.Lock()
	defer r.m.notifyMu.Unlock()

	r.m.mu.Lock()
	if r.m.latest != r.snap.Seq {
		r.m.mu.Unlock()
		return
	}
	snap := r.snap
	r.m.current = &snap
	observers := make([]Observer, 0, len(r.m.observers))
	for _, fn := range r.m.observers {
		observers = append(observers, fn)
	}
	r.m.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
