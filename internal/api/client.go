// Package api is the HTTP client for the remote resume analysis service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/jonathan/resume-matcher/internal/schemas"
	"github.com/jonathan/resume-matcher/internal/types"
)

// Operation names a remote call
type Operation string

// Remote operations
const (
	OpUpload     Operation = "upload-resume"
	OpSubmitJobs Operation = "upload-job"
	OpImprove    Operation = "improve-resume"
	OpDownload   Operation = "download-pdf"
	OpHealth     Operation = "health"
)

// Kind returns the error kind reported when the operation gets a non-2xx response
func (o Operation) Kind() ErrorKind {
	switch o {
	case OpUpload:
		return KindUpload
	case OpSubmitJobs:
		return KindJobSubmit
	case OpImprove:
		return KindImprove
	case OpDownload:
		return KindDownload
	default:
		return KindHealth
	}
}

// Service paths
const (
	PathUpload      = "/api/upload-resume"
	PathSubmitJobs  = "/api/upload-job"
	PathImprove     = "/api/improve-resume"
	PathDownloadPDF = "/api/v1/resumes/download-pdf"
	PathHealth      = "/api/backend/health"
)

// RequestIDHeader carries a per-request correlation id
const RequestIDHeader = "X-Request-ID"

// DefaultTimeout is the HTTP client timeout used when Options.Timeout is zero
const DefaultTimeout = 60 * time.Second

const (
	defaultUserAgent = "resume-matcher/1.0"
	maxResponseBody  = 32 << 20
	uploadFieldName  = "file"
)

// Options configures a Client
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Signer     *TokenSigner
	UserAgent  string
}

// Client calls the analysis service
type Client struct {
	baseURL   string
	http      *http.Client
	signer    *TokenSigner
	userAgent string
}

// New creates a client for the service at opts.BaseURL
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", base)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", base)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		baseURL:   base,
		http:      httpClient,
		signer:    opts.Signer,
		userAgent: userAgent,
	}, nil
}

// BaseURL returns the service root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Upload is a résumé file ready to be sent
type Upload struct {
	Filename string
	Data     []byte
}

// LoadUpload reads a résumé file from disk
func LoadUpload(path string) (Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Upload{}, fmt.Errorf("failed to read resume file: %w", err)
	}
	return Upload{Filename: filepath.Base(path), Data: data}, nil
}

// ContentType sniffs the MIME type of the upload
func (u Upload) ContentType() string {
	return mimetype.Detect(u.Data).String()
}

// UploadResume sends the résumé as multipart form data and returns its resume_id
func (c *Client) UploadResume(ctx context.Context, upload Upload) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="%s"`, uploadFieldName, escapeQuotes(upload.Filename)))
	header.Set("Content-Type", upload.ContentType())
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", &Error{Op: OpUpload, Kind: KindUpload, Message: "failed to build form", Cause: err}
	}
	if _, err := part.Write(upload.Data); err != nil {
		return "", &Error{Op: OpUpload, Kind: KindUpload, Message: "failed to build form", Cause: err}
	}
	if err := mw.Close(); err != nil {
		return "", &Error{Op: OpUpload, Kind: KindUpload, Message: "failed to build form", Cause: err}
	}

	status, body, err := c.call(ctx, OpUpload, http.MethodPost, PathUpload, mw.FormDataContentType(), &buf)
	if err != nil {
		return "", err
	}

	var resp struct {
		ResumeID string `json:"resume_id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", parseError(OpUpload, status, body, "invalid upload response", err)
	}
	if resp.ResumeID == "" {
		return "", parseError(OpUpload, status, body, "upload response has no resume_id", nil)
	}
	return resp.ResumeID, nil
}

// SubmitJobs sends the job descriptions for a résumé and returns the first job id
func (c *Client) SubmitJobs(ctx context.Context, descriptions []string, resumeID string) (string, error) {
	if descriptions == nil {
		descriptions = []string{}
	}
	payload := map[string]any{
		"job_descriptions": descriptions,
		"resume_id":        resumeID,
	}

	status, body, err := c.callJSON(ctx, OpSubmitJobs, http.MethodPost, PathSubmitJobs, payload)
	if err != nil {
		return "", err
	}

	var resp struct {
		JobID json.RawMessage `json:"job_id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", parseError(OpSubmitJobs, status, body, "invalid job response", err)
	}
	ids, err := jobIDs(resp.JobID)
	if err != nil {
		return "", parseError(OpSubmitJobs, status, body, "invalid job_id", err)
	}
	if len(ids) == 0 || ids[0] == "" {
		return "", parseError(OpSubmitJobs, status, body, "job response has no job_id", nil)
	}
	return ids[0], nil
}

// Improve requests the analysis for a résumé and job in the given language
func (c *Client) Improve(ctx context.Context, resumeID, jobID, language string) (*types.RawAnalysisResult, error) {
	status, body, err := c.callJSON(ctx, OpImprove, http.MethodPost, PathImprove, analysisRequest(resumeID, jobID, language))
	if err != nil {
		return nil, err
	}

	if err := schemas.ValidateImproveResponse(body); err != nil {
		return nil, parseError(OpImprove, status, body, "improve response failed validation", err)
	}

	var resp types.ImproveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, parseError(OpImprove, status, body, "invalid improve response", err)
	}
	return &resp.Data, nil
}

// Download is an open PDF response. The caller must close Body.
type Download struct {
	Body               io.ReadCloser
	ContentDisposition string
	ContentType        string
	ContentLength      int64
}

// DownloadPDF requests the generated PDF. On success the response body is returned unread.
func (c *Client) DownloadPDF(ctx context.Context, resumeID, jobID, language string) (*Download, error) {
	encoded, err := json.Marshal(analysisRequest(resumeID, jobID, language))
	if err != nil {
		return nil, &Error{Op: OpDownload, Kind: KindDownload, Message: "failed to encode request", Cause: err}
	}

	resp, err := c.do(ctx, OpDownload, http.MethodPost, PathDownloadPDF, "application/json", bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		if readErr != nil {
			return nil, transportError(OpDownload, readErr)
		}
		return nil, statusError(OpDownload, resp.StatusCode, body)
	}

	return &Download{
		Body:               resp.Body,
		ContentDisposition: resp.Header.Get("Content-Disposition"),
		ContentType:        resp.Header.Get("Content-Type"),
		ContentLength:      resp.ContentLength,
	}, nil
}

// HealthStatus is the service health payload
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// Health checks that the service is reachable
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	status, body, err := c.call(ctx, OpHealth, http.MethodGet, PathHealth, "", nil)
	if err != nil {
		return nil, err
	}
	var health HealthStatus
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, parseError(OpHealth, status, body, "invalid health response", err)
	}
	return &health, nil
}

func analysisRequest(resumeID, jobID, language string) map[string]string {
	return map[string]string{
		"resume_id": resumeID,
		"job_id":    jobID,
		"language":  language,
	}
}

// callJSON sends payload as JSON and returns the 2xx response body
func (c *Client) callJSON(ctx context.Context, op Operation, method, path string, payload any) (int, []byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, &Error{Op: op, Kind: op.Kind(), Message: "failed to encode request", Cause: err}
	}
	return c.call(ctx, op, method, path, "application/json", bytes.NewReader(encoded))
}

// call performs a request and reads the whole body. Non-2xx responses become status errors.
func (c *Client) call(ctx context.Context, op Operation, method, path, contentType string, body io.Reader) (int, []byte, error) {
	resp, err := c.do(ctx, op, method, path, contentType, body)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return resp.StatusCode, nil, transportError(op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, data, statusError(op, resp.StatusCode, data)
	}
	return resp.StatusCode, data, nil
}

func (c *Client) do(ctx context.Context, op Operation, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindNetwork, Message: "failed to create request", Cause: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, uuid.NewString())

	if c.signer != nil {
		token, err := c.signer.Sign()
		if err != nil {
			return nil, &Error{Op: op, Kind: op.Kind(), Message: "failed to sign request", Cause: err}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(op, err)
	}
	return resp, nil
}

// jobIDs accepts job_id as a list or a single value
func jobIDs(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var list []any
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
	} else {
		var single any
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, err
		}
		list = []any{single}
	}

	ids := make([]string, 0, len(list))
	for _, v := range list {
		switch id := v.(type) {
		case string:
			ids = append(ids, id)
		case float64:
			ids = append(ids, fmt.Sprintf("%.0f", id))
		default:
			return nil, fmt.Errorf("unsupported job id type %T", v)
		}
	}
	return ids, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
