package artifact

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
)

// Sink delivers a downloaded file. body is positioned at the start and holds size bytes.
type Sink interface {
	Save(ctx context.Context, filename string, body io.Reader, size int64) (location string, err error)
}

// DirSink saves files into a local directory
type DirSink struct {
	Dir string
}

// Save writes the file into the directory, replacing any file of the same name
func (s DirSink) Save(_ context.Context, filename string, body io.Reader, _ int64) (string, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	dest := filepath.Join(dir, filename)
	tmp, err := os.CreateTemp(dir, "."+filename+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}
	return dest, nil
}

// ResponseSink streams the file to an HTTP client as an attachment
type ResponseSink struct {
	W http.ResponseWriter
}

// Save writes headers and the body to the response
func (s ResponseSink) Save(_ context.Context, filename string, body io.Reader, size int64) (string, error) {
	h := s.W.Header()
	h.Set("Content-Type", "application/pdf")
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if size >= 0 {
		h.Set("Content-Length", strconv.FormatInt(size, 10))
	}
	s.W.WriteHeader(http.StatusOK)

	if _, err := io.Copy(s.W, body); err != nil {
		return "", fmt.Errorf("failed to stream file: %w", err)
	}
	return "response:" + filename, nil
}
