// Package artifact downloads generated résumé PDFs and delivers them to a sink.
package artifact

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-matcher/internal/api"
	"github.com/jonathan/resume-matcher/internal/i18n"
)

// DefaultConcurrency bounds DownloadLocales
const DefaultConcurrency = 3

// PDFClient fetches the generated PDF
type PDFClient interface {
	DownloadPDF(ctx context.Context, resumeID, jobID, language string) (*api.Download, error)
}

// Options configures a Downloader
type Options struct {
	// Verify rejects responses that are not readable PDFs
	Verify bool
	// TempDir holds spooled downloads. Empty means os.TempDir.
	TempDir     string
	Concurrency int
}

// Saved describes a delivered file
type Saved struct {
	Filename string      `json:"filename"`
	Location string      `json:"location"`
	Size     int64       `json:"size"`
	Pages    int         `json:"pages,omitempty"`
	Locale   i18n.Locale `json:"locale"`
}

// Downloader fetches PDFs and hands them to a Sink
type Downloader struct {
	client PDFClient
	sink   Sink
	opts   Options
}

// NewDownloader creates a downloader
func NewDownloader(client PDFClient, sink Sink, opts Options) *Downloader {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Downloader{client: client, sink: sink, opts: opts}
}

// WithSink returns a copy of d that delivers to sink
func (d *Downloader) WithSink(sink Sink) *Downloader {
	cp := *d
	cp.sink = sink
	return &cp
}

// Download fetches the PDF for a résumé and job in locale and delivers it
func (d *Downloader) Download(ctx context.Context, resumeID, jobID string, locale i18n.Locale) (*Saved, error) {
	return d.download(ctx, resumeID, jobID, locale, func(name string) string { return name })
}

// DownloadLocales fetches several language variants concurrently.
// Each file name carries its locale so variants do not overwrite each other.
func (d *Downloader) DownloadLocales(ctx context.Context, resumeID, jobID string, locales []i18n.Locale) ([]*Saved, error) {
	results := make([]*Saved, len(locales))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Concurrency)
	for i, locale := range locales {
		g.Go(func() error {
			saved, err := d.download(gctx, resumeID, jobID, locale, func(name string) string {
				return localizedFilename(name, string(locale))
			})
			if err != nil {
				return fmt.Errorf("locale %s: %w", locale, err)
			}
			results[i] = saved
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (d *Downloader) download(ctx context.Context, resumeID, jobID string, locale i18n.Locale, rename func(string) string) (*Saved, error) {
	dl, err := d.client.DownloadPDF(ctx, resumeID, jobID, string(locale))
	if err != nil {
		log.Printf("[artifact] download failed for resume %s job %s (%s): %v", resumeID, jobID, locale, err)
		return nil, &Error{Stage: StageFetch, Message: "request failed", Cause: err}
	}

	tmp, size, err := d.spool(dl.Body)
	if err != nil {
		return nil, &Error{Stage: StageSpool, Message: "failed to buffer response", Cause: err}
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	saved := &Saved{
		Filename: rename(FilenameFromDisposition(dl.ContentDisposition)),
		Size:     size,
		Locale:   locale,
	}

	if d.opts.Verify {
		pages, err := VerifyPDF(tmp, size)
		if err != nil {
			return nil, &Error{Stage: StageVerify, Message: "response is not a valid PDF", Cause: err}
		}
		saved.Pages = pages
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, &Error{Stage: StageSpool, Message: "failed to rewind buffer", Cause: err}
	}
	location, err := d.sink.Save(ctx, saved.Filename, tmp, size)
	if err != nil {
		return nil, &Error{Stage: StageSave, Message: "failed to deliver file", Cause: err}
	}
	saved.Location = location

	log.Printf("[artifact] saved %s (%d bytes) to %s", saved.Filename, saved.Size, saved.Location)
	return saved, nil
}

// spool copies body into a temporary file and closes body. On error the file is already removed.
func (d *Downloader) spool(body io.ReadCloser) (*os.File, int64, error) {
	defer func() { _ = body.Close() }()

	tmp, err := os.CreateTemp(d.opts.TempDir, "resume-*.pdf")
	if err != nil {
		return nil, 0, err
	}
	size, err := io.Copy(tmp, body)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, 0, err
	}
	return tmp, size, nil
}
