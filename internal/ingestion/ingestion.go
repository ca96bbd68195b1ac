// Package ingestion collects job descriptions from inline text, files, HTML
// documents, and job board URLs.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-matcher/internal/fetch"
)

// MaxJobDescriptions is the most descriptions a single analysis accepts
const MaxJobDescriptions = 3

var (
	// ErrEmptyDescription is returned when a description has no text after trimming
	ErrEmptyDescription = errors.New("job description is empty")
	// ErrTooManyDescriptions is returned when more than MaxJobDescriptions are given
	ErrTooManyDescriptions = fmt.Errorf("at most %d job descriptions are allowed", MaxJobDescriptions)
)

// SourceKind says where a description comes from
type SourceKind string

// Source kinds
const (
	SourceText SourceKind = "text"
	SourceFile SourceKind = "file"
	SourceURL  SourceKind = "url"
)

// Source is one job description input
type Source struct {
	Kind  SourceKind
	Value string
}

// TextSource is inline description text
func TextSource(text string) Source { return Source{Kind: SourceText, Value: text} }

// FileSource is a text or HTML file on disk
func FileSource(path string) Source { return Source{Kind: SourceFile, Value: path} }

// URLSource is a job posting page
func URLSource(url string) Source { return Source{Kind: SourceURL, Value: url} }

// Options configures intake
type Options struct {
	// UseBrowser renders URLs in headless Chrome when plain fetching yields too little text
	UseBrowser bool
	Fetch      *fetch.Options
	Verbose    bool
}

// Collect ingests every source concurrently and validates the result.
// Descriptions are returned in source order.
func Collect(ctx context.Context, sources []Source, opts Options) ([]*Description, error) {
	if len(sources) == 0 {
		return nil, ErrEmptyDescription
	}
	if len(sources) > MaxJobDescriptions {
		return nil, ErrTooManyDescriptions
	}

	descs := make([]*Description, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			desc, err := Ingest(gctx, src, opts)
			if err != nil {
				return fmt.Errorf("job description %d (%s): %w", i+1, src.Kind, err)
			}
			if desc.Text == "" {
				return fmt.Errorf("job description %d (%s): %w", i+1, src.Kind, ErrEmptyDescription)
			}
			descs[i] = desc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return descs, nil
}

// Ingest reads a single source
func Ingest(ctx context.Context, src Source, opts Options) (*Description, error) {
	switch src.Kind {
	case SourceText:
		return FromText(src.Value), nil
	case SourceFile:
		return FromFile(src.Value)
	case SourceURL:
		return FromURL(ctx, src.Value, opts)
	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

// Validate trims descriptions and enforces the non-empty and count limits
func Validate(descriptions []string) ([]string, error) {
	if len(descriptions) > MaxJobDescriptions {
		return nil, ErrTooManyDescriptions
	}
	if len(descriptions) == 0 {
		return nil, ErrEmptyDescription
	}
	out := make([]string, len(descriptions))
	for i, d := range descriptions {
		out[i] = strings.TrimSpace(d)
		if out[i] == "" {
			return nil, fmt.Errorf("job description %d: %w", i+1, ErrEmptyDescription)
		}
	}
	return out, nil
}

// Texts returns the description texts in order
func Texts(descs []*Description) []string {
	texts := make([]string, len(descs))
	for i, d := range descs {
		texts[i] = d.Text
	}
	return texts
}
