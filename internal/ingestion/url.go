package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jonathan/resume-matcher/internal/fetch"
)

var (
	// ErrHTTPRequestFailed is returned when a job page cannot be fetched
	ErrHTTPRequestFailed = errors.New("HTTP request failed")
	// ErrContentExtractionFailed is returned when no text can be extracted from a job page
	ErrContentExtractionFailed = errors.New("content extraction failed")
)

// renderPage is swapped in tests to avoid launching Chrome
var renderPage = fetch.Render

// FromURL fetches a job posting and extracts its description using
// platform-specific selectors. With opts.UseBrowser, pages that yield too
// little text are re-rendered in a headless browser; a failed render keeps
// the plain HTTP text.
func FromURL(ctx context.Context, rawURL string, opts Options) (*Description, error) {
	platform := fetch.DetectPlatform(rawURL)

	page, err := fetch.URL(ctx, rawURL, opts.Fetch)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}

	content := fetch.PlatformContentSelectors(platform)
	noise := fetch.PlatformNoiseSelectors(platform)

	var text string
	if page.IsPlainText() {
		text = page.HTML
	} else {
		text, err = fetch.ExtractMainText(page.HTML, content, noise...)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
		}
	}
	if opts.Verbose {
		log.Printf("[ingestion] %s (%s): fetched %d bytes, extracted %d chars", rawURL, platform, len(page.HTML), len(text))
	}

	html := page.HTML
	if opts.UseBrowser && fetch.NeedsBrowser(text) {
		rendered, renderErr := renderPage(ctx, rawURL, 0)
		if renderErr != nil {
			log.Printf("[ingestion] browser render failed for %s, using HTTP content: %v", rawURL, renderErr)
		} else if renderedText, extractErr := fetch.ExtractMainText(rendered, content, noise...); extractErr == nil {
			text, html = renderedText, rendered
		}
	}

	desc := NewDescription(CleanText(text), SourceURL, rawURL)
	desc.Platform = string(platform)
	desc.Title = fetch.Title(html)
	return desc, nil
}
