package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jonathan/resume-matcher/internal/fetch"
)

var (
	spaceRun      = regexp.MustCompile(`\s+`)
	blankLinesRun = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes line endings and spacing while keeping headings,
// bullets, and indentation. At most one blank line separates paragraphs.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := blankLinesRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}

	// headings lose their indentation
	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}

	indent := strings.Repeat(" ", len(line)-len(trimmed))
	if isBulletLine(trimmed) {
		return indent + trimmed
	}
	return indent + spaceRun.ReplaceAllString(trimmed, " ")
}

func isBulletLine(line string) bool {
	for _, prefix := range []string{"- ", "* ", "• ", "· "} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// FromText cleans inline description text
func FromText(text string) *Description {
	return NewDescription(CleanText(text), SourceText, "")
}

// FromHTML extracts the posting text from an HTML document
func FromHTML(html, origin string) (*Description, error) {
	platform := fetch.DetectPlatform(origin)
	text, err := fetch.ExtractMainText(html, fetch.PlatformContentSelectors(platform), fetch.PlatformNoiseSelectors(platform)...)
	if err != nil {
		return nil, fmt.Errorf("content extraction failed: %w", err)
	}

	desc := NewDescription(CleanText(text), SourceFile, origin)
	desc.Title = fetch.Title(html)
	if platform != fetch.PlatformUnknown {
		desc.Platform = string(platform)
	}
	return desc, nil
}

// FromFile reads a description file. .html and .htm files are reduced to their main text.
func FromFile(path string) (*Description, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return FromHTML(string(content), path)
	default:
		return NewDescription(CleanText(string(content)), SourceFile, path), nil
	}
}
