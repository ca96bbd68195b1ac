package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText_PreserveMarkdownHeadings(t *testing.T) {
	input := "# Title\n## Subtitle\nContent here"
	result := CleanText(input)

	assert.Contains(t, result, "# Title")
	assert.Contains(t, result, "## Subtitle")
	assert.Contains(t, result, "Content here")
}

func TestCleanText_PreserveBulletLists(t *testing.T) {
	input := "- Item 1\n- Item 2\n* Item 3"
	result := CleanText(input)

	assert.Contains(t, result, "- Item 1")
	assert.Contains(t, result, "- Item 2")
	assert.Contains(t, result, "* Item 3")
}

func TestCleanText_NormalizeWhitespace(t *testing.T) {
	input := "Line    with    multiple    spaces"
	result := CleanText(input)

	assert.Contains(t, result, "Line with multiple spaces")
	assert.NotContains(t, result, "    ") // Should not have 4 spaces
}

func TestCleanText_RemoveExcessiveBlankLines(t *testing.T) {
	input := "Line 1\n\n\n\n\nLine 2"
	result := CleanText(input)

	// Should have max 2 consecutive newlines
	assert.NotContains(t, result, "\n\n\n\n")
	// But should preserve up to 2
	assert.Contains(t, result, "\n\n")
}

func TestCleanText_NormalizeLineEndings(t *testing.T) {
	input := "Line 1\r\nLine 2\rLine 3\nLine 4"
	result := CleanText(input)

	// All should be normalized to LF
	assert.NotContains(t, result, "\r\n")
	assert.NotContains(t, result, "\r")
	assert.Contains(t, result, "\n")
}

func TestCleanText_DeterministicOutput(t *testing.T) {
	input := "Test content   with   spaces\n\n\nMultiple   blank   lines"
	result1 := CleanText(input)
	result2 := CleanText(input)

	// Same input should produce identical output
	assert.Equal(t, result1, result2)
}

func TestCleanText_EmptyInput(t *testing.T) {
	result := CleanText("")
	assert.Empty(t, result)
}

func TestCleanText_OnlyWhitespace(t *testing.T) {
	result := CleanText("   \n  \n  ")
	assert.Empty(t, result)
}

func TestCleanText_SpecialCharacters(t *testing.T) {
	input := "Test with émojis 🚀 and spéciàl chàracters"
	result := CleanText(input)

	assert.Contains(t, result, "émojis")
	assert.Contains(t, result, "🚀")
	assert.Contains(t, result, "spéciàl chàracters")
}

func TestCleanText_PreserveIndentation(t *testing.T) {
	input := "    Indented line\n  Less indented"
	result := CleanText(input)

	// Should preserve relative indentation
	assert.Contains(t, result, "Indented")
	assert.Contains(t, result, "Less indented")
}

func TestCleanText_CollapsesBlankLines(t *testing.T) {
	assert.Equal(t, "A\n\nB", CleanText("A\n\n\n\n\nB"))
}

func TestFromText(t *testing.T) {
	desc := FromText("  Senior   Go engineer\r\n\r\n- Kubernetes  ")
	assert.Equal(t, "Senior Go engineer\n\n- Kubernetes", desc.Text)
	assert.Equal(t, SourceText, desc.Source)
	assert.Len(t, desc.Hash, 64)
	assert.NotEmpty(t, desc.Timestamp)
}

func TestFromFile_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.txt")
	require.NoError(t, os.WriteFile(path, []byte("# Job Title\n\nDescription here"), 0o644))

	desc, err := FromFile(path)
	require.NoError(t, err)
	assert.Contains(t, desc.Text, "# Job Title")
	assert.Equal(t, SourceFile, desc.Source)
	assert.Equal(t, path, desc.Origin)
}

func TestFromFile_HTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.html")
	html := `<html><head><title>Platform Engineer</title></head><body>
		<nav>Jobs Home</nav>
		<div class="job-description"><h2>About the role</h2><p>Build Go services.</p></div>
		<form>Apply</form>
	</body></html>`
	require.NoError(t, os.WriteFile(path, []byte(html), 0o644))

	desc, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "About the role\nBuild Go services.", desc.Text)
	assert.Equal(t, "Platform Engineer", desc.Title)
	assert.Empty(t, desc.Platform)
}

func TestFromFile_NotFound(t *testing.T) {
	_, err := FromFile("/nonexistent/file.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestDescription_HashDependsOnText(t *testing.T) {
	a, b := FromText("Content 1"), FromText("Content 2")
	assert.NotEqual(t, a.Hash, b.Hash)
	assert.Equal(t, a.Hash, FromText("Content 1").Hash)
}
