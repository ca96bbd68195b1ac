package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-matcher/internal/api"
	"github.com/jonathan/resume-matcher/internal/artifact"
	"github.com/jonathan/resume-matcher/internal/i18n"
	"github.com/jonathan/resume-matcher/internal/ingestion"
	"github.com/jonathan/resume-matcher/internal/report"
	"github.com/jonathan/resume-matcher/internal/session"
	"github.com/jonathan/resume-matcher/internal/types"
)

func newTestPrinter(buf *bytes.Buffer, locale i18n.Locale) *Printer {
	resolver := i18n.NewResolver(context.Background(), i18n.MustLoadTable(), nil)
	return NewPrinter(buf, resolver, locale)
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(&buf, i18n.LocaleEN)

	p.PrintReport(report.Build(&types.RawAnalysisResult{
		OriginalScore: 0.65,
		NewScore:      0.85,
		Details:       "Strong Go background",
		Improvements:  []types.Improvement{{Suggestion: "Quantify impact", LineNumber: "3"}},
	}, nil))
	output := buf.String()

	assert.Contains(t, output, "RESUME ANALYSIS")
	assert.Contains(t, output, "Overall Score: 85% (Strong match)")
	assert.Contains(t, output, "Original: 65%")
	assert.Contains(t, output, "Strong Go background")
	assert.Contains(t, output, "• Quantify impact (#3)")
}

func TestPrintReport_NoSuggestionsLocalized(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(&buf, i18n.LocalePT)

	p.PrintReport(report.Build(&types.RawAnalysisResult{NewScore: 0.5}, nil))
	output := buf.String()

	assert.Contains(t, output, "50%")
	assert.Contains(t, output, "Baixa compatibilidade")
	assert.NotContains(t, output, "analysis.noSuggestions")
}

func TestPrintReport_Nil(t *testing.T) {
	var buf bytes.Buffer
	newTestPrinter(&buf, i18n.LocaleEN).PrintReport(nil)
	assert.Empty(t, buf.String())
}

func TestPrintResume(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(&buf, i18n.LocaleEN)

	p.PrintResume(&types.ResumeView{
		PersonalInfo: types.PersonalInfo{Name: "Ana Souza", Title: "Backend Engineer", Email: "ana@example.com"},
		Summary:      "Builds reliable services.",
		Experience: []types.ExperienceEntry{
			{ID: 1, Title: "Engineer", Company: "Acme", Years: "2020 - 2024", Description: []string{"Shipped billing"}},
		},
		Education: []types.EducationEntry{{ID: 1, Institution: "USP", Degree: "BSc Computer Science"}},
		Skills:    []string{"Go", "PostgreSQL"},
	})
	output := buf.String()

	assert.Contains(t, output, "Ana Souza")
	assert.Contains(t, output, "ana@example.com")
	assert.Contains(t, output, "1. Engineer @ Acme")
	assert.Contains(t, output, "- Shipped billing")
	assert.Contains(t, output, "BSc Computer Science, USP")
	assert.Contains(t, output, "Go, PostgreSQL")
}

func TestPrintResume_Nil(t *testing.T) {
	var buf bytes.Buffer
	newTestPrinter(&buf, i18n.LocaleEN).PrintResume(nil)
	assert.Empty(t, buf.String())
}

func TestPrintBox_LinesFitWidth(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(&buf, i18n.LocaleEN)

	p.printBox("TITLE", strings.Repeat("é", 200))
	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
}

func TestPrintProgress(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(&buf, i18n.LocaleES)

	p.PrintProgress(session.Snapshot{State: session.Uploading})
	p.PrintProgress(session.Snapshot{State: session.Failed, Err: &session.ErrorDescriptor{Kind: api.KindUpload, Message: "boom"}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "[uploading] "))
	assert.NotContains(t, lines[0], "session.uploading")
	assert.True(t, strings.HasSuffix(lines[1], ": boom"))
}

func TestPrintDescriptions(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(&buf, i18n.LocaleEN)

	desc := ingestion.FromText("Senior Go engineer")
	p.PrintDescriptions([]*ingestion.Description{desc})
	output := buf.String()

	assert.Contains(t, output, "JOB ANALYZER")
	assert.Contains(t, output, "#1  text")
	assert.Contains(t, output, "18 chars")
	assert.Contains(t, output, desc.Hash[:12])
}

func TestPrintSaved(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(&buf, i18n.LocalePT)

	p.PrintSaved([]*artifact.Saved{{Filename: "cv.pdf", Location: "/tmp/cv.pdf"}})
	assert.Equal(t, "cv.pdf salvo em /tmp/cv.pdf\n", buf.String())
}

func TestWrap(t *testing.T) {
	assert.Equal(t, "  one two\n  three\n", wrap("one two three", 8, "  "))
	assert.Equal(t, "", wrap("   ", 8, "  "))
}
