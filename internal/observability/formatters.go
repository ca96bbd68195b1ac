// Package observability provides formatted terminal output for the CLI.
package observability

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-matcher/internal/artifact"
	"github.com/jonathan/resume-matcher/internal/i18n"
	"github.com/jonathan/resume-matcher/internal/ingestion"
	"github.com/jonathan/resume-matcher/internal/report"
	"github.com/jonathan/resume-matcher/internal/session"
	"github.com/jonathan/resume-matcher/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer writes localized, boxed summaries
type Printer struct {
	out      io.Writer
	resolver *i18n.Resolver
	locale   i18n.Locale
}

// NewPrinter creates a Printer that writes to out in locale
func NewPrinter(out io.Writer, resolver *i18n.Resolver, locale i18n.Locale) *Printer {
	if resolver == nil {
		resolver = i18n.NewResolver(context.Background(), i18n.MustLoadTable(), nil)
	}
	if _, ok := i18n.ParseLocale(string(locale)); !ok {
		locale = resolver.Current()
	}
	return &Printer{out: out, resolver: resolver, locale: locale}
}

func (p *Printer) t(key string) string {
	return p.resolver.Resolve(p.locale, key)
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(report.Truncate(line, boxWidth-4), boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad right-pads s with spaces to width runes
func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// PrintReport outputs scores and the analysis summary.
func (p *Printer) PrintReport(r *report.Report) {
	if r == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %d%% (%s)\n", p.t("analysis.overallScore"), r.Score, p.t("report.band."+string(r.Band))))
	if r.ShowOriginal {
		sb.WriteString(fmt.Sprintf("%s: %d%%  →  %s: %d%%\n", p.t("analysis.original"), r.OriginalScore, p.t("analysis.optimized"), r.Score))
	}
	if r.DetailsShort != "" {
		sb.WriteString("\n" + p.t("analysis.details") + ":\n")
		sb.WriteString(wrap(r.DetailsShort, boxWidth-6, "  "))
	}
	if r.CommentaryShort != "" {
		sb.WriteString("\n" + p.t("analysis.commentary") + ":\n")
		sb.WriteString(wrap(r.CommentaryShort, boxWidth-6, "  "))
	}

	sb.WriteString("\n" + p.t("analysis.improvements") + ":\n")
	if len(r.Improvements) == 0 {
		sb.WriteString("  " + p.t("analysis.noSuggestions") + "\n")
	}
	count := min(len(r.Improvements), maxItemsToShow)
	for i := 0; i < count; i++ {
		imp := r.Improvements[i]
		line := "• " + imp.Suggestion
		if imp.LineNumber != "" {
			line += fmt.Sprintf(" (#%s)", imp.LineNumber)
		}
		sb.WriteString(wrap(line, boxWidth-6, "  "))
	}
	if len(r.Improvements) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(r.Improvements)-maxItemsToShow))
	}

	p.printBox(strings.ToUpper(p.t("analysis.title")), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResume outputs the normalized résumé.
func (p *Printer) PrintResume(v *types.ResumeView) {
	if v == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(v.PersonalInfo.Name + "\n")
	sb.WriteString(v.PersonalInfo.Title + "\n")

	contact := nonEmpty(v.PersonalInfo.Email, v.PersonalInfo.Phone, v.PersonalInfo.Location,
		v.PersonalInfo.LinkedIn, v.PersonalInfo.GitHub, v.PersonalInfo.Website)
	if len(contact) > 0 {
		sb.WriteString("\n" + p.t("resume.contact") + ":\n")
		for _, c := range contact {
			sb.WriteString("  " + c + "\n")
		}
	}

	sb.WriteString("\n" + p.t("analysis.summary") + ":\n")
	sb.WriteString(wrap(v.Summary, boxWidth-6, "  "))

	if len(v.Experience) > 0 {
		sb.WriteString("\n" + p.t("resume.experience") + ":\n")
		count := min(len(v.Experience), maxItemsToShow)
		for i := 0; i < count; i++ {
			e := v.Experience[i]
			sb.WriteString(fmt.Sprintf("  %d. %s", e.ID, e.Title))
			if e.Company != "" {
				sb.WriteString(" @ " + e.Company)
			}
			sb.WriteString("\n")
			if e.Years != "" {
				sb.WriteString("     " + e.Years + "\n")
			}
			for _, d := range e.Description {
				sb.WriteString(wrap("- "+d, boxWidth-9, "     "))
			}
		}
		if len(v.Experience) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(v.Experience)-maxItemsToShow))
		}
	}

	if len(v.Education) > 0 {
		sb.WriteString("\n" + p.t("resume.education") + ":\n")
		for _, e := range v.Education {
			sb.WriteString(fmt.Sprintf("  %d. %s", e.ID, e.Degree))
			if e.Institution != "" {
				sb.WriteString(", " + e.Institution)
			}
			sb.WriteString("\n")
			if e.Years != "" {
				sb.WriteString("     " + e.Years + "\n")
			}
		}
	}

	if len(v.Skills) > 0 {
		sb.WriteString("\n" + p.t("resume.skills") + ":\n")
		sb.WriteString(wrap(strings.Join(v.Skills, ", "), boxWidth-6, "  "))
	}

	p.printBox(strings.ToUpper(p.t("dashboard.yourResume")), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintProgress outputs a one-line status for a session transition.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(s session.Snapshot) {
	line := p.t(s.State.MessageKey())
	if s.State == session.Failed && s.Err != nil {
		line += ": " + s.Err.Message
	}
	fmt.Fprintf(p.out, "[%s] %s\n", s.State, line)
}

// PrintDescriptions lists collected job descriptions with their provenance.
func (p *Printer) PrintDescriptions(descs []*ingestion.Description) {
	if len(descs) == 0 {
		return
	}

	var sb strings.Builder
	for i, d := range descs {
		origin := d.Origin
		if origin == "" {
			origin = string(d.Source)
		}
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, origin))
		if d.Title != "" {
			sb.WriteString("    " + d.Title + "\n")
		}
		sb.WriteString(fmt.Sprintf("    %d chars, sha256 %s\n", utf8.RuneCountInString(d.Text), d.Hash[:min(12, len(d.Hash))]))
	}
	p.printBox(strings.ToUpper(p.t("dashboard.jobAnalyzer")), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSaved reports delivered PDF files.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintSaved(saved []*artifact.Saved) {
	for _, s := range saved {
		fmt.Fprintln(p.out, p.resolver.Format(p.locale, "download.saved", map[string]any{
			"filename": s.Filename,
			"location": s.Location,
		}))
	}
}

// wrap breaks text into lines of at most width runes, each prefixed by indent
func wrap(text string, width int, indent string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var sb strings.Builder
	line := words[0]
	for _, w := range words[1:] {
		if utf8.RuneCountInString(line)+1+utf8.RuneCountInString(w) > width {
			sb.WriteString(indent + line + "\n")
			line = w
			continue
		}
		line += " " + w
	}
	sb.WriteString(indent + line + "\n")
	return sb.String()
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
