// Package report turns an analysis result into the values a user sees:
// percentages, score bands, and shortened summaries.
package report

import (
	"math"
	"unicode/utf8"

	"github.com/jonathan/resume-matcher/internal/types"
)

// SummaryLength is the longest details or commentary text shown in the summary card
const SummaryLength = 100

// Band groups a percentage for display
type Band string

// Score bands
const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// BandFor returns the band of a percentage
func BandFor(percent int) Band {
	switch {
	case percent >= 80:
		return BandHigh
	case percent >= 60:
		return BandMedium
	default:
		return BandLow
	}
}

// ScorePercent converts a fractional score to a whole percentage, rounding half up
func ScorePercent(score float64) int {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	return int(math.Floor(score*100 + 0.5))
}

// Truncate shortens s to at most n characters, ending in "..." when cut
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 3 {
		return string([]rune(s)[:n])
	}
	return string([]rune(s)[:n-3]) + "..."
}

// Improvement is a display-ready suggestion
type Improvement struct {
	Suggestion string `json:"suggestion"`
	LineNumber string `json:"line_number,omitempty"`
}

// Report is the rendered view of an analysis
type Report struct {
	ResumeID        string            `json:"resume_id"`
	JobID           string            `json:"job_id"`
	Score           int               `json:"score"`
	OriginalScore   int               `json:"original_score"`
	ShowOriginal    bool              `json:"show_original"`
	Band            Band              `json:"band"`
	OriginalBand    Band              `json:"original_band"`
	Details         string            `json:"details"`
	Commentary      string            `json:"commentary"`
	DetailsShort    string            `json:"details_short"`
	CommentaryShort string            `json:"commentary_short"`
	Improvements    []Improvement     `json:"improvements"`
	Resume          *types.ResumeView `json:"resume,omitempty"`
}

// Build renders result. view is the normalized résumé and may be nil.
func Build(result *types.RawAnalysisResult, view *types.ResumeView) *Report {
	if result == nil {
		return nil
	}

	score := ScorePercent(MatchScore(result))
	original := ScorePercent(result.OriginalScore)

	improvements := make([]Improvement, 0, len(result.Improvements))
	for _, imp := range result.Improvements {
		if imp.Suggestion == "" {
			continue
		}
		improvements = append(improvements, Improvement{Suggestion: imp.Suggestion, LineNumber: imp.LineNumber})
	}

	return &Report{
		ResumeID:        result.ResumeID,
		JobID:           result.JobID,
		Score:           score,
		OriginalScore:   original,
		ShowOriginal:    original != 0 && original != score,
		Band:            BandFor(score),
		OriginalBand:    BandFor(original),
		Details:         result.Details,
		Commentary:      result.Commentary,
		DetailsShort:    Truncate(result.Details, SummaryLength),
		CommentaryShort: Truncate(result.Commentary, SummaryLength),
		Improvements:    improvements,
		Resume:          view,
	}
}

// MatchScore is the improved score, or the original when no improved score was reported
func MatchScore(result *types.RawAnalysisResult) float64 {
	if result.NewScore == 0 {
		return result.OriginalScore
	}
	return result.NewScore
}
