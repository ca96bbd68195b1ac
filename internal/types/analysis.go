package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ImproveResponse is the envelope returned by the improve-resume endpoint
type ImproveResponse struct {
	Data RawAnalysisResult `json:"data"`
}

// RawAnalysisResult is the backend analysis payload. Its resume preview is kept
// untyped because the backend shape varies; route it through preview.Normalize.
type RawAnalysisResult struct {
	ResumeID      string         `json:"resume_id"`
	JobID         string         `json:"job_id"`
	OriginalScore float64        `json:"original_score"`
	NewScore      float64        `json:"new_score"`
	Details       string         `json:"details"`
	Commentary    string         `json:"commentary"`
	Improvements  []Improvement  `json:"improvements"`
	ResumePreview map[string]any `json:"resume_preview"`
}

// Improvement is a single improvement suggestion. The backend sends either a
// bare string or an object with a suggestion and an optional line number.
type Improvement struct {
	Suggestion string `json:"suggestion"`
	LineNumber string `json:"lineNumber,omitempty"`
}

// UnmarshalJSON accepts both the string and the object encodings
func (i *Improvement) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*i = Improvement{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*i = Improvement{Suggestion: s}
		return nil
	}

	var obj struct {
		Suggestion string          `json:"suggestion"`
		LineNumber json.RawMessage `json:"lineNumber"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("improvement must be a string or an object: %w", err)
	}

	*i = Improvement{Suggestion: obj.Suggestion, LineNumber: lineNumberString(obj.LineNumber)}
	return nil
}

// lineNumberString renders a line number that may arrive as a string or a number
func lineNumberString(raw json.RawMessage) string {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
