package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Description is an ingested job description with provenance
type Description struct {
	Text      string     `json:"text"`
	Source    SourceKind `json:"source"`
	Origin    string     `json:"origin,omitempty"`   // file path or URL
	Platform  string     `json:"platform,omitempty"` // detected job board
	Title     string     `json:"title,omitempty"`    // HTML document title
	Hash      string     `json:"hash"`               // SHA256 hex digest of Text
	Timestamp string     `json:"timestamp"`          // RFC3339
}

// NewDescription stamps cleaned text with its hash and the current time
func NewDescription(text string, source SourceKind, origin string) *Description {
	return &Description{
		Text:      text,
		Source:    source,
		Origin:    origin,
		Hash:      computeHash(text),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
