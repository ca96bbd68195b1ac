// Package types provides type definitions for structured data used throughout the resume-matcher client.
//
//nolint:revive // types is a standard Go package name pattern
package types

// ResumeView is the canonical, fully-defaulted résumé used for rendering.
// Every field is always present; slices are never nil.
type ResumeView struct {
	PersonalInfo PersonalInfo      `json:"personalInfo"`
	Summary      string            `json:"summary"`
	Experience   []ExperienceEntry `json:"experience"`
	Education    []EducationEntry  `json:"education"`
	Skills       []string          `json:"skills"`
}

// PersonalInfo holds the contact block of a résumé
type PersonalInfo struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
	Website  string `json:"website"`
}

// ExperienceEntry is a single work experience. ID is the 1-based position in the résumé.
type ExperienceEntry struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Years       string   `json:"years"`
	Description []string `json:"description"`
}

// EducationEntry is a single education record. ID is the 1-based position in the résumé.
type EducationEntry struct {
	ID          int    `json:"id"`
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Years       string `json:"years"`
	Description string `json:"description"`
}
