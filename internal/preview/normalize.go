// Package preview maps backend résumé preview payloads into the canonical types.ResumeView.
package preview

import (
	"strconv"
	"strings"

	"github.com/jonathan/resume-matcher/internal/types"
)

const (
	// DefaultTitle is used when neither the personal info nor the first experience carries a title
	DefaultTitle = "Professional"
	// DefaultSummary replaces a missing summary
	DefaultSummary = "Experienced professional with a track record of delivering results."
)

// Normalize converts a raw résumé preview into a ResumeView.
// A nil preview yields nil; any other input yields a fully populated view.
func Normalize(raw map[string]any) *types.ResumeView {
	if raw == nil {
		return nil
	}

	experience := normalizeExperience(firstPresent(raw, "experience", "experiences", "work_experience"))
	education := normalizeEducation(firstPresent(raw, "education"))

	info := asMap(firstPresent(raw, "personalInfo", "personal_info"))
	personal := types.PersonalInfo{
		Name:     stringField(info, "name"),
		Title:    stringField(info, "title"),
		Email:    stringField(info, "email"),
		Phone:    stringField(info, "phone"),
		Location: stringField(info, "location"),
		LinkedIn: stringField(info, "linkedin"),
		GitHub:   stringField(info, "github"),
		Website:  stringField(info, "website"),
	}
	if personal.Title == "" {
		personal.Title = fallbackTitle(experience)
	}

	summary := asString(raw["summary"])
	if summary == "" {
		summary = DefaultSummary
	}

	return &types.ResumeView{
		PersonalInfo: personal,
		Summary:      summary,
		Experience:   experience,
		Education:    education,
		Skills:       normalizeSkills(raw["skills"]),
	}
}

func fallbackTitle(experience []types.ExperienceEntry) string {
	if len(experience) > 0 && experience[0].Title != "" {
		return experience[0].Title
	}
	return DefaultTitle
}

// normalizeExperience renumbers entries by position; source ids are ignored
func normalizeExperience(v any) []types.ExperienceEntry {
	items, _ := v.([]any)
	entries := make([]types.ExperienceEntry, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entries = append(entries, types.ExperienceEntry{
			ID:          len(entries) + 1,
			Title:       stringField(m, "title"),
			Company:     stringField(m, "company"),
			Location:    stringField(m, "location"),
			Years:       stringField(m, "years"),
			Description: stringList(m["description"]),
		})
	}
	return entries
}

func normalizeEducation(v any) []types.EducationEntry {
	items, _ := v.([]any)
	entries := make([]types.EducationEntry, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		description := stringField(m, "description")
		if list, isList := m["description"].([]any); isList {
			description = strings.Join(stringList(list), "\n")
		}
		entries = append(entries, types.EducationEntry{
			ID:          len(entries) + 1,
			Institution: stringField(m, "institution"),
			Degree:      stringField(m, "degree"),
			Years:       stringField(m, "years"),
			Description: description,
		})
	}
	return entries
}

// normalizeSkills drops falsy entries. Objects contribute their "name".
func normalizeSkills(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	skills := make([]string, 0, len(items))
	for _, item := range items {
		if m, isMap := item.(map[string]any); isMap {
			item = m["name"]
		}
		if n, isNum := item.(float64); isNum && n == 0 {
			continue
		}
		if s := asString(item); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}

// stringList accepts a list (falsy entries dropped) or a single string
func stringList(v any) []string {
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		out := make([]string, 0, len(val))
		for _, s := range val {
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := asString(v); s != "" {
			return []string{s}
		}
		return []string{}
	}
}

func firstPresent(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	return asString(m[key])
}

// asString renders scalars; anything else (nil, bool, objects) is empty
func asString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return ""
	}
}
