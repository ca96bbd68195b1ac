package artifact

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultFilename is used when the response does not name the file
const DefaultFilename = "Optimized_Resume.pdf"

var filenamePattern = regexp.MustCompile(`filename=([^;]+)`)

// FilenameFromDisposition extracts a safe base filename from a Content-Disposition header
func FilenameFromDisposition(header string) string {
	m := filenamePattern.FindStringSubmatch(header)
	if m == nil {
		return DefaultFilename
	}

	name := strings.TrimSpace(strings.NewReplacer(`"`, "", "'", "").Replace(m[1]))
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "" || name == "." || name == ".." || name == "/" {
		return DefaultFilename
	}
	return name
}

// localizedFilename inserts the locale before the extension: Resume.pdf -> Resume_pt.pdf
func localizedFilename(name, locale string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "_" + locale + ext
}
