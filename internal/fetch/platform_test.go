package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url      string
		expected Platform
	}{
		{"https://job-boards.greenhouse.io/doordashusa/jobs/7063751", PlatformGreenhouse},
		{"https://boards.greenhouse.io/company/jobs/123", PlatformGreenhouse},
		{"https://jobs.lever.co/company/job-id", PlatformLever},
		{"https://company.wd5.myworkdayjobs.com/en-US/External", PlatformWorkday},
		{"https://www.linkedin.com/jobs/view/123", PlatformLinkedIn},
		{"https://notgreenhouse.io.example.com/jobs", PlatformUnknown},
		{"https://example.com/careers", PlatformUnknown},
		{"://bad", PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectPlatform(tt.url))
		})
	}
}

func TestPlatformContentSelectors(t *testing.T) {
	assert.Equal(t, ".job__description.body", PlatformContentSelectors(PlatformGreenhouse)[0])
	assert.Contains(t, PlatformContentSelectors(PlatformLever), ".posting-description")
	assert.Equal(t, JobPostingSelectors(), PlatformContentSelectors(PlatformUnknown))
}

func TestPlatformContentSelectors_ReturnsCopy(t *testing.T) {
	s := PlatformContentSelectors(PlatformLever)
	s[0] = "mutated"
	assert.NotEqual(t, "mutated", PlatformContentSelectors(PlatformLever)[0])
}

func TestPlatformNoiseSelectors(t *testing.T) {
	unknown := PlatformNoiseSelectors(PlatformUnknown)
	assert.Contains(t, unknown, "form")
	assert.NotContains(t, unknown, ".post-apply")

	greenhouse := PlatformNoiseSelectors(PlatformGreenhouse)
	assert.Contains(t, greenhouse, "form")
	assert.Contains(t, greenhouse, ".post-apply")
}

func TestNeedsBrowser(t *testing.T) {
	assert.True(t, NeedsBrowser("Loading..."))
	long := make([]byte, MinContentLength)
	for i := range long {
		long[i] = 'a'
	}
	assert.False(t, NeedsBrowser(string(long)))
}
