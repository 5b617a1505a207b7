package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gobusterOutput = `/admin                (Status: 301) [Size: 0]
/api                  (Status: 200) [Size: 512]

/.git                 (Status: 403) [Size: 277]
===============================================================
`

func TestParseGobusterOutput(t *testing.T) {
	found := parseGobusterOutput(gobusterOutput)
	require.Len(t, found, 3)

	assert.Equal(t, "/admin", found[0].Path)
	assert.Equal(t, "301", found[0].Status)
	assert.Equal(t, "/api", found[1].Path)
	assert.Equal(t, "200", found[1].Status)
	assert.Equal(t, "/.git", found[2].Path)
	assert.Equal(t, "403", found[2].Status)
}

func TestParseGobusterOutputEmpty(t *testing.T) {
	assert.Empty(t, parseGobusterOutput(""))
	assert.Empty(t, parseGobusterOutput("\n\n"))
}

func TestBruteforceSeverity(t *testing.T) {
	tests := []struct {
		found int
		want  Severity
	}{
		{0, SeverityInfo},
		{10, SeverityInfo},
		{11, SeverityLow},
		{20, SeverityLow},
		{21, SeverityMedium},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, bruteforceSeverity(tt.found), "found=%d", tt.found)
	}
}
