package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "John Doe", NormalizeName("  John   Doe  "))
	assert.Equal(t, "Dr. Jane Smith", NormalizeName("Dr.\tJane\nSmith"))
	assert.Equal(t, "", NormalizeName("   "))
}

func TestContains(t *testing.T) {
	list := []string{"scheduled", "completed"}
	assert.True(t, Contains("scheduled", list))
	assert.False(t, Contains("cancelled", list))
	assert.False(t, Contains("scheduled", nil))
}

func TestSanitizeLogValue(t *testing.T) {
	assert.Equal(t, "a b c", sanitizeLogValue("a\nb\rc"))

	long := strings.Repeat("x", 500)
	got := sanitizeLogValue(long)
	assert.Len(t, got, 203)
	assert.True(t, strings.HasSuffix(got, "..."))
}
