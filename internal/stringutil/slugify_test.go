package stringutil

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"uuid", "3F2504E0-4F89-11D3-9A0C-0305E82C3301", "3f2504e0-4f89-11d3-9a0c-0305e82c3301"},
		{"email", "Emil@Example.com", "emil-example-com"},
		{"consecutive specials", "foo---bar", "foo-bar"},
		{"leading trailing specials", "---foo---", "foo"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestPathSafeKeepsSimilarIDsApart(t *testing.T) {
	a := PathSafe("emil@example.com")
	b := PathSafe("emil.example.com")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "emil-example-com-"))
}

func TestPathSafeShape(t *testing.T) {
	valid := regexp.MustCompile(`^[a-z0-9-]+$`)

	for _, id := range []string{"", "!!!", "a", strings.Repeat("x", 100)} {
		got := PathSafe(id)
		assert.Regexp(t, valid, got, id)
		assert.LessOrEqual(t, len(got), 49, id)
	}
}
