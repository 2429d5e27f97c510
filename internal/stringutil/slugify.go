package stringutil

import (
	"regexp"
	"strings"

	"github.com/emilstricker/regnemetoden/internal/hashutil"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s, replaces runs of non-alphanumeric characters with a
// single hyphen, and trims hyphens from both ends.
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// PathSafe turns an arbitrary identifier such as a user id or an email into
// a directory name. The slug keeps it readable; the hash suffix keeps ids
// that slugify alike apart.
func PathSafe(id string) string {
	slug := Slugify(id)
	if len(slug) > 40 {
		slug = strings.Trim(slug[:40], "-")
	}
	h := hashutil.Short(id, 8)
	if slug == "" {
		return h
	}
	return slug + "-" + h
}
