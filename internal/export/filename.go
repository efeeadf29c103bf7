package export

import (
	"strings"
	"time"

	"github.com/mozillazg/go-unidecode"
)

// Filename builds a download name such as ticvision-lastweek-avg-2024-01-31.csv.
// Parts are transliterated to ASCII and slugged.
func Filename(f Format, now time.Time, parts ...string) string {
	slugs := []string{"ticvision"}
	for _, p := range parts {
		if s := Slug(p); s != "" {
			slugs = append(slugs, s)
		}
	}
	slugs = append(slugs, now.Format("2006-01-02"))
	return strings.Join(slugs, "-") + "." + string(f)
}

// Slug lowercases s, transliterates it and replaces runs of other characters with a dash
func Slug(s string) string {
	s = strings.ToLower(unidecode.Unidecode(s))

	var b strings.Builder
	dash := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
