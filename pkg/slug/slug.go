package slug

import (
	"regexp"
	"strings"
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	valid    = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// Latin letters commonly found in botanical and cultivar names.
var transliterator = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ä", "a", "ã", "a", "å", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"í", "i", "ì", "i", "î", "i", "ï", "i", "ı", "i",
	"ó", "o", "ò", "o", "ô", "o", "ö", "o", "õ", "o", "ø", "o",
	"ú", "u", "ù", "u", "û", "u", "ü", "u",
	"ç", "c", "ñ", "n", "ß", "ss", "ş", "s", "ğ", "g",
	"&", " and ",
)

// Generate creates a URL-friendly slug from name.
//
//   - "Indoor Plants" → "indoor-plants"
//   - "Air Purifying & Low Light" → "air-purifying-and-low-light"
//   - "Monstera Déliciosa" → "monstera-deliciosa"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = transliterator.Replace(s)
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// IsValid reports whether s is already a well-formed slug.
func IsValid(s string) bool {
	return valid.MatchString(s)
}
