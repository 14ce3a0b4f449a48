package textutil

import (
	"path/filepath"
	"strings"
	"unicode"
)

// SanitizeFileName makes name safe as a single path segment. Path separators,
// colons and asterisks become dashes; quotes, wildcards, redirections and
// control characters are dropped.
func SanitizeFileName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*':
			return '-'
		case r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			return -1
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, name)
	return strings.Trim(strings.TrimSpace(cleaned), ".")
}

// Stem returns the sanitized base name of path without its extension, or
// "output" when nothing usable remains.
func Stem(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if stem := SanitizeFileName(base); stem != "" {
		return stem
	}
	return "output"
}

// SanitizeToken lowercases value and replaces everything except letters,
// digits, dashes and underscores with an underscore. Empty input yields
// "unknown".
func SanitizeToken(value string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(value) {
		switch {
		case unicode.IsLetter(r) && r < unicode.MaxASCII:
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsDigit(r) && r < unicode.MaxASCII:
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if out := strings.Trim(b.String(), "_-"); out != "" {
		return out
	}
	return "unknown"
}
