package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent decomposes characters and drops combining marks, so that
// "Beyoncé" and "Beyonce" canonicalize identically.
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var (
	punctPattern      = regexp.MustCompile(`[^a-z0-9&]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	articlePattern    = regexp.MustCompile(`^(the|a|an)\s+`)
)

// separatorReplacer maps artist separator characters to the canonical
// join token used throughout signature computation.
var separatorReplacer = strings.NewReplacer(
	"/", " & ",
	"\\", " & ",
	";", " & ",
	"+", " & ",
	" x ", " & ",
)

// Clean canonicalizes free text: lowercase, diacritics stripped,
// punctuation and whitespace collapsed to single spaces.
// Clean is idempotent: Clean(Clean(x)) == Clean(x).
func Clean(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return ""
	}
	if stripped, _, err := transform.String(deaccent, lowered); err == nil {
		lowered = stripped
	}
	lowered = strings.ReplaceAll(lowered, "&", " ")
	lowered = punctPattern.ReplaceAllString(lowered, " ")
	lowered = whitespacePattern.ReplaceAllString(lowered, " ")
	return strings.TrimSpace(lowered)
}

// CleanArtist is the aggressive artist variant of Clean. Leading articles
// are stripped and separator characters (slashes, semicolons, plus signs)
// collapse to a canonical "&" join token, so "The Beatles", "BEATLES",
// and "Beatles" share one canonical form.
func CleanArtist(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return ""
	}
	if stripped, _, err := transform.String(deaccent, lowered); err == nil {
		lowered = stripped
	}
	lowered = separatorReplacer.Replace(lowered)
	lowered = replaceFeaturingMarkers(lowered)
	lowered = punctPattern.ReplaceAllString(lowered, " ")
	lowered = whitespacePattern.ReplaceAllString(lowered, " ")
	lowered = strings.TrimSpace(lowered)
	lowered = articlePattern.ReplaceAllString(lowered, "")
	// Collapse any space runs introduced around join tokens.
	lowered = whitespacePattern.ReplaceAllString(lowered, " ")
	return strings.Trim(lowered, " &")
}

var featuringPattern = regexp.MustCompile(`\s+(feat\.?|ft\.?|featuring|with)\s+`)

func replaceFeaturingMarkers(text string) string {
	return featuringPattern.ReplaceAllString(text, " & ")
}

// collaborationPattern matches the markers that signal multiple artists
// inside one raw artist string. Ordered so longer markers win.
var collaborationPattern = regexp.MustCompile(`(?i)\s+(?:feat\.?|ft\.?|featuring|vs\.?|with)\s+|\s*[&/;]\s*|\s+x\s+`)

// SplitArtists returns the ordered candidate artist substrings detected in
// a raw artist string. When no collaboration marker is present the input
// is returned as a single-element list. Substrings keep their original
// casing; callers normalize as needed.
func SplitArtists(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	parts := collaborationPattern.Split(trimmed, -1)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return []string{trimmed}
	}
	return out
}

// HasCollaborationMarker reports whether a raw artist string contains a
// marker that SplitArtists would split on.
func HasCollaborationMarker(text string) bool {
	return collaborationPattern.MatchString(strings.TrimSpace(text))
}
