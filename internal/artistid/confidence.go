package artistid

import (
	"regexp"
	"strings"
)

// Marker weights reflect how reliably each marker indicates a real
// collaboration. "feat." essentially never appears inside a band name;
// slashes and ampersands do ("AC/DC", "Simon & Garfunkel").
var markerWeights = []struct {
	pattern *regexp.Regexp
	weight  float64
}{
	{regexp.MustCompile(`(?i)\s+(feat\.?|ft\.?|featuring)\s+`), 0.95},
	{regexp.MustCompile(`(?i)\s+(vs\.?|with)\s+`), 0.85},
	{regexp.MustCompile(`\s*;\s*`), 0.80},
	{regexp.MustCompile(`\s+&\s+`), 0.65},
	{regexp.MustCompile(`\s*/\s*`), 0.55},
	{regexp.MustCompile(`(?i)\s+x\s+`), 0.50},
}

// shortPartLength is the length below which a proposed constituent looks
// more like a fragment of one name than an artist of its own.
const shortPartLength = 3

func splitConfidence(rawArtist string, parts []string) float64 {
	weight := 0.4
	for _, marker := range markerWeights {
		if marker.pattern.MatchString(rawArtist) {
			weight = marker.weight
			break
		}
	}

	// Fragile parts drag the proposal down.
	penalty := 1.0
	for _, part := range parts {
		if len(strings.TrimSpace(part)) < shortPartLength {
			penalty *= 0.6
		}
	}

	confidence := weight * penalty
	if confidence < 0.05 {
		confidence = 0.05
	}
	return confidence
}
