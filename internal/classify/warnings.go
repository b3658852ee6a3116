package classify

import (
	"strings"

	"airmatch/internal/normalize"
)

// Warning annotates a candidate with a quality concern. Warnings are
// informational for reviewers and never change the category.
type Warning string

const (
	// WarningTruncationRisk fires when the raw title is a strict prefix of
	// the candidate title, which often means a feed cut the title short.
	WarningTruncationRisk Warning = "truncation_risk"
	// WarningLengthMismatch fires when the title lengths differ beyond the
	// accepted band.
	WarningLengthMismatch Warning = "length_mismatch"
	// WarningCaseOnly fires when raw and candidate titles differ only in
	// letter case.
	WarningCaseOnly Warning = "case_only"
)

// lengthRatioBand is the furthest the shorter title may fall below the
// longer one before a length mismatch is flagged.
const lengthRatioBand = 0.5

// TitleWarnings computes quality-warning annotations for a raw title
// against a candidate work title.
func TitleWarnings(rawTitle, workTitle string) []Warning {
	var warnings []Warning

	raw := strings.TrimSpace(rawTitle)
	work := strings.TrimSpace(workTitle)
	if raw == "" || work == "" {
		return nil
	}

	if raw != work && strings.EqualFold(raw, work) {
		warnings = append(warnings, WarningCaseOnly)
	}

	cleanRaw := normalize.Clean(raw)
	cleanWork := normalize.Clean(work)
	if cleanRaw != cleanWork && cleanRaw != "" && strings.HasPrefix(cleanWork, cleanRaw) {
		warnings = append(warnings, WarningTruncationRisk)
	}

	shorter, longer := len(cleanRaw), len(cleanWork)
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	if longer > 0 && float64(shorter)/float64(longer) < lengthRatioBand {
		warnings = append(warnings, WarningLengthMismatch)
	}

	return warnings
}
