package classify

// MatchType tags the strategy that produced a candidate.
type MatchType string

const (
	MatchIdentityBridge MatchType = "identity_bridge"
	MatchExact          MatchType = "exact"
	MatchFuzzy          MatchType = "fuzzy"
	MatchVector         MatchType = "vector"
)

// Category is the classification outcome for a candidate.
type Category string

const (
	CategoryIdentityBridge Category = "identity_bridge"
	CategoryAutoLink       Category = "auto_link"
	CategoryReview         Category = "review"
	CategoryReject         Category = "reject"
)

// Classify converts a candidate's similarity scores into a category.
//
// The decision region is rectangular: both the artist and the title
// dimension must independently clear a bar. A strong artist match with a
// weak title (or vice versa) never auto-links. Identity bridge matches
// always carry auto-accept semantics regardless of scores.
func Classify(artistSim, titleSim float64, matchType MatchType, t Thresholds) Category {
	if matchType == MatchIdentityBridge {
		return CategoryIdentityBridge
	}
	if artistSim >= t.ArtistAuto && titleSim >= t.TitleAuto {
		return CategoryAutoLink
	}
	if artistSim >= t.ArtistReview && titleSim >= t.TitleReview {
		return CategoryReview
	}
	return CategoryReject
}

// ParseCategory converts a stored string into a known Category.
func ParseCategory(value string) (Category, bool) {
	switch Category(value) {
	case CategoryIdentityBridge, CategoryAutoLink, CategoryReview, CategoryReject:
		return Category(value), true
	}
	return "", false
}
