package match

import (
	"airmatch/internal/classify"
	"airmatch/internal/normalize"
	"airmatch/internal/store"
)

// Candidate is one catalog work proposed for an unmatched signature,
// with per-dimension similarity scores.
type Candidate struct {
	Work        *store.Work
	MatchType   classify.MatchType
	ArtistScore float64
	TitleScore  float64
	// VectorDistance is populated only for candidates surfaced by the
	// semantic channel.
	VectorDistance float64
}

// Result is the outcome of candidate generation for one signature,
// including the intermediate state explain surfaces.
type Result struct {
	Signature       string
	EffectiveArtist string
	BaseTitle       string
	VersionType     normalize.VersionType
	// BridgeWorkID is nonzero when an active identity bridge decided the
	// match before any scoring ran.
	BridgeWorkID int64
	// Ignored is set when the artist resolved to an explicit
	// never-match alias; no candidates are generated.
	Ignored bool
	// Degraded reports that the semantic channel was unavailable.
	Degraded   bool
	Candidates []Candidate
}

// Best returns the highest-ranked candidate, or nil when there is none.
func (r *Result) Best() *Candidate {
	if r == nil || len(r.Candidates) == 0 {
		return nil
	}
	return &r.Candidates[0]
}
