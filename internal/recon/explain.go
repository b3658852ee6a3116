package recon

import (
	"context"

	"airmatch/internal/artistid"
	"airmatch/internal/classify"
	"airmatch/internal/match"
	"airmatch/internal/normalize"
	"airmatch/internal/vectorindex"
)

// ExplainedCandidate is a generated candidate plus the category the
// current thresholds assign it.
type ExplainedCandidate struct {
	match.Candidate
	Category classify.Category
}

// Explanation traces how one raw artist/title pair would be evaluated:
// its signature, alias resolution, version extraction, and every
// candidate with its scores and category. Producing it changes nothing.
type Explanation struct {
	RawArtist  string
	RawTitle   string
	Signature  string
	Resolution artistid.Resolution
	BaseTitle  string
	Version    normalize.VersionType
	// BridgeWorkID is nonzero when an active bridge would decide the
	// match outright.
	BridgeWorkID int64
	Degraded     bool
	Thresholds   classify.Thresholds
	Candidates   []ExplainedCandidate
}

// Explain evaluates a raw pair through the full pipeline read-only.
func (s *Service) Explain(ctx context.Context, rawArtist, rawTitle string) (*Explanation, error) {
	if rawArtist == "" && rawTitle == "" {
		return nil, Wrap(ErrValidation, "explain", "artist or title is required", nil)
	}

	thresholds, err := s.store.Thresholds(ctx)
	if err != nil {
		return nil, err
	}

	resolver := artistid.NewResolver(s.store, s.logger)
	resolution, err := resolver.Resolve(ctx, rawArtist)
	if err != nil {
		return nil, err
	}

	explanation := &Explanation{
		RawArtist:  rawArtist,
		RawTitle:   rawTitle,
		Signature:  normalize.Signature(rawArtist, rawTitle),
		Resolution: resolution,
		Thresholds: thresholds,
	}
	if resolution.Ignored {
		base, version := normalize.ExtractVersionType(rawTitle)
		explanation.BaseTitle = base
		explanation.Version = version
		return explanation, nil
	}

	index, err := vectorindex.Build(ctx, s.store, s.logger)
	if err != nil {
		index = nil
	}
	gen, err := match.NewGenerator(ctx, s.store, index, match.Options{
		Thresholds: thresholds,
		FuzzyFloor: s.cfg.Matching.FuzzyFloor,
		VectorTopK: s.cfg.Matching.VectorTopK,
	}, s.logger)
	if err != nil {
		return nil, err
	}

	result, err := gen.Generate(ctx, explanation.Signature, resolution.Effective, rawTitle)
	if err != nil {
		return nil, err
	}
	explanation.BaseTitle = result.BaseTitle
	explanation.Version = result.VersionType
	explanation.BridgeWorkID = result.BridgeWorkID
	explanation.Degraded = result.Degraded
	explanation.Candidates = make([]ExplainedCandidate, 0, len(result.Candidates))
	for _, candidate := range result.Candidates {
		explanation.Candidates = append(explanation.Candidates, ExplainedCandidate{
			Candidate: candidate,
			Category:  classify.Classify(candidate.ArtistScore, candidate.TitleScore, candidate.MatchType, thresholds),
		})
	}
	return explanation, nil
}
