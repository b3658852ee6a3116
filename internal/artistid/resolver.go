package artistid

import (
	"context"
	"log/slog"

	"airmatch/internal/logging"
	"airmatch/internal/normalize"
	"airmatch/internal/store"
)

// Resolution is the outcome of resolving a raw artist string through the
// alias table before candidate generation.
type Resolution struct {
	RawArtist string
	// Effective is the artist name similarity scoring should use: the
	// canonical alias target when one exists, the raw string otherwise.
	Effective string
	// Aliased reports whether an alias substitution happened.
	Aliased bool
	// Ignored reports an explicit null mapping: the artist is known but
	// intentionally unmatched, and candidate generation short-circuits.
	Ignored bool
}

// Resolver consults the alias table and proposes collaboration splits.
type Resolver struct {
	store  *store.Store
	logger *slog.Logger
}

// NewResolver constructs a resolver backed by the store.
func NewResolver(st *store.Store, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:  st,
		logger: logging.WithComponent(logger, "artistid"),
	}
}

// Resolve resolves one raw artist string.
func (r *Resolver) Resolve(ctx context.Context, rawArtist string) (Resolution, error) {
	alias, err := r.store.ResolveAlias(ctx, rawArtist)
	if err != nil {
		return Resolution{}, err
	}
	return buildResolution(rawArtist, alias), nil
}

// ResolveBatch resolves many raw artist strings in one store pass. Every
// input appears in the result, mapped or not.
func (r *Resolver) ResolveBatch(ctx context.Context, rawArtists []string) (map[string]Resolution, error) {
	aliases, err := r.store.ResolveAliasBatch(ctx, rawArtists)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Resolution, len(rawArtists))
	for _, raw := range rawArtists {
		out[raw] = buildResolution(raw, aliases[raw])
	}
	return out, nil
}

func buildResolution(rawArtist string, alias *store.Alias) Resolution {
	res := Resolution{RawArtist: rawArtist, Effective: rawArtist}
	if alias == nil {
		return res
	}
	if alias.Ignored() {
		res.Ignored = true
		return res
	}
	res.Aliased = true
	res.Effective = *alias.Canonical
	return res
}

// MaybeProposeSplit emits a ProposedSplit when a raw artist string
// carries a collaboration marker and neither an alias nor a known
// catalog artist set already covers it. knownArtistKeys holds
// CleanArtist forms of catalog artist names and artist-set joins.
// The proposal is purely advisory; nothing automatic consumes it.
func (r *Resolver) MaybeProposeSplit(ctx context.Context, rawArtist string, knownArtistKeys map[string]bool) (*store.ProposedSplit, error) {
	if !normalize.HasCollaborationMarker(rawArtist) {
		return nil, nil
	}
	if knownArtistKeys[normalize.CleanArtist(rawArtist)] {
		return nil, nil
	}

	alias, err := r.store.ResolveAlias(ctx, rawArtist)
	if err != nil {
		return nil, err
	}
	if alias != nil {
		return nil, nil
	}

	parts := normalize.SplitArtists(rawArtist)
	if len(parts) < 2 {
		return nil, nil
	}

	confidence := splitConfidence(rawArtist, parts)
	split, err := r.store.InsertProposedSplit(ctx, rawArtist, parts, confidence)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("proposed artist split",
		logging.String("raw_artist", rawArtist),
		logging.Int("parts", len(parts)),
		logging.Float64("confidence", confidence))
	return split, nil
}
