package match

import (
	"context"
	"log/slog"
	"sort"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"airmatch/internal/classify"
	"airmatch/internal/logging"
	"airmatch/internal/normalize"
	"airmatch/internal/store"
	"airmatch/internal/vectorindex"
)

// Options configure candidate generation for one run. Thresholds are
// snapshotted by the caller so mid-run edits never shift results.
type Options struct {
	Thresholds classify.Thresholds
	// FuzzyFloor drops fuzzy candidates scoring below it on either
	// dimension before classification ever sees them.
	FuzzyFloor float64
	// VectorTopK bounds how many semantic neighbors are considered.
	VectorTopK int
}

type catalogEntry struct {
	work        *store.Work
	cleanArtist string
	cleanTitle  string
}

// Generator produces ranked work candidates for unmatched signatures.
// It holds an immutable catalog snapshot taken at construction, so one
// generator sees a consistent catalog for a whole run.
type Generator struct {
	store  *store.Store
	index  *vectorindex.Index
	opts   Options
	logger *slog.Logger
	// Artists are short names where misspellings dominate, so a
	// prefix-boosted edit metric fits. Titles are scored on bigram
	// overlap instead: a qualifier like "(Live)" or "[Remix]" must pull
	// the title dimension down rather than ride a shared prefix to 1.0.
	artistMetric *metrics.JaroWinkler
	titleMetric  *metrics.SorensenDice
	entries      []catalogEntry
	byID         map[int64]*catalogEntry
	byKey        map[string]*catalogEntry

	// neighbors caches batch-precomputed semantic results by signature.
	neighbors map[string][]vectorindex.Result
}

// NewGenerator snapshots the catalog and prepares lookup structures.
// index may be nil when the semantic channel is unavailable; generation
// then runs degraded on the exact and fuzzy channels alone.
func NewGenerator(ctx context.Context, st *store.Store, index *vectorindex.Index, opts Options, logger *slog.Logger) (*Generator, error) {
	works, err := st.ListWorks(ctx)
	if err != nil {
		return nil, err
	}

	g := &Generator{
		store:        st,
		index:        index,
		opts:         opts,
		logger:       logging.WithComponent(logger, "match"),
		artistMetric: metrics.NewJaroWinkler(),
		titleMetric:  metrics.NewSorensenDice(),
		entries:      make([]catalogEntry, 0, len(works)),
		byID:         make(map[int64]*catalogEntry, len(works)),
		byKey:        make(map[string]*catalogEntry, len(works)),
	}
	for _, work := range works {
		g.entries = append(g.entries, catalogEntry{
			work:        work,
			cleanArtist: normalize.CleanArtist(work.ArtistNames()),
			cleanTitle:  normalize.Clean(work.Title),
		})
	}
	for i := range g.entries {
		entry := &g.entries[i]
		g.byID[entry.work.ID] = entry
		g.byKey[entry.cleanArtist+"|"+entry.cleanTitle] = entry
	}
	return g, nil
}

// Degraded reports whether the semantic channel is unavailable.
func (g *Generator) Degraded() bool {
	return g.index.Size() == 0
}

// NeighborQuery names one signature's effective search text for batch
// precomputation.
type NeighborQuery struct {
	Signature string
	Artist    string
	Title     string
}

// PrecomputeNeighbors runs the semantic search for many signatures up
// front, chunked by chunkSize, and caches the results. Generate then
// serves vector hits from the cache instead of searching one signature
// at a time. Cached results are identical to lazy per-signature
// searches.
func (g *Generator) PrecomputeNeighbors(ctx context.Context, queries []NeighborQuery, chunkSize int) error {
	if g.Degraded() || len(queries) == 0 {
		return nil
	}
	batch := make([]vectorindex.Query, len(queries))
	for i, q := range queries {
		batch[i] = vectorindex.Query{Artist: q.Artist, Title: q.Title}
	}
	results, err := g.index.SearchBatch(ctx, batch, g.opts.VectorTopK, chunkSize)
	if err != nil {
		return err
	}
	g.neighbors = make(map[string][]vectorindex.Result, len(queries))
	for i, q := range queries {
		g.neighbors[q.Signature] = results[i]
	}
	return nil
}

// Generate runs the match channels in fixed priority order for one
// signature: identity bridge, exact, fuzzy, then the semantic channel
// when fuzzy stays inconclusive. effectiveArtist is the post-alias
// artist string. Scoring uses the full raw title; the extracted
// version tag only annotates the result for recording policy.
func (g *Generator) Generate(ctx context.Context, signature, effectiveArtist, rawTitle string) (*Result, error) {
	baseTitle, versionType := normalize.ExtractVersionType(rawTitle)
	result := &Result{
		Signature:       signature,
		EffectiveArtist: effectiveArtist,
		BaseTitle:       baseTitle,
		VersionType:     versionType,
		Degraded:        g.Degraded(),
	}

	// An active bridge settles the signature before any scoring.
	if signature != "" {
		bridge, err := g.store.LookupBridge(ctx, signature)
		if err != nil {
			return nil, err
		}
		if bridge != nil {
			entry, ok := g.byID[bridge.WorkID]
			if !ok {
				// Bridge target vanished from the catalog snapshot;
				// fall through to the scored channels.
				g.logger.Warn("bridge points at unknown work",
					logging.String("signature", signature),
					logging.Int64("work_id", bridge.WorkID))
			} else {
				result.BridgeWorkID = bridge.WorkID
				result.Candidates = []Candidate{{
					Work:        entry.work,
					MatchType:   classify.MatchIdentityBridge,
					ArtistScore: 1,
					TitleScore:  1,
				}}
				return result, nil
			}
		}
	}

	queryArtist := normalize.CleanArtist(effectiveArtist)
	queryTitle := normalize.Clean(rawTitle)

	if entry, ok := g.byKey[queryArtist+"|"+queryTitle]; ok {
		result.Candidates = []Candidate{{
			Work:        entry.work,
			MatchType:   classify.MatchExact,
			ArtistScore: 1,
			TitleScore:  1,
		}}
		return result, nil
	}

	candidates := g.fuzzyCandidates(queryArtist, queryTitle)
	if !g.conclusive(candidates) && !g.Degraded() {
		candidates = g.mergeVector(signature, effectiveArtist, rawTitle, queryArtist, queryTitle, candidates)
	}
	sortCandidates(candidates)
	result.Candidates = candidates
	return result, nil
}

// fuzzyCandidates scores every catalog work on both dimensions and
// keeps those clearing the floor on each.
func (g *Generator) fuzzyCandidates(queryArtist, queryTitle string) []Candidate {
	var candidates []Candidate
	for i := range g.entries {
		entry := &g.entries[i]
		artistScore := g.artistSimilarity(queryArtist, entry.cleanArtist)
		if artistScore < g.opts.FuzzyFloor {
			continue
		}
		titleScore := g.titleSimilarity(queryTitle, entry.cleanTitle)
		if titleScore < g.opts.FuzzyFloor {
			continue
		}
		candidates = append(candidates, Candidate{
			Work:        entry.work,
			MatchType:   classify.MatchFuzzy,
			ArtistScore: artistScore,
			TitleScore:  titleScore,
		})
	}
	return candidates
}

// conclusive reports whether any candidate already clears both
// auto-link bars; if so the semantic channel adds nothing.
func (g *Generator) conclusive(candidates []Candidate) bool {
	for _, c := range candidates {
		if classify.Classify(c.ArtistScore, c.TitleScore, c.MatchType, g.opts.Thresholds) == classify.CategoryAutoLink {
			return true
		}
	}
	return false
}

// mergeVector supplements fuzzy output with semantic neighbors, scored
// on the same dimensions so classification treats all channels alike.
// Works already present from the fuzzy channel are kept as-is.
func (g *Generator) mergeVector(signature, artist, title, queryArtist, queryTitle string, candidates []Candidate) []Candidate {
	hits, cached := g.neighbors[signature]
	if !cached {
		hits = g.index.Search(artist, title, g.opts.VectorTopK)
	}

	seen := make(map[int64]bool, len(candidates))
	for _, c := range candidates {
		seen[c.Work.ID] = true
	}
	for _, hit := range hits {
		if seen[hit.WorkID] {
			continue
		}
		entry, ok := g.byID[hit.WorkID]
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{
			Work:           entry.work,
			MatchType:      classify.MatchVector,
			ArtistScore:    g.artistSimilarity(queryArtist, entry.cleanArtist),
			TitleScore:     g.titleSimilarity(queryTitle, entry.cleanTitle),
			VectorDistance: hit.Distance,
		})
		seen[hit.WorkID] = true
	}
	return candidates
}

func (g *Generator) artistSimilarity(a, b string) float64 {
	return similarity(a, b, g.artistMetric)
}

func (g *Generator) titleSimilarity(a, b string) float64 {
	return similarity(a, b, g.titleMetric)
}

func similarity(a, b string, metric strutil.StringMetric) float64 {
	if a == "" || b == "" {
		if a == b {
			return 1
		}
		return 0
	}
	return strutil.Similarity(a, b, metric)
}

func sortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		as, bs := a.ArtistScore+a.TitleScore, b.ArtistScore+b.TitleScore
		if as != bs {
			return as > bs
		}
		return a.Work.ID < b.Work.ID
	})
}
