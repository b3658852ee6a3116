package vectorindex

import (
	"context"
	"log/slog"
	"sort"

	"airmatch/internal/logging"
	"airmatch/internal/store"
)

// Result is one semantic neighbor of a query.
type Result struct {
	WorkID     int64
	Similarity float64
	// Distance is 1 - Similarity, in [0, 1].
	Distance float64
}

// Query is one artist/title pair to search for.
type Query struct {
	Artist string
	Title  string
}

type indexEntry struct {
	workID int64
	fp     *Fingerprint
}

// Index is an immutable in-memory semantic index over catalog works.
// Build a new one to pick up catalog changes; searches on an existing
// index are safe from any goroutine.
type Index struct {
	entries []indexEntry
	idf     map[string]float64
}

// Build constructs an index from every work in the catalog. Works whose
// normalized text produces no trigrams are skipped. Returns an index
// with Size 0 when the catalog is empty; callers treat that as the
// index being unavailable.
func Build(ctx context.Context, st *store.Store, logger *slog.Logger) (*Index, error) {
	works, err := st.ListWorks(ctx)
	if err != nil {
		return nil, err
	}

	corpus := NewCorpus()
	raw := make([]indexEntry, 0, len(works))
	for _, work := range works {
		fp := NewFingerprint(work.ArtistNames(), work.Title)
		if fp == nil {
			continue
		}
		corpus.Add(fp)
		raw = append(raw, indexEntry{workID: work.ID, fp: fp})
	}

	idf := corpus.IDF()
	entries := make([]indexEntry, 0, len(raw))
	for _, entry := range raw {
		weighted := entry.fp.WithIDF(idf)
		if weighted == nil {
			continue
		}
		entries = append(entries, indexEntry{workID: entry.workID, fp: weighted})
	}

	logging.WithComponent(logger, "vectorindex").Debug("index built",
		logging.Int("works", len(works)),
		logging.Int("entries", len(entries)))
	return &Index{entries: entries, idf: idf}, nil
}

// Size returns the number of indexed works.
func (ix *Index) Size() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}

// Search returns the topK nearest works for one artist/title pair,
// ordered by descending similarity. Ties break on ascending work id so
// results are deterministic.
func (ix *Index) Search(artist, title string, topK int) []Result {
	if ix == nil || topK <= 0 {
		return nil
	}
	fp := NewFingerprint(artist, title).WithIDF(ix.idf)
	if fp == nil {
		return nil
	}

	results := make([]Result, 0, len(ix.entries))
	for _, entry := range ix.entries {
		sim := CosineSimilarity(fp, entry.fp)
		if sim == 0 {
			continue
		}
		results = append(results, Result{
			WorkID:     entry.workID,
			Similarity: sim,
			Distance:   1 - sim,
		})
	}
	if len(results) == 0 {
		return nil
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].WorkID < results[j].WorkID
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// SearchBatch searches many queries, processing them in chunks of
// chunkSize. Chunking bounds per-pass memory on large backlogs; the
// results are positionally aligned with queries and identical to
// calling Search per query.
func (ix *Index) SearchBatch(ctx context.Context, queries []Query, topK, chunkSize int) ([][]Result, error) {
	if chunkSize <= 0 {
		chunkSize = len(queries)
	}
	out := make([][]Result, len(queries))
	for start := 0; start < len(queries); start += chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + chunkSize
		if end > len(queries) {
			end = len(queries)
		}
		for i := start; i < end; i++ {
			out[i] = ix.Search(queries[i].Artist, queries[i].Title, topK)
		}
	}
	return out, nil
}
