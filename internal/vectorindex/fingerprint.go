package vectorindex

import (
	"math"

	"airmatch/internal/normalize"
)

// trigramSize is the character n-gram width. Trigrams survive the
// misspellings common in hand-keyed broadcast logs, where word-level
// tokens would miss entirely.
const trigramSize = 3

// Fingerprint is a weighted character-trigram vector over normalized
// artist and title text.
type Fingerprint struct {
	grams map[string]float64
	norm  float64
}

// NewFingerprint builds a fingerprint from an artist/title pair. Both
// sides pass through normalization first so that case, accents, and
// punctuation never contribute trigrams. Returns nil when the pair
// yields no trigrams.
func NewFingerprint(artist, title string) *Fingerprint {
	text := normalize.CleanArtist(artist) + " " + normalize.Clean(title)
	grams := trigrams(text)
	if len(grams) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(grams))
	for _, gram := range grams {
		counts[gram]++
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &Fingerprint{
		grams: counts,
		norm:  math.Sqrt(norm),
	}
}

// trigrams emits overlapping character trigrams with boundary padding
// so that short words still produce grams.
func trigrams(text string) []string {
	runes := []rune(" " + text + " ")
	if len(runes) < trigramSize {
		return nil
	}
	grams := make([]string, 0, len(runes)-trigramSize+1)
	for i := 0; i+trigramSize <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+trigramSize]))
	}
	return grams
}

// GramCount returns the number of distinct trigrams in the fingerprint.
func (f *Fingerprint) GramCount() int {
	if f == nil {
		return 0
	}
	return len(f.grams)
}

// WithIDF returns a fingerprint with inverse-document-frequency weights
// applied and the norm recomputed. Grams absent from the weight map keep
// their raw counts.
func (f *Fingerprint) WithIDF(idf map[string]float64) *Fingerprint {
	if f == nil || len(idf) == 0 {
		return f
	}
	weighted := make(map[string]float64, len(f.grams))
	var norm float64
	for gram, count := range f.grams {
		w := count
		if idfVal, ok := idf[gram]; ok {
			w *= idfVal
		}
		if w == 0 {
			continue
		}
		weighted[gram] = w
		norm += w * w
	}
	if len(weighted) == 0 {
		return nil
	}
	return &Fingerprint{
		grams: weighted,
		norm:  math.Sqrt(norm),
	}
}

// CosineSimilarity computes cosine similarity between two fingerprints.
// Returns 0 when either side is nil or zero-norm.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	// Iterate the smaller map.
	if len(b.grams) < len(a.grams) {
		a, b = b, a
	}
	var dot float64
	for gram, count := range a.grams {
		if other, ok := b.grams[gram]; ok {
			dot += count * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}

// Corpus accumulates document frequency statistics for IDF weighting.
type Corpus struct {
	docCount int
	docFreq  map[string]int
}

// NewCorpus creates an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{docFreq: make(map[string]int)}
}

// Add registers a fingerprint's distinct trigrams.
func (c *Corpus) Add(fp *Fingerprint) {
	if c == nil || fp == nil {
		return
	}
	c.docCount++
	for gram := range fp.grams {
		c.docFreq[gram]++
	}
}

// IDF computes log((N+1)/(1+df)) per trigram.
func (c *Corpus) IDF() map[string]float64 {
	if c == nil || c.docCount == 0 {
		return nil
	}
	idf := make(map[string]float64, len(c.docFreq))
	n := float64(c.docCount)
	for gram, df := range c.docFreq {
		idf[gram] = math.Log((n + 1) / (1 + float64(df)))
	}
	return idf
}
