// Package vectorindex provides an in-memory semantic index over the
// catalog, built from TF-IDF weighted character trigrams of normalized
// artist and title text.
//
// The index is a snapshot: Build reads the catalog once and the result
// never changes, so concurrent searches need no locking. Trigram
// vectors catch near-misses that token-level comparison loses, which is
// what the semantic channel is for; exact and fuzzy matching stay the
// primary channels.
package vectorindex
