// Package normalize canonicalizes raw broadcast text for matching.
//
// All matching in airmatch flows through these functions: raw artist and
// title strings are cleaned into canonical lowercase forms, collaboration
// markers are detected and split, version qualifiers are stripped from
// titles, and the canonical pair is hashed into a fixed-width signature
// that serves as the aggregation key everywhere. Everything here is pure
// and deterministic; no I/O.
package normalize
