// Package match generates ranked work candidates for unmatched
// broadcast signatures.
//
// Channels run in fixed priority order: an active identity bridge wins
// outright, exact normalized equality wins next, fuzzy string
// similarity scores the rest, and the semantic index supplements the
// fuzzy channel only when nothing clears the auto-link bars. A
// generator snapshots the catalog at construction so every signature in
// a run is scored against the same library.
package match
