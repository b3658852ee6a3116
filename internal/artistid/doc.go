// Package artistid resolves raw artist strings against the alias table
// and proposes collaboration splits.
//
// Alias substitution runs before candidate generation so that known
// aliases short-circuit fuzzy ambiguity. An alias mapped to nothing is an
// explicit instruction to never match the artist. Split proposals are
// heuristic and advisory: they wait for a human decision and are never
// auto-applied.
package artistid
