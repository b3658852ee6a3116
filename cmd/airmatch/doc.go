// Package main hosts the airmatch CLI entrypoint and command graph.
//
// The Cobra-based command tree surfaces discovery runs, review queue
// actions, alias and bridge management, threshold tuning, and match
// explanations. It centralizes configuration resolution and structured
// logging setup so subcommands stay declarative; the matching logic
// itself lives in the internal packages.
package main
