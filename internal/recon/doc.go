// Package recon is the operational facade over the matching pipeline:
// discovery runs, manual linking, review queue actions, undo, threshold
// management, and read-only match explanations. Errors carry sentinel
// markers so callers can classify failures without string matching.
package recon
