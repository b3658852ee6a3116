// Package discovery drives the batch pipeline that reconciles unmatched
// broadcast logs against the catalog.
//
// A run groups the backlog by signature, resolves artist aliases in one
// pass, evaluates each signature exactly once, and applies the outcome:
// auto-links write every member log atomically with an audit, review
// outcomes land in the queue, rejects leave the logs untouched. Runs
// checkpoint progress between batches and survive per-signature
// failures; the thresholds in force when a run starts hold for its
// entire duration.
package discovery
