package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"airmatch/internal/artistid"
	"airmatch/internal/classify"
	"airmatch/internal/config"
	"airmatch/internal/logging"
	"airmatch/internal/match"
	"airmatch/internal/normalize"
	"airmatch/internal/store"
	"airmatch/internal/vectorindex"
)

// Builder runs discovery batches: it walks every unmatched signature,
// generates candidates, classifies them, and either links automatically
// or files the signature into the review queue.
type Builder struct {
	cfg      *config.Config
	store    *store.Store
	resolver *artistid.Resolver
	logger   *slog.Logger
}

// NewBuilder constructs a discovery builder.
func NewBuilder(cfg *config.Config, st *store.Store, logger *slog.Logger) *Builder {
	return &Builder{
		cfg:      cfg,
		store:    st,
		resolver: artistid.NewResolver(st, logger),
		logger:   logging.WithComponent(logger, "discovery"),
	}
}

// RunDiscovery processes the full unmatched backlog.
func (b *Builder) RunDiscovery(ctx context.Context) (*store.Run, error) {
	return b.run(ctx, store.RunDiscovery)
}

// ReEvaluate clears the review queue and reprocesses the backlog under
// the current thresholds. Existing links are never revisited.
func (b *Builder) ReEvaluate(ctx context.Context) (*store.Run, error) {
	return b.run(ctx, store.RunReEvaluate)
}

func (b *Builder) run(ctx context.Context, kind store.RunKind) (*store.Run, error) {
	run, err := b.store.CreateRun(ctx, kind)
	if err != nil {
		return nil, err
	}

	runErr := b.process(ctx, run, kind)
	status := store.RunCompleted
	message := ""
	switch {
	case errors.Is(runErr, context.Canceled):
		status = store.RunCancelled
	case runErr != nil:
		status = store.RunFailed
		message = runErr.Error()
	}
	// The terminal status must persist even when the run context is
	// already cancelled.
	finishCtx := context.WithoutCancel(ctx)
	if err := b.store.FinishRun(finishCtx, run.ID, status, message); err != nil {
		b.logger.Error("finish run", logging.String("run_id", run.ID), logging.Error(err))
	}

	finished, err := b.store.GetRun(finishCtx, run.ID)
	if err != nil {
		return run, runErr
	}
	return finished, runErr
}

func (b *Builder) process(ctx context.Context, run *store.Run, kind store.RunKind) error {
	// Thresholds are snapshotted once; edits made mid-run apply to the
	// next run, never this one.
	thresholds, err := b.store.Thresholds(ctx)
	if err != nil {
		return err
	}

	if kind == store.RunReEvaluate {
		if _, err := b.store.ClearQueue(ctx); err != nil {
			return err
		}
	}

	index, err := vectorindex.Build(ctx, b.store, b.logger)
	if err != nil {
		// The semantic channel is optional: note the degradation and
		// keep going on the exact and fuzzy channels.
		b.logger.Warn("vector index unavailable, running degraded", logging.Error(err))
		index = nil
	}

	gen, err := match.NewGenerator(ctx, b.store, index, match.Options{
		Thresholds: thresholds,
		FuzzyFloor: b.cfg.Matching.FuzzyFloor,
		VectorTopK: b.cfg.Matching.VectorTopK,
	}, b.logger)
	if err != nil {
		return err
	}
	if gen.Degraded() {
		if err := b.store.SetRunDegraded(ctx, run.ID); err != nil {
			return err
		}
	}

	knownKeys, err := b.knownArtistKeys(ctx)
	if err != nil {
		return err
	}

	groups, err := b.store.UnmatchedGroups(ctx)
	if err != nil {
		return err
	}
	total := len(groups)
	if err := b.store.UpdateRunProgress(ctx, run.ID, 0, total, 0, ""); err != nil {
		return err
	}

	resolutions, err := b.resolveArtists(ctx, groups)
	if err != nil {
		return err
	}

	// Precompute semantic neighbors for the whole backlog in chunks so
	// the per-signature loop never issues individual index queries.
	queries := make([]match.NeighborQuery, 0, len(groups))
	for _, group := range groups {
		effective := group.RawArtist
		if res, ok := resolutions[group.RawArtist]; ok && !res.Ignored {
			effective = res.Effective
		}
		queries = append(queries, match.NeighborQuery{
			Signature: group.Signature,
			Artist:    effective,
			Title:     group.RawTitle,
		})
	}
	if err := gen.PrecomputeNeighbors(ctx, queries, b.cfg.Discovery.SearchChunkSize); err != nil {
		return err
	}

	batchSize := b.cfg.Discovery.SignatureBatchSize
	if batchSize <= 0 {
		batchSize = 1
	}

	done := 0
	failures := 0
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			b.checkpoint(context.WithoutCancel(ctx), run.ID, done, total, failures, group.Signature)
			return err
		}

		if err := b.processGroup(ctx, gen, group, resolutions[group.RawArtist], thresholds, knownKeys); err != nil {
			// One bad signature must not sink the batch.
			failures++
			b.logger.Error("signature failed",
				logging.String("signature", group.Signature),
				logging.String("raw_artist", group.RawArtist),
				logging.Error(err))
		}
		done++
		if done%batchSize == 0 {
			b.checkpoint(ctx, run.ID, done, total, failures, group.Signature)
		}
	}

	if err := b.store.UpdateRunProgress(ctx, run.ID, done, total, failures, ""); err != nil {
		return err
	}
	if failures > 0 {
		b.logger.Warn("run completed with failures",
			logging.String("run_id", run.ID),
			logging.Int("failures", failures))
	}
	return nil
}

// processGroup evaluates one signature exactly once and applies the
// outcome atomically for every log sharing it.
func (b *Builder) processGroup(ctx context.Context, gen *match.Generator, group store.SignatureGroup, resolution artistid.Resolution, thresholds classify.Thresholds, knownKeys map[string]bool) error {
	if resolution.RawArtist == "" {
		resolution = artistid.Resolution{RawArtist: group.RawArtist, Effective: group.RawArtist}
	}

	// An explicit never-match alias ends evaluation before any scoring.
	if resolution.Ignored {
		_, err := b.store.RemoveQueueItem(ctx, group.Signature)
		return err
	}

	if _, err := b.resolver.MaybeProposeSplit(ctx, group.RawArtist, knownKeys); err != nil {
		return err
	}

	result, err := gen.Generate(ctx, group.Signature, resolution.Effective, group.RawTitle)
	if err != nil {
		return err
	}
	best := result.Best()
	if best == nil {
		_, err := b.store.RemoveQueueItem(ctx, group.Signature)
		return err
	}

	category := classify.Classify(best.ArtistScore, best.TitleScore, best.MatchType, thresholds)
	switch category {
	case classify.CategoryIdentityBridge:
		return b.link(ctx, group, best.Work, string(classify.MatchIdentityBridge), store.AuditSourceBridge, false)
	case classify.CategoryAutoLink:
		reason := fmt.Sprintf("auto_link:%s", best.MatchType)
		return b.link(ctx, group, best.Work, reason, store.AuditSourceAuto, b.cfg.Matching.PromoteAutoLinks)
	case classify.CategoryReview:
		_, err := b.store.UpsertQueueItem(ctx, &store.QueueItem{
			Signature:       group.Signature,
			RawArtist:       group.RawArtist,
			RawTitle:        group.RawTitle,
			Occurrences:     group.Occurrences,
			SuggestedWorkID: best.Work.ID,
			Category:        category,
			ArtistScore:     best.ArtistScore,
			TitleScore:      best.TitleScore,
			Warnings:        classify.TitleWarnings(group.RawTitle, best.Work.Title),
		})
		return err
	default:
		_, err := b.store.RemoveQueueItem(ctx, group.Signature)
		return err
	}
}

// link applies a decided match to every unlinked log for the signature,
// writes the audit, optionally promotes a bridge, and clears any review
// queue entry. Already-linked signatures are a no-op.
func (b *Builder) link(ctx context.Context, group store.SignatureGroup, work *store.Work, reason string, source store.AuditSource, promote bool) error {
	ids, err := b.store.LinkSignature(ctx, group.Signature, work.ID, reason)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		if _, err := b.store.InsertLinkAudit(ctx, group.Signature, work.ID, ids, source); err != nil {
			return err
		}
	}
	if promote {
		if _, err := b.store.UpsertBridge(ctx, group.Signature, work.ID, group.RawArtist, group.RawTitle); err != nil {
			return err
		}
	}
	if _, err := b.store.RemoveQueueItem(ctx, group.Signature); err != nil {
		return err
	}
	return nil
}

func (b *Builder) resolveArtists(ctx context.Context, groups []store.SignatureGroup) (map[string]artistid.Resolution, error) {
	distinct := make([]string, 0, len(groups))
	seen := make(map[string]bool, len(groups))
	for _, group := range groups {
		if seen[group.RawArtist] {
			continue
		}
		seen[group.RawArtist] = true
		distinct = append(distinct, group.RawArtist)
	}
	return b.resolver.ResolveBatch(ctx, distinct)
}

// knownArtistKeys collects normalized keys for every catalog artist and
// artist set, so collaboration detection skips names the library
// already treats as one unit.
func (b *Builder) knownArtistKeys(ctx context.Context) (map[string]bool, error) {
	works, err := b.store.ListWorks(ctx)
	if err != nil {
		return nil, err
	}
	keys := make(map[string]bool)
	for _, work := range works {
		keys[normalize.CleanArtist(work.ArtistNames())] = true
		for _, artist := range work.Artists {
			keys[normalize.CleanArtist(artist.Name)] = true
		}
	}
	return keys, nil
}

func (b *Builder) checkpoint(ctx context.Context, runID string, done, total, failures int, signature string) {
	if err := b.store.UpdateRunProgress(ctx, runID, done, total, failures, signature); err != nil {
		b.logger.Error("persist checkpoint", logging.String("run_id", runID), logging.Error(err))
	}
}
