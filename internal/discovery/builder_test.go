package discovery_test

import (
	"context"
	"testing"

	"airmatch/internal/classify"
	"airmatch/internal/config"
	"airmatch/internal/discovery"
	"airmatch/internal/logging"
	"airmatch/internal/store"
	"airmatch/internal/testsupport"
)

func newBuilder(t *testing.T) (*discovery.Builder, *store.Store, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	return discovery.NewBuilder(cfg, st, logging.NewNop()), st, cfg
}

func TestRunDiscoveryAutoLinksCleanMatches(t *testing.T) {
	builder, st, _ := newBuilder(t)
	ctx := context.Background()

	jude := testsupport.SeedWork(t, st, "Hey Jude", "The Beatles")
	testsupport.SeedLogs(t, st, "KEXP", "BEATLES", "HEY JUDE", 3)

	run, err := builder.RunDiscovery(ctx)
	if err != nil {
		t.Fatalf("RunDiscovery: %v", err)
	}
	if run.Status != store.RunCompleted {
		t.Fatalf("expected completed run, got %s", run.Status)
	}
	if run.ItemsDone != 1 || run.Failures != 0 {
		t.Fatalf("unexpected run stats: %+v", run)
	}

	unmatched, err := st.CountUnmatched(ctx)
	if err != nil {
		t.Fatalf("CountUnmatched: %v", err)
	}
	if unmatched != 0 {
		t.Fatalf("expected all logs linked, %d remain", unmatched)
	}

	sig := testsupport.SeedLog(t, st, "KEXP", "BEATLES", "HEY JUDE").Signature
	logs, err := st.LogsBySignature(ctx, sig)
	if err != nil {
		t.Fatalf("LogsBySignature: %v", err)
	}
	linked := 0
	for _, l := range logs {
		if l.WorkID == jude.ID {
			linked++
		}
	}
	if linked != 3 {
		t.Fatalf("expected 3 linked logs, got %d", linked)
	}

	audits, err := st.ListLinkAudits(ctx, 10)
	if err != nil {
		t.Fatalf("ListLinkAudits: %v", err)
	}
	if len(audits) != 1 || audits[0].Source != store.AuditSourceAuto || len(audits[0].LogIDs) != 3 {
		t.Fatalf("expected one auto audit covering 3 logs, got %+v", audits)
	}
}

func TestRunDiscoveryPromotesAutoLinkToBridge(t *testing.T) {
	builder, st, cfg := newBuilder(t)
	ctx := context.Background()
	if !cfg.Matching.PromoteAutoLinks {
		t.Fatal("promotion should default on")
	}

	jude := testsupport.SeedWork(t, st, "Hey Jude", "The Beatles")
	log := testsupport.SeedLog(t, st, "KEXP", "BEATLES", "HEY JUDE")

	if _, err := builder.RunDiscovery(ctx); err != nil {
		t.Fatalf("RunDiscovery: %v", err)
	}

	bridge, err := st.LookupBridge(ctx, log.Signature)
	if err != nil {
		t.Fatalf("LookupBridge: %v", err)
	}
	if bridge == nil || bridge.WorkID != jude.ID {
		t.Fatalf("expected promoted bridge for work %d, got %+v", jude.ID, bridge)
	}

	// New plays of the same signature now resolve through the bridge.
	testsupport.SeedLog(t, st, "KCRW", "BEATLES", "HEY JUDE")
	if _, err := builder.RunDiscovery(ctx); err != nil {
		t.Fatalf("second RunDiscovery: %v", err)
	}
	audits, err := st.ListLinkAudits(ctx, 10)
	if err != nil {
		t.Fatalf("ListLinkAudits: %v", err)
	}
	var bridgeAudits int
	for _, a := range audits {
		if a.Source == store.AuditSourceBridge {
			bridgeAudits++
		}
	}
	if bridgeAudits != 1 {
		t.Fatalf("expected one bridge-sourced audit, got %d", bridgeAudits)
	}
}

func TestRunDiscoveryQueuesReviewCandidates(t *testing.T) {
	builder, st, _ := newBuilder(t)
	ctx := context.Background()

	thresholds := classify.Thresholds{ArtistAuto: 0.85, ArtistReview: 0.70, TitleAuto: 0.80, TitleReview: 0.70}
	if err := st.SetThresholds(ctx, thresholds); err != nil {
		t.Fatalf("SetThresholds: %v", err)
	}

	jude := testsupport.SeedWork(t, st, "Hey Jude", "The Beatles")
	log := testsupport.SeedLog(t, st, "KEXP", "The Beetles", "Hey Jude (Live)")

	run, err := builder.RunDiscovery(ctx)
	if err != nil {
		t.Fatalf("RunDiscovery: %v", err)
	}
	if run.Status != store.RunCompleted {
		t.Fatalf("expected completed run, got %s", run.Status)
	}

	// The artist clears its auto bar but the Live qualifier holds the
	// title in the review band, so the pair is queued, never linked.
	item, err := st.GetQueueItem(ctx, log.Signature)
	if err != nil {
		t.Fatalf("GetQueueItem: %v", err)
	}
	if item == nil {
		t.Fatal("expected a review queue item")
	}
	if item.SuggestedWorkID != jude.ID || item.Category != classify.CategoryReview {
		t.Fatalf("unexpected queue item: %+v", item)
	}
	if item.ArtistScore < 0.85 {
		t.Fatalf("misspelled artist should still clear its auto bar: %v", item.ArtistScore)
	}
	if item.TitleScore >= 0.80 || item.TitleScore < 0.70 {
		t.Fatalf("title score outside review band: %v", item.TitleScore)
	}
	if len(item.Warnings) != 0 {
		t.Fatalf("a qualified title is not a truncation: %+v", item.Warnings)
	}

	unmatched, err := st.CountUnmatched(ctx)
	if err != nil {
		t.Fatalf("CountUnmatched: %v", err)
	}
	if unmatched != 1 {
		t.Fatalf("review candidates must stay unlinked, %d unmatched", unmatched)
	}
	fetched, err := st.GetBroadcastLog(ctx, log.ID)
	if err != nil {
		t.Fatalf("GetBroadcastLog: %v", err)
	}
	if fetched.WorkID != 0 {
		t.Fatalf("review candidates must not auto-link: %+v", fetched)
	}
}

func TestRunDiscoveryRejectsGarbage(t *testing.T) {
	builder, st, _ := newBuilder(t)
	ctx := context.Background()

	testsupport.SeedWork(t, st, "Hey Jude", "The Beatles")
	log := testsupport.SeedLog(t, st, "KEXP", "ZZQXWV", "PLGHMK")

	if _, err := builder.RunDiscovery(ctx); err != nil {
		t.Fatalf("RunDiscovery: %v", err)
	}
	item, err := st.GetQueueItem(ctx, log.Signature)
	if err != nil {
		t.Fatalf("GetQueueItem: %v", err)
	}
	if item != nil {
		t.Fatalf("rejected signature must not enter the queue: %+v", item)
	}
	fetched, err := st.GetBroadcastLog(ctx, log.ID)
	if err != nil {
		t.Fatalf("GetBroadcastLog: %v", err)
	}
	if fetched.WorkID != 0 {
		t.Fatalf("rejected log must stay unlinked: %+v", fetched)
	}
}

func TestRunDiscoverySkipsIgnoredArtists(t *testing.T) {
	builder, st, _ := newBuilder(t)
	ctx := context.Background()

	testsupport.SeedWork(t, st, "Sweet Child O' Mine", "Guns N' Roses")
	if _, err := st.SetAlias(ctx, "GnR", nil); err != nil {
		t.Fatalf("SetAlias: %v", err)
	}
	log := testsupport.SeedLog(t, st, "KEXP", "GnR", "Sweet Child O' Mine")

	if _, err := builder.RunDiscovery(ctx); err != nil {
		t.Fatalf("RunDiscovery: %v", err)
	}

	fetched, err := st.GetBroadcastLog(ctx, log.ID)
	if err != nil {
		t.Fatalf("GetBroadcastLog: %v", err)
	}
	if fetched.WorkID != 0 {
		t.Fatal("ignored artist must never link")
	}
	item, err := st.GetQueueItem(ctx, log.Signature)
	if err != nil {
		t.Fatalf("GetQueueItem: %v", err)
	}
	if item != nil {
		t.Fatalf("ignored artist must not enter the queue: %+v", item)
	}
}

func TestRunDiscoveryIsIdempotent(t *testing.T) {
	builder, st, _ := newBuilder(t)
	ctx := context.Background()

	testsupport.SeedWork(t, st, "Hey Jude", "The Beatles")
	testsupport.SeedLogs(t, st, "KEXP", "BEATLES", "HEY JUDE", 2)

	if _, err := builder.RunDiscovery(ctx); err != nil {
		t.Fatalf("first RunDiscovery: %v", err)
	}
	auditsBefore, err := st.ListLinkAudits(ctx, 10)
	if err != nil {
		t.Fatalf("ListLinkAudits: %v", err)
	}

	second, err := builder.RunDiscovery(ctx)
	if err != nil {
		t.Fatalf("second RunDiscovery: %v", err)
	}
	if second.ItemsTotal != 0 {
		t.Fatalf("second run should see an empty backlog, got %d", second.ItemsTotal)
	}
	auditsAfter, err := st.ListLinkAudits(ctx, 10)
	if err != nil {
		t.Fatalf("ListLinkAudits: %v", err)
	}
	if len(auditsAfter) != len(auditsBefore) {
		t.Fatalf("repeat run must not write new audits: %d vs %d", len(auditsAfter), len(auditsBefore))
	}
}

func TestReEvaluateAppliesRelaxedThresholds(t *testing.T) {
	builder, st, _ := newBuilder(t)
	ctx := context.Background()

	strict := classify.Thresholds{ArtistAuto: 0.95, ArtistReview: 0.70, TitleAuto: 0.85, TitleReview: 0.65}
	if err := st.SetThresholds(ctx, strict); err != nil {
		t.Fatalf("SetThresholds: %v", err)
	}

	jude := testsupport.SeedWork(t, st, "Hey Jude", "The Beatles")
	log := testsupport.SeedLog(t, st, "KEXP", "The Beetles", "Hey Jude")

	if _, err := builder.RunDiscovery(ctx); err != nil {
		t.Fatalf("RunDiscovery: %v", err)
	}
	if item, err := st.GetQueueItem(ctx, log.Signature); err != nil || item == nil {
		t.Fatalf("expected review item first, got %+v err=%v", item, err)
	}

	relaxed := classify.Thresholds{ArtistAuto: 0.90, ArtistReview: 0.70, TitleAuto: 0.85, TitleReview: 0.65}
	if err := st.SetThresholds(ctx, relaxed); err != nil {
		t.Fatalf("SetThresholds: %v", err)
	}
	if _, err := builder.ReEvaluate(ctx); err != nil {
		t.Fatalf("ReEvaluate: %v", err)
	}

	item, err := st.GetQueueItem(ctx, log.Signature)
	if err != nil {
		t.Fatalf("GetQueueItem: %v", err)
	}
	if item != nil {
		t.Fatalf("relaxed thresholds should clear the queue item: %+v", item)
	}
	fetched, err := st.GetBroadcastLog(ctx, log.ID)
	if err != nil {
		t.Fatalf("GetBroadcastLog: %v", err)
	}
	if fetched.WorkID != jude.ID {
		t.Fatalf("expected log linked to %d after re-evaluation, got %+v", jude.ID, fetched)
	}
}

func TestRunDiscoveryDegradedWithoutCatalog(t *testing.T) {
	builder, st, _ := newBuilder(t)
	ctx := context.Background()

	testsupport.SeedLog(t, st, "KEXP", "The Beatles", "Hey Jude")

	run, err := builder.RunDiscovery(ctx)
	if err != nil {
		t.Fatalf("RunDiscovery: %v", err)
	}
	if run.Status != store.RunCompleted {
		t.Fatalf("degraded run should still complete, got %s", run.Status)
	}
	if !run.Degraded {
		t.Fatal("empty catalog means no semantic index; run should be degraded")
	}
	unmatched, err := st.CountUnmatched(ctx)
	if err != nil {
		t.Fatalf("CountUnmatched: %v", err)
	}
	if unmatched != 1 {
		t.Fatalf("nothing should link against an empty catalog, %d unmatched", unmatched)
	}
}

func TestRunDiscoveryProposesArtistSplits(t *testing.T) {
	builder, st, _ := newBuilder(t)
	ctx := context.Background()

	testsupport.SeedWork(t, st, "Get Lucky", "Daft Punk")
	testsupport.SeedLog(t, st, "KEXP", "Daft Punk feat. Pharrell Williams", "Get Lucky")

	if _, err := builder.RunDiscovery(ctx); err != nil {
		t.Fatalf("RunDiscovery: %v", err)
	}

	splits, err := st.ListSplits(ctx, store.SplitPending)
	if err != nil {
		t.Fatalf("ListSplits: %v", err)
	}
	if len(splits) != 1 {
		t.Fatalf("expected one pending split, got %d", len(splits))
	}
	if len(splits[0].Parts) != 2 || splits[0].Parts[1] != "Pharrell Williams" {
		t.Fatalf("unexpected split parts: %v", splits[0].Parts)
	}
}
