package store_test

import (
	"context"
	"testing"

	"airmatch/internal/classify"
	"airmatch/internal/normalize"
	"airmatch/internal/store"
	"airmatch/internal/testsupport"
)

func TestOpenSeedsThresholds(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithThresholds(0.95, 0.75, 0.90, 0.70))
	st := testsupport.MustOpenStore(t, cfg)

	th, err := st.Thresholds(context.Background())
	if err != nil {
		t.Fatalf("Thresholds: %v", err)
	}
	if th.ArtistAuto != 0.95 || th.TitleReview != 0.70 {
		t.Fatalf("unexpected seeded thresholds: %+v", th)
	}
}

func TestSetThresholdsRejectsInvalidAndKeepsPrior(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	prior, err := st.Thresholds(ctx)
	if err != nil {
		t.Fatalf("Thresholds: %v", err)
	}

	invalid := classify.Thresholds{ArtistAuto: 0.5, ArtistReview: 0.7, TitleAuto: 0.8, TitleReview: 0.6}
	if err := st.SetThresholds(ctx, invalid); err == nil {
		t.Fatal("expected configuration error for auto < review")
	}

	after, err := st.Thresholds(ctx)
	if err != nil {
		t.Fatalf("Thresholds after rejection: %v", err)
	}
	if after != prior {
		t.Fatalf("thresholds changed after rejected update: %+v != %+v", after, prior)
	}
}

func TestUpsertWorkDeduplicatesOnNormalizedKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first, err := st.UpsertWork(ctx, "Hey Jude", []string{"The Beatles"})
	if err != nil {
		t.Fatalf("UpsertWork: %v", err)
	}
	second, err := st.UpsertWork(ctx, "HEY JUDE", []string{"BEATLES"})
	if err != nil {
		t.Fatalf("UpsertWork duplicate: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected deduplication, got ids %d and %d", first.ID, second.ID)
	}

	works, err := st.ListWorks(ctx)
	if err != nil {
		t.Fatalf("ListWorks: %v", err)
	}
	if len(works) != 1 {
		t.Fatalf("expected 1 work, got %d", len(works))
	}
	if works[0].ArtistNames() != "The Beatles" {
		t.Fatalf("unexpected artists: %q", works[0].ArtistNames())
	}
}

func TestWorkKeepsArtistOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	work := testsupport.SeedWork(t, st, "Under Pressure", "Queen", "David Bowie")
	if work.ArtistNames() != "Queen & David Bowie" {
		t.Fatalf("artist order lost: %q", work.ArtistNames())
	}
}

func TestRecordings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	work := testsupport.SeedWork(t, st, "Hey Jude", "The Beatles")
	if _, err := st.AddRecording(ctx, work.ID, "Hey Jude (Live)", normalize.VersionLive); err != nil {
		t.Fatalf("AddRecording: %v", err)
	}
	recs, err := st.Recordings(ctx, work.ID)
	if err != nil {
		t.Fatalf("Recordings: %v", err)
	}
	if len(recs) != 1 || recs[0].VersionType != normalize.VersionLive {
		t.Fatalf("unexpected recordings: %#v", recs)
	}

	if _, err := st.AddRecording(ctx, 9999, "Ghost", normalize.VersionOriginal); err == nil {
		t.Fatal("expected error for missing work")
	}
}

func TestUnmatchedGroupsCountsOccurrences(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedLogs(t, st, "KEXP", "BEATLES", "HEY JUDE", 3)
	testsupport.SeedLogs(t, st, "KCRW", "The Beatles", "Hey Jude", 2)
	testsupport.SeedLog(t, st, "KEXP", "Queen", "Under Pressure")

	groups, err := st.UnmatchedGroups(ctx)
	if err != nil {
		t.Fatalf("UnmatchedGroups: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 signature groups, got %d", len(groups))
	}

	bySig := make(map[string]store.SignatureGroup)
	for _, g := range groups {
		bySig[g.Signature] = g
	}
	judeSig := normalize.Signature("The Beatles", "Hey Jude")
	if g, ok := bySig[judeSig]; !ok || g.Occurrences != 5 {
		t.Fatalf("expected 5 occurrences for collapsed signature, got %+v", g)
	}
}

func TestLinkSignatureAtomicAndWriteOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	work := testsupport.SeedWork(t, st, "Hey Jude", "The Beatles")
	testsupport.SeedLogs(t, st, "KEXP", "BEATLES", "HEY JUDE", 3)
	sig := normalize.Signature("BEATLES", "HEY JUDE")

	ids, err := st.LinkSignature(ctx, sig, work.ID, "auto_link")
	if err != nil {
		t.Fatalf("LinkSignature: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 linked rows, got %d", len(ids))
	}

	// Linking again finds nothing: links are written exactly once.
	again, err := st.LinkSignature(ctx, sig, work.ID, "auto_link")
	if err != nil {
		t.Fatalf("LinkSignature repeat: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected no rows on repeat link, got %d", len(again))
	}

	logs, err := st.LogsBySignature(ctx, sig)
	if err != nil {
		t.Fatalf("LogsBySignature: %v", err)
	}
	for _, log := range logs {
		if log.WorkID != work.ID || log.MatchReason != "auto_link" {
			t.Fatalf("log not linked correctly: %+v", log)
		}
		if log.RawArtist != "BEATLES" {
			t.Fatalf("raw fields must stay untouched: %+v", log)
		}
	}

	unmatched, err := st.CountUnmatched(ctx)
	if err != nil {
		t.Fatalf("CountUnmatched: %v", err)
	}
	if unmatched != 0 {
		t.Fatalf("expected 0 unmatched, got %d", unmatched)
	}
}

func TestUnlinkLogsRestoresUnmatched(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	work := testsupport.SeedWork(t, st, "Hey Jude", "The Beatles")
	testsupport.SeedLogs(t, st, "KEXP", "Beatles", "Hey Jude", 2)
	sig := normalize.Signature("Beatles", "Hey Jude")

	ids, err := st.LinkSignature(ctx, sig, work.ID, "manual")
	if err != nil {
		t.Fatalf("LinkSignature: %v", err)
	}
	if err := st.UnlinkLogs(ctx, ids); err != nil {
		t.Fatalf("UnlinkLogs: %v", err)
	}

	unmatched, err := st.CountUnmatched(ctx)
	if err != nil {
		t.Fatalf("CountUnmatched: %v", err)
	}
	if unmatched != 2 {
		t.Fatalf("expected 2 unmatched after unlink, got %d", unmatched)
	}
}
