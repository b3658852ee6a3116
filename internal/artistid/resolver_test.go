package artistid_test

import (
	"context"
	"testing"

	"airmatch/internal/artistid"
	"airmatch/internal/logging"
	"airmatch/internal/store"
	"airmatch/internal/testsupport"
)

func newResolver(t *testing.T) (*artistid.Resolver, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	return artistid.NewResolver(st, logging.NewNop()), st
}

func TestResolveSubstitutesAlias(t *testing.T) {
	resolver, st := newResolver(t)
	ctx := context.Background()

	canonical := "The Beatles"
	if _, err := st.SetAlias(ctx, "Betles", &canonical); err != nil {
		t.Fatalf("SetAlias: %v", err)
	}

	res, err := resolver.Resolve(ctx, "Betles")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.Aliased || res.Effective != canonical || res.Ignored {
		t.Fatalf("unexpected resolution: %+v", res)
	}
}

func TestResolveUnmappedPassesThrough(t *testing.T) {
	resolver, _ := newResolver(t)

	res, err := resolver.Resolve(context.Background(), "Queen")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Aliased || res.Ignored || res.Effective != "Queen" {
		t.Fatalf("unexpected resolution: %+v", res)
	}
}

func TestResolveNullAliasIgnores(t *testing.T) {
	resolver, st := newResolver(t)
	ctx := context.Background()

	if _, err := st.SetAlias(ctx, "GnR", nil); err != nil {
		t.Fatalf("SetAlias: %v", err)
	}
	res, err := resolver.Resolve(ctx, "GnR")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.Ignored {
		t.Fatalf("null alias should resolve as ignored: %+v", res)
	}
}

func TestResolveBatchCoversAllInputs(t *testing.T) {
	resolver, st := newResolver(t)
	ctx := context.Background()

	canonical := "The Beatles"
	if _, err := st.SetAlias(ctx, "Betles", &canonical); err != nil {
		t.Fatalf("SetAlias: %v", err)
	}

	out, err := resolver.ResolveBatch(ctx, []string{"Betles", "Queen", "Nirvana"})
	if err != nil {
		t.Fatalf("ResolveBatch: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected resolution for every input, got %d", len(out))
	}
	if !out["Betles"].Aliased || out["Queen"].Aliased {
		t.Fatalf("unexpected batch result: %+v", out)
	}
}

func TestMaybeProposeSplit(t *testing.T) {
	resolver, _ := newResolver(t)
	ctx := context.Background()

	split, err := resolver.MaybeProposeSplit(ctx, "Artist A feat. Artist B", nil)
	if err != nil {
		t.Fatalf("MaybeProposeSplit: %v", err)
	}
	if split == nil {
		t.Fatal("expected a split proposal")
	}
	if len(split.Parts) != 2 || split.Parts[0] != "Artist A" {
		t.Fatalf("unexpected parts: %v", split.Parts)
	}
	if split.Status != store.SplitPending {
		t.Fatalf("proposal should be pending, got %s", split.Status)
	}
	if split.Confidence < 0.9 {
		t.Fatalf("feat. marker should carry high confidence, got %v", split.Confidence)
	}

	// A second detection reuses the pending proposal.
	again, err := resolver.MaybeProposeSplit(ctx, "Artist A feat. Artist B", nil)
	if err != nil {
		t.Fatalf("MaybeProposeSplit repeat: %v", err)
	}
	if again == nil || again.ID != split.ID {
		t.Fatalf("expected the pending proposal to be reused: %#v", again)
	}
}

func TestMaybeProposeSplitSkipsKnownArtistSets(t *testing.T) {
	resolver, _ := newResolver(t)
	known := map[string]bool{"simon & garfunkel": true}

	split, err := resolver.MaybeProposeSplit(context.Background(), "Simon & Garfunkel", known)
	if err != nil {
		t.Fatalf("MaybeProposeSplit: %v", err)
	}
	if split != nil {
		t.Fatalf("known artist set should not produce a proposal: %#v", split)
	}
}

func TestMaybeProposeSplitSkipsAliasedNames(t *testing.T) {
	resolver, st := newResolver(t)
	ctx := context.Background()

	canonical := "AC/DC"
	if _, err := st.SetAlias(ctx, "AC/DC", &canonical); err != nil {
		t.Fatalf("SetAlias: %v", err)
	}
	split, err := resolver.MaybeProposeSplit(ctx, "AC/DC", nil)
	if err != nil {
		t.Fatalf("MaybeProposeSplit: %v", err)
	}
	if split != nil {
		t.Fatalf("aliased name should not produce a proposal: %#v", split)
	}
}

func TestMaybeProposeSplitRequiresMarker(t *testing.T) {
	resolver, _ := newResolver(t)

	split, err := resolver.MaybeProposeSplit(context.Background(), "Nirvana", nil)
	if err != nil {
		t.Fatalf("MaybeProposeSplit: %v", err)
	}
	if split != nil {
		t.Fatalf("no marker should mean no proposal: %#v", split)
	}
}
