package store_test

import (
	"context"
	"testing"

	"airmatch/internal/testsupport"
)

func TestAliasSetResolveAndReplace(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	canonical := "Guns N' Roses"
	if _, err := st.SetAlias(ctx, "GnR", &canonical); err != nil {
		t.Fatalf("SetAlias: %v", err)
	}

	alias, err := st.ResolveAlias(ctx, "GnR")
	if err != nil {
		t.Fatalf("ResolveAlias: %v", err)
	}
	if alias == nil || alias.Canonical == nil || *alias.Canonical != canonical {
		t.Fatalf("unexpected alias: %#v", alias)
	}
	if alias.Ignored() {
		t.Fatal("mapped alias should not report ignored")
	}

	// Replacing with a null mapping flips it to an explicit ignore.
	if _, err := st.SetAlias(ctx, "GnR", nil); err != nil {
		t.Fatalf("SetAlias null: %v", err)
	}
	alias, err = st.ResolveAlias(ctx, "gnr")
	if err != nil {
		t.Fatalf("ResolveAlias normalized: %v", err)
	}
	if alias == nil || !alias.Ignored() {
		t.Fatalf("expected ignored alias, got %#v", alias)
	}
}

func TestResolveAliasMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	alias, err := st.ResolveAlias(context.Background(), "Unknown Artist")
	if err != nil {
		t.Fatalf("ResolveAlias: %v", err)
	}
	if alias != nil {
		t.Fatalf("expected no alias, got %#v", alias)
	}
}

func TestResolveAliasBatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	beatles := "The Beatles"
	if _, err := st.SetAlias(ctx, "Betles", &beatles); err != nil {
		t.Fatalf("SetAlias: %v", err)
	}
	if _, err := st.SetAlias(ctx, "GnR", nil); err != nil {
		t.Fatalf("SetAlias: %v", err)
	}

	resolved, err := st.ResolveAliasBatch(ctx, []string{"Betles", "GnR", "Queen", "BETLES"})
	if err != nil {
		t.Fatalf("ResolveAliasBatch: %v", err)
	}
	if len(resolved) != 3 {
		t.Fatalf("expected 3 resolved entries, got %d: %v", len(resolved), resolved)
	}
	if resolved["Betles"] == nil || resolved["Betles"].Canonical == nil {
		t.Fatalf("Betles should resolve: %#v", resolved["Betles"])
	}
	if resolved["BETLES"] == nil {
		t.Fatal("batch resolution should match case-insensitively")
	}
	if resolved["GnR"] == nil || !resolved["GnR"].Ignored() {
		t.Fatalf("GnR should be an ignore mapping: %#v", resolved["GnR"])
	}
	if _, ok := resolved["Queen"]; ok {
		t.Fatal("unmapped artist should be absent from result")
	}
}

func TestRemoveAlias(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	name := "The Beatles"
	if _, err := st.SetAlias(ctx, "Betles", &name); err != nil {
		t.Fatalf("SetAlias: %v", err)
	}
	removed, err := st.RemoveAlias(ctx, "Betles")
	if err != nil {
		t.Fatalf("RemoveAlias: %v", err)
	}
	if !removed {
		t.Fatal("expected alias removed")
	}
	alias, err := st.ResolveAlias(ctx, "Betles")
	if err != nil {
		t.Fatalf("ResolveAlias: %v", err)
	}
	if alias != nil {
		t.Fatal("alias should be gone")
	}
}
