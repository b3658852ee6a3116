package store_test

import (
	"context"
	"testing"

	"airmatch/internal/normalize"
	"airmatch/internal/store"
	"airmatch/internal/testsupport"
)

func TestBridgeLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	work := testsupport.SeedWork(t, st, "Hey Jude", "The Beatles")
	sig := normalize.Signature("BEATLES", "HEY JUDE")

	bridge, err := st.UpsertBridge(ctx, sig, work.ID, "BEATLES", "HEY JUDE")
	if err != nil {
		t.Fatalf("UpsertBridge: %v", err)
	}
	if bridge.State != store.BridgeActive {
		t.Fatalf("new bridge should be active, got %s", bridge.State)
	}

	found, err := st.LookupBridge(ctx, sig)
	if err != nil {
		t.Fatalf("LookupBridge: %v", err)
	}
	if found == nil || found.ID != bridge.ID {
		t.Fatalf("expected active bridge, got %#v", found)
	}

	if err := st.SetBridgeRevoked(ctx, bridge.ID, true); err != nil {
		t.Fatalf("SetBridgeRevoked: %v", err)
	}
	found, err = st.LookupBridge(ctx, sig)
	if err != nil {
		t.Fatalf("LookupBridge after revoke: %v", err)
	}
	if found != nil {
		t.Fatal("revoked bridge must be invisible to lookup")
	}

	// The revoked row is retained, not deleted.
	kept, err := st.GetBridge(ctx, bridge.ID)
	if err != nil {
		t.Fatalf("GetBridge: %v", err)
	}
	if kept == nil || kept.State != store.BridgeRevoked {
		t.Fatalf("revoked bridge should be retained: %#v", kept)
	}

	// Revocation is reversible.
	if err := st.SetBridgeRevoked(ctx, bridge.ID, false); err != nil {
		t.Fatalf("restore bridge: %v", err)
	}
	found, err = st.LookupBridge(ctx, sig)
	if err != nil {
		t.Fatalf("LookupBridge after restore: %v", err)
	}
	if found == nil || found.ID != bridge.ID {
		t.Fatal("restored bridge should be visible again")
	}
}

func TestUpsertBridgeReplacesActiveRow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	jude := testsupport.SeedWork(t, st, "Hey Jude", "The Beatles")
	letItBe := testsupport.SeedWork(t, st, "Let It Be", "The Beatles")
	sig := normalize.Signature("Beatles", "Hey Jude")

	first, err := st.UpsertBridge(ctx, sig, jude.ID, "Beatles", "Hey Jude")
	if err != nil {
		t.Fatalf("first UpsertBridge: %v", err)
	}
	second, err := st.UpsertBridge(ctx, sig, letItBe.ID, "Beatles", "Hey Jude")
	if err != nil {
		t.Fatalf("second UpsertBridge: %v", err)
	}

	active, err := st.LookupBridge(ctx, sig)
	if err != nil {
		t.Fatalf("LookupBridge: %v", err)
	}
	if active == nil || active.ID != second.ID || active.WorkID != letItBe.ID {
		t.Fatalf("expected replacement bridge active, got %#v", active)
	}

	old, err := st.GetBridge(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetBridge old: %v", err)
	}
	if old.State != store.BridgeRevoked {
		t.Fatalf("superseded bridge should be revoked, got %s", old.State)
	}

	bridges, err := st.ListBridges(ctx)
	if err != nil {
		t.Fatalf("ListBridges: %v", err)
	}
	if len(bridges) != 2 {
		t.Fatalf("expected both bridge rows retained, got %d", len(bridges))
	}
}

func TestRestoreBridgeBlockedByNewerActive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	jude := testsupport.SeedWork(t, st, "Hey Jude", "The Beatles")
	letItBe := testsupport.SeedWork(t, st, "Let It Be", "The Beatles")
	sig := normalize.Signature("Beatles", "Hey Jude")

	first, err := st.UpsertBridge(ctx, sig, jude.ID, "Beatles", "Hey Jude")
	if err != nil {
		t.Fatalf("UpsertBridge: %v", err)
	}
	if _, err := st.UpsertBridge(ctx, sig, letItBe.ID, "Beatles", "Hey Jude"); err != nil {
		t.Fatalf("second UpsertBridge: %v", err)
	}

	if err := st.SetBridgeRevoked(ctx, first.ID, false); err == nil {
		t.Fatal("restoring a superseded bridge must fail while another is active")
	}
}
