package testsupport

import (
	"context"
	"testing"
	"time"

	"airmatch/internal/config"
	"airmatch/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

// SeedWork creates a catalog work for tests.
func SeedWork(t testing.TB, st *store.Store, title string, artists ...string) *store.Work {
	t.Helper()

	work, err := st.UpsertWork(context.Background(), title, artists)
	if err != nil {
		t.Fatalf("UpsertWork(%q): %v", title, err)
	}
	return work
}

// SeedLog inserts one broadcast log row for tests.
func SeedLog(t testing.TB, st *store.Store, station, rawArtist, rawTitle string) *store.BroadcastLog {
	t.Helper()

	log, err := st.InsertBroadcastLog(context.Background(), station, rawArtist, rawTitle, time.Now().UTC())
	if err != nil {
		t.Fatalf("InsertBroadcastLog(%q, %q): %v", rawArtist, rawTitle, err)
	}
	return log
}

// SeedLogs inserts the same raw pair n times, simulating repeat plays.
func SeedLogs(t testing.TB, st *store.Store, station, rawArtist, rawTitle string, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		SeedLog(t, st, station, rawArtist, rawTitle)
	}
}
