package store_test

import (
	"context"
	"errors"
	"testing"

	"airmatch/internal/store"
	"airmatch/internal/testsupport"
)

func TestCreateRunEnforcesSingleActive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, store.RunDiscovery)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	if _, err := st.CreateRun(ctx, store.RunDiscovery); !errors.Is(err, store.ErrRunActive) {
		t.Fatalf("expected ErrRunActive, got %v", err)
	}

	if err := st.FinishRun(ctx, run.ID, store.RunCompleted, ""); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	if _, err := st.CreateRun(ctx, store.RunReEvaluate); err != nil {
		t.Fatalf("CreateRun after finish: %v", err)
	}
}

func TestRunProgressAndDegraded(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, store.RunDiscovery)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := st.UpdateRunProgress(ctx, run.ID, 42, 100, 2, "sig-42"); err != nil {
		t.Fatalf("UpdateRunProgress: %v", err)
	}
	if err := st.SetRunDegraded(ctx, run.ID); err != nil {
		t.Fatalf("SetRunDegraded: %v", err)
	}

	fetched, err := st.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if fetched.ItemsDone != 42 || fetched.ItemsTotal != 100 || fetched.Failures != 2 {
		t.Fatalf("unexpected progress: %+v", fetched)
	}
	if !fetched.Degraded || fetched.Checkpoint != "sig-42" {
		t.Fatalf("expected degraded run with checkpoint: %+v", fetched)
	}
}

func TestResetStuckRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, store.RunDiscovery)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	reset, err := st.ResetStuckRuns(ctx)
	if err != nil {
		t.Fatalf("ResetStuckRuns: %v", err)
	}
	if reset != 1 {
		t.Fatalf("expected 1 run reset, got %d", reset)
	}
	fetched, err := st.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if fetched.Status != store.RunFailed {
		t.Fatalf("expected failed status, got %s", fetched.Status)
	}
}

func TestAuditInsertAndUndoOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	work := testsupport.SeedWork(t, st, "Hey Jude", "The Beatles")
	audit, err := st.InsertLinkAudit(ctx, "sig-1", work.ID, []int64{1, 2, 3}, store.AuditSourceAuto)
	if err != nil {
		t.Fatalf("InsertLinkAudit: %v", err)
	}
	if audit.ID == "" || audit.Undone {
		t.Fatalf("unexpected audit: %+v", audit)
	}
	if len(audit.LogIDs) != 3 {
		t.Fatalf("expected 3 log ids, got %v", audit.LogIDs)
	}

	if err := st.MarkAuditUndone(ctx, audit.ID); err != nil {
		t.Fatalf("MarkAuditUndone: %v", err)
	}
	if err := st.MarkAuditUndone(ctx, audit.ID); err == nil {
		t.Fatal("second undo of the same audit must fail")
	}
}
