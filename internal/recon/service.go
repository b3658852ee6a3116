package recon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"airmatch/internal/classify"
	"airmatch/internal/config"
	"airmatch/internal/discovery"
	"airmatch/internal/logging"
	"airmatch/internal/store"
	"airmatch/internal/tasks"
)

// Service is the operational surface of the matcher: it owns the
// discovery builder and the background task manager and exposes every
// human-facing operation with consistent error tagging.
type Service struct {
	cfg     *config.Config
	store   *store.Store
	builder *discovery.Builder
	manager *tasks.Manager
	logger  *slog.Logger
}

// NewService wires a service over an open store.
func NewService(cfg *config.Config, st *store.Store, logger *slog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		store:   st,
		builder: discovery.NewBuilder(cfg, st, logger),
		manager: tasks.NewManager(cfg.LockPath(), logger),
		logger:  logging.WithComponent(logger, "recon"),
	}
}

// RunDiscovery executes a full discovery batch synchronously.
func (s *Service) RunDiscovery(ctx context.Context) (*store.Run, error) {
	run, err := s.builder.RunDiscovery(ctx)
	if errors.Is(err, store.ErrRunActive) {
		return nil, Wrap(ErrConflict, "discovery", "a run is already active", err)
	}
	return run, err
}

// ReEvaluate reprocesses the backlog under the current thresholds.
func (s *Service) ReEvaluate(ctx context.Context) (*store.Run, error) {
	run, err := s.builder.ReEvaluate(ctx)
	if errors.Is(err, store.ErrRunActive) {
		return nil, Wrap(ErrConflict, "reevaluate", "a run is already active", err)
	}
	return run, err
}

// StartDiscovery launches a discovery batch in the background and
// returns immediately. Progress is polled through Status.
func (s *Service) StartDiscovery(ctx context.Context) (*tasks.Task, error) {
	return s.startTask(ctx, "discovery", s.builder.RunDiscovery)
}

// StartReEvaluate launches a re-evaluation batch in the background.
func (s *Service) StartReEvaluate(ctx context.Context) (*tasks.Task, error) {
	return s.startTask(ctx, "reevaluate", s.builder.ReEvaluate)
}

func (s *Service) startTask(ctx context.Context, name string, fn func(context.Context) (*store.Run, error)) (*tasks.Task, error) {
	task, err := s.manager.Start(ctx, name, func(taskCtx context.Context) error {
		_, runErr := fn(taskCtx)
		return runErr
	})
	switch {
	case errors.Is(err, tasks.ErrBusy), errors.Is(err, tasks.ErrLocked):
		return nil, Wrap(ErrConflict, name, "another task is running", err)
	case err != nil:
		return nil, err
	}
	// Progress is served from the run record so the handle and the
	// status command agree on the numbers.
	task.SetProgressFunc(func() tasks.Progress {
		run, err := s.store.LatestRun(context.Background())
		if err != nil || run == nil {
			return tasks.Progress{}
		}
		return tasks.Progress{
			Done:   run.ItemsDone,
			Total:  run.ItemsTotal,
			Status: string(run.Status),
		}
	})
	return task, nil
}

// Shutdown cancels any running background task and waits for it.
func (s *Service) Shutdown() {
	s.manager.Shutdown()
}

// Link applies a manual match decision for one signature: every
// unlinked log sharing it is linked to the work, an audit is written,
// and the review queue entry is cleared. promote additionally records
// a permanent identity bridge for the signature.
func (s *Service) Link(ctx context.Context, signature string, workID int64, promote bool) (*store.LinkAudit, error) {
	if signature == "" {
		return nil, Wrap(ErrValidation, "link", "signature is required", nil)
	}
	work, err := s.store.GetWork(ctx, workID)
	if err != nil {
		return nil, err
	}
	if work == nil {
		return nil, Wrap(ErrNotFound, "link", fmt.Sprintf("work %d does not exist", workID), nil)
	}

	ids, err := s.store.LinkSignature(ctx, signature, workID, "manual")
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, Wrap(ErrConflict, "link", "no unlinked logs carry this signature", nil)
	}
	audit, err := s.store.InsertLinkAudit(ctx, signature, workID, ids, store.AuditSourceManual)
	if err != nil {
		return nil, err
	}

	if promote {
		refArtist, refTitle := signatureReference(ctx, s.store, signature)
		if _, err := s.store.UpsertBridge(ctx, signature, workID, refArtist, refTitle); err != nil {
			return nil, err
		}
	}
	if _, err := s.store.RemoveQueueItem(ctx, signature); err != nil {
		return nil, err
	}
	s.logger.Info("manual link applied",
		logging.String("signature", signature),
		logging.Int64("work_id", workID),
		logging.Int("logs", len(ids)),
		logging.Bool("promoted", promote))
	return audit, nil
}

// Dismiss removes a signature from the review queue without linking.
// The logs stay unmatched and future runs will evaluate them again.
func (s *Service) Dismiss(ctx context.Context, signature string) error {
	removed, err := s.store.RemoveQueueItem(ctx, signature)
	if err != nil {
		return err
	}
	if !removed {
		return Wrap(ErrNotFound, "dismiss", "signature is not queued", nil)
	}
	return nil
}

// Reject drops a queued signature the reviewer decided against.
// Identical to Dismiss; both verbs appear on the queue surface.
func (s *Service) Reject(ctx context.Context, signature string) error {
	return s.Dismiss(ctx, signature)
}

// Undo reverses one linking action: the logs it linked are unlinked and
// any active bridge for the signature is revoked so the next run does
// not instantly relink. Each audit can be undone once.
func (s *Service) Undo(ctx context.Context, auditID string) error {
	audit, err := s.store.GetLinkAudit(ctx, auditID)
	if err != nil {
		return err
	}
	if audit == nil {
		return Wrap(ErrNotFound, "undo", fmt.Sprintf("audit %s does not exist", auditID), nil)
	}
	if audit.Undone {
		return Wrap(ErrConflict, "undo", "audit is already undone", nil)
	}

	if err := s.store.UnlinkLogs(ctx, audit.LogIDs); err != nil {
		return err
	}
	bridge, err := s.store.LookupBridge(ctx, audit.Signature)
	if err != nil {
		return err
	}
	if bridge != nil {
		if err := s.store.SetBridgeRevoked(ctx, bridge.ID, true); err != nil {
			return err
		}
	}
	if err := s.store.MarkAuditUndone(ctx, auditID); err != nil {
		return err
	}
	s.logger.Info("link undone",
		logging.String("audit_id", auditID),
		logging.String("signature", audit.Signature),
		logging.Int("logs", len(audit.LogIDs)))
	return nil
}

// Thresholds returns the active classification thresholds.
func (s *Service) Thresholds(ctx context.Context) (classify.Thresholds, error) {
	return s.store.Thresholds(ctx)
}

// SetThresholds replaces the active thresholds. Existing links and
// queue items are untouched; ReEvaluate applies the new values.
// Invalid orderings are rejected outright, never clamped.
func (s *Service) SetThresholds(ctx context.Context, t classify.Thresholds) error {
	if err := t.Validate(); err != nil {
		return Wrap(ErrConfiguration, "set thresholds", err.Error(), nil)
	}
	return s.store.SetThresholds(ctx, t)
}

// RevokeBridge soft-deletes a bridge. The row is retained and can be
// restored.
func (s *Service) RevokeBridge(ctx context.Context, id int64) error {
	return s.setBridgeState(ctx, id, true)
}

// RestoreBridge reactivates a revoked bridge.
func (s *Service) RestoreBridge(ctx context.Context, id int64) error {
	return s.setBridgeState(ctx, id, false)
}

func (s *Service) setBridgeState(ctx context.Context, id int64, revoked bool) error {
	bridge, err := s.store.GetBridge(ctx, id)
	if err != nil {
		return err
	}
	if bridge == nil {
		return Wrap(ErrNotFound, "bridge", fmt.Sprintf("bridge %d does not exist", id), nil)
	}
	if err := s.store.SetBridgeRevoked(ctx, id, revoked); err != nil {
		return Wrap(ErrConflict, "bridge", "state change rejected", err)
	}
	return nil
}

// StatusReport summarizes the matcher for operators.
type StatusReport struct {
	ActiveRun    *store.Run
	LatestRun    *store.Run
	Unmatched    int
	QueueDepth   int
	PendingSplit int
}

// Status reports run state and backlog depth.
func (s *Service) Status(ctx context.Context) (*StatusReport, error) {
	report := &StatusReport{}
	var err error
	if report.ActiveRun, err = s.store.ActiveRun(ctx); err != nil {
		return nil, err
	}
	if report.LatestRun, err = s.store.LatestRun(ctx); err != nil {
		return nil, err
	}
	if report.Unmatched, err = s.store.CountUnmatched(ctx); err != nil {
		return nil, err
	}
	queue, err := s.store.ListQueue(ctx)
	if err != nil {
		return nil, err
	}
	report.QueueDepth = len(queue)
	splits, err := s.store.ListSplits(ctx, store.SplitPending)
	if err != nil {
		return nil, err
	}
	report.PendingSplit = len(splits)
	return report, nil
}

// signatureReference picks a representative raw pair for a signature,
// for bridge display fields. Falls back to empty strings when no log
// carries the signature anymore.
func signatureReference(ctx context.Context, st *store.Store, signature string) (string, string) {
	logs, err := st.LogsBySignature(ctx, signature)
	if err != nil || len(logs) == 0 {
		return "", ""
	}
	return logs[0].RawArtist, logs[0].RawTitle
}
