package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrRunActive signals that a discovery run is already in flight. A
// second trigger fails fast rather than queuing silently.
var ErrRunActive = errors.New("a discovery run is already active")

// CreateRun opens a new run record, enforcing that at most one run is
// active at a time.
func (s *Store) CreateRun(ctx context.Context, kind RunKind) (*Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var activeID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM discovery_runs WHERE status = ? LIMIT 1`, RunRunning).Scan(&activeID)
	if err == nil {
		return nil, fmt.Errorf("%w (run %s)", ErrRunActive, activeID)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check active run: %w", err)
	}

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO discovery_runs (id, kind, status, started_at) VALUES (?, ?, ?, ?)`,
		id, kind, RunRunning, nowStamp(),
	); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit run: %w", err)
	}
	return s.GetRun(ctx, id)
}

// UpdateRunProgress checkpoints a run: items processed so far and the
// last completed signature, persisted so a crash loses at most one batch.
func (s *Store) UpdateRunProgress(ctx context.Context, id string, done, total, failures int, checkpoint string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE discovery_runs SET items_done = ?, items_total = ?, failures = ?, checkpoint = ?
         WHERE id = ?`,
		done, total, failures, nullableString(checkpoint), id,
	)
	if err != nil {
		return fmt.Errorf("update run progress: %w", err)
	}
	return nil
}

// SetRunDegraded records that the vector index was unavailable for this
// run, so results are partial.
func (s *Store) SetRunDegraded(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE discovery_runs SET degraded = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("set run degraded: %w", err)
	}
	return nil
}

// FinishRun closes a run with its terminal status.
func (s *Store) FinishRun(ctx context.Context, id string, status RunStatus, errorMessage string) error {
	if status == RunRunning {
		return errors.New("finish requires a terminal status")
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE discovery_runs SET status = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		status, nullableString(errorMessage), nowStamp(), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// GetRun fetches one run record, or nil.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM discovery_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ActiveRun returns the currently running run, or nil.
func (s *Store) ActiveRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM discovery_runs WHERE status = ? LIMIT 1`, RunRunning)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active run: %w", err)
	}
	return run, nil
}

// LatestRun returns the most recently started run, or nil.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM discovery_runs ORDER BY started_at DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// ResetStuckRuns marks any still-running run as failed, used at startup
// after a crash. Per-signature links already applied remain valid.
func (s *Store) ResetStuckRuns(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE discovery_runs SET status = ?, error_message = 'interrupted', finished_at = ?
         WHERE status = ?`,
		RunFailed, nowStamp(), RunRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck runs: %w", err)
	}
	return res.RowsAffected()
}

const runColumns = "id, kind, status, items_done, items_total, failures, degraded, checkpoint, error_message, started_at, finished_at"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		kindStr     string
		statusStr   string
		degradedInt int
		checkpoint  sql.NullString
		errMsg      sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&run.ID, &kindStr, &statusStr, &run.ItemsDone, &run.ItemsTotal,
		&run.Failures, &degradedInt, &checkpoint, &errMsg, &startedRaw, &finishedRaw,
	); err != nil {
		return nil, err
	}
	run.Kind = RunKind(kindStr)
	run.Status = RunStatus(statusStr)
	run.Degraded = degradedInt != 0
	run.Checkpoint = checkpoint.String
	run.ErrorMessage = errMsg.String
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return &run, nil
}
