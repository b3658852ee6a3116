package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"airmatch/internal/normalize"
)

// InsertProposedSplit records a heuristic suggestion that a raw artist
// string names multiple artists. A pending proposal for the same
// normalized raw string is left untouched; resolved proposals do not
// block a new one.
func (s *Store) InsertProposedSplit(ctx context.Context, rawArtist string, parts []string, confidence float64) (*ProposedSplit, error) {
	rawArtist = strings.TrimSpace(rawArtist)
	if rawArtist == "" {
		return nil, errors.New("split raw artist is empty")
	}
	if len(parts) < 2 {
		return nil, errors.New("split requires at least two parts")
	}
	normRaw := normalize.CleanArtist(rawArtist)

	if existing, err := s.pendingSplitByNormRaw(ctx, normRaw); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	partsJSON, err := json.Marshal(parts)
	if err != nil {
		return nil, fmt.Errorf("marshal split parts: %w", err)
	}

	now := nowStamp()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO proposed_splits (raw_artist, norm_raw, parts_json, confidence, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rawArtist, normRaw, string(partsJSON), confidence, SplitPending, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert split: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("split insert id: %w", err)
	}
	return s.GetSplit(ctx, id)
}

// GetSplit fetches a proposed split by id.
func (s *Store) GetSplit(ctx context.Context, id int64) (*ProposedSplit, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+splitColumns+` FROM proposed_splits WHERE id = ?`, id)
	split, err := scanSplit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get split: %w", err)
	}
	return split, nil
}

// ListSplits returns proposals filtered by status, or all when status is
// empty, newest first.
func (s *Store) ListSplits(ctx context.Context, status SplitStatus) ([]*ProposedSplit, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+splitColumns+` FROM proposed_splits ORDER BY id DESC`)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+splitColumns+` FROM proposed_splits WHERE status = ? ORDER BY id DESC`, status)
	}
	if err != nil {
		return nil, fmt.Errorf("list splits: %w", err)
	}
	defer rows.Close()

	var splits []*ProposedSplit
	for rows.Next() {
		split, err := scanSplit(rows)
		if err != nil {
			return nil, err
		}
		splits = append(splits, split)
	}
	return splits, rows.Err()
}

// SetSplitStatus resolves a proposal. Only pending proposals can change
// state; resolution is a human decision and happens once.
func (s *Store) SetSplitStatus(ctx context.Context, id int64, status SplitStatus) error {
	if status != SplitApproved && status != SplitRejected {
		return fmt.Errorf("invalid split resolution %q", status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE proposed_splits SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		status, nowStamp(), id, SplitPending,
	)
	if err != nil {
		return fmt.Errorf("set split status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("split rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("split %d is not pending", id)
	}
	return nil
}

func (s *Store) pendingSplitByNormRaw(ctx context.Context, normRaw string) (*ProposedSplit, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+splitColumns+` FROM proposed_splits WHERE norm_raw = ? AND status = ?`,
		normRaw, SplitPending)
	split, err := scanSplit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pending split lookup: %w", err)
	}
	return split, nil
}

const splitColumns = "id, raw_artist, parts_json, confidence, status, created_at, updated_at"

func scanSplit(scanner interface{ Scan(dest ...any) error }) (*ProposedSplit, error) {
	var (
		split      ProposedSplit
		partsJSON  string
		statusStr  string
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&split.ID, &split.RawArtist, &partsJSON, &split.Confidence, &statusStr, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(partsJSON), &split.Parts); err != nil {
		return nil, fmt.Errorf("decode split parts: %w", err)
	}
	split.Status = SplitStatus(statusStr)
	if created, err := parseTimeString(createdRaw); err == nil {
		split.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		split.UpdatedAt = updated
	}
	return &split, nil
}
