package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"airmatch/internal/normalize"
)

// InsertBroadcastLog records one play event from the ingestion pipeline.
// The signature column is computed here so discovery can group unmatched
// rows with a single query.
func (s *Store) InsertBroadcastLog(ctx context.Context, station, rawArtist, rawTitle string, playedAt time.Time) (*BroadcastLog, error) {
	if rawArtist == "" && rawTitle == "" {
		return nil, errors.New("broadcast log requires artist or title")
	}
	signature := normalize.Signature(rawArtist, rawTitle)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO broadcast_logs (station, raw_artist, raw_title, signature, played_at, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		station, rawArtist, rawTitle, signature,
		playedAt.UTC().Format(time.RFC3339Nano), nowStamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert broadcast log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("broadcast log insert id: %w", err)
	}
	return s.GetBroadcastLog(ctx, id)
}

// GetBroadcastLog fetches one play event by id.
func (s *Store) GetBroadcastLog(ctx context.Context, id int64) (*BroadcastLog, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+logColumns+` FROM broadcast_logs WHERE id = ?`, id)
	log, err := scanBroadcastLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get broadcast log: %w", err)
	}
	return log, nil
}

// UnmatchedGroups aggregates all broadcast logs lacking a work link by
// signature, counting occurrences. One raw pair per group is carried as
// the representative for scoring and display; all members normalize
// identically so any member serves.
func (s *Store) UnmatchedGroups(ctx context.Context) ([]SignatureGroup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT signature, raw_artist, raw_title, COUNT(1)
         FROM broadcast_logs
         WHERE work_id IS NULL
         GROUP BY signature
         ORDER BY signature`)
	if err != nil {
		return nil, fmt.Errorf("group unmatched logs: %w", err)
	}
	defer rows.Close()

	var groups []SignatureGroup
	for rows.Next() {
		var g SignatureGroup
		if err := rows.Scan(&g.Signature, &g.RawArtist, &g.RawTitle, &g.Occurrences); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// LinkSignature sets the work link on every unmatched broadcast log
// sharing a signature, atomically: all rows update together or none do.
// It returns the ids of the rows that were linked. Rows already linked
// are never overwritten.
func (s *Store) LinkSignature(ctx context.Context, signature string, workID int64, reason string) ([]int64, error) {
	if signature == "" {
		return nil, errors.New("signature is empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin link tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM broadcast_logs WHERE signature = ? AND work_id IS NULL`, signature)
	if err != nil {
		return nil, fmt.Errorf("select unlinked logs: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(ids) == 0 {
		return nil, nil
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE broadcast_logs SET work_id = ?, match_reason = ?
         WHERE signature = ? AND work_id IS NULL`,
		workID, nullableString(reason), signature,
	)
	if err != nil {
		return nil, fmt.Errorf("link logs: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("link rows affected: %w", err)
	}
	if affected != int64(len(ids)) {
		return nil, fmt.Errorf("link race on signature %s: expected %d rows, updated %d", signature, len(ids), affected)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit link: %w", err)
	}
	return ids, nil
}

// UnlinkLogs clears the work link on the given rows, used by undo.
func (s *Store) UnlinkLogs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE broadcast_logs SET work_id = NULL, match_reason = NULL WHERE id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("unlink logs: %w", err)
	}
	return nil
}

// LogsBySignature returns all play events sharing a signature.
func (s *Store) LogsBySignature(ctx context.Context, signature string) ([]*BroadcastLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+logColumns+` FROM broadcast_logs WHERE signature = ? ORDER BY played_at`, signature)
	if err != nil {
		return nil, fmt.Errorf("logs by signature: %w", err)
	}
	defer rows.Close()

	var logs []*BroadcastLog
	for rows.Next() {
		log, err := scanBroadcastLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// CountUnmatched returns the number of broadcast logs with no work link.
func (s *Store) CountUnmatched(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM broadcast_logs WHERE work_id IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unmatched: %w", err)
	}
	return count, nil
}

const logColumns = "id, station, raw_artist, raw_title, signature, played_at, work_id, match_reason, created_at"

func scanBroadcastLog(scanner interface{ Scan(dest ...any) error }) (*BroadcastLog, error) {
	var (
		log         BroadcastLog
		playedRaw   string
		workID      sql.NullInt64
		matchReason sql.NullString
		createdRaw  string
	)
	if err := scanner.Scan(
		&log.ID, &log.Station, &log.RawArtist, &log.RawTitle,
		&log.Signature, &playedRaw, &workID, &matchReason, &createdRaw,
	); err != nil {
		return nil, err
	}
	log.WorkID = workID.Int64
	log.MatchReason = matchReason.String
	if played, err := parseTimeString(playedRaw); err == nil {
		log.PlayedAt = played
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		log.CreatedAt = created
	}
	return &log, nil
}
