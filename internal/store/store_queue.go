package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"airmatch/internal/classify"
)

// UpsertQueueItem creates or refreshes the review queue row for a
// signature. Discovery rebuilds the queue wholesale, so an existing row
// is replaced rather than duplicated.
func (s *Store) UpsertQueueItem(ctx context.Context, item *QueueItem) (*QueueItem, error) {
	if item == nil {
		return nil, errors.New("queue item is nil")
	}
	if item.Signature == "" {
		return nil, errors.New("queue item signature is empty")
	}

	var warningsJSON any
	if len(item.Warnings) > 0 {
		encoded, err := json.Marshal(item.Warnings)
		if err != nil {
			return nil, fmt.Errorf("marshal warnings: %w", err)
		}
		warningsJSON = string(encoded)
	}

	now := nowStamp()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO discovery_queue_items
             (signature, raw_artist, raw_title, occurrences, suggested_work_id,
              category, artist_score, title_score, warnings_json, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(signature) DO UPDATE SET
             raw_artist = excluded.raw_artist,
             raw_title = excluded.raw_title,
             occurrences = excluded.occurrences,
             suggested_work_id = excluded.suggested_work_id,
             category = excluded.category,
             artist_score = excluded.artist_score,
             title_score = excluded.title_score,
             warnings_json = excluded.warnings_json,
             updated_at = excluded.updated_at`,
		item.Signature, item.RawArtist, item.RawTitle, item.Occurrences,
		nullableInt64(item.SuggestedWorkID), string(item.Category),
		item.ArtistScore, item.TitleScore, warningsJSON, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert queue item: %w", err)
	}
	return s.GetQueueItem(ctx, item.Signature)
}

// GetQueueItem fetches the review row for a signature, or nil.
func (s *Store) GetQueueItem(ctx context.Context, signature string) (*QueueItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+queueColumns+` FROM discovery_queue_items WHERE signature = ?`, signature)
	item, err := scanQueueItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get queue item: %w", err)
	}
	return item, nil
}

// ListQueue returns the review queue ordered by occurrence count, most
// played first.
func (s *Store) ListQueue(ctx context.Context) ([]*QueueItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+queueColumns+` FROM discovery_queue_items ORDER BY occurrences DESC, signature`)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	defer rows.Close()

	var items []*QueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// RemoveQueueItem deletes the review row for a signature, used when the
// signature is linked or dismissed.
func (s *Store) RemoveQueueItem(ctx context.Context, signature string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM discovery_queue_items WHERE signature = ?`, signature)
	if err != nil {
		return false, fmt.Errorf("remove queue item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("queue rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearQueue removes every review row; discovery rebuilds from scratch.
func (s *Store) ClearQueue(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM discovery_queue_items`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}

const queueColumns = "id, signature, raw_artist, raw_title, occurrences, suggested_work_id, category, artist_score, title_score, warnings_json, created_at, updated_at"

func scanQueueItem(scanner interface{ Scan(dest ...any) error }) (*QueueItem, error) {
	var (
		item         QueueItem
		suggested    sql.NullInt64
		categoryStr  string
		warningsJSON sql.NullString
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(
		&item.ID, &item.Signature, &item.RawArtist, &item.RawTitle,
		&item.Occurrences, &suggested, &categoryStr,
		&item.ArtistScore, &item.TitleScore, &warningsJSON,
		&createdRaw, &updatedRaw,
	); err != nil {
		return nil, err
	}
	item.SuggestedWorkID = suggested.Int64
	item.Category = classify.Category(categoryStr)
	if warningsJSON.Valid && warningsJSON.String != "" {
		if err := json.Unmarshal([]byte(warningsJSON.String), &item.Warnings); err != nil {
			return nil, fmt.Errorf("decode warnings: %w", err)
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		item.UpdatedAt = updated
	}
	return &item, nil
}
