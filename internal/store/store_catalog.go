package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"airmatch/internal/normalize"
)

// UpsertArtist inserts an artist when its normalized name is new and
// returns the canonical row either way.
func (s *Store) UpsertArtist(ctx context.Context, name string) (*Artist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("artist name is empty")
	}
	normName := normalize.CleanArtist(name)
	if normName == "" {
		return nil, fmt.Errorf("artist name %q normalizes to nothing", name)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artists (name, norm_name, created_at) VALUES (?, ?, ?)
         ON CONFLICT(norm_name) DO NOTHING`,
		name, normName, nowStamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert artist: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM artists WHERE norm_name = ?`, normName)
	return scanArtist(row)
}

// UpsertWork creates a work with its ordered artist set, deduplicating on
// the normalized (artist-set, title) key. The existing work is returned
// when the key is already present.
func (s *Store) UpsertWork(ctx context.Context, title string, artistNames []string) (*Work, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("work title is empty")
	}
	if len(artistNames) == 0 {
		return nil, errors.New("work requires at least one artist")
	}

	normKey := normalize.Signature(strings.Join(artistNames, " & "), title)

	if existing, err := s.workByNormKey(ctx, normKey); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin work tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO works (title, norm_key, created_at) VALUES (?, ?, ?)`,
		title, normKey, nowStamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert work: %w", err)
	}
	workID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("work insert id: %w", err)
	}

	for position, name := range artistNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		normName := normalize.CleanArtist(name)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO artists (name, norm_name, created_at) VALUES (?, ?, ?)
             ON CONFLICT(norm_name) DO NOTHING`,
			name, normName, nowStamp(),
		); err != nil {
			return nil, fmt.Errorf("insert work artist: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO work_artists (work_id, artist_id, position)
             SELECT ?, id, ? FROM artists WHERE norm_name = ?`,
			workID, position, normName,
		); err != nil {
			return nil, fmt.Errorf("insert work artist link: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit work: %w", err)
	}
	return s.GetWork(ctx, workID)
}

// GetWork fetches a work with its ordered artists. Returns nil when the
// work does not exist.
func (s *Store) GetWork(ctx context.Context, id int64) (*Work, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at FROM works WHERE id = ?`, id)
	work, err := scanWork(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get work: %w", err)
	}
	if err := s.attachArtists(ctx, work); err != nil {
		return nil, err
	}
	return work, nil
}

// ListWorks returns the full catalog with artists, ordered by id. This is
// the corpus the matcher and vector index are built from.
func (s *Store) ListWorks(ctx context.Context) ([]*Work, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at FROM works ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list works: %w", err)
	}
	defer rows.Close()

	var works []*Work
	for rows.Next() {
		work, err := scanWork(rows)
		if err != nil {
			return nil, err
		}
		works = append(works, work)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, work := range works {
		if err := s.attachArtists(ctx, work); err != nil {
			return nil, err
		}
	}
	return works, nil
}

// AddRecording attaches a performed version to a work.
func (s *Store) AddRecording(ctx context.Context, workID int64, title string, version normalize.VersionType) (*Recording, error) {
	work, err := s.GetWork(ctx, workID)
	if err != nil {
		return nil, err
	}
	if work == nil {
		return nil, fmt.Errorf("work %d not found", workID)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO recordings (work_id, title, version_type, created_at) VALUES (?, ?, ?, ?)`,
		workID, title, nullableString(string(version)), nowStamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert recording: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("recording insert id: %w", err)
	}
	return &Recording{ID: id, WorkID: workID, Title: title, VersionType: version}, nil
}

// Recordings lists the performed versions of a work.
func (s *Store) Recordings(ctx context.Context, workID int64) ([]*Recording, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, work_id, title, version_type, created_at FROM recordings WHERE work_id = ? ORDER BY id`,
		workID)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	defer rows.Close()

	var out []*Recording
	for rows.Next() {
		var (
			rec        Recording
			version    sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&rec.ID, &rec.WorkID, &rec.Title, &version, &createdRaw); err != nil {
			return nil, err
		}
		rec.VersionType = normalize.VersionType(version.String)
		if created, err := parseTimeString(createdRaw); err == nil {
			rec.CreatedAt = created
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (s *Store) workByNormKey(ctx context.Context, normKey string) (*Work, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at FROM works WHERE norm_key = ?`, normKey)
	work, err := scanWork(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("work by key: %w", err)
	}
	if err := s.attachArtists(ctx, work); err != nil {
		return nil, err
	}
	return work, nil
}

func (s *Store) attachArtists(ctx context.Context, work *Work) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.name, a.created_at
         FROM work_artists wa JOIN artists a ON a.id = wa.artist_id
         WHERE wa.work_id = ? ORDER BY wa.position`,
		work.ID)
	if err != nil {
		return fmt.Errorf("work artists: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			return err
		}
		work.Artists = append(work.Artists, *artist)
	}
	return rows.Err()
}

func scanArtist(scanner interface{ Scan(dest ...any) error }) (*Artist, error) {
	var (
		artist     Artist
		createdRaw string
	)
	if err := scanner.Scan(&artist.ID, &artist.Name, &createdRaw); err != nil {
		return nil, err
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		artist.CreatedAt = created
	}
	return &artist, nil
}

func scanWork(scanner interface{ Scan(dest ...any) error }) (*Work, error) {
	var (
		work       Work
		createdRaw string
	)
	if err := scanner.Scan(&work.ID, &work.Title, &createdRaw); err != nil {
		return nil, err
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		work.CreatedAt = created
	}
	return &work, nil
}
