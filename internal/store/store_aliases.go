package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"airmatch/internal/normalize"
)

// SetAlias maps a raw artist string to a canonical name. A nil canonical
// records an explicit "do not match" mapping. Existing mappings for the
// same normalized raw name are replaced.
func (s *Store) SetAlias(ctx context.Context, rawName string, canonical *string) (*Alias, error) {
	rawName = strings.TrimSpace(rawName)
	if rawName == "" {
		return nil, errors.New("alias raw name is empty")
	}
	normRaw := normalize.CleanArtist(rawName)
	if normRaw == "" {
		return nil, fmt.Errorf("alias raw name %q normalizes to nothing", rawName)
	}

	var canonicalValue any
	if canonical != nil {
		trimmed := strings.TrimSpace(*canonical)
		if trimmed == "" {
			return nil, errors.New("canonical name is empty; pass nil to ignore an artist")
		}
		canonicalValue = trimmed
	}

	now := nowStamp()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artist_aliases (raw_name, norm_raw, canonical_name, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(norm_raw) DO UPDATE SET
             raw_name = excluded.raw_name,
             canonical_name = excluded.canonical_name,
             updated_at = excluded.updated_at`,
		rawName, normRaw, canonicalValue, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("set alias: %w", err)
	}
	return s.aliasByNormRaw(ctx, normRaw)
}

// ResolveAlias looks up the alias for a raw artist string. Returns nil
// when no mapping exists.
func (s *Store) ResolveAlias(ctx context.Context, rawName string) (*Alias, error) {
	normRaw := normalize.CleanArtist(rawName)
	if normRaw == "" {
		return nil, nil
	}
	return s.aliasByNormRaw(ctx, normRaw)
}

// ResolveAliasBatch resolves many raw artist strings in one query,
// returning a map keyed by the input strings that had mappings.
func (s *Store) ResolveAliasBatch(ctx context.Context, rawNames []string) (map[string]*Alias, error) {
	out := make(map[string]*Alias, len(rawNames))
	if len(rawNames) == 0 {
		return out, nil
	}

	normToRaw := make(map[string][]string, len(rawNames))
	normKeys := make([]string, 0, len(rawNames))
	for _, raw := range rawNames {
		norm := normalize.CleanArtist(raw)
		if norm == "" {
			continue
		}
		if _, seen := normToRaw[norm]; !seen {
			normKeys = append(normKeys, norm)
		}
		normToRaw[norm] = append(normToRaw[norm], raw)
	}
	if len(normKeys) == 0 {
		return out, nil
	}

	placeholders := makePlaceholders(len(normKeys))
	args := make([]any, 0, len(normKeys))
	for _, key := range normKeys {
		args = append(args, key)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+aliasColumns+`, norm_raw FROM artist_aliases WHERE norm_raw IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("resolve alias batch: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		alias, normRaw, err := scanAliasWithKey(rows)
		if err != nil {
			return nil, err
		}
		for _, raw := range normToRaw[normRaw] {
			out[raw] = alias
		}
	}
	return out, rows.Err()
}

// RemoveAlias deletes the mapping for a raw artist string.
func (s *Store) RemoveAlias(ctx context.Context, rawName string) (bool, error) {
	normRaw := normalize.CleanArtist(rawName)
	if normRaw == "" {
		return false, nil
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM artist_aliases WHERE norm_raw = ?`, normRaw)
	if err != nil {
		return false, fmt.Errorf("remove alias: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove alias rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListAliases returns all alias mappings ordered by raw name.
func (s *Store) ListAliases(ctx context.Context) ([]*Alias, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+aliasColumns+` FROM artist_aliases ORDER BY raw_name`)
	if err != nil {
		return nil, fmt.Errorf("list aliases: %w", err)
	}
	defer rows.Close()

	var aliases []*Alias
	for rows.Next() {
		alias, err := scanAlias(rows)
		if err != nil {
			return nil, err
		}
		aliases = append(aliases, alias)
	}
	return aliases, rows.Err()
}

func (s *Store) aliasByNormRaw(ctx context.Context, normRaw string) (*Alias, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+aliasColumns+` FROM artist_aliases WHERE norm_raw = ?`, normRaw)
	alias, err := scanAlias(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("alias lookup: %w", err)
	}
	return alias, nil
}

const aliasColumns = "id, raw_name, canonical_name, created_at, updated_at"

func scanAlias(scanner interface{ Scan(dest ...any) error }) (*Alias, error) {
	var (
		alias      Alias
		canonical  sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&alias.ID, &alias.RawName, &canonical, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	if canonical.Valid {
		value := canonical.String
		alias.Canonical = &value
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		alias.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		alias.UpdatedAt = updated
	}
	return &alias, nil
}

func scanAliasWithKey(scanner interface{ Scan(dest ...any) error }) (*Alias, string, error) {
	var (
		alias      Alias
		canonical  sql.NullString
		createdRaw string
		updatedRaw string
		normRaw    string
	)
	if err := scanner.Scan(&alias.ID, &alias.RawName, &canonical, &createdRaw, &updatedRaw, &normRaw); err != nil {
		return nil, "", err
	}
	if canonical.Valid {
		value := canonical.String
		alias.Canonical = &value
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		alias.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		alias.UpdatedAt = updated
	}
	return &alias, normRaw, nil
}
