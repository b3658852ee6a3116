package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"airmatch/internal/classify"
	"airmatch/internal/config"
)

const thresholdsKey = "thresholds"

// Thresholds returns the stored threshold configuration.
func (s *Store) Thresholds(ctx context.Context) (classify.Thresholds, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, thresholdsKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return classify.Thresholds{}, errors.New("thresholds not seeded")
	}
	if err != nil {
		return classify.Thresholds{}, fmt.Errorf("read thresholds: %w", err)
	}

	var t classify.Thresholds
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return classify.Thresholds{}, fmt.Errorf("decode thresholds: %w", err)
	}
	return t, nil
}

// SetThresholds validates and persists a new threshold configuration.
// Invalid configurations are rejected and the prior values remain.
func (s *Store) SetThresholds(ctx context.Context, t classify.Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	encoded, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode thresholds: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		thresholdsKey, string(encoded), nowStamp(),
	)
	if err != nil {
		return fmt.Errorf("write thresholds: %w", err)
	}
	return nil
}

// seedThresholds writes the config file defaults into the settings table
// when no stored thresholds exist yet. Stored values win afterwards.
func (s *Store) seedThresholds(ctx context.Context, cfg *config.Config) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM settings WHERE key = ?`, thresholdsKey).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check thresholds seed: %w", err)
	}
	if exists > 0 {
		return nil
	}
	return s.SetThresholds(ctx, classify.Thresholds{
		ArtistAuto:   cfg.Matching.ArtistAuto,
		ArtistReview: cfg.Matching.ArtistReview,
		TitleAuto:    cfg.Matching.TitleAuto,
		TitleReview:  cfg.Matching.TitleReview,
	})
}
