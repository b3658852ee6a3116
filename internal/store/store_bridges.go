package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// LookupBridge returns the active bridge for a signature, or nil when no
// active bridge exists. Revoked bridges are invisible to lookup.
func (s *Store) LookupBridge(ctx context.Context, signature string) (*Bridge, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bridgeColumns+` FROM identity_bridges
         WHERE signature = ? AND state = ?`,
		signature, BridgeActive,
	)
	bridge, err := scanBridge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup bridge: %w", err)
	}
	return bridge, nil
}

// UpsertBridge records a permanent signature-to-work mapping. Any
// existing active bridge for the signature is revoked first, preserving
// it for audit, so at most one active row per signature ever exists.
func (s *Store) UpsertBridge(ctx context.Context, signature string, workID int64, refArtist, refTitle string) (*Bridge, error) {
	if signature == "" {
		return nil, errors.New("signature is empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bridge tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := nowStamp()
	if _, err := tx.ExecContext(ctx,
		`UPDATE identity_bridges SET state = ?, updated_at = ?
         WHERE signature = ? AND state = ?`,
		BridgeRevoked, now, signature, BridgeActive,
	); err != nil {
		return nil, fmt.Errorf("supersede bridge: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO identity_bridges (signature, work_id, ref_artist, ref_title, state, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		signature, workID, refArtist, refTitle, BridgeActive, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert bridge: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("bridge insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bridge: %w", err)
	}
	return s.GetBridge(ctx, id)
}

// GetBridge fetches a bridge by id regardless of state.
func (s *Store) GetBridge(ctx context.Context, id int64) (*Bridge, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bridgeColumns+` FROM identity_bridges WHERE id = ?`, id)
	bridge, err := scanBridge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get bridge: %w", err)
	}
	return bridge, nil
}

// SetBridgeRevoked flips the revocation state of a bridge. Restoring a
// bridge fails when another active bridge has since claimed the
// signature.
func (s *Store) SetBridgeRevoked(ctx context.Context, id int64, revoked bool) error {
	bridge, err := s.GetBridge(ctx, id)
	if err != nil {
		return err
	}
	if bridge == nil {
		return fmt.Errorf("bridge %d not found", id)
	}

	target := BridgeActive
	if revoked {
		target = BridgeRevoked
	}
	if bridge.State == target {
		return nil
	}

	if target == BridgeActive {
		existing, err := s.LookupBridge(ctx, bridge.Signature)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != id {
			return fmt.Errorf("signature %s already has an active bridge (id %d)", bridge.Signature, existing.ID)
		}
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE identity_bridges SET state = ?, updated_at = ? WHERE id = ?`,
		target, nowStamp(), id,
	)
	if err != nil {
		return fmt.Errorf("set bridge state: %w", err)
	}
	return nil
}

// ListBridges returns all bridges, newest first.
func (s *Store) ListBridges(ctx context.Context) ([]*Bridge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bridgeColumns+` FROM identity_bridges ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list bridges: %w", err)
	}
	defer rows.Close()

	var bridges []*Bridge
	for rows.Next() {
		bridge, err := scanBridge(rows)
		if err != nil {
			return nil, err
		}
		bridges = append(bridges, bridge)
	}
	return bridges, rows.Err()
}

const bridgeColumns = "id, signature, work_id, ref_artist, ref_title, state, created_at, updated_at"

func scanBridge(scanner interface{ Scan(dest ...any) error }) (*Bridge, error) {
	var (
		bridge     Bridge
		stateStr   string
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&bridge.ID, &bridge.Signature, &bridge.WorkID,
		&bridge.RefArtist, &bridge.RefTitle, &stateStr,
		&createdRaw, &updatedRaw,
	); err != nil {
		return nil, err
	}
	bridge.State = BridgeState(stateStr)
	if created, err := parseTimeString(createdRaw); err == nil {
		bridge.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		bridge.UpdatedAt = updated
	}
	return &bridge, nil
}
