package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// InsertLinkAudit writes the audit record for one linking action. The
// generated id is returned to the caller for later undo.
func (s *Store) InsertLinkAudit(ctx context.Context, signature string, workID int64, logIDs []int64, source AuditSource) (*LinkAudit, error) {
	if signature == "" {
		return nil, errors.New("audit signature is empty")
	}
	if len(logIDs) == 0 {
		return nil, errors.New("audit requires linked log ids")
	}

	idsJSON, err := json.Marshal(logIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal log ids: %w", err)
	}

	id := uuid.NewString()
	now := nowStamp()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO link_audits (id, signature, work_id, log_ids_json, source, undone, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		id, signature, workID, string(idsJSON), source, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert audit: %w", err)
	}
	return s.GetLinkAudit(ctx, id)
}

// GetLinkAudit fetches an audit record by id, or nil.
func (s *Store) GetLinkAudit(ctx context.Context, id string) (*LinkAudit, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+auditColumns+` FROM link_audits WHERE id = ?`, id)
	audit, err := scanAudit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get audit: %w", err)
	}
	return audit, nil
}

// MarkAuditUndone flags an audit as reversed. An audit can be undone
// exactly once.
func (s *Store) MarkAuditUndone(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE link_audits SET undone = 1, updated_at = ? WHERE id = ? AND undone = 0`,
		nowStamp(), id,
	)
	if err != nil {
		return fmt.Errorf("mark audit undone: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("audit rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("audit %s not found or already undone", id)
	}
	return nil
}

// ListLinkAudits returns audit records, newest first.
func (s *Store) ListLinkAudits(ctx context.Context, limit int) ([]*LinkAudit, error) {
	query := `SELECT ` + auditColumns + ` FROM link_audits ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	defer rows.Close()

	var audits []*LinkAudit
	for rows.Next() {
		audit, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		audits = append(audits, audit)
	}
	return audits, rows.Err()
}

const auditColumns = "id, signature, work_id, log_ids_json, source, undone, created_at, updated_at"

func scanAudit(scanner interface{ Scan(dest ...any) error }) (*LinkAudit, error) {
	var (
		audit      LinkAudit
		idsJSON    string
		sourceStr  string
		undoneInt  int
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&audit.ID, &audit.Signature, &audit.WorkID, &idsJSON,
		&sourceStr, &undoneInt, &createdRaw, &updatedRaw,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(idsJSON), &audit.LogIDs); err != nil {
		return nil, fmt.Errorf("decode audit log ids: %w", err)
	}
	audit.Source = AuditSource(sourceStr)
	audit.Undone = undoneInt != 0
	if created, err := parseTimeString(createdRaw); err == nil {
		audit.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		audit.UpdatedAt = updated
	}
	return &audit, nil
}
