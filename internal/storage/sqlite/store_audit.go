package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/louisbranch/concord.quest/internal/game/domain"
	"github.com/louisbranch/concord.quest/internal/storage"
)

// AppendAuditLog inserts one audit entry. Entries are never updated or
// deleted.
func (s *Store) AppendAuditLog(ctx context.Context, entry domain.AuditLogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(entry.ID) == "" {
		return fmt.Errorf("audit entry id is required")
	}
	if strings.TrimSpace(entry.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}

	var metadata any
	if len(entry.Metadata) > 0 {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("encode audit metadata: %w", err)
		}
		metadata = string(raw)
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO audit_logs (
		   id, session_id, operation, faction_id, resource, turn,
		   old_quantity, new_quantity, delta, reason, metadata, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.SessionID,
		string(entry.Operation),
		entry.FactionID,
		string(entry.Resource),
		entry.Turn,
		entry.OldQuantity,
		entry.NewQuantity,
		entry.Delta,
		entry.Reason,
		metadata,
		toMillis(entry.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

// ListAuditLogs returns audit entries for a session in append order, oldest
// first. A non-positive limit returns every entry.
func (s *Store) ListAuditLogs(ctx context.Context, sessionID string, limit int) ([]domain.AuditLogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	query := `SELECT id, session_id, operation, faction_id, resource, turn,
	                 old_quantity, new_quantity, delta, reason, metadata, created_at
	            FROM audit_logs
	           WHERE session_id = ?
	           ORDER BY rowid`
	args := []any{sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditLogEntry
	for rows.Next() {
		var (
			entry     domain.AuditLogEntry
			operation string
			resource  string
			metadata  *string
			createdAt int64
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.SessionID,
			&operation,
			&entry.FactionID,
			&resource,
			&entry.Turn,
			&entry.OldQuantity,
			&entry.NewQuantity,
			&entry.Delta,
			&entry.Reason,
			&metadata,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		entry.Operation = domain.AuditOperation(operation)
		entry.Resource = domain.ResourceType(resource)
		entry.CreatedAt = fromMillis(createdAt)
		if metadata != nil && *metadata != "" {
			if err := json.Unmarshal([]byte(*metadata), &entry.Metadata); err != nil {
				return nil, fmt.Errorf("decode audit metadata: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit logs: %w", err)
	}
	return entries, nil
}
