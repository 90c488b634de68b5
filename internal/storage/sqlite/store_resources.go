package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/concord.quest/internal/game/domain"
	"github.com/louisbranch/concord.quest/internal/storage"
)

// ListResources returns every balance recorded for one turn of a session.
func (s *Store) ListResources(ctx context.Context, sessionID string, turn int64) ([]domain.ResourceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT session_id, faction_id, resource, turn, quantity, updated_at
		   FROM resources
		  WHERE session_id = ? AND turn = ?
		  ORDER BY faction_id, resource`,
		sessionID,
		turn,
	)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	var records []domain.ResourceRecord
	for rows.Next() {
		record, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resources: %w", err)
	}
	return records, nil
}

// GetResource returns one balance, or storage.ErrNotFound when the faction
// holds no recorded quantity of the resource for that turn.
func (s *Store) GetResource(ctx context.Context, sessionID, factionID string, resource domain.ResourceType, turn int64) (domain.ResourceRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.ResourceRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.ResourceRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT session_id, faction_id, resource, turn, quantity, updated_at
		   FROM resources
		  WHERE session_id = ? AND faction_id = ? AND resource = ? AND turn = ?`,
		sessionID,
		factionID,
		string(resource),
		turn,
	)
	record, err := scanResource(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ResourceRecord{}, storage.ErrNotFound
		}
		return domain.ResourceRecord{}, fmt.Errorf("get resource: %w", err)
	}
	return record, nil
}

// UpsertResource writes a balance keyed by (session, faction, resource, turn),
// replacing any existing record for the same key.
func (s *Store) UpsertResource(ctx context.Context, record domain.ResourceRecord) (domain.ResourceRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.ResourceRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.ResourceRecord{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.SessionID) == "" {
		return domain.ResourceRecord{}, fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(record.FactionID) == "" {
		return domain.ResourceRecord{}, fmt.Errorf("faction id is required")
	}
	if record.Turn <= 0 {
		return domain.ResourceRecord{}, fmt.Errorf("turn must be positive")
	}

	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	record.UpdatedAt = updatedAt.UTC()

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO resources (session_id, faction_id, resource, turn, quantity, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (session_id, faction_id, resource, turn)
		 DO UPDATE SET quantity = excluded.quantity, updated_at = excluded.updated_at`,
		record.SessionID,
		record.FactionID,
		string(record.Resource),
		record.Turn,
		record.Quantity,
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return domain.ResourceRecord{}, fmt.Errorf("upsert resource: %w", err)
	}
	return record, nil
}

func scanResource(row rowScanner) (domain.ResourceRecord, error) {
	var (
		record    domain.ResourceRecord
		resource  string
		updatedAt int64
	)
	if err := row.Scan(
		&record.SessionID,
		&record.FactionID,
		&resource,
		&record.Turn,
		&record.Quantity,
		&updatedAt,
	); err != nil {
		return domain.ResourceRecord{}, err
	}
	record.Resource = domain.ResourceType(resource)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}
