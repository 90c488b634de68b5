package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/concord.quest/internal/game/domain"
	"github.com/louisbranch/concord.quest/internal/storage"
)

// PutAction inserts one submitted action. The action kind is stored as an
// explicit column next to the payload body.
func (s *Store) PutAction(ctx context.Context, action domain.GameAction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(action.ID) == "" {
		return fmt.Errorf("action id is required")
	}
	if strings.TrimSpace(action.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}

	payload, err := domain.EncodePayload(action.Payload)
	if err != nil {
		return fmt.Errorf("encode action payload: %w", err)
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO actions (
		   session_id, id, turn, player_id, faction_id, kind, payload, status, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		action.SessionID,
		action.ID,
		action.Turn,
		action.PlayerID,
		action.FactionID,
		string(action.Kind),
		string(payload),
		int(action.Status),
		toMillis(action.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put action: %w", err)
	}
	return nil
}

// GetAction returns one action by ID.
func (s *Store) GetAction(ctx context.Context, sessionID, actionID string) (domain.GameAction, error) {
	if err := ctx.Err(); err != nil {
		return domain.GameAction{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.GameAction{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT session_id, id, turn, player_id, faction_id, kind, payload, status, created_at
		   FROM actions
		  WHERE session_id = ? AND id = ?`,
		sessionID,
		actionID,
	)
	action, err := scanAction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.GameAction{}, storage.ErrNotFound
		}
		return domain.GameAction{}, fmt.Errorf("get action: %w", err)
	}
	return action, nil
}

// ListActions returns every action submitted for one turn of a session, in
// submission order.
func (s *Store) ListActions(ctx context.Context, sessionID string, turn int64) ([]domain.GameAction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT session_id, id, turn, player_id, faction_id, kind, payload, status, created_at
		   FROM actions
		  WHERE session_id = ? AND turn = ?
		  ORDER BY rowid`,
		sessionID,
		turn,
	)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var actions []domain.GameAction
	for rows.Next() {
		action, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		actions = append(actions, action)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}
	return actions, nil
}

// MarkResolved transitions an action's status to resolved.
func (s *Store) MarkResolved(ctx context.Context, sessionID, actionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	res, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE actions SET status = ? WHERE session_id = ? AND id = ?`,
		int(domain.ActionStatusResolved),
		sessionID,
		actionID,
	)
	if err != nil {
		return fmt.Errorf("mark action resolved: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark action resolved: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAction(row rowScanner) (domain.GameAction, error) {
	var (
		action    domain.GameAction
		kind      string
		payload   string
		status    int
		createdAt int64
	)
	if err := row.Scan(
		&action.SessionID,
		&action.ID,
		&action.Turn,
		&action.PlayerID,
		&action.FactionID,
		&kind,
		&payload,
		&status,
		&createdAt,
	); err != nil {
		return domain.GameAction{}, err
	}
	action.Kind = domain.ActionKind(kind)
	action.Status = domain.ActionStatus(status)
	action.CreatedAt = fromMillis(createdAt)

	decoded, err := domain.DecodePayload(action.Kind, []byte(payload))
	if err != nil {
		return domain.GameAction{}, err
	}
	action.Payload = decoded
	return action, nil
}
