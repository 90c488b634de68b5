package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/concord.quest/internal/game/domain"
	"github.com/louisbranch/concord.quest/internal/storage"
)

// PutTurnResult inserts one immutable turn resolution result. A result for
// the same (session, turn) may not be overwritten.
func (s *Store) PutTurnResult(ctx context.Context, result domain.TurnResolutionResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(result.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if result.Turn <= 0 {
		return fmt.Errorf("turn must be positive")
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode turn result: %w", err)
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO turn_results (session_id, turn, result, created_at) VALUES (?, ?, ?, ?)`,
		result.SessionID,
		result.Turn,
		string(raw),
		toMillis(time.Now()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put turn result: %w", err)
	}
	return nil
}

// GetTurnResult returns the persisted result for one turn of a session.
func (s *Store) GetTurnResult(ctx context.Context, sessionID string, turn int64) (domain.TurnResolutionResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.TurnResolutionResult{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.TurnResolutionResult{}, fmt.Errorf("storage is not configured")
	}

	var raw string
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT result FROM turn_results WHERE session_id = ? AND turn = ?`,
		sessionID,
		turn,
	)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.TurnResolutionResult{}, storage.ErrNotFound
		}
		return domain.TurnResolutionResult{}, fmt.Errorf("get turn result: %w", err)
	}

	var result domain.TurnResolutionResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return domain.TurnResolutionResult{}, fmt.Errorf("decode turn result: %w", err)
	}
	return result, nil
}
