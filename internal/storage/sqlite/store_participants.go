package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/concord.quest/internal/game/domain"
	"github.com/louisbranch/concord.quest/internal/storage"
)

// PutParticipant inserts one session participant.
func (s *Store) PutParticipant(ctx context.Context, participant domain.Participant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(participant.ID) == "" {
		return fmt.Errorf("participant id is required")
	}
	if strings.TrimSpace(participant.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO participants (
		   session_id, id, player_id, display_name, faction_id, archetype, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		participant.SessionID,
		participant.ID,
		participant.PlayerID,
		participant.DisplayName,
		participant.FactionID,
		string(participant.Archetype),
		toMillis(participant.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put participant: %w", err)
	}
	return nil
}

// ListParticipants returns the roster for one session in enrollment order.
func (s *Store) ListParticipants(ctx context.Context, sessionID string) ([]domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT session_id, id, player_id, display_name, faction_id, archetype, created_at
		   FROM participants
		  WHERE session_id = ?
		  ORDER BY rowid`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		var (
			participant domain.Participant
			archetype   string
			createdAt   int64
		)
		if err := rows.Scan(
			&participant.SessionID,
			&participant.ID,
			&participant.PlayerID,
			&participant.DisplayName,
			&participant.FactionID,
			&archetype,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participant.Archetype = domain.Archetype(archetype)
		participant.CreatedAt = fromMillis(createdAt)
		participants = append(participants, participant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return participants, nil
}
