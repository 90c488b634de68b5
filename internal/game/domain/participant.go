package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/concord.quest/internal/id"
)

var (
	// ErrEmptyDisplayName indicates a missing participant display name.
	ErrEmptyDisplayName = errors.New("display name is required")
	// ErrInvalidArchetype indicates a missing or unrecognized archetype.
	ErrInvalidArchetype = errors.New("archetype is not recognized")
)

// ValidArchetype reports whether value names a recognized archetype.
func ValidArchetype(value Archetype) bool {
	switch value {
	case ArchetypeProvisioner, ArchetypeGuardian, ArchetypeMystic, ArchetypeExplorer:
		return true
	}
	return false
}

// Faction represents one playable faction within a session.
type Faction struct {
	ID        string
	SessionID string
	Name      string
	Archetype Archetype
	CreatedAt time.Time
}

// Participant represents a player enrolled in a session, controlling one
// faction. Membership management itself lives outside this service; the
// engine only reads the roster.
type Participant struct {
	ID          string
	SessionID   string
	PlayerID    string
	DisplayName string
	FactionID   string
	Archetype   Archetype
	CreatedAt   time.Time
}

// CreateParticipantInput describes the data needed to enroll a participant.
type CreateParticipantInput struct {
	SessionID   string
	PlayerID    string
	DisplayName string
	FactionID   string
	Archetype   Archetype
}

// CreateParticipant creates a participant with a generated ID and timestamp.
func CreateParticipant(input CreateParticipantInput, now func() time.Time, idGenerator func() (string, error)) (Participant, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateParticipantInput(input)
	if err != nil {
		return Participant{}, err
	}

	participantID, err := idGenerator()
	if err != nil {
		return Participant{}, fmt.Errorf("generate participant id: %w", err)
	}

	return Participant{
		ID:          participantID,
		SessionID:   normalized.SessionID,
		PlayerID:    normalized.PlayerID,
		DisplayName: normalized.DisplayName,
		FactionID:   normalized.FactionID,
		Archetype:   normalized.Archetype,
		CreatedAt:   now().UTC(),
	}, nil
}

// NormalizeCreateParticipantInput trims and validates participant input.
func NormalizeCreateParticipantInput(input CreateParticipantInput) (CreateParticipantInput, error) {
	input.SessionID = strings.TrimSpace(input.SessionID)
	if input.SessionID == "" {
		return CreateParticipantInput{}, ErrEmptySessionID
	}
	input.PlayerID = strings.TrimSpace(input.PlayerID)
	if input.PlayerID == "" {
		return CreateParticipantInput{}, ErrEmptyPlayerID
	}
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if input.DisplayName == "" {
		return CreateParticipantInput{}, ErrEmptyDisplayName
	}
	input.FactionID = strings.TrimSpace(input.FactionID)
	if input.FactionID == "" {
		return CreateParticipantInput{}, ErrEmptyFactionID
	}
	if !ValidArchetype(input.Archetype) {
		return CreateParticipantInput{}, ErrInvalidArchetype
	}
	return input, nil
}
