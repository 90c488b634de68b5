package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/concord.quest/internal/id"
)

// ActionKind identifies the kind of a submitted game action.
type ActionKind string

const (
	// ActionKindGather produces a resource the faction archetype can gather.
	ActionKindGather ActionKind = "gather"
	// ActionKindTrade moves a resource to another faction or the global pool.
	ActionKindTrade ActionKind = "trade"
	// ActionKindConvert exchanges one of the faction's resources for another.
	ActionKindConvert ActionKind = "convert"
	// ActionKindBuild constructs a structure from the catalog.
	ActionKindBuild ActionKind = "build"
	// ActionKindResearch advances a research topic from the catalog.
	ActionKindResearch ActionKind = "research"
	// ActionKindProtect spends resources to produce ward.
	ActionKindProtect ActionKind = "protect"
	// ActionKindSpecial invokes an archetype special ability.
	ActionKindSpecial ActionKind = "special"
)

// Valid reports whether the kind is one of the recognized action kinds.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionKindGather, ActionKindTrade, ActionKindConvert, ActionKindBuild,
		ActionKindResearch, ActionKindProtect, ActionKindSpecial:
		return true
	}
	return false
}

// ActionStatus describes the lifecycle state of a game action.
type ActionStatus int

const (
	// ActionStatusUnspecified represents an invalid action status value.
	ActionStatusUnspecified ActionStatus = iota
	// ActionStatusSubmitted indicates the action is waiting for resolution.
	ActionStatusSubmitted
	// ActionStatusResolved indicates the action was processed by a turn resolution.
	ActionStatusResolved
)

var (
	// ErrEmptySessionID indicates a missing session ID.
	ErrEmptySessionID = errors.New("session id is required")
	// ErrEmptyFactionID indicates a missing faction ID.
	ErrEmptyFactionID = errors.New("faction id is required")
	// ErrEmptyPlayerID indicates a missing player ID.
	ErrEmptyPlayerID = errors.New("player id is required")
	// ErrInvalidTurn indicates a non-positive turn number.
	ErrInvalidTurn = errors.New("turn number must be positive")
	// ErrInvalidActionKind indicates a missing or unrecognized action kind.
	ErrInvalidActionKind = errors.New("action kind is not recognized")
	// ErrPayloadKindMismatch indicates the payload does not match the action kind.
	ErrPayloadKindMismatch = errors.New("payload does not match action kind")
)

// GameAction is one player-submitted intent for one turn. Actions are
// immutable once created except for the status transition to resolved.
type GameAction struct {
	ID        string
	SessionID string
	Turn      int64
	PlayerID  string
	FactionID string
	Kind      ActionKind
	Payload   ActionPayload
	Status    ActionStatus
	CreatedAt time.Time
}

// CreateActionInput describes the data needed to submit a game action.
type CreateActionInput struct {
	SessionID string
	Turn      int64
	PlayerID  string
	FactionID string
	Kind      ActionKind
	Payload   ActionPayload
}

// CreateAction creates a new submitted action with a generated ID and timestamp.
// The action kind is stored explicitly; it is never recovered from the payload
// shape.
func CreateAction(input CreateActionInput, now func() time.Time, idGenerator func() (string, error)) (GameAction, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateActionInput(input)
	if err != nil {
		return GameAction{}, err
	}

	actionID, err := idGenerator()
	if err != nil {
		return GameAction{}, fmt.Errorf("generate action id: %w", err)
	}

	return GameAction{
		ID:        actionID,
		SessionID: normalized.SessionID,
		Turn:      normalized.Turn,
		PlayerID:  normalized.PlayerID,
		FactionID: normalized.FactionID,
		Kind:      normalized.Kind,
		Payload:   normalized.Payload,
		Status:    ActionStatusSubmitted,
		CreatedAt: now().UTC(),
	}, nil
}

// NormalizeCreateActionInput trims and validates action input.
func NormalizeCreateActionInput(input CreateActionInput) (CreateActionInput, error) {
	input.SessionID = strings.TrimSpace(input.SessionID)
	if input.SessionID == "" {
		return CreateActionInput{}, ErrEmptySessionID
	}
	input.PlayerID = strings.TrimSpace(input.PlayerID)
	if input.PlayerID == "" {
		return CreateActionInput{}, ErrEmptyPlayerID
	}
	input.FactionID = strings.TrimSpace(input.FactionID)
	if input.FactionID == "" {
		return CreateActionInput{}, ErrEmptyFactionID
	}
	if input.Turn <= 0 {
		return CreateActionInput{}, ErrInvalidTurn
	}
	if !input.Kind.Valid() {
		return CreateActionInput{}, ErrInvalidActionKind
	}
	if input.Payload.Kind() != input.Kind {
		return CreateActionInput{}, ErrPayloadKindMismatch
	}
	return input, nil
}
