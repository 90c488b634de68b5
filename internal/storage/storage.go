// Package storage defines the persistence interfaces consumed by the turn
// resolution engine. Implementations live in subpackages; gameplay code
// depends only on these interfaces so tests can substitute fakes and multiple
// sessions can run against independent stores.
package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/concord.quest/internal/game/domain"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness violation on insert.
var ErrAlreadyExists = errors.New("record already exists")

// ActionStore persists submitted game actions.
type ActionStore interface {
	PutAction(ctx context.Context, action domain.GameAction) error
	GetAction(ctx context.Context, sessionID, actionID string) (domain.GameAction, error)
	// ListActions returns every action submitted for one turn of a session,
	// in submission order.
	ListActions(ctx context.Context, sessionID string, turn int64) ([]domain.GameAction, error)
	// MarkResolved transitions an action's status to resolved.
	MarkResolved(ctx context.Context, sessionID, actionID string) error
}

// ResourceStore persists turn-scoped resource balances, keyed uniquely by
// (session, faction, resource, turn).
type ResourceStore interface {
	// ListResources returns every balance recorded for one turn of a session.
	ListResources(ctx context.Context, sessionID string, turn int64) ([]domain.ResourceRecord, error)
	// GetResource returns one balance, or ErrNotFound when the faction holds
	// no recorded quantity of the resource for that turn.
	GetResource(ctx context.Context, sessionID, factionID string, resource domain.ResourceType, turn int64) (domain.ResourceRecord, error)
	// UpsertResource writes a balance, replacing any existing record for the
	// same key.
	UpsertResource(ctx context.Context, record domain.ResourceRecord) (domain.ResourceRecord, error)
}

// AuditLogStore persists the append-only ledger audit trail.
type AuditLogStore interface {
	AppendAuditLog(ctx context.Context, entry domain.AuditLogEntry) error
	ListAuditLogs(ctx context.Context, sessionID string, limit int) ([]domain.AuditLogEntry, error)
}

// ParticipantStore reads the session roster.
type ParticipantStore interface {
	PutParticipant(ctx context.Context, participant domain.Participant) error
	ListParticipants(ctx context.Context, sessionID string) ([]domain.Participant, error)
}

// TurnResultStore persists immutable turn resolution results.
type TurnResultStore interface {
	PutTurnResult(ctx context.Context, result domain.TurnResolutionResult) error
	GetTurnResult(ctx context.Context, sessionID string, turn int64) (domain.TurnResolutionResult, error)
}

// Stores bundles every store the engine service needs.
type Stores struct {
	Actions      ActionStore
	Resources    ResourceStore
	AuditLogs    AuditLogStore
	Participants ParticipantStore
	TurnResults  TurnResultStore
}
