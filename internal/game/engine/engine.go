// Package engine orchestrates turn resolution: it gates on readiness,
// validates the submitted batch, drives the resource ledger phase by phase,
// computes global effects, and persists an immutable result. The engine never
// writes resources directly; every mutation goes through the ledger.
package engine

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/concord.quest/internal/errors"
	"github.com/louisbranch/concord.quest/internal/game/catalog"
	"github.com/louisbranch/concord.quest/internal/game/domain"
	"github.com/louisbranch/concord.quest/internal/game/ledger"
	"github.com/louisbranch/concord.quest/internal/storage"
)

// Engine resolves turns for game sessions. Callers must serialize
// ResolveTurn invocations per (session, turn); the engine itself has no
// internal mutual exclusion.
type Engine struct {
	stores  storage.Stores
	ledger  *ledger.Ledger
	catalog *catalog.Catalog
	clock   func() time.Time
	tracer  trace.Tracer
}

// New creates an engine over the given stores, ledger, and catalog.
func New(stores storage.Stores, l *ledger.Ledger, cat *catalog.Catalog) *Engine {
	return &Engine{
		stores:  stores,
		ledger:  l,
		catalog: cat,
		clock:   time.Now,
		tracer:  otel.Tracer("concord.quest/engine"),
	}
}

// WithClock overrides the engine clock. Intended for tests.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

// CheckReadiness reports submission progress for one turn. A turn is
// resolvable once every participating player has at least one unresolved
// submitted action and at least one action exists. Already-resolved actions
// do not count toward readiness.
func (e *Engine) CheckReadiness(ctx context.Context, sessionID string, turn int64) (domain.TurnStatus, error) {
	if err := ctx.Err(); err != nil {
		return domain.TurnStatus{}, err
	}

	participants, err := e.stores.Participants.ListParticipants(ctx, sessionID)
	if err != nil {
		return domain.TurnStatus{}, apperrors.Wrap(apperrors.CodeUnknown, "list participants", err)
	}

	actions, err := e.loadSubmittedActions(ctx, sessionID, turn)
	if err != nil {
		return domain.TurnStatus{}, err
	}

	submitted := make(map[string]bool, len(participants))
	for _, action := range actions {
		submitted[action.PlayerID] = true
	}

	status := domain.TurnStatus{
		SessionID:        sessionID,
		Turn:             turn,
		TotalPlayers:     len(participants),
		SubmittedActions: len(actions),
	}
	for _, participant := range participants {
		if submitted[participant.PlayerID] {
			status.SubmittedPlayers = append(status.SubmittedPlayers, participant.PlayerID)
		} else {
			status.PendingPlayers = append(status.PendingPlayers, participant.PlayerID)
		}
	}
	sort.Strings(status.SubmittedPlayers)
	sort.Strings(status.PendingPlayers)

	status.AllSubmitted = len(status.PendingPlayers) == 0 && status.TotalPlayers > 0
	status.CanResolve = status.AllSubmitted && status.SubmittedActions > 0
	return status, nil
}

// loadSubmittedActions returns the turn's unresolved actions in submission
// order. Resolved actions are excluded so repeated resolution of the same
// turn never processes an action twice.
func (e *Engine) loadSubmittedActions(ctx context.Context, sessionID string, turn int64) ([]domain.GameAction, error) {
	actions, err := e.stores.Actions.ListActions(ctx, sessionID, turn)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUnknown, "list actions", err)
	}
	pending := actions[:0]
	for _, action := range actions {
		if action.Status == domain.ActionStatusSubmitted {
			pending = append(pending, action)
		}
	}
	return pending, nil
}
