package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/concord.quest/internal/errors"
	"github.com/louisbranch/concord.quest/internal/game/domain"
	"github.com/louisbranch/concord.quest/internal/game/effects"
	"github.com/louisbranch/concord.quest/internal/game/validation"
	"github.com/louisbranch/concord.quest/internal/storage"
)

// Options tunes one ResolveTurn invocation.
type Options struct {
	// ValidateOnly runs readiness and batch validation, then returns the
	// summary without mutating anything.
	ValidateOnly bool
	// AllowPartialFailure skips invalid or failing actions instead of
	// aborting the whole resolution.
	AllowPartialFailure bool
}

// ResolveTurn resolves one turn of a session.
//
// Resolution is not atomic across the batch: each action's ledger writes are
// durable before the next action starts, and a mid-batch failure leaves all
// earlier writes committed. Callers expecting all-or-nothing semantics must
// not assume rollback on error. Validation, however, is fully computed before
// the first write, so a rejected batch never mutates the ledger.
//
// With AllowPartialFailure, a failed action keeps its submitted status while
// the persisted result blocks any further resolution of the turn. The failure
// is final: its outcome in the result is the record of what went wrong, and
// the action will not be retried on a later turn.
func (e *Engine) ResolveTurn(ctx context.Context, sessionID string, turn int64, opts Options) (domain.TurnResolutionResult, error) {
	ctx, span := e.tracer.Start(ctx, "engine.ResolveTurn")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int64("turn.number", turn),
	)

	result, err := e.resolveTurn(ctx, sessionID, turn, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperrors.GetCode(err)))
		return result, err
	}
	return result, nil
}

func (e *Engine) resolveTurn(ctx context.Context, sessionID string, turn int64, opts Options) (domain.TurnResolutionResult, error) {
	startedAt := e.clock().UTC()

	if _, err := e.stores.TurnResults.GetTurnResult(ctx, sessionID, turn); err == nil {
		return domain.TurnResolutionResult{}, apperrors.Newf(apperrors.CodeTurnAlreadyResolved,
			"turn %d of session %s is already resolved", turn, sessionID)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return domain.TurnResolutionResult{}, apperrors.Wrap(apperrors.CodeUnknown, "check existing turn result", err)
	}

	status, err := e.CheckReadiness(ctx, sessionID, turn)
	if err != nil {
		return domain.TurnResolutionResult{}, err
	}
	if !status.CanResolve {
		return domain.TurnResolutionResult{}, apperrors.New(apperrors.CodeTurnNotReady,
			fmt.Sprintf("%d players have not submitted actions", len(status.PendingPlayers))).
			WithMetadata(map[string]string{
				"pending_players": strings.Join(status.PendingPlayers, ","),
			})
	}

	actions, err := e.loadSubmittedActions(ctx, sessionID, turn)
	if err != nil {
		return domain.TurnResolutionResult{}, err
	}
	records, err := e.stores.Resources.ListResources(ctx, sessionID, turn)
	if err != nil {
		return domain.TurnResolutionResult{}, apperrors.Wrap(apperrors.CodeLedgerReadFailed, "list resources", err)
	}
	participants, err := e.stores.Participants.ListParticipants(ctx, sessionID)
	if err != nil {
		return domain.TurnResolutionResult{}, apperrors.Wrap(apperrors.CodeUnknown, "list participants", err)
	}

	results := validation.ValidateAll(actions, validation.NewBalances(records), e.catalog, participants)
	summary := validation.Summarize(results)

	if opts.ValidateOnly {
		completedAt := e.clock().UTC()
		return domain.TurnResolutionResult{
			SessionID:   sessionID,
			Turn:        turn,
			Success:     summary.AllValid,
			Errors:      summary.Errors,
			Warnings:    summary.Warnings,
			StartedAt:   startedAt,
			CompletedAt: completedAt,
			Summary: domain.TurnResolutionSummary{
				TotalActions:   summary.TotalActions,
				ResolutionTime: completedAt.Sub(startedAt),
			},
		}, nil
	}

	if !summary.AllValid && !opts.AllowPartialFailure {
		return domain.TurnResolutionResult{}, apperrors.New(apperrors.CodeBatchValidationFailed,
			strings.Join(summary.Errors, "; "))
	}

	run := &resolutionRun{
		sessionID:  sessionID,
		turn:       turn,
		validation: indexValidation(results),
		warnings:   summary.Warnings,
	}

	span := trace.SpanFromContext(ctx)
	for _, phase := range domain.PhaseOrder() {
		span.AddEvent("phase", trace.WithAttributes(attribute.String("phase", string(phase))))
		if err := e.runPhase(ctx, run, phase, actions, opts); err != nil {
			return domain.TurnResolutionResult{}, err
		}
	}

	finalResources, err := e.stores.Resources.ListResources(ctx, sessionID, turn)
	if err != nil {
		return domain.TurnResolutionResult{}, apperrors.Wrap(apperrors.CodeLedgerReadFailed,
			"snapshot final resources", err)
	}
	globalEffects := effects.ComputeGlobalEffects(effects.AggregateTotals(finalResources), e.catalog.Effects)

	for _, outcome := range run.outcomes {
		if !outcome.Processed {
			continue
		}
		if err := e.stores.Actions.MarkResolved(ctx, sessionID, outcome.ActionID); err != nil {
			return domain.TurnResolutionResult{}, apperrors.Wrap(apperrors.CodeResolutionFailed,
				fmt.Sprintf("mark action %s resolved", outcome.ActionID), err)
		}
	}

	completedAt := e.clock().UTC()
	result := domain.TurnResolutionResult{
		SessionID:        sessionID,
		Turn:             turn,
		Success:          run.failed == 0,
		ProcessedActions: run.outcomes,
		ResourceChanges:  run.changes,
		FinalResources:   finalResources,
		GlobalEffects:    globalEffects,
		Errors:           run.errors,
		Warnings:         run.warnings,
		StartedAt:        startedAt,
		CompletedAt:      completedAt,
		Summary: domain.TurnResolutionSummary{
			TotalActions:     len(actions),
			ProcessedActions: run.processed,
			FailedActions:    run.failed,
			ResolutionTime:   completedAt.Sub(startedAt),
		},
	}

	if err := e.stores.TurnResults.PutTurnResult(ctx, result); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return domain.TurnResolutionResult{}, apperrors.Newf(apperrors.CodeTurnAlreadyResolved,
				"turn %d of session %s is already resolved", turn, sessionID)
		}
		return domain.TurnResolutionResult{}, apperrors.Wrap(apperrors.CodeResolutionFailed,
			"persist turn result", err)
	}

	return result, nil
}

// resolutionRun is the engine-internal state for one resolveTurn invocation.
// It is discarded after the final result is assembled.
type resolutionRun struct {
	sessionID  string
	turn       int64
	validation map[string]validation.Result
	outcomes   []domain.ActionOutcome
	changes    []domain.ResourceChange
	errors     []string
	warnings   []string
	processed  int
	failed     int
}

func indexValidation(results []validation.Result) map[string]validation.Result {
	indexed := make(map[string]validation.Result, len(results))
	for _, result := range results {
		indexed[result.ActionID] = result
	}
	return indexed
}

// runPhase processes every action belonging to one phase, sequentially in
// submission order. A failing action either fails the run or is recorded and
// skipped, per options.
func (e *Engine) runPhase(ctx context.Context, run *resolutionRun, phase domain.Phase, actions []domain.GameAction, opts Options) error {
	for _, action := range actions {
		if domain.PhaseForKind(action.Kind) != phase {
			continue
		}

		outcome := domain.ActionOutcome{
			ActionID:  action.ID,
			Kind:      action.Kind,
			FactionID: action.FactionID,
			Phase:     phase,
		}

		if vr, ok := run.validation[action.ID]; ok && !vr.Valid {
			outcome.Error = strings.Join(vr.Errors, "; ")
			run.outcomes = append(run.outcomes, outcome)
			run.failed++
			run.errors = append(run.errors, fmt.Sprintf("action %s: %s", action.ID, outcome.Error))
			continue
		}

		detail, changes, err := e.applyAction(ctx, action)
		// Changes from a partially applied action are committed and must be
		// reported even when the action itself failed.
		for i := range changes {
			changes[i].Phase = phase
		}
		run.changes = append(run.changes, changes...)

		if err != nil {
			outcome.Error = err.Error()
			run.outcomes = append(run.outcomes, outcome)
			run.failed++
			run.errors = append(run.errors, fmt.Sprintf("action %s: %s", action.ID, err.Error()))
			if !opts.AllowPartialFailure {
				return apperrors.Wrap(apperrors.CodeResolutionFailed,
					fmt.Sprintf("action %s failed during %s phase", action.ID, phase), err)
			}
			continue
		}

		outcome.Processed = true
		outcome.Detail = detail
		run.outcomes = append(run.outcomes, outcome)
		run.processed++
	}
	return nil
}
