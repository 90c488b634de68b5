package engine

import (
	"context"
	"fmt"
	"sort"

	apperrors "github.com/louisbranch/concord.quest/internal/errors"
	"github.com/louisbranch/concord.quest/internal/game/domain"
	"github.com/louisbranch/concord.quest/internal/game/ledger"
)

// applyAction drives the ledger calls for one action and returns its outcome
// detail plus the committed resource changes. Changes are returned even on
// error: ledger writes already made are durable.
func (e *Engine) applyAction(ctx context.Context, action domain.GameAction) (domain.ActionOutcomeDetail, []domain.ResourceChange, error) {
	switch action.Kind {
	case domain.ActionKindGather:
		return e.applyGather(ctx, action)
	case domain.ActionKindTrade:
		return e.applyTrade(ctx, action)
	case domain.ActionKindConvert:
		return e.applyConvert(ctx, action)
	case domain.ActionKindBuild:
		return e.applyBuild(ctx, action)
	case domain.ActionKindResearch:
		return e.applyResearch(ctx, action)
	case domain.ActionKindProtect:
		return e.applyProtect(ctx, action)
	case domain.ActionKindSpecial:
		return e.applySpecial(ctx, action)
	}
	return domain.ActionOutcomeDetail{}, nil, apperrors.Newf(apperrors.CodeUnknownActionKind,
		"unknown action kind %q", action.Kind)
}

func (e *Engine) applyGather(ctx context.Context, action domain.GameAction) (domain.ActionOutcomeDetail, []domain.ResourceChange, error) {
	payload := action.Payload.Gather
	res, err := e.ledger.Adjust(ctx, domain.ResourceAdjustment{
		SessionID: action.SessionID,
		FactionID: action.FactionID,
		Resource:  payload.Resource,
		Turn:      action.Turn,
		Delta:     payload.Amount,
		Reason:    fmt.Sprintf("gather %s", payload.Resource),
	})
	changes := changesFromLedger(action.ID, res)
	if err != nil {
		return domain.ActionOutcomeDetail{}, changes, err
	}
	detail := domain.ActionOutcomeDetail{Gather: &domain.GatherOutcome{
		Resource: payload.Resource,
		Amount:   payload.Amount,
	}}
	return detail, changes, nil
}

func (e *Engine) applyTrade(ctx context.Context, action domain.GameAction) (domain.ActionOutcomeDetail, []domain.ResourceChange, error) {
	payload := action.Payload.Trade
	target := payload.TargetFactionID
	if target == "" {
		target = domain.GlobalPoolTarget
	}

	var changes []domain.ResourceChange
	res, err := e.ledger.Transfer(ctx, domain.ResourceTransfer{
		SessionID:     action.SessionID,
		FromFactionID: action.FactionID,
		ToFactionID:   target,
		Resource:      payload.OfferResource,
		Turn:          action.Turn,
		Amount:        payload.Amount,
		Reason:        fmt.Sprintf("trade %s to %s", payload.OfferResource, target),
	})
	changes = append(changes, changesFromLedger(action.ID, res)...)
	if err != nil {
		return domain.ActionOutcomeDetail{}, changes, err
	}

	// The trading faction receives the wanted resource at the agreed rate,
	// rounded down.
	received := int64(float64(payload.Amount) * payload.Rate)
	if received > 0 {
		res, err = e.ledger.Adjust(ctx, domain.ResourceAdjustment{
			SessionID: action.SessionID,
			FactionID: action.FactionID,
			Resource:  payload.WantResource,
			Turn:      action.Turn,
			Delta:     received,
			Reason:    fmt.Sprintf("trade received %s", payload.WantResource),
		})
		changes = append(changes, changesFromLedger(action.ID, res)...)
		if err != nil {
			return domain.ActionOutcomeDetail{}, changes, err
		}
	}

	detail := domain.ActionOutcomeDetail{Trade: &domain.TradeOutcome{
		OfferResource:   payload.OfferResource,
		OfferedAmount:   payload.Amount,
		WantResource:    payload.WantResource,
		ReceivedAmount:  received,
		TargetFactionID: payload.TargetFactionID,
	}}
	return detail, changes, nil
}

func (e *Engine) applyConvert(ctx context.Context, action domain.GameAction) (domain.ActionOutcomeDetail, []domain.ResourceChange, error) {
	payload := action.Payload.Convert

	var changes []domain.ResourceChange
	res, err := e.ledger.Adjust(ctx, domain.ResourceAdjustment{
		SessionID: action.SessionID,
		FactionID: action.FactionID,
		Resource:  payload.FromResource,
		Turn:      action.Turn,
		Delta:     -payload.Amount,
		Reason:    fmt.Sprintf("convert %s to %s", payload.FromResource, payload.ToResource),
	})
	changes = append(changes, changesFromLedger(action.ID, res)...)
	if err != nil {
		return domain.ActionOutcomeDetail{}, changes, err
	}

	produced := int64(float64(payload.Amount) * payload.Rate)
	if produced > 0 {
		res, err = e.ledger.Adjust(ctx, domain.ResourceAdjustment{
			SessionID: action.SessionID,
			FactionID: action.FactionID,
			Resource:  payload.ToResource,
			Turn:      action.Turn,
			Delta:     produced,
			Reason:    fmt.Sprintf("convert produced %s", payload.ToResource),
		})
		changes = append(changes, changesFromLedger(action.ID, res)...)
		if err != nil {
			return domain.ActionOutcomeDetail{}, changes, err
		}
	}

	detail := domain.ActionOutcomeDetail{Convert: &domain.ConvertOutcome{
		FromResource:   payload.FromResource,
		ConsumedAmount: payload.Amount,
		ToResource:     payload.ToResource,
		ProducedAmount: produced,
	}}
	return detail, changes, nil
}

func (e *Engine) applyBuild(ctx context.Context, action domain.GameAction) (domain.ActionOutcomeDetail, []domain.ResourceChange, error) {
	payload := action.Payload.Build
	def, ok := e.catalog.Structure(payload.Structure)
	if !ok {
		return domain.ActionOutcomeDetail{}, nil, apperrors.Newf(apperrors.CodeActionInvalid,
			"unknown structure %q", payload.Structure)
	}

	changes, err := e.spendCosts(ctx, action, def.Costs, fmt.Sprintf("build %s", payload.Structure))
	if err != nil {
		return domain.ActionOutcomeDetail{}, changes, err
	}

	detail := domain.ActionOutcomeDetail{Build: &domain.BuildOutcome{Structure: payload.Structure}}
	return detail, changes, nil
}

func (e *Engine) applyResearch(ctx context.Context, action domain.GameAction) (domain.ActionOutcomeDetail, []domain.ResourceChange, error) {
	payload := action.Payload.Research
	def, ok := e.catalog.ResearchTopic(payload.Topic)
	if !ok {
		return domain.ActionOutcomeDetail{}, nil, apperrors.Newf(apperrors.CodeActionInvalid,
			"unknown research topic %q", payload.Topic)
	}

	changes, err := e.spendCosts(ctx, action, def.Costs, fmt.Sprintf("research %s", payload.Topic))
	if err != nil {
		return domain.ActionOutcomeDetail{}, changes, err
	}

	detail := domain.ActionOutcomeDetail{Research: &domain.ResearchOutcome{
		Topic:   payload.Topic,
		Unlocks: def.Unlocks,
	}}
	return detail, changes, nil
}

func (e *Engine) applyProtect(ctx context.Context, action domain.GameAction) (domain.ActionOutcomeDetail, []domain.ResourceChange, error) {
	payload := action.Payload.Protect

	changes, err := e.spendCosts(ctx, action, payload.Costs, "protect")
	if err != nil {
		return domain.ActionOutcomeDetail{}, changes, err
	}

	res, err := e.ledger.Adjust(ctx, domain.ResourceAdjustment{
		SessionID: action.SessionID,
		FactionID: action.FactionID,
		Resource:  domain.ResourceWard,
		Turn:      action.Turn,
		Delta:     payload.Amount,
		Reason:    "protect granted ward",
	})
	changes = append(changes, changesFromLedger(action.ID, res)...)
	if err != nil {
		return domain.ActionOutcomeDetail{}, changes, err
	}

	detail := domain.ActionOutcomeDetail{Protect: &domain.ProtectOutcome{WardGranted: payload.Amount}}
	return detail, changes, nil
}

func (e *Engine) applySpecial(ctx context.Context, action domain.GameAction) (domain.ActionOutcomeDetail, []domain.ResourceChange, error) {
	payload := action.Payload.Special

	archetype, err := e.factionArchetype(ctx, action.SessionID, action.FactionID)
	if err != nil {
		return domain.ActionOutcomeDetail{}, nil, err
	}
	ability, ok := e.catalog.Ability(archetype, payload.Ability)
	if !ok {
		return domain.ActionOutcomeDetail{}, nil, apperrors.Newf(apperrors.CodeActionInvalid,
			"ability %q is not available to archetype %s", payload.Ability, archetype)
	}

	changes, err := e.spendCosts(ctx, action, ability.Costs, fmt.Sprintf("special %s", payload.Ability))
	if err != nil {
		return domain.ActionOutcomeDetail{}, changes, err
	}
	declared, err := e.spendCosts(ctx, action, payload.Costs, fmt.Sprintf("special %s", payload.Ability))
	changes = append(changes, declared...)
	if err != nil {
		return domain.ActionOutcomeDetail{}, changes, err
	}

	detail := domain.ActionOutcomeDetail{Special: &domain.SpecialOutcome{
		Ability: payload.Ability,
		Target:  payload.Target,
	}}
	return detail, changes, nil
}

// spendCosts issues one negative adjustment per listed cost, in deterministic
// resource order.
func (e *Engine) spendCosts(ctx context.Context, action domain.GameAction, costs map[domain.ResourceType]int64, reason string) ([]domain.ResourceChange, error) {
	resources := make([]domain.ResourceType, 0, len(costs))
	for resource := range costs {
		resources = append(resources, resource)
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i] < resources[j] })

	var changes []domain.ResourceChange
	for _, resource := range resources {
		cost := costs[resource]
		if cost <= 0 {
			continue
		}
		res, err := e.ledger.Adjust(ctx, domain.ResourceAdjustment{
			SessionID: action.SessionID,
			FactionID: action.FactionID,
			Resource:  resource,
			Turn:      action.Turn,
			Delta:     -cost,
			Reason:    reason,
		})
		changes = append(changes, changesFromLedger(action.ID, res)...)
		if err != nil {
			return changes, err
		}
	}
	return changes, nil
}

func (e *Engine) factionArchetype(ctx context.Context, sessionID, factionID string) (domain.Archetype, error) {
	participants, err := e.stores.Participants.ListParticipants(ctx, sessionID)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeUnknown, "list participants", err)
	}
	for _, participant := range participants {
		if participant.FactionID == factionID {
			return participant.Archetype, nil
		}
	}
	return "", apperrors.Newf(apperrors.CodeActionInvalid,
		"faction %s is not part of the session", factionID)
}

// changesFromLedger converts a ledger call's audit entries into resource
// change records. Audit entries carry the true pre and post balances, so the
// changes do too.
func changesFromLedger(actionID string, res ledger.Result) []domain.ResourceChange {
	changes := make([]domain.ResourceChange, 0, len(res.AuditLogs))
	for _, entry := range res.AuditLogs {
		changes = append(changes, domain.ResourceChange{
			ActionID:    actionID,
			FactionID:   entry.FactionID,
			Resource:    entry.Resource,
			Delta:       entry.Delta,
			OldQuantity: entry.OldQuantity,
			NewQuantity: entry.NewQuantity,
			Reason:      entry.Reason,
		})
	}
	return changes
}
