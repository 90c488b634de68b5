package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	apperrors "github.com/louisbranch/concord.quest/internal/errors"
	"github.com/louisbranch/concord.quest/internal/game/catalog"
	"github.com/louisbranch/concord.quest/internal/game/domain"
	"github.com/louisbranch/concord.quest/internal/game/ledger"
	"github.com/louisbranch/concord.quest/internal/storage"
)

type fakeActionStore struct {
	actions []domain.GameAction
}

func (f *fakeActionStore) PutAction(ctx context.Context, action domain.GameAction) error {
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakeActionStore) GetAction(ctx context.Context, sessionID, actionID string) (domain.GameAction, error) {
	for _, action := range f.actions {
		if action.SessionID == sessionID && action.ID == actionID {
			return action, nil
		}
	}
	return domain.GameAction{}, storage.ErrNotFound
}

func (f *fakeActionStore) ListActions(ctx context.Context, sessionID string, turn int64) ([]domain.GameAction, error) {
	var out []domain.GameAction
	for _, action := range f.actions {
		if action.SessionID == sessionID && action.Turn == turn {
			out = append(out, action)
		}
	}
	return out, nil
}

func (f *fakeActionStore) MarkResolved(ctx context.Context, sessionID, actionID string) error {
	for i, action := range f.actions {
		if action.SessionID == sessionID && action.ID == actionID {
			f.actions[i].Status = domain.ActionStatusResolved
			return nil
		}
	}
	return storage.ErrNotFound
}

type resourceKey struct {
	sessionID string
	factionID string
	resource  domain.ResourceType
	turn      int64
}

type fakeResourceStore struct {
	balances map[resourceKey]domain.ResourceRecord
}

func newFakeResourceStore() *fakeResourceStore {
	return &fakeResourceStore{balances: make(map[resourceKey]domain.ResourceRecord)}
}

func (f *fakeResourceStore) ListResources(ctx context.Context, sessionID string, turn int64) ([]domain.ResourceRecord, error) {
	var out []domain.ResourceRecord
	for key, record := range f.balances {
		if key.sessionID == sessionID && key.turn == turn {
			out = append(out, record)
		}
	}
	return out, nil
}

func (f *fakeResourceStore) GetResource(ctx context.Context, sessionID, factionID string, resource domain.ResourceType, turn int64) (domain.ResourceRecord, error) {
	record, ok := f.balances[resourceKey{sessionID, factionID, resource, turn}]
	if !ok {
		return domain.ResourceRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func (f *fakeResourceStore) UpsertResource(ctx context.Context, record domain.ResourceRecord) (domain.ResourceRecord, error) {
	f.balances[resourceKey{record.SessionID, record.FactionID, record.Resource, record.Turn}] = record
	return record, nil
}

func (f *fakeResourceStore) set(sessionID, factionID string, resource domain.ResourceType, turn, quantity int64) {
	f.balances[resourceKey{sessionID, factionID, resource, turn}] = domain.ResourceRecord{
		SessionID: sessionID,
		FactionID: factionID,
		Resource:  resource,
		Turn:      turn,
		Quantity:  quantity,
	}
}

func (f *fakeResourceStore) quantity(sessionID, factionID string, resource domain.ResourceType, turn int64) int64 {
	return f.balances[resourceKey{sessionID, factionID, resource, turn}].Quantity
}

type fakeAuditStore struct {
	entries []domain.AuditLogEntry
}

func (f *fakeAuditStore) AppendAuditLog(ctx context.Context, entry domain.AuditLogEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditStore) ListAuditLogs(ctx context.Context, sessionID string, limit int) ([]domain.AuditLogEntry, error) {
	return f.entries, nil
}

type fakeParticipantStore struct {
	participants []domain.Participant
}

func (f *fakeParticipantStore) PutParticipant(ctx context.Context, participant domain.Participant) error {
	f.participants = append(f.participants, participant)
	return nil
}

func (f *fakeParticipantStore) ListParticipants(ctx context.Context, sessionID string) ([]domain.Participant, error) {
	return f.participants, nil
}

type resultKey struct {
	sessionID string
	turn      int64
}

type fakeTurnResultStore struct {
	results map[resultKey]domain.TurnResolutionResult
}

func newFakeTurnResultStore() *fakeTurnResultStore {
	return &fakeTurnResultStore{results: make(map[resultKey]domain.TurnResolutionResult)}
}

func (f *fakeTurnResultStore) PutTurnResult(ctx context.Context, result domain.TurnResolutionResult) error {
	key := resultKey{result.SessionID, result.Turn}
	if _, ok := f.results[key]; ok {
		return storage.ErrAlreadyExists
	}
	f.results[key] = result
	return nil
}

func (f *fakeTurnResultStore) GetTurnResult(ctx context.Context, sessionID string, turn int64) (domain.TurnResolutionResult, error) {
	result, ok := f.results[resultKey{sessionID, turn}]
	if !ok {
		return domain.TurnResolutionResult{}, storage.ErrNotFound
	}
	return result, nil
}

type fixture struct {
	engine    *Engine
	actions   *fakeActionStore
	resources *fakeResourceStore
	audits    *fakeAuditStore
	roster    *fakeParticipantStore
	results   *fakeTurnResultStore
}

func newFixture(t *testing.T, archetypes map[string]domain.Archetype) *fixture {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load default catalog: %v", err)
	}

	roster := &fakeParticipantStore{}
	for factionID, archetype := range archetypes {
		roster.participants = append(roster.participants, domain.Participant{
			ID:        fmt.Sprintf("part-%s", factionID),
			SessionID: "sess-1",
			PlayerID:  "player-" + factionID,
			FactionID: factionID,
			Archetype: archetype,
		})
	}

	f := &fixture{
		actions:   &fakeActionStore{},
		resources: newFakeResourceStore(),
		audits:    &fakeAuditStore{},
		roster:    roster,
		results:   newFakeTurnResultStore(),
	}

	clock := func() time.Time {
		return time.Date(2026, time.May, 5, 8, 0, 0, 0, time.UTC)
	}
	l := ledger.New(f.resources, f.audits, f.roster).WithClock(clock)
	f.engine = New(storage.Stores{
		Actions:      f.actions,
		Resources:    f.resources,
		AuditLogs:    f.audits,
		Participants: f.roster,
		TurnResults:  f.results,
	}, l, cat).WithClock(clock)
	return f
}

func (f *fixture) submit(t *testing.T, action domain.GameAction) {
	t.Helper()
	action.SessionID = "sess-1"
	action.Turn = 1
	action.Status = domain.ActionStatusSubmitted
	if action.PlayerID == "" {
		action.PlayerID = "player-" + action.FactionID
	}
	if err := f.actions.PutAction(context.Background(), action); err != nil {
		t.Fatalf("put action: %v", err)
	}
}

func TestCheckReadiness(t *testing.T) {
	f := newFixture(t, map[string]domain.Archetype{
		"faction-a": domain.ArchetypeProvisioner,
		"faction-b": domain.ArchetypeGuardian,
	})

	status, err := f.engine.CheckReadiness(context.Background(), "sess-1", 1)
	if err != nil {
		t.Fatalf("check readiness: %v", err)
	}
	if status.CanResolve || status.AllSubmitted {
		t.Fatalf("status = %+v, want not resolvable with no submissions", status)
	}
	if len(status.PendingPlayers) != 2 {
		t.Fatalf("pending = %v, want both players", status.PendingPlayers)
	}

	f.submit(t, domain.GameAction{
		ID:        "action-1",
		FactionID: "faction-a",
		Kind:      domain.ActionKindGather,
		Payload:   domain.ActionPayload{Gather: &domain.GatherPayload{Resource: domain.ResourceFood, Amount: 5}},
	})

	status, err = f.engine.CheckReadiness(context.Background(), "sess-1", 1)
	if err != nil {
		t.Fatalf("check readiness: %v", err)
	}
	if status.CanResolve {
		t.Fatalf("status = %+v, want not resolvable with one player pending", status)
	}
	if len(status.PendingPlayers) != 1 || status.PendingPlayers[0] != "player-faction-b" {
		t.Fatalf("pending = %v, want only player-faction-b", status.PendingPlayers)
	}

	f.submit(t, domain.GameAction{
		ID:        "action-2",
		FactionID: "faction-b",
		Kind:      domain.ActionKindGather,
		Payload:   domain.ActionPayload{Gather: &domain.GatherPayload{Resource: domain.ResourceStone, Amount: 5}},
	})

	status, err = f.engine.CheckReadiness(context.Background(), "sess-1", 1)
	if err != nil {
		t.Fatalf("check readiness: %v", err)
	}
	if !status.CanResolve || !status.AllSubmitted || status.SubmittedActions != 2 {
		t.Fatalf("status = %+v, want resolvable", status)
	}
}

func TestResolveTurnRefusesWhenNotReady(t *testing.T) {
	f := newFixture(t, map[string]domain.Archetype{
		"faction-a": domain.ArchetypeProvisioner,
		"faction-b": domain.ArchetypeGuardian,
	})
	f.resources.set("sess-1", "faction-a", domain.ResourceFood, 1, 10)
	f.submit(t, domain.GameAction{
		ID:        "action-1",
		FactionID: "faction-a",
		Kind:      domain.ActionKindGather,
		Payload:   domain.ActionPayload{Gather: &domain.GatherPayload{Resource: domain.ResourceFood, Amount: 5}},
	})

	_, err := f.engine.ResolveTurn(context.Background(), "sess-1", 1, Options{})
	if !apperrors.IsCode(err, apperrors.CodeTurnNotReady) {
		t.Fatalf("err = %v, want turn not ready", err)
	}
	if got := f.resources.quantity("sess-1", "faction-a", domain.ResourceFood, 1); got != 10 {
		t.Fatalf("food = %d, want untouched 10", got)
	}
}

func TestResolveTurnGather(t *testing.T) {
	f := newFixture(t, map[string]domain.Archetype{"faction-a": domain.ArchetypeProvisioner})
	f.resources.set("sess-1", "faction-a", domain.ResourceFood, 1, 10)
	f.submit(t, domain.GameAction{
		ID:        "action-1",
		FactionID: "faction-a",
		Kind:      domain.ActionKindGather,
		Payload:   domain.ActionPayload{Gather: &domain.GatherPayload{Resource: domain.ResourceFood, Amount: 5}},
	})

	result, err := f.engine.ResolveTurn(context.Background(), "sess-1", 1, Options{})
	if err != nil {
		t.Fatalf("resolve turn: %v", err)
	}
	if !result.Success {
		t.Fatalf("result = %+v, want success", result)
	}
	if got := f.resources.quantity("sess-1", "faction-a", domain.ResourceFood, 1); got != 15 {
		t.Fatalf("food = %d, want 15", got)
	}
	if len(result.ResourceChanges) != 1 {
		t.Fatalf("changes = %+v, want exactly one", result.ResourceChanges)
	}
	change := result.ResourceChanges[0]
	if change.Delta != 5 || change.Phase != domain.PhaseGather || change.OldQuantity != 10 || change.NewQuantity != 15 {
		t.Fatalf("change = %+v, want +5 in gather phase with true balances", change)
	}
	if result.Summary.TotalActions != 1 || result.Summary.ProcessedActions != 1 || result.Summary.FailedActions != 0 {
		t.Fatalf("summary = %+v, want 1/1/0", result.Summary)
	}
	if detail := result.ProcessedActions[0].Detail.Gather; detail == nil || detail.Amount != 5 {
		t.Fatalf("detail = %+v, want gather outcome", result.ProcessedActions[0].Detail)
	}
}

func TestResolveTurnTrade(t *testing.T) {
	f := newFixture(t, map[string]domain.Archetype{
		"faction-a": domain.ArchetypeProvisioner,
		"faction-b": domain.ArchetypeGuardian,
	})
	f.resources.set("sess-1", "faction-a", domain.ResourceTimber, 1, 4)
	f.submit(t, domain.GameAction{
		ID:        "action-1",
		FactionID: "faction-a",
		Kind:      domain.ActionKindTrade,
		Payload: domain.ActionPayload{Trade: &domain.TradePayload{
			OfferResource:   domain.ResourceTimber,
			Amount:          3,
			WantResource:    domain.ResourceFood,
			Rate:            1,
			TargetFactionID: "faction-b",
		}},
	})
	f.submit(t, domain.GameAction{
		ID:        "action-2",
		FactionID: "faction-b",
		Kind:      domain.ActionKindGather,
		Payload:   domain.ActionPayload{Gather: &domain.GatherPayload{Resource: domain.ResourceStone, Amount: 1}},
	})

	result, err := f.engine.ResolveTurn(context.Background(), "sess-1", 1, Options{})
	if err != nil {
		t.Fatalf("resolve turn: %v", err)
	}
	if !result.Success {
		t.Fatalf("result errors = %v, want success", result.Errors)
	}
	if got := f.resources.quantity("sess-1", "faction-a", domain.ResourceTimber, 1); got != 1 {
		t.Fatalf("faction-a timber = %d, want 1", got)
	}
	if got := f.resources.quantity("sess-1", "faction-b", domain.ResourceTimber, 1); got != 3 {
		t.Fatalf("faction-b timber = %d, want 3", got)
	}
	if got := f.resources.quantity("sess-1", "faction-a", domain.ResourceFood, 1); got != 3 {
		t.Fatalf("faction-a food = %d, want 3 received at rate 1", got)
	}
}

func TestResolveTurnInvalidBatchMutatesNothing(t *testing.T) {
	f := newFixture(t, map[string]domain.Archetype{"faction-a": domain.ArchetypeProvisioner})
	f.resources.set("sess-1", "faction-a", domain.ResourceTimber, 1, 1)
	f.submit(t, domain.GameAction{
		ID:        "action-1",
		FactionID: "faction-a",
		Kind:      domain.ActionKindBuild,
		Payload:   domain.ActionPayload{Build: &domain.BuildPayload{Structure: "granary"}},
	})

	_, err := f.engine.ResolveTurn(context.Background(), "sess-1", 1, Options{})
	if !apperrors.IsCode(err, apperrors.CodeBatchValidationFailed) {
		t.Fatalf("err = %v, want batch validation failed", err)
	}
	if got := err.Error(); !strings.Contains(got, "Insufficient timber: has 1, needs 2") {
		t.Fatalf("err = %q, want insufficient timber message", got)
	}
	if got := f.resources.quantity("sess-1", "faction-a", domain.ResourceTimber, 1); got != 1 {
		t.Fatalf("timber = %d, want untouched 1", got)
	}
	if len(f.audits.entries) != 0 {
		t.Fatalf("expected no audit entries, got %d", len(f.audits.entries))
	}
}

func TestResolveTurnRejectsFabricatedTradeResource(t *testing.T) {
	f := newFixture(t, map[string]domain.Archetype{
		"faction-a": domain.ArchetypeProvisioner,
		"faction-b": domain.ArchetypeGuardian,
	})
	f.resources.set("sess-1", "faction-a", domain.ResourceTimber, 1, 5)
	f.submit(t, domain.GameAction{
		ID:        "action-1",
		FactionID: "faction-a",
		Kind:      domain.ActionKindTrade,
		Payload: domain.ActionPayload{Trade: &domain.TradePayload{
			OfferResource:   domain.ResourceTimber,
			Amount:          3,
			WantResource:    "moonrock",
			Rate:            1,
			TargetFactionID: "faction-b",
		}},
	})
	f.submit(t, domain.GameAction{
		ID:        "action-2",
		FactionID: "faction-b",
		Kind:      domain.ActionKindGather,
		Payload:   domain.ActionPayload{Gather: &domain.GatherPayload{Resource: domain.ResourceStone, Amount: 5}},
	})

	_, err := f.engine.ResolveTurn(context.Background(), "sess-1", 1, Options{})
	if !apperrors.IsCode(err, apperrors.CodeBatchValidationFailed) {
		t.Fatalf("err = %v, want batch validation failed", err)
	}
	if got := err.Error(); !strings.Contains(got, `Unknown resource type "moonrock"`) {
		t.Fatalf("err = %q, want unknown resource type message", got)
	}
	// No balance may come into existence for a resource the session does
	// not recognize.
	if got := f.resources.quantity("sess-1", "faction-a", "moonrock", 1); got != 0 {
		t.Fatalf("moonrock = %d, want no fabricated balance", got)
	}
	if got := f.resources.quantity("sess-1", "faction-a", domain.ResourceTimber, 1); got != 5 {
		t.Fatalf("timber = %d, want untouched 5", got)
	}
}

func TestResolveTurnPhaseOrdering(t *testing.T) {
	f := newFixture(t, map[string]domain.Archetype{
		"faction-a": domain.ArchetypeProvisioner,
		"faction-b": domain.ArchetypeGuardian,
		"faction-c": domain.ArchetypeMystic,
		"faction-d": domain.ArchetypeExplorer,
	})
	f.resources.set("sess-1", "faction-a", domain.ResourceFood, 1, 10)
	f.resources.set("sess-1", "faction-b", domain.ResourceStone, 1, 10)
	f.resources.set("sess-1", "faction-b", domain.ResourceTimber, 1, 10)
	f.resources.set("sess-1", "faction-c", domain.ResourceInsight, 1, 10)
	f.resources.set("sess-1", "faction-d", domain.ResourceOre, 1, 10)

	// Submission order deliberately scrambles the phase order.
	f.submit(t, domain.GameAction{
		ID:        "action-special",
		FactionID: "faction-d",
		Kind:      domain.ActionKindSpecial,
		Payload:   domain.ActionPayload{Special: &domain.SpecialPayload{Ability: "prospect"}},
	})
	f.submit(t, domain.GameAction{
		ID:        "action-build",
		FactionID: "faction-b",
		Kind:      domain.ActionKindBuild,
		Payload:   domain.ActionPayload{Build: &domain.BuildPayload{Structure: "watchtower"}},
	})
	f.submit(t, domain.GameAction{
		ID:        "action-convert",
		FactionID: "faction-c",
		Kind:      domain.ActionKindConvert,
		Payload: domain.ActionPayload{Convert: &domain.ConvertPayload{
			FromResource: domain.ResourceInsight,
			ToResource:   domain.ResourceInsight,
			Amount:       2,
			Rate:         1,
		}},
	})
	f.submit(t, domain.GameAction{
		ID:        "action-gather",
		FactionID: "faction-a",
		Kind:      domain.ActionKindGather,
		Payload:   domain.ActionPayload{Gather: &domain.GatherPayload{Resource: domain.ResourceFood, Amount: 5}},
	})

	result, err := f.engine.ResolveTurn(context.Background(), "sess-1", 1, Options{})
	if err != nil {
		t.Fatalf("resolve turn: %v", err)
	}
	if !result.Success || result.Summary.TotalActions != 4 || result.Summary.FailedActions != 0 {
		t.Fatalf("summary = %+v (errors %v), want 4 processed without failures", result.Summary, result.Errors)
	}

	phaseRank := map[domain.Phase]int{
		domain.PhaseGather:      0,
		domain.PhaseExchange:    1,
		domain.PhaseConsumption: 2,
		domain.PhaseSpecial:     3,
	}
	last := -1
	for _, change := range result.ResourceChanges {
		rank, ok := phaseRank[change.Phase]
		if !ok {
			t.Fatalf("unexpected phase %q in change %+v", change.Phase, change)
		}
		if rank < last {
			t.Fatalf("changes out of phase order: %+v", result.ResourceChanges)
		}
		last = rank
	}
}

func TestResolveTurnExactlyOnce(t *testing.T) {
	f := newFixture(t, map[string]domain.Archetype{"faction-a": domain.ArchetypeProvisioner})
	f.resources.set("sess-1", "faction-a", domain.ResourceFood, 1, 10)
	f.submit(t, domain.GameAction{
		ID:        "action-1",
		FactionID: "faction-a",
		Kind:      domain.ActionKindGather,
		Payload:   domain.ActionPayload{Gather: &domain.GatherPayload{Resource: domain.ResourceFood, Amount: 5}},
	})

	if _, err := f.engine.ResolveTurn(context.Background(), "sess-1", 1, Options{}); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if f.actions.actions[0].Status != domain.ActionStatusResolved {
		t.Fatalf("action status = %v, want resolved", f.actions.actions[0].Status)
	}

	_, err := f.engine.ResolveTurn(context.Background(), "sess-1", 1, Options{})
	if !apperrors.IsCode(err, apperrors.CodeTurnAlreadyResolved) {
		t.Fatalf("second resolve err = %v, want turn already resolved", err)
	}
	if got := f.resources.quantity("sess-1", "faction-a", domain.ResourceFood, 1); got != 15 {
		t.Fatalf("food = %d, want 15 after exactly one application", got)
	}
}

func TestResolveTurnValidateOnly(t *testing.T) {
	f := newFixture(t, map[string]domain.Archetype{"faction-a": domain.ArchetypeProvisioner})
	f.resources.set("sess-1", "faction-a", domain.ResourceFood, 1, 10)
	f.submit(t, domain.GameAction{
		ID:        "action-1",
		FactionID: "faction-a",
		Kind:      domain.ActionKindGather,
		Payload:   domain.ActionPayload{Gather: &domain.GatherPayload{Resource: domain.ResourceFood, Amount: 5}},
	})

	result, err := f.engine.ResolveTurn(context.Background(), "sess-1", 1, Options{ValidateOnly: true})
	if err != nil {
		t.Fatalf("validate only: %v", err)
	}
	if !result.Success {
		t.Fatalf("result = %+v, want valid batch", result)
	}
	if got := f.resources.quantity("sess-1", "faction-a", domain.ResourceFood, 1); got != 10 {
		t.Fatalf("food = %d, want untouched 10", got)
	}
	if f.actions.actions[0].Status != domain.ActionStatusSubmitted {
		t.Fatal("validate only must not resolve actions")
	}
	if _, err := f.results.GetTurnResult(context.Background(), "sess-1", 1); err == nil {
		t.Fatal("validate only must not persist a result")
	}
}

func TestResolveTurnAllowPartialFailure(t *testing.T) {
	f := newFixture(t, map[string]domain.Archetype{"faction-a": domain.ArchetypeProvisioner})
	f.resources.set("sess-1", "faction-a", domain.ResourceFood, 1, 10)
	f.submit(t, domain.GameAction{
		ID:        "action-1",
		FactionID: "faction-a",
		Kind:      domain.ActionKindGather,
		Payload:   domain.ActionPayload{Gather: &domain.GatherPayload{Resource: domain.ResourceFood, Amount: 5}},
	})
	// Provisioners cannot gather insight; this action fails validation.
	f.submit(t, domain.GameAction{
		ID:        "action-2",
		FactionID: "faction-a",
		Kind:      domain.ActionKindGather,
		Payload:   domain.ActionPayload{Gather: &domain.GatherPayload{Resource: domain.ResourceInsight, Amount: 5}},
	})

	result, err := f.engine.ResolveTurn(context.Background(), "sess-1", 1, Options{AllowPartialFailure: true})
	if err != nil {
		t.Fatalf("resolve turn: %v", err)
	}
	if result.Success {
		t.Fatal("expected Success = false with a failed action")
	}
	if result.Summary.ProcessedActions != 1 || result.Summary.FailedActions != 1 {
		t.Fatalf("summary = %+v, want 1 processed and 1 failed", result.Summary)
	}
	if got := f.resources.quantity("sess-1", "faction-a", domain.ResourceFood, 1); got != 15 {
		t.Fatalf("food = %d, want 15 from the valid sibling", got)
	}
	if got := f.resources.quantity("sess-1", "faction-a", domain.ResourceInsight, 1); got != 0 {
		t.Fatalf("insight = %d, want 0", got)
	}
	if f.actions.actions[1].Status != domain.ActionStatusSubmitted {
		t.Fatal("failed action must stay submitted")
	}

	// The persisted result blocks re-resolution, so the failed action is
	// final despite its submitted status.
	_, err = f.engine.ResolveTurn(context.Background(), "sess-1", 1, Options{AllowPartialFailure: true})
	if !apperrors.IsCode(err, apperrors.CodeTurnAlreadyResolved) {
		t.Fatalf("err = %v, want turn already resolved", err)
	}
	if got := f.resources.quantity("sess-1", "faction-a", domain.ResourceFood, 1); got != 15 {
		t.Fatalf("food = %d, want unchanged 15", got)
	}
}

func TestResolveTurnFourFactions(t *testing.T) {
	f := newFixture(t, map[string]domain.Archetype{
		"faction-a": domain.ArchetypeProvisioner,
		"faction-b": domain.ArchetypeGuardian,
		"faction-c": domain.ArchetypeMystic,
		"faction-d": domain.ArchetypeExplorer,
	})
	for _, spec := range []struct {
		factionID string
		resource  domain.ResourceType
	}{
		{"faction-a", domain.ResourceFood},
		{"faction-b", domain.ResourceStone},
		{"faction-c", domain.ResourceInsight},
		{"faction-d", domain.ResourceOre},
	} {
		f.submit(t, domain.GameAction{
			ID:        "action-" + spec.factionID,
			FactionID: spec.factionID,
			Kind:      domain.ActionKindGather,
			Payload:   domain.ActionPayload{Gather: &domain.GatherPayload{Resource: spec.resource, Amount: 4}},
		})
	}

	status, err := f.engine.CheckReadiness(context.Background(), "sess-1", 1)
	if err != nil {
		t.Fatalf("check readiness: %v", err)
	}
	if !status.CanResolve {
		t.Fatalf("status = %+v, want resolvable", status)
	}

	result, err := f.engine.ResolveTurn(context.Background(), "sess-1", 1, Options{})
	if err != nil {
		t.Fatalf("resolve turn: %v", err)
	}
	if result.Summary.TotalActions != 4 || result.Summary.FailedActions != 0 {
		t.Fatalf("summary = %+v, want 4 total and 0 failed", result.Summary)
	}

	persisted, err := f.results.GetTurnResult(context.Background(), "sess-1", 1)
	if err != nil {
		t.Fatalf("get persisted result: %v", err)
	}
	if persisted.Summary.TotalActions != 4 {
		t.Fatalf("persisted summary = %+v, want 4 total", persisted.Summary)
	}
}

func TestResolveTurnProtectGrantsWard(t *testing.T) {
	f := newFixture(t, map[string]domain.Archetype{"faction-b": domain.ArchetypeGuardian})
	f.resources.set("sess-1", "faction-b", domain.ResourceStone, 1, 10)
	f.submit(t, domain.GameAction{
		ID:        "action-1",
		FactionID: "faction-b",
		Kind:      domain.ActionKindProtect,
		Payload: domain.ActionPayload{Protect: &domain.ProtectPayload{
			Costs:  map[domain.ResourceType]int64{domain.ResourceStone: 4},
			Amount: 3,
		}},
	})

	result, err := f.engine.ResolveTurn(context.Background(), "sess-1", 1, Options{})
	if err != nil {
		t.Fatalf("resolve turn: %v", err)
	}
	if !result.Success {
		t.Fatalf("result errors = %v, want success", result.Errors)
	}
	if got := f.resources.quantity("sess-1", "faction-b", domain.ResourceStone, 1); got != 6 {
		t.Fatalf("stone = %d, want 6", got)
	}
	if got := f.resources.quantity("sess-1", "faction-b", domain.ResourceWard, 1); got != 3 {
		t.Fatalf("ward = %d, want 3", got)
	}
	if detail := result.ProcessedActions[0].Detail.Protect; detail == nil || detail.WardGranted != 3 {
		t.Fatalf("detail = %+v, want ward granted 3", result.ProcessedActions[0].Detail)
	}
}
