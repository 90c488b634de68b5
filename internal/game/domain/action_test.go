package domain

import (
	"errors"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2026, time.March, 14, 10, 30, 0, 0, time.UTC)
}

func staticID(value string) func() (string, error) {
	return func() (string, error) { return value, nil }
}

func TestCreateAction(t *testing.T) {
	input := CreateActionInput{
		SessionID: "sess-1",
		Turn:      3,
		PlayerID:  "player-1",
		FactionID: "faction-1",
		Kind:      ActionKindGather,
		Payload: ActionPayload{
			Gather: &GatherPayload{Resource: ResourceFood, Amount: 5},
		},
	}

	action, err := CreateAction(input, fixedClock, staticID("action-1"))
	if err != nil {
		t.Fatalf("create action: %v", err)
	}
	if action.ID != "action-1" {
		t.Fatalf("id = %q, want %q", action.ID, "action-1")
	}
	if action.Status != ActionStatusSubmitted {
		t.Fatalf("status = %v, want submitted", action.Status)
	}
	if !action.CreatedAt.Equal(fixedClock()) {
		t.Fatalf("created_at = %v, want %v", action.CreatedAt, fixedClock())
	}
}

func TestCreateActionValidation(t *testing.T) {
	valid := CreateActionInput{
		SessionID: "sess-1",
		Turn:      1,
		PlayerID:  "player-1",
		FactionID: "faction-1",
		Kind:      ActionKindBuild,
		Payload:   ActionPayload{Build: &BuildPayload{Structure: "granary"}},
	}

	tests := []struct {
		name    string
		mutate  func(*CreateActionInput)
		wantErr error
	}{
		{"empty session", func(in *CreateActionInput) { in.SessionID = " " }, ErrEmptySessionID},
		{"empty player", func(in *CreateActionInput) { in.PlayerID = "" }, ErrEmptyPlayerID},
		{"empty faction", func(in *CreateActionInput) { in.FactionID = "" }, ErrEmptyFactionID},
		{"zero turn", func(in *CreateActionInput) { in.Turn = 0 }, ErrInvalidTurn},
		{"unknown kind", func(in *CreateActionInput) { in.Kind = ActionKind("teleport") }, ErrInvalidActionKind},
		{"payload mismatch", func(in *CreateActionInput) { in.Kind = ActionKindGather }, ErrPayloadKindMismatch},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := valid
			tc.mutate(&input)
			_, err := CreateAction(input, fixedClock, staticID("x"))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestActionKindValid(t *testing.T) {
	kinds := []ActionKind{
		ActionKindGather, ActionKindTrade, ActionKindConvert, ActionKindBuild,
		ActionKindResearch, ActionKindProtect, ActionKindSpecial,
	}
	for _, kind := range kinds {
		if !kind.Valid() {
			t.Fatalf("expected %q to be valid", kind)
		}
	}
	if ActionKind("sabotage").Valid() {
		t.Fatal("expected unknown kind to be invalid")
	}
}

func TestPhaseForKindCoversEveryKind(t *testing.T) {
	want := map[ActionKind]Phase{
		ActionKindGather:   PhaseGather,
		ActionKindTrade:    PhaseExchange,
		ActionKindConvert:  PhaseExchange,
		ActionKindBuild:    PhaseConsumption,
		ActionKindResearch: PhaseConsumption,
		ActionKindProtect:  PhaseConsumption,
		ActionKindSpecial:  PhaseSpecial,
	}
	for kind, phase := range want {
		if got := PhaseForKind(kind); got != phase {
			t.Fatalf("PhaseForKind(%q) = %q, want %q", kind, got, phase)
		}
	}
	if got := PhaseForKind(ActionKind("sabotage")); got != Phase("") {
		t.Fatalf("expected empty phase for unknown kind, got %q", got)
	}
}
