package domain

import "time"

// Phase is one ordered stage of turn processing. The engine drives phases in
// the fixed order returned by PhaseOrder.
type Phase string

const (
	// PhaseValidation covers batch validation before any mutation.
	PhaseValidation Phase = "validation"
	// PhaseGather processes gather actions.
	PhaseGather Phase = "gather"
	// PhaseExchange processes trade and convert actions.
	PhaseExchange Phase = "exchange"
	// PhaseConsumption processes build, research, and protect actions.
	PhaseConsumption Phase = "consumption"
	// PhaseSpecial processes special ability actions.
	PhaseSpecial Phase = "special"
	// PhaseGlobal computes session-wide effects from aggregated totals.
	PhaseGlobal Phase = "global"
	// PhaseComplete marks an assembled, persisted result.
	PhaseComplete Phase = "complete"
)

// PhaseOrder returns the execution phases in their fixed processing order.
// The order is total and invariant across runs.
func PhaseOrder() []Phase {
	return []Phase{PhaseGather, PhaseExchange, PhaseConsumption, PhaseSpecial}
}

// PhaseForKind maps an action kind into its execution phase.
func PhaseForKind(kind ActionKind) Phase {
	switch kind {
	case ActionKindGather:
		return PhaseGather
	case ActionKindTrade, ActionKindConvert:
		return PhaseExchange
	case ActionKindBuild, ActionKindResearch, ActionKindProtect:
		return PhaseConsumption
	case ActionKindSpecial:
		return PhaseSpecial
	}
	return Phase("")
}

// TurnStatus reports submission progress for one turn of a session.
type TurnStatus struct {
	SessionID        string   `json:"session_id"`
	Turn             int64    `json:"turn"`
	TotalPlayers     int      `json:"total_players"`
	SubmittedActions int      `json:"submitted_actions"`
	SubmittedPlayers []string `json:"submitted_players"`
	PendingPlayers   []string `json:"pending_players"`
	AllSubmitted     bool     `json:"all_submitted"`
	CanResolve       bool     `json:"can_resolve"`
}

// ResourceChange records one committed ledger mutation made during turn
// resolution, with the true pre and post balances.
type ResourceChange struct {
	ActionID    string       `json:"action_id"`
	Phase       Phase        `json:"phase"`
	FactionID   string       `json:"faction_id"`
	Resource    ResourceType `json:"resource"`
	Delta       int64        `json:"delta"`
	OldQuantity int64        `json:"old_quantity"`
	NewQuantity int64        `json:"new_quantity"`
	Reason      string       `json:"reason"`
}

// ActionOutcomeDetail is a tagged union of per-kind outcome metadata. Exactly
// one field is non-nil for a processed action.
type ActionOutcomeDetail struct {
	Gather   *GatherOutcome   `json:"gather,omitempty"`
	Trade    *TradeOutcome    `json:"trade,omitempty"`
	Convert  *ConvertOutcome  `json:"convert,omitempty"`
	Build    *BuildOutcome    `json:"build,omitempty"`
	Research *ResearchOutcome `json:"research,omitempty"`
	Protect  *ProtectOutcome  `json:"protect,omitempty"`
	Special  *SpecialOutcome  `json:"special,omitempty"`
}

// GatherOutcome describes the result of a gather action.
type GatherOutcome struct {
	Resource ResourceType `json:"resource"`
	Amount   int64        `json:"amount"`
}

// TradeOutcome describes the result of a trade action.
type TradeOutcome struct {
	OfferResource   ResourceType `json:"offer_resource"`
	OfferedAmount   int64        `json:"offered_amount"`
	WantResource    ResourceType `json:"want_resource"`
	ReceivedAmount  int64        `json:"received_amount"`
	TargetFactionID string       `json:"target_faction_id,omitempty"`
}

// ConvertOutcome describes the result of a convert action.
type ConvertOutcome struct {
	FromResource   ResourceType `json:"from_resource"`
	ConsumedAmount int64        `json:"consumed_amount"`
	ToResource     ResourceType `json:"to_resource"`
	ProducedAmount int64        `json:"produced_amount"`
}

// BuildOutcome describes the result of a build action.
type BuildOutcome struct {
	Structure string `json:"structure"`
}

// ResearchOutcome describes the result of a research action.
type ResearchOutcome struct {
	Topic   string   `json:"topic"`
	Unlocks []string `json:"unlocks,omitempty"`
}

// ProtectOutcome describes the result of a protect action.
type ProtectOutcome struct {
	WardGranted int64 `json:"ward_granted"`
}

// SpecialOutcome describes the result of a special ability action.
type SpecialOutcome struct {
	Ability string `json:"ability"`
	Target  string `json:"target,omitempty"`
}

// ActionOutcome is the per-action processing result inside a turn resolution.
type ActionOutcome struct {
	ActionID  string              `json:"action_id"`
	Kind      ActionKind          `json:"kind"`
	FactionID string              `json:"faction_id"`
	Phase     Phase               `json:"phase"`
	Processed bool                `json:"processed"`
	Error     string              `json:"error,omitempty"`
	Detail    ActionOutcomeDetail `json:"detail"`
}

// GlobalEffects holds the session-wide modifiers derived from aggregated
// per-resource totals.
type GlobalEffects struct {
	FoodShortagePenalty float64 `json:"food_shortage_penalty"`
	StabilityBonus      float64 `json:"stability_bonus"`
	InsightBonus        float64 `json:"insight_bonus"`
	InfrastructureBonus float64 `json:"infrastructure_bonus"`
}

// TurnResolutionSummary aggregates counts for one resolution.
type TurnResolutionSummary struct {
	TotalActions     int           `json:"total_actions"`
	ProcessedActions int           `json:"processed_actions"`
	FailedActions    int           `json:"failed_actions"`
	ResolutionTime   time.Duration `json:"resolution_time"`
}

// TurnResolutionResult is the immutable output contract of one resolveTurn
// invocation, consumed by history, replay, and endgame features.
type TurnResolutionResult struct {
	SessionID        string                `json:"session_id"`
	Turn             int64                 `json:"turn"`
	Success          bool                  `json:"success"`
	ProcessedActions []ActionOutcome       `json:"processed_actions"`
	ResourceChanges  []ResourceChange      `json:"resource_changes"`
	FinalResources   []ResourceRecord      `json:"final_resources"`
	GlobalEffects    GlobalEffects         `json:"global_effects"`
	Errors           []string              `json:"errors,omitempty"`
	Warnings         []string              `json:"warnings,omitempty"`
	Summary          TurnResolutionSummary `json:"summary"`
	StartedAt        time.Time             `json:"started_at"`
	CompletedAt      time.Time             `json:"completed_at"`
}
