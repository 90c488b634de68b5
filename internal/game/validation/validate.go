// Package validation checks submitted actions against the action catalog,
// current resource balances, and the session roster. Validation is pure: it
// never writes, and an invalid action never short-circuits its siblings.
package validation

import (
	"fmt"
	"sort"

	"github.com/louisbranch/concord.quest/internal/game/catalog"
	"github.com/louisbranch/concord.quest/internal/game/domain"
)

// Result reports the outcome of validating one action. Errors block
// processing; warnings are informational only.
type Result struct {
	ActionID string            `json:"action_id"`
	Kind     domain.ActionKind `json:"kind"`
	Valid    bool              `json:"valid"`
	Errors   []string          `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

// Summary aggregates a batch of validation results.
type Summary struct {
	TotalActions   int      `json:"total_actions"`
	ValidActions   int      `json:"valid_actions"`
	InvalidActions int      `json:"invalid_actions"`
	AllValid       bool     `json:"all_valid"`
	Errors         []string `json:"errors,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

// Balances indexes turn-scoped resource quantities by faction and resource.
type Balances map[string]map[domain.ResourceType]int64

// NewBalances builds a balance index from raw ledger records.
func NewBalances(records []domain.ResourceRecord) Balances {
	balances := make(Balances)
	for _, record := range records {
		faction, ok := balances[record.FactionID]
		if !ok {
			faction = make(map[domain.ResourceType]int64)
			balances[record.FactionID] = faction
		}
		faction[record.Resource] = record.Quantity
	}
	return balances
}

// Quantity returns the balance for a faction and resource, zero when absent.
func (b Balances) Quantity(factionID string, resource domain.ResourceType) int64 {
	return b[factionID][resource]
}

// Validate checks one action against the catalog, current balances, and the
// session roster.
func Validate(action domain.GameAction, balances Balances, cat *catalog.Catalog, participants []domain.Participant) Result {
	result := Result{ActionID: action.ID, Kind: action.Kind}

	archetype, ok := rosterArchetype(participants, action.FactionID)
	if !ok {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Faction %s is not part of the session", action.FactionID))
		return result
	}

	if payloadKind := action.Payload.Kind(); payloadKind != action.Kind {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Payload kind %q does not match action kind %q", payloadKind, action.Kind))
		return result
	}

	switch action.Kind {
	case domain.ActionKindGather:
		validateGather(&result, action, archetype, cat)
	case domain.ActionKindTrade:
		validateTrade(&result, action, balances, participants)
	case domain.ActionKindConvert:
		validateConvert(&result, action, balances, archetype, cat)
	case domain.ActionKindBuild:
		validateBuild(&result, action, balances, archetype, cat)
	case domain.ActionKindResearch:
		validateResearch(&result, action, balances, archetype, cat)
	case domain.ActionKindProtect:
		validateProtect(&result, action, balances, archetype, cat)
	case domain.ActionKindSpecial:
		validateSpecial(&result, action, balances, archetype, cat)
	default:
		result.Errors = append(result.Errors,
			fmt.Sprintf("Unknown action kind %q", action.Kind))
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// ValidateAll validates every action in a batch. Order follows the input;
// an invalid action never suppresses validation of the rest.
func ValidateAll(actions []domain.GameAction, balances Balances, cat *catalog.Catalog, participants []domain.Participant) []Result {
	results := make([]Result, 0, len(actions))
	for _, action := range actions {
		results = append(results, Validate(action, balances, cat, participants))
	}
	return results
}

// Summarize aggregates per-action results into batch totals.
func Summarize(results []Result) Summary {
	summary := Summary{TotalActions: len(results)}
	for _, result := range results {
		if result.Valid {
			summary.ValidActions++
		} else {
			summary.InvalidActions++
		}
		for _, msg := range result.Errors {
			summary.Errors = append(summary.Errors, fmt.Sprintf("action %s: %s", result.ActionID, msg))
		}
		for _, msg := range result.Warnings {
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("action %s: %s", result.ActionID, msg))
		}
	}
	summary.AllValid = summary.InvalidActions == 0
	return summary
}

func validateGather(result *Result, action domain.GameAction, archetype domain.Archetype, cat *catalog.Catalog) {
	payload := action.Payload.Gather
	if payload.Amount <= 0 {
		result.Errors = append(result.Errors, "Gather amount must be positive")
	}
	if !domain.ValidResourceType(payload.Resource) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Unknown resource type %q", payload.Resource))
		return
	}
	if !cat.CanProduce(archetype, payload.Resource) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Archetype %s cannot gather %s", archetype, payload.Resource))
	}
}

func validateTrade(result *Result, action domain.GameAction, balances Balances, participants []domain.Participant) {
	payload := action.Payload.Trade
	if payload.Amount <= 0 {
		result.Errors = append(result.Errors, "Trade amount must be positive")
	}
	if payload.Rate <= 0 {
		result.Errors = append(result.Errors, "Exchange rate must be positive")
	}
	if !domain.ValidResourceType(payload.OfferResource) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Unknown resource type %q", payload.OfferResource))
		return
	}
	if !domain.ValidResourceType(payload.WantResource) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Unknown resource type %q", payload.WantResource))
		return
	}
	checkAffordable(result, balances, action.FactionID, payload.OfferResource, payload.Amount)
	target := payload.TargetFactionID
	if target != "" && target != domain.GlobalPoolTarget {
		if _, ok := rosterArchetype(participants, target); !ok {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Target faction %s is not part of the session", target))
		}
	}
}

func validateConvert(result *Result, action domain.GameAction, balances Balances, archetype domain.Archetype, cat *catalog.Catalog) {
	payload := action.Payload.Convert
	if payload.Amount <= 0 {
		result.Errors = append(result.Errors, "Convert amount must be positive")
	}
	if payload.Rate <= 0 {
		result.Errors = append(result.Errors, "Exchange rate must be positive")
	}
	if !domain.ValidResourceType(payload.FromResource) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Unknown resource type %q", payload.FromResource))
		return
	}
	if !domain.ValidResourceType(payload.ToResource) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Unknown resource type %q", payload.ToResource))
		return
	}
	checkAffordable(result, balances, action.FactionID, payload.FromResource, payload.Amount)
	// A conversion into a resource the archetype does not normally produce
	// is suboptimal, not illegal.
	if !cat.CanProduce(archetype, payload.ToResource) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Archetype %s does not normally produce %s", archetype, payload.ToResource))
	}
}

func validateBuild(result *Result, action domain.GameAction, balances Balances, archetype domain.Archetype, cat *catalog.Catalog) {
	payload := action.Payload.Build
	def, ok := cat.Structure(payload.Structure)
	if !ok {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Unknown structure %q", payload.Structure))
		return
	}
	if !catalog.ArchetypeEligible(def.Archetypes, archetype) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Archetype %s cannot build %s", archetype, payload.Structure))
	}
	checkCosts(result, balances, action.FactionID, def.Costs)
}

func validateResearch(result *Result, action domain.GameAction, balances Balances, archetype domain.Archetype, cat *catalog.Catalog) {
	payload := action.Payload.Research
	def, ok := cat.ResearchTopic(payload.Topic)
	if !ok {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Unknown research topic %q", payload.Topic))
		return
	}
	if !catalog.ArchetypeEligible(def.Archetypes, archetype) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Archetype %s cannot research %s", archetype, payload.Topic))
	}
	checkCosts(result, balances, action.FactionID, def.Costs)
}

func validateProtect(result *Result, action domain.GameAction, balances Balances, archetype domain.Archetype, cat *catalog.Catalog) {
	payload := action.Payload.Protect
	if payload.Amount <= 0 {
		result.Errors = append(result.Errors, "Protection amount must be positive")
	}
	checkCosts(result, balances, action.FactionID, payload.Costs)
	if archetype != cat.DefensiveArchetype {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Archetype %s is not the defensive archetype; protection is less effective", archetype))
	}
}

func validateSpecial(result *Result, action domain.GameAction, balances Balances, archetype domain.Archetype, cat *catalog.Catalog) {
	payload := action.Payload.Special
	ability, ok := cat.Ability(archetype, payload.Ability)
	if !ok {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Ability %q is not available to archetype %s", payload.Ability, archetype))
		return
	}
	checkCosts(result, balances, action.FactionID, ability.Costs)
	checkCosts(result, balances, action.FactionID, payload.Costs)
}

// checkCosts verifies every listed cost against the current balance, in
// deterministic resource order.
func checkCosts(result *Result, balances Balances, factionID string, costs map[domain.ResourceType]int64) {
	resources := make([]domain.ResourceType, 0, len(costs))
	for resource := range costs {
		resources = append(resources, resource)
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i] < resources[j] })
	for _, resource := range resources {
		checkAffordable(result, balances, factionID, resource, costs[resource])
	}
}

func checkAffordable(result *Result, balances Balances, factionID string, resource domain.ResourceType, needed int64) {
	if needed <= 0 {
		return
	}
	has := balances.Quantity(factionID, resource)
	if has < needed {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Insufficient %s: has %d, needs %d", resource, has, needed))
	}
}

func rosterArchetype(participants []domain.Participant, factionID string) (domain.Archetype, bool) {
	for _, participant := range participants {
		if participant.FactionID == factionID {
			return participant.Archetype, true
		}
	}
	return "", false
}
