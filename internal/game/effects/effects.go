// Package effects derives session-wide modifiers from resource totals
// aggregated across every faction for one turn. The calculator is a pure
// function: identical totals always yield identical effects, and thresholds
// come from the catalog, never from constants in here.
package effects

import (
	"github.com/louisbranch/concord.quest/internal/game/catalog"
	"github.com/louisbranch/concord.quest/internal/game/domain"
)

// AggregateTotals sums quantities per resource type across all factions.
func AggregateTotals(records []domain.ResourceRecord) map[domain.ResourceType]int64 {
	totals := make(map[domain.ResourceType]int64)
	for _, record := range records {
		totals[record.Resource] += record.Quantity
	}
	return totals
}

// ComputeGlobalEffects maps aggregated resource totals to global modifiers.
//
// Food below the shortage threshold scales a penalty linearly up to the
// configured maximum. Ward at or above the stability threshold grants the
// stability bonus. Insight grants a stepped bonus per full increment, capped.
// Combined timber and stone at or above the infrastructure threshold grant
// the infrastructure bonus.
func ComputeGlobalEffects(totals map[domain.ResourceType]int64, thresholds catalog.EffectThresholds) domain.GlobalEffects {
	var effects domain.GlobalEffects

	food := totals[domain.ResourceFood]
	if thresholds.FoodShortageThreshold > 0 && food < thresholds.FoodShortageThreshold {
		shortfall := thresholds.FoodShortageThreshold - food
		penalty := thresholds.MaxFoodShortagePenalty * float64(shortfall) / float64(thresholds.FoodShortageThreshold)
		if penalty > thresholds.MaxFoodShortagePenalty {
			penalty = thresholds.MaxFoodShortagePenalty
		}
		effects.FoodShortagePenalty = penalty
	}

	if thresholds.StabilityThreshold > 0 && totals[domain.ResourceWard] >= thresholds.StabilityThreshold {
		effects.StabilityBonus = thresholds.StabilityBonus
	}

	if thresholds.InsightPerBonus > 0 {
		steps := totals[domain.ResourceInsight] / thresholds.InsightPerBonus
		bonus := float64(steps) * thresholds.InsightBonusStep
		if bonus > thresholds.MaxInsightBonus {
			bonus = thresholds.MaxInsightBonus
		}
		effects.InsightBonus = bonus
	}

	infrastructure := totals[domain.ResourceTimber] + totals[domain.ResourceStone]
	if thresholds.InfrastructureThreshold > 0 && infrastructure >= thresholds.InfrastructureThreshold {
		effects.InfrastructureBonus = thresholds.InfrastructureBonus
	}

	return effects
}
