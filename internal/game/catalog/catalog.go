// Package catalog holds the static action catalog: per-archetype producible
// resources and abilities, structure and research cost tables, and the
// thresholds driving global effects. The catalog is read-only configuration
// supplied at startup; gameplay code never mutates it.
package catalog

import (
	"github.com/louisbranch/concord.quest/internal/game/domain"
)

// Catalog is the loaded, validated action catalog.
type Catalog struct {
	Archetypes map[domain.Archetype]ArchetypeDef `yaml:"archetypes"`
	Structures map[string]StructureDef           `yaml:"structures"`
	Research   map[string]ResearchDef            `yaml:"research"`
	Effects    EffectThresholds                  `yaml:"effects"`
	// DefensiveArchetype is the archetype that protects without a warning.
	DefensiveArchetype domain.Archetype `yaml:"defensive_archetype"`
}

// ArchetypeDef describes what one faction archetype can do.
type ArchetypeDef struct {
	Produces          []domain.ResourceType         `yaml:"produces"`
	StartingResources map[domain.ResourceType]int64 `yaml:"starting_resources"`
	Abilities         []AbilityDef                  `yaml:"abilities"`
}

// AbilityDef names a special ability and its optional resource costs.
type AbilityDef struct {
	Name  string                        `yaml:"name"`
	Costs map[domain.ResourceType]int64 `yaml:"costs"`
}

// StructureDef describes a buildable structure.
type StructureDef struct {
	Archetypes []domain.Archetype            `yaml:"archetypes"`
	Costs      map[domain.ResourceType]int64 `yaml:"costs"`
}

// ResearchDef describes a researchable topic.
type ResearchDef struct {
	Archetypes []domain.Archetype            `yaml:"archetypes"`
	Costs      map[domain.ResourceType]int64 `yaml:"costs"`
	Unlocks    []string                      `yaml:"unlocks"`
}

// EffectThresholds parameterizes the global effects calculator. All values
// apply to totals aggregated across every faction for one turn.
type EffectThresholds struct {
	FoodShortageThreshold   int64   `yaml:"food_shortage_threshold"`
	MaxFoodShortagePenalty  float64 `yaml:"max_food_shortage_penalty"`
	StabilityThreshold      int64   `yaml:"stability_threshold"`
	StabilityBonus          float64 `yaml:"stability_bonus"`
	InsightPerBonus         int64   `yaml:"insight_per_bonus"`
	InsightBonusStep        float64 `yaml:"insight_bonus_step"`
	MaxInsightBonus         float64 `yaml:"max_insight_bonus"`
	InfrastructureThreshold int64   `yaml:"infrastructure_threshold"`
	InfrastructureBonus     float64 `yaml:"infrastructure_bonus"`
}

// CanProduce reports whether the archetype may gather the given resource.
func (c *Catalog) CanProduce(archetype domain.Archetype, resource domain.ResourceType) bool {
	def, ok := c.Archetypes[archetype]
	if !ok {
		return false
	}
	for _, produced := range def.Produces {
		if produced == resource {
			return true
		}
	}
	return false
}

// Structure returns the definition of a structure, if it exists.
func (c *Catalog) Structure(name string) (StructureDef, bool) {
	def, ok := c.Structures[name]
	return def, ok
}

// ResearchTopic returns the definition of a research topic, if it exists.
func (c *Catalog) ResearchTopic(name string) (ResearchDef, bool) {
	def, ok := c.Research[name]
	return def, ok
}

// Ability returns the named ability for an archetype, if listed.
func (c *Catalog) Ability(archetype domain.Archetype, name string) (AbilityDef, bool) {
	def, ok := c.Archetypes[archetype]
	if !ok {
		return AbilityDef{}, false
	}
	for _, ability := range def.Abilities {
		if ability.Name == name {
			return ability, true
		}
	}
	return AbilityDef{}, false
}

// StartingResources returns the starting allotment for an archetype. The
// returned map is a copy; mutating it does not touch the catalog.
func (c *Catalog) StartingResources(archetype domain.Archetype) map[domain.ResourceType]int64 {
	def, ok := c.Archetypes[archetype]
	if !ok {
		return nil
	}
	out := make(map[domain.ResourceType]int64, len(def.StartingResources))
	for resource, quantity := range def.StartingResources {
		out[resource] = quantity
	}
	return out
}

// ArchetypeEligible reports whether the archetype appears in the list.
func ArchetypeEligible(archetypes []domain.Archetype, archetype domain.Archetype) bool {
	for _, candidate := range archetypes {
		if candidate == archetype {
			return true
		}
	}
	return false
}
