package catalog

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/louisbranch/concord.quest/internal/game/domain"
)

//go:embed defaults/catalog.yaml
var defaultsFS embed.FS

// Default loads the catalog embedded in the binary.
func Default() (*Catalog, error) {
	raw, err := defaultsFS.ReadFile("defaults/catalog.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog: %w", err)
	}
	return Parse(raw)
}

// LoadFile loads and validates a catalog from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates catalog YAML.
func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode catalog yaml: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// validate checks the catalog's referential integrity, collecting every
// violation instead of stopping at the first.
func (c *Catalog) validate() error {
	var problems []string

	if len(c.Archetypes) == 0 {
		problems = append(problems, "catalog defines no archetypes")
	}
	for archetype, def := range c.Archetypes {
		if !domain.ValidArchetype(archetype) {
			problems = append(problems, fmt.Sprintf("unknown archetype %q", archetype))
		}
		for _, resource := range def.Produces {
			if !domain.ValidResourceType(resource) {
				problems = append(problems, fmt.Sprintf("archetype %q produces unknown resource %q", archetype, resource))
			}
		}
		for resource := range def.StartingResources {
			if !domain.ValidResourceType(resource) {
				problems = append(problems, fmt.Sprintf("archetype %q starting allotment names unknown resource %q", archetype, resource))
			}
		}
		for _, ability := range def.Abilities {
			if strings.TrimSpace(ability.Name) == "" {
				problems = append(problems, fmt.Sprintf("archetype %q lists an unnamed ability", archetype))
			}
			for resource := range ability.Costs {
				if !domain.ValidResourceType(resource) {
					problems = append(problems, fmt.Sprintf("ability %q costs unknown resource %q", ability.Name, resource))
				}
			}
		}
	}

	for name, def := range c.Structures {
		for _, archetype := range def.Archetypes {
			if !domain.ValidArchetype(archetype) {
				problems = append(problems, fmt.Sprintf("structure %q names unknown archetype %q", name, archetype))
			}
		}
		for resource := range def.Costs {
			if !domain.ValidResourceType(resource) {
				problems = append(problems, fmt.Sprintf("structure %q costs unknown resource %q", name, resource))
			}
		}
	}

	for name, def := range c.Research {
		for _, archetype := range def.Archetypes {
			if !domain.ValidArchetype(archetype) {
				problems = append(problems, fmt.Sprintf("research %q names unknown archetype %q", name, archetype))
			}
		}
		for resource := range def.Costs {
			if !domain.ValidResourceType(resource) {
				problems = append(problems, fmt.Sprintf("research %q costs unknown resource %q", name, resource))
			}
		}
	}

	if c.DefensiveArchetype != "" && !domain.ValidArchetype(c.DefensiveArchetype) {
		problems = append(problems, fmt.Sprintf("defensive archetype %q is unknown", c.DefensiveArchetype))
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("invalid catalog: %s", strings.Join(problems, "; "))
}
