package game

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog is an immutable index of card definitions by ID.
type Catalog struct {
	defs map[string]*CardDefinition
}

// NewCatalog builds a catalog from the given definitions. Duplicate IDs are
// rejected.
func NewCatalog(defs []*CardDefinition) (*Catalog, error) {
	index := make(map[string]*CardDefinition, len(defs))
	for _, def := range defs {
		if def.ID == "" {
			return nil, fmt.Errorf("card definition with empty id (%q)", def.Name)
		}
		if _, dup := index[def.ID]; dup {
			return nil, fmt.Errorf("duplicate card definition %s", def.ID)
		}
		index[def.ID] = def
	}
	return &Catalog{defs: index}, nil
}

// Get returns the definition by ID, or nil.
func (c *Catalog) Get(id string) *CardDefinition {
	return c.defs[id]
}

// Len returns the number of definitions in the catalog.
func (c *Catalog) Len() int { return len(c.defs) }

// LoadCatalogFile reads card definitions from a YAML file and merges them
// with the built-in set. File entries win on ID collisions.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read card catalog %s: %w", path, err)
	}
	var defs []*CardDefinition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse card catalog %s: %w", path, err)
	}
	merged := BuiltinDefinitions()
	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		seen[def.ID] = true
	}
	out := make([]*CardDefinition, 0, len(merged)+len(defs))
	for _, def := range merged {
		if !seen[def.ID] {
			out = append(out, def)
		}
	}
	out = append(out, defs...)
	return NewCatalog(out)
}

func intp(v int) *int { return &v }

// BuiltinDefinitions returns the starter card set shipped with the engine.
// Enough to build two legal decks for simulation and tests.
func BuiltinDefinitions() []*CardDefinition {
	return []*CardDefinition{
		{
			ID: "ST01-001", Name: "Monkey D. Luffy", Category: CategoryLeader,
			Colors: []Color{ColorRed}, Power: 5000, Life: intp(5),
			Types: []string{"Straw Hat Crew"}, Attribute: "Strike",
		},
		{
			ID: "ST01-002", Name: "Nefeltari Vivi", Category: CategoryCharacter,
			Colors: []Color{ColorRed}, Cost: 2, Power: 4000, Counter: intp(1000),
			Types: []string{"Alabasta"}, Attribute: "Slash",
		},
		{
			ID: "ST01-003", Name: "Mr. 2 Bon Clay", Category: CategoryCharacter,
			Colors: []Color{ColorRed}, Cost: 2, Power: 2000, Counter: intp(2000),
			Types: []string{"Baroque Works"}, Attribute: "Strike",
			Keywords: []string{"Trigger"},
		},
		{
			ID: "ST01-004", Name: "Usopp", Category: CategoryCharacter,
			Colors: []Color{ColorRed}, Cost: 2, Power: 2000, Counter: intp(1000),
			Types: []string{"Straw Hat Crew"}, Attribute: "Ranged",
			Keywords: []string{"Trigger"},
		},
		{
			ID: "ST01-005", Name: "Karoo", Category: CategoryCharacter,
			Colors: []Color{ColorRed}, Cost: 1, Power: 3000, Counter: intp(1000),
			Types: []string{"Animal"}, Attribute: "Strike",
		},
		{
			ID: "ST01-006", Name: "Sanji", Category: CategoryCharacter,
			Colors: []Color{ColorRed}, Cost: 2, Power: 4000, Counter: intp(2000),
			Types: []string{"Straw Hat Crew"}, Attribute: "Strike",
			Keywords: []string{"Rush"},
		},
		{
			ID: "ST01-007", Name: "Jinbe", Category: CategoryCharacter,
			Colors: []Color{ColorRed}, Cost: 3, Power: 5000, Counter: intp(1000),
			Types: []string{"Fish-Man"}, Attribute: "Strike",
			Keywords: []string{"Blocker"},
		},
		{
			ID: "ST01-008", Name: "Tony Tony Chopper", Category: CategoryCharacter,
			Colors: []Color{ColorRed}, Cost: 1, Power: 1000, Counter: intp(1000),
			Types: []string{"Animal", "Straw Hat Crew"}, Attribute: "Strike",
			Keywords: []string{"Blocker"},
		},
		{
			ID: "ST01-009", Name: "Brook", Category: CategoryCharacter,
			Colors: []Color{ColorRed}, Cost: 2, Power: 3000, Counter: intp(2000),
			Types: []string{"Straw Hat Crew"}, Attribute: "Slash",
		},
		{
			ID: "ST01-010", Name: "Franky", Category: CategoryCharacter,
			Colors: []Color{ColorRed}, Cost: 4, Power: 6000, Counter: intp(1000),
			Types: []string{"Straw Hat Crew"}, Attribute: "Strike",
		},
		{
			ID: "ST01-011", Name: "Roronoa Zoro", Category: CategoryCharacter,
			Colors: []Color{ColorRed}, Cost: 3, Power: 5000,
			Types: []string{"Straw Hat Crew"}, Attribute: "Slash",
			Keywords: []string{"Rush"},
		},
		{
			ID: "ST01-012", Name: "Nami", Category: CategoryCharacter,
			Colors: []Color{ColorRed}, Cost: 1, Power: 1000, Counter: intp(1000),
			Types: []string{"Straw Hat Crew"}, Attribute: "Special",
		},
		{
			ID: "ST01-013", Name: "Nico Robin", Category: CategoryCharacter,
			Colors: []Color{ColorRed}, Cost: 3, Power: 4000, Counter: intp(1000),
			Types: []string{"Straw Hat Crew"}, Attribute: "Wisdom",
		},
		{
			ID: "ST01-014", Name: "Guard Point", Category: CategoryEvent,
			Colors: []Color{ColorRed}, Cost: 1, Counter: intp(3000),
			Types: []string{"Animal", "Straw Hat Crew"},
			Effect: "Counter: Up to 1 of your leader or characters gains +3000 power during this battle.",
			Keywords: []string{"Counter"},
		},
		{
			ID: "ST01-015", Name: "Jet Pistol", Category: CategoryEvent,
			Colors: []Color{ColorRed}, Cost: 4,
			Types: []string{"Straw Hat Crew"},
			Effect: "Main: KO up to 1 of your opponent's characters with 6000 power or less.",
		},
		{
			ID: "ST01-016", Name: "Thousand Sunny", Category: CategoryStage,
			Colors: []Color{ColorRed}, Cost: 2,
			Types: []string{"Straw Hat Crew"},
			Effect: "Your turn: All of your Straw Hat Crew characters gain +1000 power.",
		},
		{
			ID: "ST02-001", Name: "Eustass \"Captain\" Kid", Category: CategoryLeader,
			Colors: []Color{ColorGreen}, Power: 5000, Life: intp(5),
			Types: []string{"Kid Pirates"}, Attribute: "Special",
		},
		{
			ID: "ST02-004", Name: "Killer", Category: CategoryCharacter,
			Colors: []Color{ColorGreen}, Cost: 3, Power: 4000, Counter: intp(1000),
			Types: []string{"Kid Pirates"}, Attribute: "Slash",
		},
		{
			ID: "ST02-006", Name: "Trafalgar Law", Category: CategoryCharacter,
			Colors: []Color{ColorGreen}, Cost: 5, Power: 6000, Counter: intp(1000),
			Types: []string{"Heart Pirates"}, Attribute: "Slash",
			Keywords: []string{"Double Attack"},
		},
		{
			ID: "ST02-009", Name: "Basil Hawkins", Category: CategoryCharacter,
			Colors: []Color{ColorGreen}, Cost: 4, Power: 5000, Counter: intp(1000),
			Types: []string{"Hawkins Pirates"}, Attribute: "Slash",
			Keywords: []string{"Blocker"},
		},
		{
			ID: "ST02-013", Name: "X.Drake", Category: CategoryCharacter,
			Colors: []Color{ColorGreen}, Cost: 4, Power: 6000,
			Types: []string{"Drake Pirates", "Navy"}, Attribute: "Strike",
		},
		{
			ID: "ST02-015", Name: "Straight Donate", Category: CategoryEvent,
			Colors: []Color{ColorGreen}, Cost: 1, Counter: intp(2000),
			Types: []string{"Kid Pirates"},
			Effect: "Counter: Your leader or 1 of your characters gains +2000 power during this battle.",
			Keywords: []string{"Counter"},
		},
	}
}
