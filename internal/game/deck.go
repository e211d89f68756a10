package game

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/grandline-tcg/engine-go/internal/game/rules"
)

// Deck is a resolved deck: one leader, the main deck pile, and the DON count.
type Deck struct {
	Name     string
	Leader   *CardDefinition
	Main     []*CardDefinition
	DonCount int
}

// ValidateDeck checks a deck's composition against the configured limits and
// returns the full list of violations, not just the first.
func ValidateDeck(deck *Deck, limits rules.Limits) []string {
	var violations []string

	leaderCount := 0
	if deck.Leader != nil {
		leaderCount = 1
	}
	for _, def := range deck.Main {
		if def.Category == CategoryLeader {
			leaderCount++
		}
	}
	if leaderCount != limits.LeaderCount {
		violations = append(violations, fmt.Sprintf(
			"deck must contain exactly %d leader card, found %d", limits.LeaderCount, leaderCount))
	} else if deck.Leader != nil && deck.Leader.Life == nil {
		violations = append(violations, fmt.Sprintf(
			"leader %s has no life value", deck.Leader.ID))
	}

	mainCount := 0
	for _, def := range deck.Main {
		if def.Category != CategoryLeader && def.Category != CategoryDon {
			mainCount++
		}
	}
	if mainCount != limits.MainDeckSize {
		violations = append(violations, fmt.Sprintf(
			"Main deck must contain exactly %d cards, found %d", limits.MainDeckSize, mainCount))
	}

	if deck.DonCount != limits.DonDeckSize {
		violations = append(violations, fmt.Sprintf(
			"DON deck must contain exactly %d cards, found %d", limits.DonDeckSize, deck.DonCount))
	}

	copies := make(map[string]int)
	order := make([]string, 0, len(deck.Main))
	for _, def := range deck.Main {
		if def.Category == CategoryDon {
			continue
		}
		if copies[def.ID] == 0 {
			order = append(order, def.ID)
		}
		copies[def.ID]++
	}
	for _, id := range order {
		if copies[id] > limits.MaxCopies {
			violations = append(violations, fmt.Sprintf(
				"card %s exceeds max %d copies, found %d", id, limits.MaxCopies, copies[id]))
		}
	}

	if deck.Leader != nil {
		leaderColors := make(map[Color]bool, len(deck.Leader.Colors))
		for _, c := range deck.Leader.Colors {
			leaderColors[c] = true
		}
		flagged := make(map[string]bool)
		for _, def := range deck.Main {
			if def.Category == CategoryDon || len(def.Colors) == 0 || flagged[def.ID] {
				continue
			}
			shared := false
			for _, c := range def.Colors {
				if leaderColors[c] {
					shared = true
					break
				}
			}
			if !shared {
				flagged[def.ID] = true
				violations = append(violations, fmt.Sprintf(
					"card %s shares no color with leader %s", def.ID, deck.Leader.ID))
			}
		}
	}

	return violations
}

// DeckEntry is one card line of a deck list.
type DeckEntry struct {
	ID    string `yaml:"id"`
	Count int    `yaml:"count"`
}

// DeckList is the on-disk YAML shape of a deck.
type DeckList struct {
	Name     string      `yaml:"name"`
	Leader   string      `yaml:"leader"`
	Cards    []DeckEntry `yaml:"cards"`
	DonCount int         `yaml:"don_count"`
}

// LoadDeckList reads a YAML deck list file.
func LoadDeckList(path string) (*DeckList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deck list %s: %w", path, err)
	}
	var list DeckList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse deck list %s: %w", path, err)
	}
	return &list, nil
}

// ResolveDeck turns a deck list into a Deck using the card catalog.
func ResolveDeck(list *DeckList, catalog *Catalog) (*Deck, error) {
	leader := catalog.Get(list.Leader)
	if leader == nil {
		return nil, fmt.Errorf("deck %q: leader %s not in catalog", list.Name, list.Leader)
	}
	deck := &Deck{
		Name:     list.Name,
		Leader:   leader,
		DonCount: list.DonCount,
	}
	for _, entry := range list.Cards {
		def := catalog.Get(entry.ID)
		if def == nil {
			return nil, fmt.Errorf("deck %q: card %s not in catalog", list.Name, entry.ID)
		}
		for i := 0; i < entry.Count; i++ {
			deck.Main = append(deck.Main, def)
		}
	}
	return deck, nil
}
