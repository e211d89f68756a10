package game

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ModifierManager attaches, queries, and expires timed modifiers on card
// instances. State is threaded through every call; the manager itself holds
// no match data.
type ModifierManager struct {
	logger *zap.Logger
}

// NewModifierManager constructs a modifier manager.
func NewModifierManager(logger *zap.Logger) *ModifierManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModifierManager{logger: logger}
}

// Add appends a modifier to the card, filling in the ID and creation
// timestamp when absent. Insertion order is preserved.
func (mm *ModifierManager) Add(gsm *GameStateManager, cardID string, mod Modifier) (*GameStateManager, error) {
	if mod.ID == "" {
		mod.ID = uuid.NewString()
	}
	if mod.CreatedAt.IsZero() {
		mod.CreatedAt = time.Now()
	}
	next, err := gsm.UpdateCard(cardID, func(c *CardInstance) {
		c.Modifiers = append(c.Modifiers, mod)
	})
	if err != nil {
		return gsm, err
	}
	mm.logger.Debug("modifier added",
		zap.String("card_id", cardID),
		zap.String("type", string(mod.Type)),
		zap.Int("value", mod.Value),
		zap.String("keyword", mod.Keyword),
		zap.String("duration", string(mod.Duration)),
		zap.String("source", mod.Source),
	)
	return next, nil
}

// AddPower grants a power bonus (or penalty) for the given duration.
func (mm *ModifierManager) AddPower(gsm *GameStateManager, cardID string, value int, duration Duration, source string) (*GameStateManager, error) {
	return mm.Add(gsm, cardID, Modifier{Type: ModifierPower, Value: value, Duration: duration, Source: source})
}

// AddCost adjusts a card's cost for the given duration.
func (mm *ModifierManager) AddCost(gsm *GameStateManager, cardID string, value int, duration Duration, source string) (*GameStateManager, error) {
	return mm.Add(gsm, cardID, Modifier{Type: ModifierCost, Value: value, Duration: duration, Source: source})
}

// AddKeyword grants a keyword ability for the given duration.
func (mm *ModifierManager) AddKeyword(gsm *GameStateManager, cardID string, keyword string, duration Duration, source string) (*GameStateManager, error) {
	return mm.Add(gsm, cardID, Modifier{Type: ModifierKeyword, Keyword: keyword, Duration: duration, Source: source})
}

// Modifiers returns a copy of the card's modifiers in insertion order.
func (mm *ModifierManager) Modifiers(gsm *GameStateManager, cardID string) []Modifier {
	card := gsm.Card(cardID)
	if card == nil {
		return nil
	}
	return append([]Modifier(nil), card.Modifiers...)
}

// ModifiersByType returns the card's modifiers of one type, in insertion
// order.
func (mm *ModifierManager) ModifiersByType(gsm *GameStateManager, cardID string, modType ModifierType) []Modifier {
	card := gsm.Card(cardID)
	if card == nil {
		return nil
	}
	var out []Modifier
	for _, mod := range card.Modifiers {
		if mod.Type == modType {
			out = append(out, mod)
		}
	}
	return out
}

// HasModifiers reports whether the card carries any modifiers.
func (mm *ModifierManager) HasModifiers(gsm *GameStateManager, cardID string) bool {
	card := gsm.Card(cardID)
	return card != nil && len(card.Modifiers) > 0
}

// PowerBonus sums the card's POWER modifiers. Same-type numeric modifiers
// accumulate by summation; there is no override semantics.
func (mm *ModifierManager) PowerBonus(gsm *GameStateManager, cardID string) int {
	total := 0
	for _, mod := range mm.ModifiersByType(gsm, cardID, ModifierPower) {
		total += mod.Value
	}
	return total
}

// RemoveWhere deletes the card's modifiers matching the predicate and
// returns the updated manager. Removing nothing is not an error.
func (mm *ModifierManager) RemoveWhere(gsm *GameStateManager, cardID string, predicate func(Modifier) bool) (*GameStateManager, error) {
	card := gsm.Card(cardID)
	if card == nil {
		return gsm, newZoneError(cardID, ZoneNone, "card %s not found", cardID)
	}
	keep := card.Modifiers[:0:0]
	removed := false
	for _, mod := range card.Modifiers {
		if predicate(mod) {
			removed = true
			continue
		}
		keep = append(keep, mod)
	}
	if !removed {
		return gsm, nil
	}
	return gsm.UpdateCard(cardID, func(c *CardInstance) {
		c.Modifiers = keep
	})
}

// expireWhere removes matching modifiers from every card of every zone,
// optionally restricted to one player's cards. Idempotent: a second pass
// with no new modifiers is a no-op.
func (mm *ModifierManager) expireWhere(gsm *GameStateManager, playerID PlayerID, predicate func(Modifier) bool) *GameStateManager {
	for id, card := range gsm.State().Cards {
		if playerID != "" && card.Controller != playerID {
			continue
		}
		if len(card.Modifiers) == 0 {
			continue
		}
		next, err := mm.RemoveWhere(gsm, id, predicate)
		if err == nil {
			gsm = next
		}
	}
	return gsm
}

// ExpireEndOfTurn expires UNTIL_END_OF_TURN and DURING_THIS_TURN modifiers.
// An empty playerID expires across both players.
func (mm *ModifierManager) ExpireEndOfTurn(gsm *GameStateManager, playerID PlayerID) *GameStateManager {
	return mm.expireWhere(gsm, playerID, func(mod Modifier) bool {
		return mod.Duration == DurationUntilEndOfTurn || mod.Duration == DurationDuringThisTurn
	})
}

// ExpireEndOfBattle expires UNTIL_END_OF_BATTLE modifiers on every card of
// both players.
func (mm *ModifierManager) ExpireEndOfBattle(gsm *GameStateManager) *GameStateManager {
	return mm.expireWhere(gsm, "", func(mod Modifier) bool {
		return mod.Duration == DurationUntilEndOfBattle
	})
}

// ExpireStartOfTurn expires UNTIL_START_OF_NEXT_TURN modifiers for the given
// player's cards.
func (mm *ModifierManager) ExpireStartOfTurn(gsm *GameStateManager, playerID PlayerID) *GameStateManager {
	return mm.expireWhere(gsm, playerID, func(mod Modifier) bool {
		return mod.Duration == DurationUntilStartOfNextTurn
	})
}
