package game

import (
	"github.com/grandline-tcg/engine-go/internal/game/rules"
)

// Keyword ability names as they appear in card definitions and the rules
// registry. Matching is exact and case-sensitive.
const (
	KeywordRush         = "Rush"
	KeywordBlocker      = "Blocker"
	KeywordTrigger      = "Trigger"
	KeywordDoubleAttack = "Double Attack"
	KeywordCounter      = "Counter"
	KeywordBanish       = "Banish"
)

// KeywordHandler resolves whether a card currently has a named ability,
// merging the definition's static keyword list with modifier-granted
// keywords, validated against the rules keyword registry.
type KeywordHandler struct {
	rules *rules.Context
}

// NewKeywordHandler constructs a keyword handler.
func NewKeywordHandler(rulesCtx *rules.Context) *KeywordHandler {
	return &KeywordHandler{rules: rulesCtx}
}

// HasKeyword reports whether the card has the named ability, either printed
// on its definition or granted by a KEYWORD modifier.
func (kh *KeywordHandler) HasKeyword(card *CardInstance, name string) bool {
	if card == nil {
		return false
	}
	if card.Def != nil && card.Def.HasKeywordPrinted(name) {
		return true
	}
	for _, mod := range card.Modifiers {
		if mod.Type == ModifierKeyword && mod.Keyword == name {
			return true
		}
	}
	return false
}

// HasRush reports whether the card can attack the turn it entered play.
func (kh *KeywordHandler) HasRush(card *CardInstance) bool {
	return kh.HasKeyword(card, KeywordRush)
}

// HasBlocker reports whether the card can redirect an attack to itself.
func (kh *KeywordHandler) HasBlocker(card *CardInstance) bool {
	return kh.HasKeyword(card, KeywordBlocker)
}

// HasTrigger reports whether the card receives special handling when lost
// as life damage.
func (kh *KeywordHandler) HasTrigger(card *CardInstance) bool {
	return kh.HasKeyword(card, KeywordTrigger)
}

// HasDoubleAttack reports whether the card's leader attacks remove 2 life
// cards instead of 1.
func (kh *KeywordHandler) HasDoubleAttack(card *CardInstance) bool {
	return kh.HasKeyword(card, KeywordDoubleAttack)
}

// HasCounter reports whether the card carries the Counter keyword.
func (kh *KeywordHandler) HasCounter(card *CardInstance) bool {
	return kh.HasKeyword(card, KeywordCounter)
}

// HasBanish reports whether life lost to the card's attacks is trashed.
func (kh *KeywordHandler) HasBanish(card *CardInstance) bool {
	return kh.HasKeyword(card, KeywordBanish)
}

// AllKeywords unions the definition's static keywords with modifier-granted
// ones, de-duplicated, preserving first-seen order.
func (kh *KeywordHandler) AllKeywords(card *CardInstance) []string {
	if card == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	if card.Def != nil {
		for _, kw := range card.Def.Keywords {
			if !seen[kw] {
				seen[kw] = true
				out = append(out, kw)
			}
		}
	}
	for _, mod := range card.Modifiers {
		if mod.Type == ModifierKeyword && !seen[mod.Keyword] {
			seen[mod.Keyword] = true
			out = append(out, mod.Keyword)
		}
	}
	return out
}

// IsValidKeyword reports whether the name exists in the rules keyword
// registry.
func (kh *KeywordHandler) IsValidKeyword(name string) bool {
	_, ok := kh.rules.Keyword(name)
	return ok
}

// CanApplyToCategory reports whether the registry allows the keyword on the
// given card category.
func (kh *KeywordHandler) CanApplyToCategory(name string, category CardCategory) bool {
	spec, ok := kh.rules.Keyword(name)
	if !ok {
		return false
	}
	for _, applies := range spec.AppliesTo {
		if applies == string(category) {
			return true
		}
	}
	return false
}
