package game

import (
	"go.uber.org/zap"

	"github.com/grandline-tcg/engine-go/internal/game/events"
	"github.com/grandline-tcg/engine-go/internal/game/rules"
)

// ZoneManager validates and performs card and DON movement between zones.
// Capacity invariants come from the rules context; every successful move is
// announced on the event bus. A failed move returns a ZoneError without
// mutating state.
type ZoneManager struct {
	rules  *rules.Context
	bus    *events.Bus
	logger *zap.Logger
}

// NewZoneManager constructs a zone manager. The bus may be nil when no
// observer cares about movement.
func NewZoneManager(rulesCtx *rules.Context, bus *events.Bus, logger *zap.Logger) *ZoneManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZoneManager{rules: rulesCtx, bus: bus, logger: logger}
}

func (zm *ZoneManager) notifyCardMoved(cardID string, playerID PlayerID, from, to Zone, fromIdx, toIdx int) {
	if zm.bus == nil {
		return
	}
	evt := events.New(events.TypeCardMoved, cardID, string(playerID))
	evt.FromZone = string(from)
	evt.ToZone = string(to)
	evt.FromIndex = fromIdx
	evt.ToIndex = toIdx
	zm.bus.Publish(evt)
}

// checkCapacity verifies the destination zone has room for one more card.
func (zm *ZoneManager) checkCapacity(gsm *GameStateManager, owner PlayerID, zone Zone) error {
	capacity, limited := zm.rules.ZoneCapacity(string(zone))
	if !limited {
		return nil
	}
	if len(gsm.Player(owner).Zones[zone]) >= capacity {
		return newZoneError("", zone, "%s is full", zone)
	}
	return nil
}

// MoveCard resolves the card's current zone and owner, validates the
// destination capacity, performs the move, and emits a CARD_MOVED
// notification. toIndex below zero appends.
func (zm *ZoneManager) MoveCard(gsm *GameStateManager, cardID string, toZone Zone, toIndex int) (*GameStateManager, error) {
	card := gsm.Card(cardID)
	if card == nil {
		return gsm, newZoneError(cardID, toZone, "card %s not found", cardID)
	}

	_, fromZone, fromIdx := gsm.zoneIndexOf(cardID)
	if err := zm.checkCapacity(gsm, card.Owner, toZone); err != nil {
		return gsm, err
	}

	next, err := gsm.MoveCard(cardID, toZone, toIndex)
	if err != nil {
		return gsm, err
	}

	_, _, toIdx := next.zoneIndexOf(cardID)
	zm.logger.Debug("card moved",
		zap.String("card_id", cardID),
		zap.String("from_zone", string(fromZone)),
		zap.String("to_zone", string(toZone)),
	)
	zm.notifyCardMoved(cardID, card.Owner, fromZone, toZone, fromIdx, toIdx)
	return next, nil
}

// MoveDon moves a DON token. DON may only go to the DON deck, the cost area,
// or be attached to a card in play; any other destination fails.
func (zm *ZoneManager) MoveDon(gsm *GameStateManager, donID string, toZone Zone, targetCardID string) (*GameStateManager, error) {
	don := gsm.Don(donID)
	if don == nil {
		return gsm, newZoneError(donID, toZone, "don %s not found", donID)
	}

	if targetCardID != "" {
		target := gsm.Card(targetCardID)
		if target == nil {
			return gsm, newZoneError(donID, toZone, "card %s not found", targetCardID)
		}
		toZone = ZoneAttached
	} else if toZone != ZoneDonDeck && toZone != ZoneCostArea {
		return gsm, newZoneError(donID, toZone, "don may not move to %s", toZone)
	}

	fromZone := don.Zone
	next, err := gsm.MoveDon(donID, toZone, targetCardID)
	if err != nil {
		return gsm, err
	}

	if zm.bus != nil {
		evt := events.New(events.TypeDonMoved, donID, string(don.Owner))
		evt.FromZone = string(fromZone)
		evt.ToZone = string(toZone)
		evt.TargetID = targetCardID
		zm.bus.Publish(evt)
	}
	return next, nil
}

// AddToZone registers a card that has no defined origin (deck construction,
// token creation) and announces the movement from the NO_ZONE sentinel.
func (zm *ZoneManager) AddToZone(gsm *GameStateManager, card *CardInstance, zone Zone) (*GameStateManager, error) {
	if card == nil {
		return gsm, newZoneError("", zone, "card instance is required")
	}
	if err := zm.checkCapacity(gsm, card.Owner, zone); err != nil {
		return gsm, err
	}
	card.Zone = zone
	next, err := gsm.AddCard(card)
	if err != nil {
		return gsm, err
	}
	_, _, toIdx := next.zoneIndexOf(card.ID)
	zm.notifyCardMoved(card.ID, card.Owner, ZoneNone, zone, -1, toIdx)
	return next, nil
}

// RemoveFromZone takes a card out of play entirely, announcing the movement
// to the NO_ZONE sentinel. The instance stays registered so lookups by ID
// remain valid.
func (zm *ZoneManager) RemoveFromZone(gsm *GameStateManager, cardID string) (*GameStateManager, error) {
	card := gsm.Card(cardID)
	if card == nil {
		return gsm, newZoneError(cardID, ZoneNone, "card %s not found", cardID)
	}
	_, fromZone, fromIdx := gsm.zoneIndexOf(cardID)
	next, err := gsm.MoveCard(cardID, ZoneNone, -1)
	if err != nil {
		return gsm, err
	}
	// NO_ZONE is not a real player zone; drop the entry the raw move added.
	next, err = next.UpdatePlayer(card.Owner, func(p *PlayerState) {
		delete(p.Zones, ZoneNone)
	})
	if err != nil {
		return gsm, err
	}
	zm.notifyCardMoved(cardID, card.Owner, fromZone, ZoneNone, fromIdx, -1)
	return next, nil
}

// SetCardState flips a card between ACTIVE and RESTED, announcing the change.
func (zm *ZoneManager) SetCardState(gsm *GameStateManager, cardID string, state ActivityState) (*GameStateManager, error) {
	card := gsm.Card(cardID)
	if card == nil {
		return gsm, newZoneError(cardID, ZoneNone, "card %s not found", cardID)
	}
	if card.State == state {
		return gsm, nil
	}
	next, err := gsm.UpdateCard(cardID, func(c *CardInstance) {
		c.State = state
	})
	if err != nil {
		return gsm, err
	}
	if zm.bus != nil {
		evt := events.New(events.TypeCardStateChanged, cardID, string(card.Controller))
		evt.Metadata["state"] = string(state)
		zm.bus.Publish(evt)
	}
	return next, nil
}
