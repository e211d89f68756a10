package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/grandline-tcg/engine-go/internal/game/events"
	"github.com/grandline-tcg/engine-go/internal/game/rules"
)

// battleTestHarness wires a full manager stack around a minimal two-player
// state for battle and phase tests. Cards are injected directly into zones
// rather than played through a full match.
type battleTestHarness struct {
	t *testing.T

	rules     *rules.Context
	bus       *events.Bus
	zones     *ZoneManager
	modifiers *ModifierManager
	keywords  *KeywordHandler

	gsm    *GameStateManager
	p1, p2 PlayerID

	recorded []events.Event
	nextID   int
}

func newBattleTestHarness(t *testing.T) *battleTestHarness {
	rulesCtx, err := rules.NewContext(rules.Default())
	require.NoError(t, err)

	h := &battleTestHarness{
		t:     t,
		rules: rulesCtx,
		p1:    "alice",
		p2:    "bob",
	}
	logger := zaptest.NewLogger(t)
	h.bus = events.NewBus()
	h.bus.Subscribe(func(evt events.Event) {
		h.recorded = append(h.recorded, evt)
	})
	h.zones = NewZoneManager(rulesCtx, h.bus, logger)
	h.modifiers = NewModifierManager(logger)
	h.keywords = NewKeywordHandler(rulesCtx)
	h.gsm = NewGameStateManager(h.p1, h.p2, rulesCtx.LoopGuard().MaxRepeats)
	return h
}

// battleSystem builds a BattleSystem around the harness managers with the
// given collaborators.
func (h *battleTestHarness) battleSystem(agent DefenderAgent, effects EffectResolver) *BattleSystem {
	if agent == nil {
		agent = PassiveAgent{}
	}
	return NewBattleSystem(h.zones, h.modifiers, h.keywords, h.rules, h.bus, agent, effects, zaptest.NewLogger(h.t))
}

// phaseManager builds a PhaseManager around the harness managers.
func (h *battleTestHarness) phaseManager(effects EffectResolver) *PhaseManager {
	return NewPhaseManager(h.zones, h.modifiers, h.rules, h.bus, effects, zaptest.NewLogger(h.t))
}

// startTurn positions the match at the given turn with the given active
// player, bypassing phase execution.
func (h *battleTestHarness) startTurn(turn int, active PlayerID) {
	state := h.gsm.State().clone()
	state.Turn = turn
	state.ActivePlayer = active
	h.gsm = &GameStateManager{state: state}
}

func (h *battleTestHarness) defID(prefix string) string {
	h.nextID++
	return fmt.Sprintf("%s-%03d", prefix, h.nextID)
}

// addCard injects a card instance built from an inline definition into the
// given zone.
func (h *battleTestHarness) addCard(owner PlayerID, def *CardDefinition, zone Zone, state ActivityState) string {
	card := NewCardInstance(def, owner)
	card.ID = h.defID("inst")
	card.State = state
	next, err := h.zones.AddToZone(h.gsm, card, zone)
	require.NoError(h.t, err)
	h.gsm = next
	return card.ID
}

// placeLeader puts a leader with the given power into the leader area.
func (h *battleTestHarness) placeLeader(owner PlayerID, power int, keywords ...string) string {
	def := &CardDefinition{
		ID: h.defID("leader"), Name: "Test Leader", Category: CategoryLeader,
		Colors: []Color{ColorRed}, Power: power, Life: intp(5), Keywords: keywords,
	}
	return h.addCard(owner, def, ZoneLeaderArea, StateActive)
}

// addCharacter puts a character with the given power into the character
// area.
func (h *battleTestHarness) addCharacter(owner PlayerID, power int, state ActivityState, keywords ...string) string {
	def := &CardDefinition{
		ID: h.defID("char"), Name: "Test Character", Category: CategoryCharacter,
		Colors: []Color{ColorRed}, Cost: 3, Power: power, Keywords: keywords,
	}
	return h.addCard(owner, def, ZoneCharacterArea, state)
}

// addLife deals n vanilla life cards to the player.
func (h *battleTestHarness) addLife(owner PlayerID, n int) []string {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		def := &CardDefinition{
			ID: h.defID("life"), Name: "Life Card", Category: CategoryCharacter,
			Colors: []Color{ColorRed}, Power: 1000,
		}
		ids = append(ids, h.addCard(owner, def, ZoneLife, StateNone))
	}
	return ids
}

// addLifeCard deals one life card carrying the given keywords.
func (h *battleTestHarness) addLifeCard(owner PlayerID, keywords ...string) string {
	def := &CardDefinition{
		ID: h.defID("life"), Name: "Life Card", Category: CategoryCharacter,
		Colors: []Color{ColorRed}, Power: 1000, Keywords: keywords,
	}
	return h.addCard(owner, def, ZoneLife, StateNone)
}

// addCounterCard puts a card with the given counter value into the player's
// hand.
func (h *battleTestHarness) addCounterCard(owner PlayerID, counter int) string {
	def := &CardDefinition{
		ID: h.defID("counter"), Name: "Counter Card", Category: CategoryCharacter,
		Colors: []Color{ColorRed}, Cost: 2, Power: 2000, Counter: intp(counter),
	}
	return h.addCard(owner, def, ZoneHand, StateNone)
}

// addCounterEvent puts an event card with the given cost into the player's
// hand.
func (h *battleTestHarness) addCounterEvent(owner PlayerID, cost int) string {
	def := &CardDefinition{
		ID: h.defID("event"), Name: "Counter Event", Category: CategoryEvent,
		Colors: []Color{ColorRed}, Cost: cost, Keywords: []string{KeywordCounter},
	}
	return h.addCard(owner, def, ZoneHand, StateNone)
}

// addDon places n DON tokens in the player's cost area with the given state.
func (h *battleTestHarness) addDon(owner PlayerID, n int, state ActivityState) []string {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		don := NewDonInstance(owner)
		don.ID = h.defID("don")
		don.Zone = ZoneCostArea
		don.State = state
		next, err := h.gsm.AddDon(don)
		require.NoError(h.t, err)
		h.gsm = next
		ids = append(ids, don.ID)
	}
	return ids
}

// eventsOfType filters the recorded notifications.
func (h *battleTestHarness) eventsOfType(eventType events.Type) []events.Event {
	var out []events.Event
	for _, evt := range h.recorded {
		if evt.Type == eventType {
			out = append(out, evt)
		}
	}
	return out
}
