package game

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/grandline-tcg/engine-go/internal/game/events"
	"github.com/grandline-tcg/engine-go/internal/game/rules"
)

// Phase names as configured in the rules context.
const (
	PhaseRefresh = "REFRESH"
	PhaseDraw    = "DRAW"
	PhaseDon     = "DON"
	PhaseMain    = "MAIN"
	PhaseEnd     = "END"
)

// PhaseFunc is a pure turn-phase transform over the game state.
type PhaseFunc func(ctx context.Context, gsm *GameStateManager) (*GameStateManager, error)

// PhaseManager sequences the turn phases in the rules-configured order,
// delegating combat to the BattleSystem (driven externally during the main
// phase) and consuming the same lower-level managers.
type PhaseManager struct {
	zones     *ZoneManager
	modifiers *ModifierManager
	rules     *rules.Context
	bus       *events.Bus
	effects   EffectResolver // nil disables trigger resolution
	logger    *zap.Logger
}

// NewPhaseManager constructs a phase manager. effects may be nil.
func NewPhaseManager(
	zones *ZoneManager,
	modifiers *ModifierManager,
	rulesCtx *rules.Context,
	bus *events.Bus,
	effects EffectResolver,
	logger *zap.Logger,
) *PhaseManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PhaseManager{
		zones:     zones,
		modifiers: modifiers,
		rules:     rulesCtx,
		bus:       bus,
		effects:   effects,
		logger:    logger,
	}
}

// phaseFunc resolves a configured phase name to its transform.
func (pm *PhaseManager) phaseFunc(name string) (PhaseFunc, error) {
	switch name {
	case PhaseRefresh:
		return pm.RefreshPhase, nil
	case PhaseDraw:
		return pm.DrawPhase, nil
	case PhaseDon:
		return pm.DonPhase, nil
	case PhaseMain:
		return pm.MainPhase, nil
	case PhaseEnd:
		return pm.EndPhase, nil
	default:
		return nil, fmt.Errorf("unknown phase %q", name)
	}
}

// RunPhase executes one named phase, recording and announcing the phase
// change first.
func (pm *PhaseManager) RunPhase(ctx context.Context, gsm *GameStateManager, name string) (*GameStateManager, error) {
	fn, err := pm.phaseFunc(name)
	if err != nil {
		return gsm, err
	}
	gsm = gsm.SetPhase(name)
	if pm.bus != nil {
		evt := events.New(events.TypePhaseChanged, "", string(gsm.ActivePlayer()))
		evt.Metadata["phase"] = name
		pm.bus.Publish(evt)
	}
	pm.logger.Debug("phase started",
		zap.String("phase", name),
		zap.Int("turn", gsm.Turn()),
		zap.String("active_player", string(gsm.ActivePlayer())),
	)
	return fn(ctx, gsm)
}

// RunTurn executes every configured phase in order for the active player,
// stopping as soon as the match ends.
func (pm *PhaseManager) RunTurn(ctx context.Context, gsm *GameStateManager) (*GameStateManager, error) {
	if pm.bus != nil {
		evt := events.New(events.TypeTurnStart, "", string(gsm.ActivePlayer()))
		evt.Amount = gsm.Turn()
		pm.bus.Publish(evt)
	}
	var err error
	for _, name := range pm.rules.Phases() {
		gsm, err = pm.RunPhase(ctx, gsm, name)
		if err != nil {
			return gsm, err
		}
		if gsm.IsGameOver() {
			return gsm, nil
		}
	}
	return gsm, nil
}

// RefreshPhase returns given DON to the cost area rested, sets the active
// player's rested cards and DON back to ACTIVE, and expires the player's
// UNTIL_START_OF_NEXT_TURN modifiers.
func (pm *PhaseManager) RefreshPhase(ctx context.Context, gsm *GameStateManager) (*GameStateManager, error) {
	active := gsm.ActivePlayer()
	var err error

	// Given DON come home first so the activation pass below covers them.
	for _, zone := range fieldZones {
		for _, cardID := range gsm.ZoneList(active, zone) {
			card := gsm.Card(cardID)
			if card == nil {
				continue
			}
			for _, donID := range append([]string(nil), card.GivenDon...) {
				gsm, err = pm.zones.MoveDon(gsm, donID, ZoneCostArea, "")
				if err != nil {
					return gsm, err
				}
				gsm, err = gsm.UpdateDon(donID, func(d *DonInstance) {
					d.State = StateRested
				})
				if err != nil {
					return gsm, err
				}
			}
		}
	}

	for _, zone := range fieldZones {
		for _, cardID := range gsm.ZoneList(active, zone) {
			card := gsm.Card(cardID)
			if card != nil && card.State == StateRested {
				gsm, err = pm.zones.SetCardState(gsm, cardID, StateActive)
				if err != nil {
					return gsm, err
				}
			}
		}
	}
	for _, donID := range gsm.ZoneList(active, ZoneCostArea) {
		don := gsm.Don(donID)
		if don != nil && don.State == StateRested {
			gsm, err = gsm.UpdateDon(donID, func(d *DonInstance) {
				d.State = StateActive
			})
			if err != nil {
				return gsm, err
			}
		}
	}

	gsm = pm.modifiers.ExpireStartOfTurn(gsm, active)
	return gsm, nil
}

// DrawPhase moves the top deck card to hand. The first player's very first
// turn skips the draw entirely. An empty deck on a required draw ends the
// game immediately with the other player as winner.
func (pm *PhaseManager) DrawPhase(ctx context.Context, gsm *GameStateManager) (*GameStateManager, error) {
	active := gsm.ActivePlayer()
	if gsm.Turn() == 1 && active == gsm.State().PlayerOrder[0] && !pm.rules.Setup().FirstTurnDraw {
		return gsm, nil
	}

	deck := gsm.ZoneList(active, ZoneDeck)
	if len(deck) == 0 {
		winner := gsm.Opponent(active)
		gsm = gsm.SetGameOver(&winner, "DECK_OUT")
		pm.logger.Info("match over",
			zap.String("winner", string(winner)),
			zap.String("reason", "DECK_OUT"),
		)
		if pm.bus != nil {
			evt := events.New(events.TypeGameOver, "", string(winner))
			evt.Metadata["reason"] = "DECK_OUT"
			pm.bus.Publish(evt)
		}
		return gsm, nil
	}

	return pm.zones.MoveCard(gsm, deck[0], ZoneHand, -1)
}

// DonPhase places DON from the DON deck into the cost area as ACTIVE: one on
// the first player's first turn, two in every other case. An empty DON deck
// places fewer without error.
func (pm *PhaseManager) DonPhase(ctx context.Context, gsm *GameStateManager) (*GameStateManager, error) {
	active := gsm.ActivePlayer()
	count := pm.rules.Setup().DonPerTurn
	if gsm.Turn() == 1 && active == gsm.State().PlayerOrder[0] {
		count = pm.rules.Setup().FirstTurnDon
	}

	var err error
	for i := 0; i < count; i++ {
		donDeck := gsm.ZoneList(active, ZoneDonDeck)
		if len(donDeck) == 0 {
			break
		}
		donID := donDeck[0]
		gsm, err = pm.zones.MoveDon(gsm, donID, ZoneCostArea, "")
		if err != nil {
			return gsm, err
		}
		gsm, err = gsm.UpdateDon(donID, func(d *DonInstance) {
			d.State = StateActive
		})
		if err != nil {
			return gsm, err
		}
	}
	return gsm, nil
}

// MainPhase hosts the action loop. The loop itself is driven by an external
// collaborator; here the engine only resolves any pending ability triggers.
func (pm *PhaseManager) MainPhase(ctx context.Context, gsm *GameStateManager) (*GameStateManager, error) {
	if pm.effects == nil {
		return gsm, nil
	}
	return pm.effects.ResolveStack(ctx, gsm)
}

// EndPhase expires end-of-turn modifiers for all players, then increments
// the turn number and flips the active player.
func (pm *PhaseManager) EndPhase(ctx context.Context, gsm *GameStateManager) (*GameStateManager, error) {
	gsm = pm.modifiers.ExpireEndOfTurn(gsm, "")

	if pm.bus != nil {
		evt := events.New(events.TypeTurnEnd, "", string(gsm.ActivePlayer()))
		evt.Amount = gsm.Turn()
		pm.bus.Publish(evt)
	}

	next := gsm.Opponent(gsm.ActivePlayer())
	gsm = gsm.IncrementTurn()
	gsm = gsm.SetActivePlayer(next)
	return gsm, nil
}
