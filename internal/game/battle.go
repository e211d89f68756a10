package game

import (
	"context"

	"go.uber.org/zap"

	"github.com/grandline-tcg/engine-go/internal/game/events"
	"github.com/grandline-tcg/engine-go/internal/game/rules"
)

// BattleStep names one step of the battle state machine. Steps execute in
// strictly sequential order with no retries.
type BattleStep string

const (
	StepAttack  BattleStep = "ATTACK"
	StepBlock   BattleStep = "BLOCK"
	StepCounter BattleStep = "COUNTER"
	StepDamage  BattleStep = "DAMAGE"
	StepEnd     BattleStep = "END"
)

// BattleResult summarizes one resolved battle.
type BattleResult struct {
	AttackerID  string
	DefenderID  string // the final defender: the blocker when one was declared
	DamageDealt int    // life cards removed from the defending player
	DefenderKOd bool   // character defender sent to the trash
	Aborted     bool   // a participant left the field before the damage step
}

// BattleSystem drives the ATTACK -> BLOCK -> COUNTER -> DAMAGE -> END state
// machine for a single attack. It consumes the zone, modifier, and keyword
// managers plus two external collaborators: the defender decision agent and
// an optional effect resolver.
type BattleSystem struct {
	zones     *ZoneManager
	modifiers *ModifierManager
	keywords  *KeywordHandler
	rules     *rules.Context
	bus       *events.Bus
	defender  DefenderAgent
	effects   EffectResolver // nil disables ability triggering
	logger    *zap.Logger
}

// NewBattleSystem constructs a battle system. effects may be nil; the state
// machine then runs without ability triggering.
func NewBattleSystem(
	zones *ZoneManager,
	modifiers *ModifierManager,
	keywords *KeywordHandler,
	rulesCtx *rules.Context,
	bus *events.Bus,
	defender DefenderAgent,
	effects EffectResolver,
	logger *zap.Logger,
) *BattleSystem {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BattleSystem{
		zones:     zones,
		modifiers: modifiers,
		keywords:  keywords,
		rules:     rulesCtx,
		bus:       bus,
		defender:  defender,
		effects:   effects,
		logger:    logger,
	}
}

// EffectivePower is a card's printed power plus active POWER modifiers plus
// the bonus from attached DON tokens.
func (bs *BattleSystem) EffectivePower(gsm *GameStateManager, cardID string) int {
	card := gsm.Card(cardID)
	if card == nil || card.Def == nil {
		return 0
	}
	power := card.Def.Power + bs.modifiers.PowerBonus(gsm, cardID)
	power += len(card.GivenDon) * bs.rules.Damage().DonPowerBonus
	return power
}

// EffectiveCost is a card's printed cost plus COST modifiers, floored at 0.
func (bs *BattleSystem) EffectiveCost(gsm *GameStateManager, cardID string) int {
	card := gsm.Card(cardID)
	if card == nil || card.Def == nil {
		return 0
	}
	cost := card.Def.Cost
	for _, mod := range bs.modifiers.ModifiersByType(gsm, cardID, ModifierCost) {
		cost += mod.Value
	}
	if cost < 0 {
		cost = 0
	}
	return cost
}

func onField(card *CardInstance) bool {
	if card == nil {
		return false
	}
	for _, z := range fieldZones {
		if card.Zone == z {
			return true
		}
	}
	return false
}

// CanAttack validates a proposed attack and returns nil when it is legal.
func (bs *BattleSystem) CanAttack(gsm *GameStateManager, attackerID, targetID string) error {
	if gsm.IsGameOver() {
		return newValidationError("attack invalid", "the match is over")
	}
	if gsm.Turn() == 1 && !bs.rules.Setup().FirstTurnAttack {
		return newValidationError("attack invalid", "battles are not allowed on the first player's first turn")
	}

	attacker := gsm.Card(attackerID)
	if attacker == nil {
		return newValidationError("attack invalid", "attacker %s not found", attackerID)
	}
	if attacker.Controller != gsm.ActivePlayer() {
		return newValidationError("attack invalid", "attacker %s is not controlled by the active player", attackerID)
	}
	if !onField(attacker) || (attacker.Zone != ZoneLeaderArea && attacker.Zone != ZoneCharacterArea) {
		return newValidationError("attack invalid", "attacker %s is not in a combat-eligible zone", attackerID)
	}
	if attacker.State != StateActive && !(attacker.State == StateRested && bs.keywords.HasRush(attacker)) {
		return newValidationError("attack invalid", "attacker %s is rested", attackerID)
	}

	target := gsm.Card(targetID)
	if target == nil {
		return newValidationError("attack invalid", "target %s not found", targetID)
	}
	if target.Controller != gsm.Opponent(attacker.Controller) {
		return newValidationError("attack invalid", "target %s does not belong to the opponent", targetID)
	}
	switch target.Zone {
	case ZoneLeaderArea:
		// Always attackable.
	case ZoneCharacterArea:
		if target.State != StateRested {
			return newValidationError("attack invalid", "character %s is active and cannot be attacked", targetID)
		}
	default:
		return newValidationError("attack invalid", "target %s is not attackable", targetID)
	}
	return nil
}

// LegalTargets returns the cards the attacker may legally attack: the
// opponent's leader and the opponent's rested characters.
func (bs *BattleSystem) LegalTargets(gsm *GameStateManager, attackerID string) []*CardInstance {
	attacker := gsm.Card(attackerID)
	if attacker == nil {
		return nil
	}
	opponent := gsm.Opponent(attacker.Controller)
	var out []*CardInstance
	for _, id := range gsm.ZoneList(opponent, ZoneLeaderArea) {
		if card := gsm.Card(id); card != nil {
			out = append(out, card)
		}
	}
	for _, id := range gsm.ZoneList(opponent, ZoneCharacterArea) {
		card := gsm.Card(id)
		if card != nil && card.State == StateRested {
			out = append(out, card)
		}
	}
	return out
}

// LegalBlockers returns the defending player's characters that are ACTIVE
// and have the Blocker keyword.
func (bs *BattleSystem) LegalBlockers(gsm *GameStateManager, attackerID string, defendingPlayer PlayerID) []*CardInstance {
	var out []*CardInstance
	for _, id := range gsm.ZoneList(defendingPlayer, ZoneCharacterArea) {
		card := gsm.Card(id)
		if card != nil && card.State == StateActive && bs.keywords.HasBlocker(card) {
			out = append(out, card)
		}
	}
	return out
}

// ExecuteAttack runs the full battle state machine for one attack. The
// returned manager reflects every applied step; on a mid-battle validation
// failure the error is returned alongside the partially-updated manager
// (the attacker is already rested and ATTACK_DECLARED already emitted).
func (bs *BattleSystem) ExecuteAttack(ctx context.Context, gsm *GameStateManager, attackerID, targetID string) (*GameStateManager, *BattleResult, error) {
	// ---- ATTACK step ----
	if err := bs.CanAttack(gsm, attackerID, targetID); err != nil {
		return gsm, nil, err
	}

	attacker := gsm.Card(attackerID)
	attackingPlayer := attacker.Controller
	defendingPlayer := gsm.Opponent(attackingPlayer)

	gsm, err := bs.zones.SetCardState(gsm, attackerID, StateRested)
	if err != nil {
		return gsm, nil, err
	}

	bs.logger.Info("attack declared",
		zap.String("attacker_id", attackerID),
		zap.String("target_id", targetID),
		zap.String("attacking_player", string(attackingPlayer)),
	)
	if bs.bus != nil {
		evt := events.New(events.TypeAttackDeclared, attackerID, string(attackingPlayer))
		evt.TargetID = targetID
		bs.bus.Publish(evt)
	}

	if bs.effects != nil {
		gsm, err = bs.effects.TriggerEffects(ctx, gsm, PendingTrigger{
			Timing:     TimingWhenAttacking,
			SourceID:   attackerID,
			Controller: attackingPlayer,
		})
		if err != nil {
			return gsm, nil, err
		}
		gsm, err = bs.effects.ResolveStack(ctx, gsm)
		if err != nil {
			return gsm, nil, err
		}
	}

	result := &BattleResult{AttackerID: attackerID, DefenderID: targetID}

	// ---- BLOCK step ----
	gsm, err = bs.blockStep(ctx, gsm, result, defendingPlayer)
	if err != nil {
		return gsm, nil, err
	}

	// Re-verify both participants survived attack triggers and blocking.
	if !result.Aborted {
		if !onField(gsm.Card(result.AttackerID)) || !onField(gsm.Card(result.DefenderID)) {
			result.Aborted = true
		}
	}

	// ---- COUNTER step ----
	if !result.Aborted {
		gsm, err = bs.counterStep(ctx, gsm, result, defendingPlayer)
		if err != nil {
			return gsm, nil, err
		}
	}

	// ---- DAMAGE step ----
	if !result.Aborted {
		gsm, err = bs.damageStep(gsm, result, defendingPlayer)
		if err != nil {
			return gsm, nil, err
		}
	}

	// ---- END step ----
	gsm = bs.modifiers.ExpireEndOfBattle(gsm)

	if bs.bus != nil {
		evt := events.New(events.TypeBattleEnd, result.AttackerID, string(attackingPlayer))
		evt.TargetID = result.DefenderID
		evt.Amount = result.DamageDealt
		evt.Flag = result.DefenderKOd
		bs.bus.Publish(evt)
	}

	gsm = bs.checkWinCondition(gsm)
	return gsm, result, nil
}

// blockStep queries the defender for a blocker and redirects the battle to
// it. A nil choice is normal control flow.
func (bs *BattleSystem) blockStep(ctx context.Context, gsm *GameStateManager, result *BattleResult, defendingPlayer PlayerID) (*GameStateManager, error) {
	legal := bs.LegalBlockers(gsm, result.AttackerID, defendingPlayer)
	if len(legal) == 0 {
		return gsm, nil
	}

	choice, err := bs.defender.ChooseBlocker(ctx, gsm, legal)
	if err != nil {
		return gsm, err
	}
	if choice == nil {
		return gsm, nil
	}

	blocker := gsm.Card(choice.ID)
	if blocker == nil || blocker.State != StateActive || !bs.keywords.HasBlocker(blocker) {
		return gsm, newValidationError("block invalid", "card %s is not a legal blocker", choice.ID)
	}

	gsm, err = bs.zones.SetCardState(gsm, blocker.ID, StateRested)
	if err != nil {
		return gsm, err
	}
	result.DefenderID = blocker.ID

	bs.logger.Info("block declared",
		zap.String("blocker_id", blocker.ID),
		zap.String("attacker_id", result.AttackerID),
	)
	if bs.bus != nil {
		evt := events.New(events.TypeBlockDeclared, blocker.ID, string(defendingPlayer))
		evt.TargetID = result.AttackerID
		bs.bus.Publish(evt)
	}
	return gsm, nil
}

// counterStep repeatedly queries the defender for counter actions until a
// PASS. Validation failures are fatal and abort ExecuteAttack; the state
// already carries the attack-step mutations at that point.
func (bs *BattleSystem) counterStep(ctx context.Context, gsm *GameStateManager, result *BattleResult, defendingPlayer PlayerID) (*GameStateManager, error) {
	if bs.bus != nil {
		bs.bus.Publish(events.New(events.TypeCounterStepStart, result.DefenderID, string(defendingPlayer)))
	}

	for {
		counterCtx := CounterContext{
			AttackerID:      result.AttackerID,
			DefenderID:      result.DefenderID,
			AttackerPower:   bs.EffectivePower(gsm, result.AttackerID),
			DefenderPower:   bs.EffectivePower(gsm, result.DefenderID),
			DefendingPlayer: defendingPlayer,
		}
		action, err := bs.defender.ChooseCounterAction(ctx, gsm, counterCtx)
		if err != nil {
			return gsm, err
		}

		switch action.Type {
		case CounterPass:
			return gsm, nil

		case CounterUseCard:
			gsm, err = bs.useCounterCard(gsm, action.CardID, result.DefenderID, defendingPlayer)
			if err != nil {
				return gsm, err
			}

		case CounterPlayEvent:
			gsm, err = bs.playCounterEvent(ctx, gsm, action.CardID, defendingPlayer)
			if err != nil {
				return gsm, err
			}

		default:
			return gsm, newValidationError("counter invalid", "unknown counter action %q", action.Type)
		}
	}
}

// useCounterCard discards a counter card from hand and boosts the defender
// by its counter value until end of battle.
func (bs *BattleSystem) useCounterCard(gsm *GameStateManager, cardID, defenderID string, defendingPlayer PlayerID) (*GameStateManager, error) {
	card := gsm.Card(cardID)
	if card == nil {
		return gsm, newValidationError("counter invalid", "card %s not found", cardID)
	}
	if card.Owner != defendingPlayer || card.Zone != ZoneHand {
		return gsm, newValidationError("counter invalid", "card %s is not in the defender's hand", cardID)
	}
	if card.Def == nil || card.Def.Counter == nil {
		return gsm, newValidationError("counter invalid", "card %s has no counter value", cardID)
	}
	value := *card.Def.Counter

	gsm, err := bs.zones.MoveCard(gsm, cardID, ZoneTrash, -1)
	if err != nil {
		return gsm, err
	}
	gsm, err = bs.modifiers.AddPower(gsm, defenderID, value, DurationUntilEndOfBattle, cardID)
	if err != nil {
		return gsm, err
	}
	bs.logger.Info("counter card used",
		zap.String("card_id", cardID),
		zap.Int("counter_value", value),
		zap.String("defender_id", defenderID),
	)
	return gsm, nil
}

// playCounterEvent pays an event's DON cost, discards it, and resolves its
// effect through the collaborator.
func (bs *BattleSystem) playCounterEvent(ctx context.Context, gsm *GameStateManager, cardID string, defendingPlayer PlayerID) (*GameStateManager, error) {
	card := gsm.Card(cardID)
	if card == nil {
		return gsm, newValidationError("counter invalid", "card %s not found", cardID)
	}
	if card.Owner != defendingPlayer || card.Zone != ZoneHand {
		return gsm, newValidationError("counter invalid", "card %s is not in the defender's hand", cardID)
	}
	if card.Def == nil || card.Def.Category != CategoryEvent {
		return gsm, newValidationError("counter invalid", "card %s is not an event", cardID)
	}

	cost := bs.EffectiveCost(gsm, cardID)
	gsm, err := bs.payDonCost(gsm, defendingPlayer, cost)
	if err != nil {
		return gsm, err
	}

	gsm, err = bs.zones.MoveCard(gsm, cardID, ZoneTrash, -1)
	if err != nil {
		return gsm, err
	}

	if bs.effects != nil {
		gsm, err = bs.effects.TriggerEffects(ctx, gsm, PendingTrigger{
			Timing:     TimingOnPlay,
			SourceID:   cardID,
			Controller: defendingPlayer,
		})
		if err != nil {
			return gsm, err
		}
		gsm, err = bs.effects.ResolveStack(ctx, gsm)
		if err != nil {
			return gsm, err
		}
	}
	return gsm, nil
}

// payDonCost rests cost un-rested DON in the player's cost area, failing
// without mutation when not enough are available.
func (bs *BattleSystem) payDonCost(gsm *GameStateManager, playerID PlayerID, cost int) (*GameStateManager, error) {
	if cost == 0 {
		return gsm, nil
	}
	var active []string
	for _, id := range gsm.ZoneList(playerID, ZoneCostArea) {
		don := gsm.Don(id)
		if don != nil && don.State == StateActive {
			active = append(active, id)
		}
	}
	if len(active) < cost {
		return gsm, newValidationError("counter invalid", "insufficient DON: need %d, have %d active", cost, len(active))
	}
	var err error
	for _, id := range active[:cost] {
		gsm, err = gsm.UpdateDon(id, func(d *DonInstance) {
			d.State = StateRested
		})
		if err != nil {
			return gsm, err
		}
	}
	return gsm, nil
}

// damageStep compares effective powers and applies the outcome: a beaten
// character goes to the trash, a beaten leader costs its controller life.
func (bs *BattleSystem) damageStep(gsm *GameStateManager, result *BattleResult, defendingPlayer PlayerID) (*GameStateManager, error) {
	attackerPower := bs.EffectivePower(gsm, result.AttackerID)
	defenderPower := bs.EffectivePower(gsm, result.DefenderID)

	bs.logger.Debug("damage step",
		zap.Int("attacker_power", attackerPower),
		zap.Int("defender_power", defenderPower),
	)

	if attackerPower < defenderPower {
		return gsm, nil
	}

	defender := gsm.Card(result.DefenderID)
	if defender == nil {
		return gsm, nil
	}

	if defender.Zone == ZoneCharacterArea {
		gsm, err := bs.zones.MoveCard(gsm, result.DefenderID, ZoneTrash, -1)
		if err != nil {
			return gsm, err
		}
		result.DefenderKOd = true
		return gsm, nil
	}

	// Leader defender: its controller loses life cards.
	attacker := gsm.Card(result.AttackerID)
	lifeLoss := bs.rules.Damage().LeaderLifeLoss
	if bs.keywords.HasDoubleAttack(attacker) {
		lifeLoss = bs.rules.Damage().DoubleAttackLifeLoss
	}
	banish := bs.keywords.HasBanish(attacker)

	var err error
	for i := 0; i < lifeLoss; i++ {
		life := gsm.ZoneList(defendingPlayer, ZoneLife)
		if len(life) == 0 {
			break
		}
		lifeCardID := life[0]
		dest := ZoneHand
		if banish || bs.keywords.HasTrigger(gsm.Card(lifeCardID)) {
			dest = ZoneTrash
		}
		gsm, err = bs.zones.MoveCard(gsm, lifeCardID, dest, -1)
		if err != nil {
			return gsm, err
		}
		result.DamageDealt++
	}
	return gsm, nil
}

// checkWinCondition ends the match when a player's life zone is empty,
// synchronously, before ExecuteAttack returns.
func (bs *BattleSystem) checkWinCondition(gsm *GameStateManager) *GameStateManager {
	if gsm.IsGameOver() {
		return gsm
	}
	for _, pid := range gsm.State().PlayerOrder {
		if len(gsm.ZoneList(pid, ZoneLife)) == 0 {
			winner := gsm.Opponent(pid)
			gsm = gsm.SetGameOver(&winner, "LIFE_ZERO")
			bs.logger.Info("match over",
				zap.String("winner", string(winner)),
				zap.String("reason", "LIFE_ZERO"),
			)
			if bs.bus != nil {
				evt := events.New(events.TypeGameOver, "", string(winner))
				evt.Metadata["reason"] = "LIFE_ZERO"
				bs.bus.Publish(evt)
			}
			return gsm
		}
	}
	return gsm
}
