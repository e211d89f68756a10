package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grandline-tcg/engine-go/internal/game/events"
)

func TestCanAttackFirstTurn(t *testing.T) {
	h := newBattleTestHarness(t)
	attacker := h.placeLeader(h.p1, 5000)
	target := h.placeLeader(h.p2, 5000)

	bs := h.battleSystem(nil, nil)
	err := bs.CanAttack(h.gsm, attacker, target)
	if err == nil {
		t.Fatal("expected first-turn attack to be rejected")
	}
	assert.Contains(t, err.Error(), "first player's first turn")

	h.startTurn(2, h.p1)
	require.NoError(t, bs.CanAttack(h.gsm, attacker, target))
}

func TestCanAttackRestedAttacker(t *testing.T) {
	h := newBattleTestHarness(t)
	h.startTurn(2, h.p1)
	target := h.placeLeader(h.p2, 5000)

	rested := h.addCharacter(h.p1, 4000, StateRested)
	restedRush := h.addCharacter(h.p1, 4000, StateRested, KeywordRush)

	bs := h.battleSystem(nil, nil)
	err := bs.CanAttack(h.gsm, rested, target)
	if err == nil {
		t.Fatal("expected rested attacker without Rush to be rejected")
	}
	require.NoError(t, bs.CanAttack(h.gsm, restedRush, target))
}

func TestCanAttackTargetLegality(t *testing.T) {
	h := newBattleTestHarness(t)
	h.startTurn(2, h.p1)
	attacker := h.placeLeader(h.p1, 5000)
	h.placeLeader(h.p2, 5000)

	activeChar := h.addCharacter(h.p2, 3000, StateActive)
	restedChar := h.addCharacter(h.p2, 3000, StateRested)
	own := h.addCharacter(h.p1, 3000, StateRested)
	handCard := h.addCounterCard(h.p2, 1000)

	bs := h.battleSystem(nil, nil)

	if err := bs.CanAttack(h.gsm, attacker, activeChar); err == nil {
		t.Fatal("expected active character to be untargetable")
	}
	if err := bs.CanAttack(h.gsm, attacker, own); err == nil {
		t.Fatal("expected own character to be untargetable")
	}
	if err := bs.CanAttack(h.gsm, attacker, handCard); err == nil {
		t.Fatal("expected hand card to be untargetable")
	}
	require.NoError(t, bs.CanAttack(h.gsm, attacker, restedChar))
}

func TestLegalTargetsAndBlockers(t *testing.T) {
	h := newBattleTestHarness(t)
	h.startTurn(2, h.p1)
	attacker := h.placeLeader(h.p1, 5000)
	defLeader := h.placeLeader(h.p2, 5000)

	restedChar := h.addCharacter(h.p2, 3000, StateRested)
	h.addCharacter(h.p2, 3000, StateActive)
	activeBlocker := h.addCharacter(h.p2, 2000, StateActive, KeywordBlocker)
	h.addCharacter(h.p2, 2000, StateRested, KeywordBlocker)

	bs := h.battleSystem(nil, nil)

	targets := bs.LegalTargets(h.gsm, attacker)
	targetIDs := make([]string, 0, len(targets))
	for _, c := range targets {
		targetIDs = append(targetIDs, c.ID)
	}
	assert.ElementsMatch(t, []string{defLeader, restedChar}, targetIDs)

	blockers := bs.LegalBlockers(h.gsm, attacker, h.p2)
	require.Len(t, blockers, 1)
	assert.Equal(t, activeBlocker, blockers[0].ID)
}

func TestExecuteAttackEqualPowerLeaders(t *testing.T) {
	h := newBattleTestHarness(t)
	attacker := h.placeLeader(h.p1, 5000)
	target := h.placeLeader(h.p2, 5000)
	h.addLife(h.p1, 5)
	lifeIDs := h.addLife(h.p2, 5)
	h.startTurn(2, h.p1)

	bs := h.battleSystem(nil, nil)
	gsm, result, err := bs.ExecuteAttack(context.Background(), h.gsm, attacker, target)
	require.NoError(t, err)

	// Ties go to the attacker.
	assert.Equal(t, 1, result.DamageDealt)
	assert.False(t, result.DefenderKOd)
	assert.Len(t, gsm.ZoneList(h.p2, ZoneLife), 4)

	// The top life card goes to the defender's hand.
	assert.Equal(t, ZoneHand, gsm.Card(lifeIDs[0]).Zone)

	// The attacker rests as part of declaring the attack.
	assert.Equal(t, StateRested, gsm.Card(attacker).State)
	assert.False(t, gsm.IsGameOver())
}

func TestExecuteAttackWeakerAttackerDealsNothing(t *testing.T) {
	h := newBattleTestHarness(t)
	h.placeLeader(h.p1, 5000)
	target := h.placeLeader(h.p2, 5000)
	attacker := h.addCharacter(h.p1, 3000, StateActive)
	h.addLife(h.p2, 5)
	h.startTurn(2, h.p1)

	bs := h.battleSystem(nil, nil)
	gsm, result, err := bs.ExecuteAttack(context.Background(), h.gsm, attacker, target)
	require.NoError(t, err)

	assert.Equal(t, 0, result.DamageDealt)
	assert.Len(t, gsm.ZoneList(h.p2, ZoneLife), 5)
}

func TestExecuteAttackKOsRestedCharacter(t *testing.T) {
	h := newBattleTestHarness(t)
	h.placeLeader(h.p1, 5000)
	h.placeLeader(h.p2, 5000)
	attacker := h.addCharacter(h.p1, 5000, StateActive)
	target := h.addCharacter(h.p2, 4000, StateRested)
	h.addLife(h.p2, 5)
	h.startTurn(2, h.p1)

	bs := h.battleSystem(nil, nil)
	gsm, result, err := bs.ExecuteAttack(context.Background(), h.gsm, attacker, target)
	require.NoError(t, err)

	assert.True(t, result.DefenderKOd)
	assert.Equal(t, 0, result.DamageDealt)
	assert.Equal(t, ZoneTrash, gsm.Card(target).Zone)
	// Character battles never touch life cards.
	assert.Len(t, gsm.ZoneList(h.p2, ZoneLife), 5)
}

func TestExecuteAttackStrongerCharacterSurvives(t *testing.T) {
	h := newBattleTestHarness(t)
	h.placeLeader(h.p1, 5000)
	h.placeLeader(h.p2, 5000)
	attacker := h.addCharacter(h.p1, 3000, StateActive)
	target := h.addCharacter(h.p2, 5000, StateRested)
	h.startTurn(2, h.p1)

	bs := h.battleSystem(nil, nil)
	gsm, result, err := bs.ExecuteAttack(context.Background(), h.gsm, attacker, target)
	require.NoError(t, err)

	assert.False(t, result.DefenderKOd)
	assert.Equal(t, ZoneCharacterArea, gsm.Card(target).Zone)
}

func TestBlockerRedirectsAttack(t *testing.T) {
	h := newBattleTestHarness(t)
	attacker := h.placeLeader(h.p1, 5000)
	target := h.placeLeader(h.p2, 5000)
	blocker := h.addCharacter(h.p2, 3000, StateActive, KeywordBlocker)
	h.addLife(h.p2, 5)
	h.startTurn(2, h.p1)

	agent := &ScriptedAgent{BlockerChoices: []string{blocker}}
	bs := h.battleSystem(agent, nil)
	gsm, result, err := bs.ExecuteAttack(context.Background(), h.gsm, attacker, target)
	require.NoError(t, err)

	// The blocker becomes the defender and absorbs the hit; the leader's
	// life is untouched.
	assert.Equal(t, blocker, result.DefenderID)
	assert.True(t, result.DefenderKOd)
	assert.Equal(t, 0, result.DamageDealt)
	assert.Equal(t, ZoneTrash, gsm.Card(blocker).Zone)
	assert.Len(t, gsm.ZoneList(h.p2, ZoneLife), 5)

	blocks := h.eventsOfType(events.TypeBlockDeclared)
	require.Len(t, blocks, 1)
	assert.Equal(t, blocker, blocks[0].CardID)
}

func TestCounterCardPreventsLeaderDamage(t *testing.T) {
	h := newBattleTestHarness(t)
	h.placeLeader(h.p1, 5000)
	target := h.placeLeader(h.p2, 5000)
	attacker := h.addCharacter(h.p1, 6000, StateActive)
	counter := h.addCounterCard(h.p2, 2000)
	h.addLife(h.p2, 5)
	h.startTurn(2, h.p1)

	agent := &ScriptedAgent{CounterPlays: []CounterAction{
		{Type: CounterUseCard, CardID: counter},
	}}
	bs := h.battleSystem(agent, nil)
	gsm, result, err := bs.ExecuteAttack(context.Background(), h.gsm, attacker, target)
	require.NoError(t, err)

	// 6000 vs 5000+2000: the attack falls short.
	assert.Equal(t, 0, result.DamageDealt)
	assert.Len(t, gsm.ZoneList(h.p2, ZoneLife), 5)
	assert.Equal(t, ZoneTrash, gsm.Card(counter).Zone)

	// The battle boost expires with the battle.
	assert.Empty(t, gsm.Card(target).Modifiers)
}

func TestCounterEventPaysDonCost(t *testing.T) {
	h := newBattleTestHarness(t)
	h.placeLeader(h.p1, 5000)
	target := h.placeLeader(h.p2, 5000)
	attacker := h.addCharacter(h.p1, 6000, StateActive)
	event := h.addCounterEvent(h.p2, 1)
	donIDs := h.addDon(h.p2, 2, StateActive)
	h.addLife(h.p2, 5)
	h.startTurn(2, h.p1)

	agent := &ScriptedAgent{CounterPlays: []CounterAction{
		{Type: CounterPlayEvent, CardID: event},
	}}
	bs := h.battleSystem(agent, nil)
	gsm, _, err := bs.ExecuteAttack(context.Background(), h.gsm, attacker, target)
	require.NoError(t, err)

	assert.Equal(t, ZoneTrash, gsm.Card(event).Zone)
	assert.Equal(t, StateRested, gsm.Don(donIDs[0]).State)
	assert.Equal(t, StateActive, gsm.Don(donIDs[1]).State)
}

func TestCounterEventInsufficientDon(t *testing.T) {
	h := newBattleTestHarness(t)
	h.placeLeader(h.p1, 5000)
	target := h.placeLeader(h.p2, 5000)
	attacker := h.addCharacter(h.p1, 6000, StateActive)
	event := h.addCounterEvent(h.p2, 4)
	h.addDon(h.p2, 1, StateActive)
	h.addLife(h.p2, 5)
	h.startTurn(2, h.p1)

	agent := &ScriptedAgent{CounterPlays: []CounterAction{
		{Type: CounterPlayEvent, CardID: event},
	}}
	bs := h.battleSystem(agent, nil)
	gsm, result, err := bs.ExecuteAttack(context.Background(), h.gsm, attacker, target)
	if err == nil {
		t.Fatal("expected counter with insufficient DON to fail")
	}
	assert.Contains(t, err.Error(), "insufficient DON: need 4, have 1 active")
	assert.Nil(t, result)

	// The attack step already happened: the returned state carries the
	// rested attacker and the declaration was announced.
	assert.Equal(t, StateRested, gsm.Card(attacker).State)
	assert.Len(t, h.eventsOfType(events.TypeAttackDeclared), 1)
	// The event card stays in hand; cost payment failed before the discard.
	assert.Equal(t, ZoneHand, gsm.Card(event).Zone)
}

func TestCounterCardWithoutCounterValue(t *testing.T) {
	h := newBattleTestHarness(t)
	h.placeLeader(h.p1, 5000)
	target := h.placeLeader(h.p2, 5000)
	attacker := h.addCharacter(h.p1, 6000, StateActive)
	h.addLife(h.p2, 5)
	h.startTurn(2, h.p1)

	// A character definition with no counter value.
	def := &CardDefinition{
		ID: h.defID("plain"), Name: "Plain Card", Category: CategoryCharacter,
		Colors: []Color{ColorRed}, Cost: 2, Power: 3000,
	}
	plain := h.addCard(h.p2, def, ZoneHand, StateNone)

	agent := &ScriptedAgent{CounterPlays: []CounterAction{
		{Type: CounterUseCard, CardID: plain},
	}}
	bs := h.battleSystem(agent, nil)
	_, _, err := bs.ExecuteAttack(context.Background(), h.gsm, attacker, target)
	if err == nil {
		t.Fatal("expected counter with no counter value to fail")
	}
	assert.Contains(t, err.Error(), "has no counter value")
}

func TestDoubleAttackRemovesTwoLife(t *testing.T) {
	h := newBattleTestHarness(t)
	attacker := h.placeLeader(h.p1, 5000, KeywordDoubleAttack)
	target := h.placeLeader(h.p2, 5000)
	h.addLife(h.p2, 5)
	h.startTurn(2, h.p1)

	bs := h.battleSystem(nil, nil)
	gsm, result, err := bs.ExecuteAttack(context.Background(), h.gsm, attacker, target)
	require.NoError(t, err)

	assert.Equal(t, 2, result.DamageDealt)
	assert.Len(t, gsm.ZoneList(h.p2, ZoneLife), 3)
	assert.Len(t, gsm.ZoneList(h.p2, ZoneHand), 2)
}

func TestTriggerLifeCardGoesToTrash(t *testing.T) {
	h := newBattleTestHarness(t)
	attacker := h.placeLeader(h.p1, 5000)
	target := h.placeLeader(h.p2, 5000)
	triggered := h.addLifeCard(h.p2, KeywordTrigger)
	h.addLife(h.p2, 4)
	h.startTurn(2, h.p1)

	bs := h.battleSystem(nil, nil)
	gsm, _, err := bs.ExecuteAttack(context.Background(), h.gsm, attacker, target)
	require.NoError(t, err)

	assert.Equal(t, ZoneTrash, gsm.Card(triggered).Zone)
	assert.Empty(t, gsm.ZoneList(h.p2, ZoneHand))
}

func TestBanishSendsLifeToTrash(t *testing.T) {
	h := newBattleTestHarness(t)
	attacker := h.placeLeader(h.p1, 5000, KeywordBanish)
	target := h.placeLeader(h.p2, 5000)
	lifeIDs := h.addLife(h.p2, 5)
	h.startTurn(2, h.p1)

	bs := h.battleSystem(nil, nil)
	gsm, _, err := bs.ExecuteAttack(context.Background(), h.gsm, attacker, target)
	require.NoError(t, err)

	assert.Equal(t, ZoneTrash, gsm.Card(lifeIDs[0]).Zone)
	assert.Empty(t, gsm.ZoneList(h.p2, ZoneHand))
}

func TestAttachedDonBoostsPower(t *testing.T) {
	h := newBattleTestHarness(t)
	h.placeLeader(h.p1, 5000)
	target := h.placeLeader(h.p2, 5000)
	attacker := h.addCharacter(h.p1, 4000, StateActive)
	donIDs := h.addDon(h.p1, 1, StateActive)
	h.addLife(h.p2, 5)
	h.startTurn(2, h.p1)

	var err error
	h.gsm, err = h.zones.MoveDon(h.gsm, donIDs[0], ZoneAttached, attacker)
	require.NoError(t, err)

	bs := h.battleSystem(nil, nil)
	assert.Equal(t, 5000, bs.EffectivePower(h.gsm, attacker))

	gsm, result, err := bs.ExecuteAttack(context.Background(), h.gsm, attacker, target)
	require.NoError(t, err)
	assert.Equal(t, 1, result.DamageDealt)
	assert.Len(t, gsm.ZoneList(h.p2, ZoneLife), 4)
}

func TestWinDetectedImmediately(t *testing.T) {
	h := newBattleTestHarness(t)
	attacker := h.placeLeader(h.p1, 6000)
	target := h.placeLeader(h.p2, 5000)
	h.addLife(h.p1, 5)
	h.addLife(h.p2, 1)
	h.startTurn(2, h.p1)

	bs := h.battleSystem(nil, nil)
	gsm, result, err := bs.ExecuteAttack(context.Background(), h.gsm, attacker, target)
	require.NoError(t, err)

	assert.Equal(t, 1, result.DamageDealt)
	require.True(t, gsm.IsGameOver())
	require.NotNil(t, gsm.Winner())
	assert.Equal(t, h.p1, *gsm.Winner())
	assert.Equal(t, "LIFE_ZERO", gsm.State().WinReason)

	overs := h.eventsOfType(events.TypeGameOver)
	require.Len(t, overs, 1)
	assert.Equal(t, "LIFE_ZERO", overs[0].Metadata["reason"])
}

func TestAttackOnFinishedMatchRejected(t *testing.T) {
	h := newBattleTestHarness(t)
	attacker := h.placeLeader(h.p1, 5000)
	target := h.placeLeader(h.p2, 5000)
	h.startTurn(2, h.p1)
	winner := h.p1
	h.gsm = h.gsm.SetGameOver(&winner, "LIFE_ZERO")

	bs := h.battleSystem(nil, nil)
	if err := bs.CanAttack(h.gsm, attacker, target); err == nil {
		t.Fatal("expected attack after game over to be rejected")
	}
}

func TestBattleEventOrder(t *testing.T) {
	h := newBattleTestHarness(t)
	attacker := h.placeLeader(h.p1, 5000)
	target := h.placeLeader(h.p2, 5000)
	h.addLife(h.p2, 5)
	h.startTurn(2, h.p1)

	bs := h.battleSystem(nil, nil)
	_, _, err := bs.ExecuteAttack(context.Background(), h.gsm, attacker, target)
	require.NoError(t, err)

	var order []events.Type
	for _, evt := range h.recorded {
		switch evt.Type {
		case events.TypeAttackDeclared, events.TypeCounterStepStart, events.TypeBattleEnd:
			order = append(order, evt.Type)
		}
	}
	assert.Equal(t, []events.Type{
		events.TypeAttackDeclared,
		events.TypeCounterStepStart,
		events.TypeBattleEnd,
	}, order)
}

// removeDefenderResolver trashes a fixed card when the attack trigger fires,
// simulating an ability that removes a battle participant.
type removeDefenderResolver struct {
	zones  *ZoneManager
	cardID string
}

func (r *removeDefenderResolver) TriggerEffects(ctx context.Context, gsm *GameStateManager, trigger PendingTrigger) (*GameStateManager, error) {
	return r.zones.MoveCard(gsm, r.cardID, ZoneTrash, -1)
}

func (r *removeDefenderResolver) ResolveStack(ctx context.Context, gsm *GameStateManager) (*GameStateManager, error) {
	return gsm, nil
}

func TestBattleAbortsWhenDefenderLeavesField(t *testing.T) {
	h := newBattleTestHarness(t)
	h.placeLeader(h.p1, 5000)
	h.placeLeader(h.p2, 5000)
	attacker := h.addCharacter(h.p1, 6000, StateActive)
	target := h.addCharacter(h.p2, 3000, StateRested)
	h.addLife(h.p2, 5)
	h.startTurn(2, h.p1)

	resolver := &removeDefenderResolver{zones: h.zones, cardID: target}
	bs := h.battleSystem(nil, resolver)
	gsm, result, err := bs.ExecuteAttack(context.Background(), h.gsm, attacker, target)
	require.NoError(t, err)

	assert.True(t, result.Aborted)
	assert.False(t, result.DefenderKOd)
	assert.Equal(t, 0, result.DamageDealt)
	assert.Len(t, gsm.ZoneList(h.p2, ZoneLife), 5)
}
