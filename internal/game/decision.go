package game

import (
	"context"
)

// CounterActionType enumerates the defender's options during the counter
// step.
type CounterActionType string

const (
	CounterPass      CounterActionType = "PASS"
	CounterUseCard   CounterActionType = "USE_COUNTER_CARD"
	CounterPlayEvent CounterActionType = "PLAY_COUNTER_EVENT"
)

// CounterAction is one declared counter-step action. CardID is required for
// everything except PASS.
type CounterAction struct {
	Type   CounterActionType
	CardID string
}

// CounterContext describes the battle at the moment the defender is asked
// for a counter action.
type CounterContext struct {
	AttackerID      string
	DefenderID      string
	AttackerPower   int
	DefenderPower   int
	DefendingPlayer PlayerID
}

// DefenderAgent supplies the defending player's decisions during a battle.
// These two calls are the engine's only suspension points: at most one is
// ever outstanding, and no state is mutated while a call is pending.
// Declining to block (nil) or to counter (PASS) is normal control flow,
// not an error.
type DefenderAgent interface {
	// ChooseBlocker picks a blocker from the legal set, or nil to let the
	// attack proceed against its original target.
	ChooseBlocker(ctx context.Context, gsm *GameStateManager, legalBlockers []*CardInstance) (*CardInstance, error)

	// ChooseCounterAction is queried repeatedly until it returns PASS.
	ChooseCounterAction(ctx context.Context, gsm *GameStateManager, counterCtx CounterContext) (CounterAction, error)
}

// Trigger timing names used with the effect collaborator.
const (
	TimingWhenAttacking = "WHEN_ATTACKING"
	TimingOnBlock       = "ON_BLOCK"
	TimingOnKO          = "ON_KO"
	TimingOnPlay        = "ON_PLAY"
	TimingTurnEnd       = "TURN_END"
)

// EffectResolver is the scripted-ability collaborator. Its internal
// resolution algorithm is out of the engine's scope; the battle system and
// phase functions run correctly as straight-through no-ops when it is nil.
type EffectResolver interface {
	// TriggerEffects enqueues pending ability resolutions for a named
	// trigger timing.
	TriggerEffects(ctx context.Context, gsm *GameStateManager, trigger PendingTrigger) (*GameStateManager, error)

	// ResolveStack resolves all currently pending triggers against the
	// state.
	ResolveStack(ctx context.Context, gsm *GameStateManager) (*GameStateManager, error)
}

// PassiveAgent is a DefenderAgent that never blocks and never counters.
type PassiveAgent struct{}

func (PassiveAgent) ChooseBlocker(ctx context.Context, gsm *GameStateManager, legalBlockers []*CardInstance) (*CardInstance, error) {
	return nil, nil
}

func (PassiveAgent) ChooseCounterAction(ctx context.Context, gsm *GameStateManager, counterCtx CounterContext) (CounterAction, error) {
	return CounterAction{Type: CounterPass}, nil
}

// ScriptedAgent replays a fixed sequence of decisions. Used by the simulator
// and tests. When the scripts run out it behaves like PassiveAgent.
type ScriptedAgent struct {
	BlockerChoices []string        // card IDs, "" for no block
	CounterPlays   []CounterAction // consumed until exhausted, then PASS

	blockerIdx int
	counterIdx int
}

func (a *ScriptedAgent) ChooseBlocker(ctx context.Context, gsm *GameStateManager, legalBlockers []*CardInstance) (*CardInstance, error) {
	if a.blockerIdx >= len(a.BlockerChoices) {
		return nil, nil
	}
	choice := a.BlockerChoices[a.blockerIdx]
	a.blockerIdx++
	if choice == "" {
		return nil, nil
	}
	for _, blocker := range legalBlockers {
		if blocker.ID == choice {
			return blocker, nil
		}
	}
	return nil, nil
}

func (a *ScriptedAgent) ChooseCounterAction(ctx context.Context, gsm *GameStateManager, counterCtx CounterContext) (CounterAction, error) {
	if a.counterIdx >= len(a.CounterPlays) {
		return CounterAction{Type: CounterPass}, nil
	}
	action := a.CounterPlays[a.counterIdx]
	a.counterIdx++
	return action, nil
}
