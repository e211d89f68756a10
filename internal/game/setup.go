package game

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grandline-tcg/engine-go/internal/game/rules"
)

// NewCardInstance creates a fresh instance of a definition owned and
// controlled by the given player. The instance starts outside every zone.
func NewCardInstance(def *CardDefinition, owner PlayerID) *CardInstance {
	return &CardInstance{
		ID:         uuid.NewString(),
		Def:        def,
		Owner:      owner,
		Controller: owner,
		Zone:       ZoneNone,
		State:      StateNone,
		Flags:      make(map[string]bool),
	}
}

// NewDonInstance creates a fresh DON token for the given player.
func NewDonInstance(owner PlayerID) *DonInstance {
	return &DonInstance{
		ID:    uuid.NewString(),
		Owner: owner,
		Zone:  ZoneNone,
		State: StateNone,
	}
}

// SetupMatch builds the initial game state for two validated decks: leaders
// placed, main decks shuffled with the seeded source, starting hands drawn,
// life cards dealt from the top of each deck, and DON decks filled.
// Instances are created exactly once here; afterwards they only ever move.
func SetupMatch(
	rulesCtx *rules.Context,
	zones *ZoneManager,
	first, second PlayerID,
	decks map[PlayerID]*Deck,
	seed int64,
	logger *zap.Logger,
) (*GameStateManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, pid := range []PlayerID{first, second} {
		deck := decks[pid]
		if deck == nil {
			return nil, fmt.Errorf("no deck for player %s", pid)
		}
		if violations := ValidateDeck(deck, rulesCtx.Limits()); len(violations) > 0 {
			return nil, fmt.Errorf("deck %q for player %s is invalid: %v", deck.Name, pid, violations)
		}
	}

	gsm := NewGameStateManager(first, second, rulesCtx.LoopGuard().MaxRepeats)
	rng := rand.New(rand.NewSource(seed))
	setup := rulesCtx.Setup()
	var err error

	for _, pid := range []PlayerID{first, second} {
		deck := decks[pid]

		leader := NewCardInstance(deck.Leader, pid)
		leader.State = StateActive
		gsm, err = zones.AddToZone(gsm, leader, ZoneLeaderArea)
		if err != nil {
			return nil, err
		}

		shuffled := append([]*CardDefinition(nil), deck.Main...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		for _, def := range shuffled {
			card := NewCardInstance(def, pid)
			gsm, err = zones.AddToZone(gsm, card, ZoneDeck)
			if err != nil {
				return nil, err
			}
		}

		for i := 0; i < deck.DonCount; i++ {
			don := NewDonInstance(pid)
			don.Zone = ZoneDonDeck
			don.State = StateRested
			gsm, err = gsm.AddDon(don)
			if err != nil {
				return nil, err
			}
		}

		for i := 0; i < setup.StartingHandSize; i++ {
			top := gsm.ZoneList(pid, ZoneDeck)
			if len(top) == 0 {
				break
			}
			gsm, err = zones.MoveCard(gsm, top[0], ZoneHand, -1)
			if err != nil {
				return nil, err
			}
		}

		life := 0
		if deck.Leader.Life != nil {
			life = *deck.Leader.Life
		}
		for i := 0; i < life; i++ {
			top := gsm.ZoneList(pid, ZoneDeck)
			if len(top) == 0 {
				break
			}
			gsm, err = zones.MoveCard(gsm, top[0], ZoneLife, -1)
			if err != nil {
				return nil, err
			}
		}

		logger.Info("player set up",
			zap.String("player", string(pid)),
			zap.String("deck", deck.Name),
			zap.String("leader", deck.Leader.ID),
			zap.Int("life", life),
		)
	}

	return gsm, nil
}
