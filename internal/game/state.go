package game

import (
	"time"
)

// GameStateManager wraps an immutable GameState snapshot and offers pure
// transition operations. Every mutator returns a new manager around a new
// state; the caller rebinds its reference after each call. Lookups return
// nil on a miss, never an error.
type GameStateManager struct {
	state *GameState
}

// NewGameStateManager builds a fresh manager for a two-player match. The
// players are seated in the provided order; the first seat is the starting
// active player.
func NewGameStateManager(first, second PlayerID, maxRepeats int) *GameStateManager {
	state := &GameState{
		Players: map[PlayerID]*PlayerState{
			first:  NewPlayerState(first),
			second: NewPlayerState(second),
		},
		PlayerOrder:  []PlayerID{first, second},
		Cards:        make(map[string]*CardInstance),
		Dons:         make(map[string]*DonInstance),
		ActivePlayer: first,
		Turn:         1,
		LoopCounts:   make(map[string]int),
		MaxRepeats:   maxRepeats,
	}
	return &GameStateManager{state: state}
}

// State exposes the underlying snapshot for read-only inspection.
func (m *GameStateManager) State() *GameState { return m.state }

// Card returns the card instance by ID, or nil.
func (m *GameStateManager) Card(id string) *CardInstance {
	return m.state.Cards[id]
}

// Don returns the DON token by ID, or nil.
func (m *GameStateManager) Don(id string) *DonInstance {
	return m.state.Dons[id]
}

// Player returns the player state by ID, or nil.
func (m *GameStateManager) Player(id PlayerID) *PlayerState {
	return m.state.Players[id]
}

// ZoneList returns a copy of the ordered instance IDs in a player's zone.
func (m *GameStateManager) ZoneList(playerID PlayerID, zone Zone) []string {
	p := m.state.Players[playerID]
	if p == nil {
		return nil
	}
	return append([]string(nil), p.Zones[zone]...)
}

// ActivePlayer returns the player who currently has the turn.
func (m *GameStateManager) ActivePlayer() PlayerID { return m.state.ActivePlayer }

// Turn returns the current turn number (1-based).
func (m *GameStateManager) Turn() int { return m.state.Turn }

// Phase returns the name of the phase currently in progress.
func (m *GameStateManager) Phase() string { return m.state.Phase }

// Opponent returns the other player's ID.
func (m *GameStateManager) Opponent(id PlayerID) PlayerID {
	return m.state.Opponent(id)
}

// IsGameOver reports whether the match has ended.
func (m *GameStateManager) IsGameOver() bool { return m.state.GameOver }

// Winner returns the winning player, or nil while the match is running or
// after a declared draw.
func (m *GameStateManager) Winner() *PlayerID { return m.state.Winner }

// zoneIndexOf locates an instance ID within any zone of any player and
// returns the owning player, zone, and index. Used to keep the zone arrays
// and the instance's own Zone field consistent.
func (m *GameStateManager) zoneIndexOf(id string) (PlayerID, Zone, int) {
	for _, pid := range m.state.PlayerOrder {
		p := m.state.Players[pid]
		for zone, ids := range p.Zones {
			for i, candidate := range ids {
				if candidate == id {
					return pid, zone, i
				}
			}
		}
	}
	return "", ZoneNone, -1
}

func removeAt(ids []string, idx int) []string {
	out := append([]string(nil), ids[:idx]...)
	return append(out, ids[idx+1:]...)
}

func insertAt(ids []string, id string, idx int) []string {
	if idx < 0 || idx > len(ids) {
		idx = len(ids)
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:idx]...)
	out = append(out, id)
	out = append(out, ids[idx:]...)
	return out
}

// MoveCard relocates a card into toZone of its owner at toIndex (append when
// toIndex is negative or out of range). The card's Zone field is updated
// atomically with the zone arrays. No capacity validation happens here; the
// ZoneManager layers that on top.
func (m *GameStateManager) MoveCard(cardID string, toZone Zone, toIndex int) (*GameStateManager, error) {
	card := m.state.Cards[cardID]
	if card == nil {
		return m, newZoneError(cardID, toZone, "card %s not found", cardID)
	}

	next := m.state.clone()

	fromPlayer, fromZone, fromIdx := m.zoneIndexOf(cardID)
	if fromIdx >= 0 {
		p := next.mutablePlayer(fromPlayer)
		p.Zones[fromZone] = removeAt(p.Zones[fromZone], fromIdx)
	}

	owner := next.mutablePlayer(card.Owner)
	if owner == nil {
		return m, newZoneError(cardID, toZone, "owner %s of card %s not found", card.Owner, cardID)
	}
	owner.Zones[toZone] = insertAt(owner.Zones[toZone], cardID, toIndex)

	moved := next.mutableCard(cardID)
	moved.Zone = toZone

	return &GameStateManager{state: next}, nil
}

// AddCard registers a brand-new card instance and places it in its owner's
// zone. Used during deck construction.
func (m *GameStateManager) AddCard(card *CardInstance) (*GameStateManager, error) {
	if card == nil || card.ID == "" {
		return m, newZoneError("", ZoneNone, "card instance is required")
	}
	if _, exists := m.state.Cards[card.ID]; exists {
		return m, newZoneError(card.ID, card.Zone, "card %s already registered", card.ID)
	}
	next := m.state.clone()
	owner := next.mutablePlayer(card.Owner)
	if owner == nil {
		return m, newZoneError(card.ID, card.Zone, "owner %s of card %s not found", card.Owner, card.ID)
	}
	next.Cards[card.ID] = card
	if card.Zone != ZoneNone {
		owner.Zones[card.Zone] = append(owner.Zones[card.Zone], card.ID)
	}
	return &GameStateManager{state: next}, nil
}

// AddDon registers a brand-new DON token in its owner's zone.
func (m *GameStateManager) AddDon(don *DonInstance) (*GameStateManager, error) {
	if don == nil || don.ID == "" {
		return m, newZoneError("", ZoneNone, "don instance is required")
	}
	if _, exists := m.state.Dons[don.ID]; exists {
		return m, newZoneError(don.ID, don.Zone, "don %s already registered", don.ID)
	}
	next := m.state.clone()
	owner := next.mutablePlayer(don.Owner)
	if owner == nil {
		return m, newZoneError(don.ID, don.Zone, "owner %s of don %s not found", don.Owner, don.ID)
	}
	next.Dons[don.ID] = don
	if don.Zone != ZoneNone && don.Zone != ZoneAttached {
		owner.Zones[don.Zone] = append(owner.Zones[don.Zone], don.ID)
	}
	return &GameStateManager{state: next}, nil
}

// MoveDon relocates a DON token. With a targetCardID the token is detached
// from its current location and recorded on the target card's GivenDon list;
// otherwise it moves into toZone of its owner. Destination legality is
// enforced by the ZoneManager.
func (m *GameStateManager) MoveDon(donID string, toZone Zone, targetCardID string) (*GameStateManager, error) {
	don := m.state.Dons[donID]
	if don == nil {
		return m, newZoneError(donID, toZone, "don %s not found", donID)
	}

	next := m.state.clone()

	// Detach from a previous holder, if any.
	if don.Zone == ZoneAttached && don.AttachedTo != "" {
		if holder := next.mutableCard(don.AttachedTo); holder != nil {
			for i, id := range holder.GivenDon {
				if id == donID {
					holder.GivenDon = append(append([]string(nil), holder.GivenDon[:i]...), holder.GivenDon[i+1:]...)
					break
				}
			}
		}
	} else {
		owner := next.mutablePlayer(don.Owner)
		for _, zone := range donZones {
			for i, id := range owner.Zones[zone] {
				if id == donID {
					owner.Zones[zone] = removeAt(owner.Zones[zone], i)
					break
				}
			}
		}
	}

	moved := next.mutableDon(donID)
	if targetCardID != "" {
		target := next.mutableCard(targetCardID)
		if target == nil {
			return m, newZoneError(donID, toZone, "card %s not found", targetCardID)
		}
		target.GivenDon = append(target.GivenDon, donID)
		moved.Zone = ZoneAttached
		moved.AttachedTo = targetCardID
	} else {
		owner := next.mutablePlayer(don.Owner)
		owner.Zones[toZone] = append(owner.Zones[toZone], donID)
		moved.Zone = toZone
		moved.AttachedTo = ""
	}

	return &GameStateManager{state: next}, nil
}

// UpdateCard applies a partial update to a card through a mutation function
// run against a fresh copy.
func (m *GameStateManager) UpdateCard(cardID string, update func(*CardInstance)) (*GameStateManager, error) {
	if m.state.Cards[cardID] == nil {
		return m, newZoneError(cardID, ZoneNone, "card %s not found", cardID)
	}
	next := m.state.clone()
	update(next.mutableCard(cardID))
	return &GameStateManager{state: next}, nil
}

// UpdateDon applies a partial update to a DON token.
func (m *GameStateManager) UpdateDon(donID string, update func(*DonInstance)) (*GameStateManager, error) {
	if m.state.Dons[donID] == nil {
		return m, newZoneError(donID, ZoneNone, "don %s not found", donID)
	}
	next := m.state.clone()
	update(next.mutableDon(donID))
	return &GameStateManager{state: next}, nil
}

// UpdatePlayer applies a partial update to a player state.
func (m *GameStateManager) UpdatePlayer(playerID PlayerID, update func(*PlayerState)) (*GameStateManager, error) {
	if m.state.Players[playerID] == nil {
		return m, newZoneError("", ZoneNone, "player %s not found", playerID)
	}
	next := m.state.clone()
	update(next.mutablePlayer(playerID))
	return &GameStateManager{state: next}, nil
}

// SetPhase records the phase currently in progress.
func (m *GameStateManager) SetPhase(phase string) *GameStateManager {
	next := m.state.clone()
	next.Phase = phase
	return &GameStateManager{state: next}
}

// IncrementTurn advances the turn number by one.
func (m *GameStateManager) IncrementTurn() *GameStateManager {
	next := m.state.clone()
	next.Turn++
	return &GameStateManager{state: next}
}

// SetActivePlayer hands the turn to the given player.
func (m *GameStateManager) SetActivePlayer(playerID PlayerID) *GameStateManager {
	next := m.state.clone()
	next.ActivePlayer = playerID
	return &GameStateManager{state: next}
}

// SetGameOver ends the match. A nil winner declares a draw; the game-over
// flag is true exactly when a winner exists or a draw has been declared.
func (m *GameStateManager) SetGameOver(winner *PlayerID, reason string) *GameStateManager {
	next := m.state.clone()
	next.GameOver = true
	next.WinReason = reason
	if winner != nil {
		w := *winner
		next.Winner = &w
	} else {
		next.Winner = nil
	}
	return &GameStateManager{state: next}
}

// EnqueueTrigger appends a pending ability trigger for later resolution by
// the effect collaborator.
func (m *GameStateManager) EnqueueTrigger(trigger PendingTrigger) *GameStateManager {
	next := m.state.clone()
	if trigger.CreatedAt.IsZero() {
		trigger.CreatedAt = time.Now()
	}
	next.PendingTriggers = append(next.PendingTriggers, trigger)
	return &GameStateManager{state: next}
}

// DrainTriggers removes and returns all pending triggers in queue order.
func (m *GameStateManager) DrainTriggers() (*GameStateManager, []PendingTrigger) {
	if len(m.state.PendingTriggers) == 0 {
		return m, nil
	}
	next := m.state.clone()
	drained := next.PendingTriggers
	next.PendingTriggers = nil
	return &GameStateManager{state: next}, drained
}

// AppendHistory records one line of bounded match history.
func (m *GameStateManager) AppendHistory(text string) *GameStateManager {
	next := m.state.clone()
	next.History = append(next.History, HistoryEntry{
		Turn:      next.Turn,
		Phase:     next.Phase,
		Text:      text,
		Timestamp: time.Now(),
	})
	if len(next.History) > maxHistoryEntries {
		next.History = next.History[len(next.History)-maxHistoryEntries:]
	}
	return &GameStateManager{state: next}
}

// RecordStateHash hashes the current snapshot, bumps its repeat count, and
// returns the updated count. Whether a repeated state ends the match is the
// caller's decision; the engine only maintains the bookkeeping.
func (m *GameStateManager) RecordStateHash() (*GameStateManager, int) {
	hash := m.StateHash()
	next := m.state.clone()
	next.LoopCounts[hash]++
	return &GameStateManager{state: next}, next.LoopCounts[hash]
}

// RepeatCount returns how many times the given state hash has been recorded.
func (m *GameStateManager) RepeatCount(hash string) int {
	return m.state.LoopCounts[hash]
}
