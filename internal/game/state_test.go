package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCharDef(id string) *CardDefinition {
	return &CardDefinition{
		ID: id, Name: "Test Character", Category: CategoryCharacter,
		Colors: []Color{ColorRed}, Cost: 2, Power: 3000,
	}
}

func TestMoveCardReturnsNewState(t *testing.T) {
	m := NewGameStateManager("alice", "bob", 3)

	card := NewCardInstance(testCharDef("c-1"), "alice")
	card.Zone = ZoneHand
	m, err := m.AddCard(card)
	require.NoError(t, err)

	next, err := m.MoveCard(card.ID, ZoneCharacterArea, -1)
	require.NoError(t, err)

	// The original manager still sees the card in hand.
	assert.Equal(t, ZoneHand, m.Card(card.ID).Zone)
	assert.Equal(t, []string{card.ID}, m.ZoneList("alice", ZoneHand))

	// The new manager sees the move, in both the zone array and the card.
	assert.Equal(t, ZoneCharacterArea, next.Card(card.ID).Zone)
	assert.Empty(t, next.ZoneList("alice", ZoneHand))
	assert.Equal(t, []string{card.ID}, next.ZoneList("alice", ZoneCharacterArea))
}

func TestMoveCardUnknownCard(t *testing.T) {
	m := NewGameStateManager("alice", "bob", 3)
	next, err := m.MoveCard("missing", ZoneHand, -1)
	if err == nil {
		t.Fatal("expected moving an unknown card to fail")
	}
	var zoneErr *ZoneError
	require.ErrorAs(t, err, &zoneErr)
	assert.Same(t, m, next)
}

func TestMoveCardInsertIndex(t *testing.T) {
	m := NewGameStateManager("alice", "bob", 3)
	var ids []string
	for _, defID := range []string{"c-1", "c-2", "c-3"} {
		card := NewCardInstance(testCharDef(defID), "alice")
		card.Zone = ZoneDeck
		var err error
		m, err = m.AddCard(card)
		require.NoError(t, err)
		ids = append(ids, card.ID)
	}

	// Move the last deck card to the top.
	m, err := m.MoveCard(ids[2], ZoneDeck, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{ids[2], ids[0], ids[1]}, m.ZoneList("alice", ZoneDeck))
}

func TestAddCardRejectsDuplicate(t *testing.T) {
	m := NewGameStateManager("alice", "bob", 3)
	card := NewCardInstance(testCharDef("c-1"), "alice")
	card.Zone = ZoneHand
	m, err := m.AddCard(card)
	require.NoError(t, err)

	_, err = m.AddCard(card)
	if err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestMoveDonAttachAndDetach(t *testing.T) {
	m := NewGameStateManager("alice", "bob", 3)
	card := NewCardInstance(testCharDef("c-1"), "alice")
	card.Zone = ZoneCharacterArea
	m, err := m.AddCard(card)
	require.NoError(t, err)

	don := NewDonInstance("alice")
	don.Zone = ZoneCostArea
	don.State = StateActive
	m, err = m.AddDon(don)
	require.NoError(t, err)

	attached, err := m.MoveDon(don.ID, ZoneAttached, card.ID)
	require.NoError(t, err)
	assert.Equal(t, ZoneAttached, attached.Don(don.ID).Zone)
	assert.Equal(t, card.ID, attached.Don(don.ID).AttachedTo)
	assert.Equal(t, []string{don.ID}, attached.Card(card.ID).GivenDon)
	assert.Empty(t, attached.ZoneList("alice", ZoneCostArea))

	// The pre-attach snapshot is untouched.
	assert.Equal(t, ZoneCostArea, m.Don(don.ID).Zone)
	assert.Empty(t, m.Card(card.ID).GivenDon)

	detached, err := attached.MoveDon(don.ID, ZoneCostArea, "")
	require.NoError(t, err)
	assert.Equal(t, ZoneCostArea, detached.Don(don.ID).Zone)
	assert.Empty(t, detached.Don(don.ID).AttachedTo)
	assert.Empty(t, detached.Card(card.ID).GivenDon)
}

func TestUpdateCardCopyOnWrite(t *testing.T) {
	m := NewGameStateManager("alice", "bob", 3)
	card := NewCardInstance(testCharDef("c-1"), "alice")
	card.Zone = ZoneCharacterArea
	card.State = StateActive
	m, err := m.AddCard(card)
	require.NoError(t, err)

	next, err := m.UpdateCard(card.ID, func(c *CardInstance) {
		c.State = StateRested
	})
	require.NoError(t, err)

	assert.Equal(t, StateActive, m.Card(card.ID).State)
	assert.Equal(t, StateRested, next.Card(card.ID).State)
}

func TestSetGameOverInvariant(t *testing.T) {
	m := NewGameStateManager("alice", "bob", 3)
	assert.False(t, m.IsGameOver())
	assert.Nil(t, m.Winner())

	winner := PlayerID("alice")
	won := m.SetGameOver(&winner, "LIFE_ZERO")
	require.True(t, won.IsGameOver())
	require.NotNil(t, won.Winner())
	assert.Equal(t, winner, *won.Winner())

	drawn := m.SetGameOver(nil, "DRAW")
	assert.True(t, drawn.IsGameOver())
	assert.Nil(t, drawn.Winner())
}

func TestOpponent(t *testing.T) {
	m := NewGameStateManager("alice", "bob", 3)
	assert.Equal(t, PlayerID("bob"), m.Opponent("alice"))
	assert.Equal(t, PlayerID("alice"), m.Opponent("bob"))
}

func TestDrainTriggers(t *testing.T) {
	m := NewGameStateManager("alice", "bob", 3)
	m = m.EnqueueTrigger(PendingTrigger{Timing: TimingWhenAttacking, SourceID: "c-1", Controller: "alice"})
	m = m.EnqueueTrigger(PendingTrigger{Timing: TimingOnKO, SourceID: "c-2", Controller: "bob"})

	next, drained := m.DrainTriggers()
	require.Len(t, drained, 2)
	assert.Equal(t, "c-1", drained[0].SourceID)
	assert.Equal(t, "c-2", drained[1].SourceID)
	assert.Empty(t, next.State().PendingTriggers)

	// Queue order survives in the original snapshot too.
	assert.Len(t, m.State().PendingTriggers, 2)
}

func TestHistoryBounded(t *testing.T) {
	m := NewGameStateManager("alice", "bob", 3)
	for i := 0; i < maxHistoryEntries+10; i++ {
		m = m.AppendHistory("entry")
	}
	assert.Len(t, m.State().History, maxHistoryEntries)
}

func TestRecordStateHashCountsRepeats(t *testing.T) {
	m := NewGameStateManager("alice", "bob", 3)

	m, repeats := m.RecordStateHash()
	assert.Equal(t, 1, repeats)

	// Recording again from the same position counts up deterministically;
	// the loop bookkeeping itself is excluded from the hash.
	m, repeats = m.RecordStateHash()
	assert.Equal(t, 2, repeats)
	m, repeats = m.RecordStateHash()
	assert.Equal(t, 3, repeats)

	assert.Equal(t, 3, m.RepeatCount(m.StateHash()))
}
