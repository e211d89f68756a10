package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPopulatesCommonFields(t *testing.T) {
	evt := New(TypeAttackDeclared, "card-1", "alice")
	assert.Equal(t, TypeAttackDeclared, evt.Type)
	assert.Equal(t, "card-1", evt.CardID)
	assert.Equal(t, "alice", evt.PlayerID)
	assert.NotEmpty(t, evt.ID)
	assert.False(t, evt.Timestamp.IsZero())
	assert.NotNil(t, evt.Metadata)
}

func TestSubscribeReceivesAll(t *testing.T) {
	bus := NewBus()
	var got []Type
	bus.Subscribe(func(evt Event) {
		got = append(got, evt.Type)
	})

	bus.Publish(New(TypeCardMoved, "c-1", "alice"))
	bus.Publish(New(TypeTurnEnd, "", "alice"))

	assert.Equal(t, []Type{TypeCardMoved, TypeTurnEnd}, got)
}

func TestSubscribeTypedFilters(t *testing.T) {
	bus := NewBus()
	var got []Event
	bus.SubscribeTyped(TypeBattleEnd, func(evt Event) {
		got = append(got, evt)
	})

	bus.Publish(New(TypeCardMoved, "c-1", "alice"))
	bus.Publish(New(TypeBattleEnd, "c-2", "alice"))
	bus.Publish(New(TypeCardMoved, "c-3", "alice"))

	require.Len(t, got, 1)
	assert.Equal(t, "c-2", got[0].CardID)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	count := 0
	handle := bus.Subscribe(func(Event) { count++ })
	typedHandle := bus.SubscribeTyped(TypeCardMoved, func(Event) { count++ })

	bus.Publish(New(TypeCardMoved, "c-1", "alice"))
	assert.Equal(t, 2, count)

	bus.Unsubscribe(handle)
	bus.Unsubscribe(typedHandle)
	bus.Publish(New(TypeCardMoved, "c-2", "alice"))
	assert.Equal(t, 2, count)
}

func TestSubscribeNilListener(t *testing.T) {
	bus := NewBus()
	assert.Equal(t, -1, bus.Subscribe(nil))
	assert.Equal(t, -1, bus.SubscribeTyped(TypeCardMoved, nil))
	// Publishing still works with no listeners.
	bus.Publish(New(TypeCardMoved, "c-1", "alice"))
}

func TestDeliveryInEmissionOrder(t *testing.T) {
	bus := NewBus()
	var order []int
	bus.Subscribe(func(evt Event) {
		order = append(order, evt.Amount)
	})
	for i := 0; i < 5; i++ {
		evt := New(TypePhaseChanged, "", "alice")
		evt.Amount = i
		bus.Publish(evt)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}
