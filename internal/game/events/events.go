package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type indicates the category of an engine notification.
type Type string

const (
	// Battle notifications
	TypeAttackDeclared   Type = "ATTACK_DECLARED"
	TypeBlockDeclared    Type = "BLOCK_DECLARED"
	TypeCounterStepStart Type = "COUNTER_STEP_START"
	TypeBattleEnd        Type = "BATTLE_END"

	// Zone / card notifications
	TypeCardMoved        Type = "CARD_MOVED"
	TypeDonMoved         Type = "DON_MOVED"
	TypeCardStateChanged Type = "CARD_STATE_CHANGED"

	// Turn structure notifications
	TypePhaseChanged Type = "PHASE_CHANGED"
	TypeTurnStart    Type = "TURN_START"
	TypeTurnEnd      Type = "TURN_END"

	// Match notifications
	TypeGameOver Type = "GAME_OVER"
)

// Event is a discrete notification emitted by the engine for consumption by
// rendering or logging layers. The payload fields carry stable meanings:
// CardID/PlayerID identify the subject, FromZone/ToZone and the indices
// describe movement, Amount carries numeric results (damage dealt, life
// lost), Flag carries boolean results (KO outcome).
type Event struct {
	Type      Type
	ID        string
	CardID    string
	TargetID  string
	PlayerID  string
	FromZone  string
	ToZone    string
	FromIndex int
	ToIndex   int
	Amount    int
	Flag      bool
	Timestamp time.Time
	Metadata  map[string]string
}

// New creates an event with the common fields populated.
func New(eventType Type, cardID, playerID string) Event {
	return Event{
		Type:      eventType,
		ID:        uuid.NewString(),
		CardID:    cardID,
		PlayerID:  playerID,
		Timestamp: time.Now(),
		Metadata:  make(map[string]string),
	}
}

// Listener is a callback that reacts to incoming events.
type Listener func(Event)

type typedListener struct {
	handle    int
	eventType Type
	callback  func(Event)
}

// Bus provides a synchronous publish/subscribe implementation with type
// filtering. Delivery happens on the publisher's goroutine; the engine is
// single-threaded, so listeners observe events in emission order.
type Bus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[Type][]typedListener
	nextHandle     int
}

// NewBus constructs a fresh event bus instance.
func NewBus() *Bus {
	return &Bus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[Type][]typedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (b *Bus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	handle := b.nextHandle
	b.nextHandle++
	b.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (b *Bus) SubscribeTyped(eventType Type, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	handle := b.nextHandle
	b.nextHandle++
	b.typedListeners[eventType] = append(b.typedListeners[eventType], typedListener{
		handle:    handle,
		eventType: eventType,
		callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (b *Bus) Unsubscribe(handle int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, handle)
	for eventType, listeners := range b.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].handle == handle {
				b.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, listener := range b.listeners {
		listener(event)
	}
	if typed, ok := b.typedListeners[event.Type]; ok {
		for _, listener := range typed {
			listener.callback(event)
		}
	}
}
