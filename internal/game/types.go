package game

import (
	"time"
)

// PlayerID identifies one of the two players in a match.
type PlayerID string

// Zone names the distinct card and DON locations a player owns.
type Zone string

const (
	ZoneDeck          Zone = "DECK"
	ZoneHand          Zone = "HAND"
	ZoneTrash         Zone = "TRASH"
	ZoneLife          Zone = "LIFE"
	ZoneDonDeck       Zone = "DON_DECK"
	ZoneCostArea      Zone = "COST_AREA"
	ZoneLeaderArea    Zone = "LEADER_AREA"
	ZoneStageArea     Zone = "STAGE_AREA"
	ZoneCharacterArea Zone = "CHARACTER_AREA"

	// ZoneNone is the sentinel endpoint used when a card appears or
	// disappears without a defined from/to zone (deck construction,
	// removal from the game).
	ZoneNone Zone = "NO_ZONE"

	// ZoneAttached marks a DON token currently given to a card. Attached
	// DON are tracked on the holding card's GivenDon list rather than in a
	// player zone sequence.
	ZoneAttached Zone = "ATTACHED"
)

// cardZones is the iteration order for every card-holding zone of a player.
var cardZones = []Zone{
	ZoneDeck,
	ZoneHand,
	ZoneTrash,
	ZoneLife,
	ZoneLeaderArea,
	ZoneStageArea,
	ZoneCharacterArea,
}

// donZones is the iteration order for every DON-holding zone of a player.
var donZones = []Zone{
	ZoneDonDeck,
	ZoneCostArea,
}

// fieldZones are the zones whose cards are "in play" for battle purposes.
var fieldZones = []Zone{
	ZoneLeaderArea,
	ZoneStageArea,
	ZoneCharacterArea,
}

// ActivityState is a card or DON token's combat-readiness state.
type ActivityState string

const (
	StateActive ActivityState = "ACTIVE"
	StateRested ActivityState = "RESTED"
	StateNone   ActivityState = "NONE"
)

// CardCategory classifies a card definition.
type CardCategory string

const (
	CategoryLeader    CardCategory = "LEADER"
	CategoryCharacter CardCategory = "CHARACTER"
	CategoryEvent     CardCategory = "EVENT"
	CategoryStage     CardCategory = "STAGE"
	CategoryDon       CardCategory = "DON"
)

// Color is a card's color identity. A definition with no colors is colorless.
type Color string

const (
	ColorRed    Color = "RED"
	ColorGreen  Color = "GREEN"
	ColorBlue   Color = "BLUE"
	ColorPurple Color = "PURPLE"
	ColorBlack  Color = "BLACK"
	ColorYellow Color = "YELLOW"
)

// CardDefinition is the immutable printed face of a card. Instances reference
// definitions; definitions are never mutated after catalog construction.
type CardDefinition struct {
	ID        string       `yaml:"id"`
	Name      string       `yaml:"name"`
	Category  CardCategory `yaml:"category"`
	Colors    []Color      `yaml:"colors"`
	Cost      int          `yaml:"cost"`
	Power     int          `yaml:"power"`
	Counter   *int         `yaml:"counter"`
	Life      *int         `yaml:"life"`
	Keywords  []string     `yaml:"keywords"`
	Types     []string     `yaml:"types"`
	Attribute string       `yaml:"attribute"`
	Effect    string       `yaml:"effect"`
}

// HasKeywordPrinted reports whether the definition's static keyword list
// contains name (exact, case-sensitive).
func (d *CardDefinition) HasKeywordPrinted(name string) bool {
	for _, kw := range d.Keywords {
		if kw == name {
			return true
		}
	}
	return false
}

// ModifierType is the closed enumeration of timed modifier kinds.
type ModifierType string

const (
	ModifierPower   ModifierType = "POWER"
	ModifierCost    ModifierType = "COST"
	ModifierKeyword ModifierType = "KEYWORD"
)

// Duration tags a modifier with its expiration class.
type Duration string

const (
	DurationPermanent            Duration = "PERMANENT"
	DurationUntilEndOfTurn       Duration = "UNTIL_END_OF_TURN"
	DurationDuringThisTurn       Duration = "DURING_THIS_TURN"
	DurationUntilEndOfBattle     Duration = "UNTIL_END_OF_BATTLE"
	DurationUntilStartOfNextTurn Duration = "UNTIL_START_OF_NEXT_TURN"
)

// Modifier is a timed attribute or keyword grant on a card instance.
// Insertion order is preserved and is the only ordering guarantee; numeric
// modifiers of the same type accumulate by summation.
type Modifier struct {
	ID        string
	Type      ModifierType
	Value     int    // numeric payload for POWER and COST
	Keyword   string // keyword payload for KEYWORD
	Duration  Duration
	Source    string
	CreatedAt time.Time
}

// CardInstance is a physical card in the match. Instances are created once at
// deck construction and only ever move between zones or gain/lose modifiers.
type CardInstance struct {
	ID         string
	Def        *CardDefinition
	Owner      PlayerID
	Controller PlayerID
	Zone       Zone
	State      ActivityState
	GivenDon   []string // IDs of attached DON tokens
	Modifiers  []Modifier
	Flags      map[string]bool
}

// clone produces a deep copy used for copy-on-write state transitions.
// The definition pointer is shared; definitions are immutable.
func (c *CardInstance) clone() *CardInstance {
	cp := *c
	cp.GivenDon = append([]string(nil), c.GivenDon...)
	cp.Modifiers = append([]Modifier(nil), c.Modifiers...)
	cp.Flags = make(map[string]bool, len(c.Flags))
	for k, v := range c.Flags {
		cp.Flags[k] = v
	}
	return &cp
}

// DonInstance is a DON resource token. Simpler than a card instance: it never
// carries modifiers.
type DonInstance struct {
	ID         string
	Owner      PlayerID
	Zone       Zone
	State      ActivityState
	AttachedTo string // card ID when Zone == ZoneAttached
}

func (d *DonInstance) clone() *DonInstance {
	cp := *d
	return &cp
}

// PlayerState is one player's identity, zone contents, and free-form flags.
// Zone sequences hold instance IDs; ordering within a zone is meaningful.
type PlayerState struct {
	ID    PlayerID
	Zones map[Zone][]string
	Flags map[string]bool
}

// NewPlayerState constructs an empty player state with every zone present.
func NewPlayerState(id PlayerID) *PlayerState {
	zones := make(map[Zone][]string, len(cardZones)+len(donZones))
	for _, z := range cardZones {
		zones[z] = nil
	}
	for _, z := range donZones {
		zones[z] = nil
	}
	return &PlayerState{
		ID:    id,
		Zones: zones,
		Flags: make(map[string]bool),
	}
}

func (p *PlayerState) clone() *PlayerState {
	cp := &PlayerState{
		ID:    p.ID,
		Zones: make(map[Zone][]string, len(p.Zones)),
		Flags: make(map[string]bool, len(p.Flags)),
	}
	for z, ids := range p.Zones {
		cp.Zones[z] = append([]string(nil), ids...)
	}
	for k, v := range p.Flags {
		cp.Flags[k] = v
	}
	return cp
}

// PendingTrigger is a queued ability resolution awaiting the effect
// collaborator.
type PendingTrigger struct {
	ID         string
	Timing     string
	SourceID   string
	Controller PlayerID
	CreatedAt  time.Time
}

// HistoryEntry is one line of the bounded match history.
type HistoryEntry struct {
	Turn      int
	Phase     string
	Text      string
	Timestamp time.Time
}

// maxHistoryEntries bounds the history ring; older entries are discarded.
const maxHistoryEntries = 256

// GameState is the complete immutable snapshot of a match. Transitions are
// performed exclusively through GameStateManager operations, each of which
// returns a new state.
type GameState struct {
	Players      map[PlayerID]*PlayerState
	PlayerOrder  []PlayerID // exactly two entries, seating order
	Cards        map[string]*CardInstance
	Dons         map[string]*DonInstance
	ActivePlayer PlayerID
	Phase        string
	Turn         int

	PendingTriggers []PendingTrigger

	GameOver  bool
	Winner    *PlayerID // nil while running, and nil on a declared draw
	WinReason string

	History []HistoryEntry

	// Loop guard bookkeeping: state hash -> times observed. Automatic loop
	// resolution is not wired; callers inspect repeat counts themselves.
	LoopCounts map[string]int
	MaxRepeats int
}

// clone makes a structurally shared copy: map headers and slices are fresh,
// entry pointers are shared until individually cloned by a mutator.
func (s *GameState) clone() *GameState {
	cp := &GameState{
		Players:      make(map[PlayerID]*PlayerState, len(s.Players)),
		PlayerOrder:  append([]PlayerID(nil), s.PlayerOrder...),
		Cards:        make(map[string]*CardInstance, len(s.Cards)),
		Dons:         make(map[string]*DonInstance, len(s.Dons)),
		ActivePlayer: s.ActivePlayer,
		Phase:        s.Phase,
		Turn:         s.Turn,

		PendingTriggers: append([]PendingTrigger(nil), s.PendingTriggers...),

		GameOver:  s.GameOver,
		Winner:    s.Winner,
		WinReason: s.WinReason,

		History: append([]HistoryEntry(nil), s.History...),

		LoopCounts: make(map[string]int, len(s.LoopCounts)),
		MaxRepeats: s.MaxRepeats,
	}
	for id, p := range s.Players {
		cp.Players[id] = p
	}
	for id, c := range s.Cards {
		cp.Cards[id] = c
	}
	for id, d := range s.Dons {
		cp.Dons[id] = d
	}
	for h, n := range s.LoopCounts {
		cp.LoopCounts[h] = n
	}
	return cp
}

// mutablePlayer clones the player into this state and returns the clone.
// Only valid on a freshly cloned state.
func (s *GameState) mutablePlayer(id PlayerID) *PlayerState {
	p, ok := s.Players[id]
	if !ok {
		return nil
	}
	cp := p.clone()
	s.Players[id] = cp
	return cp
}

// mutableCard clones the card into this state and returns the clone.
func (s *GameState) mutableCard(id string) *CardInstance {
	c, ok := s.Cards[id]
	if !ok {
		return nil
	}
	cp := c.clone()
	s.Cards[id] = cp
	return cp
}

// mutableDon clones the DON token into this state and returns the clone.
func (s *GameState) mutableDon(id string) *DonInstance {
	d, ok := s.Dons[id]
	if !ok {
		return nil
	}
	cp := d.clone()
	s.Dons[id] = cp
	return cp
}

// Opponent returns the other player's ID.
func (s *GameState) Opponent(id PlayerID) PlayerID {
	for _, pid := range s.PlayerOrder {
		if pid != id {
			return pid
		}
	}
	return ""
}
