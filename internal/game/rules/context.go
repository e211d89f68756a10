package rules

import (
	"fmt"

	"github.com/spf13/viper"
)

// ConfigError reports a missing or malformed section of the rules data.
// The engine refuses to construct a Context from an invalid rule set.
type ConfigError struct {
	Section string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("rules config: section %q: %s", e.Section, e.Reason)
}

// KeywordSpec describes a registered keyword ability.
type KeywordSpec struct {
	Name        string   `mapstructure:"name" yaml:"name"`
	Description string   `mapstructure:"description" yaml:"description"`
	Type        string   `mapstructure:"type" yaml:"type"`
	AppliesTo   []string `mapstructure:"applies_to" yaml:"applies_to"`
}

// LoopGuardRules configures repeated-state detection.
type LoopGuardRules struct {
	MaxRepeats int    `mapstructure:"max_repeats" yaml:"max_repeats"`
	Resolution string `mapstructure:"resolution" yaml:"resolution"`
}

// SetupRules holds the constants used during match setup and the early-turn
// special cases.
type SetupRules struct {
	StartingHandSize int  `mapstructure:"starting_hand_size" yaml:"starting_hand_size"`
	FirstTurnDraw    bool `mapstructure:"first_turn_draw" yaml:"first_turn_draw"`
	FirstTurnAttack  bool `mapstructure:"first_turn_attack" yaml:"first_turn_attack"`
	FirstTurnDon     int  `mapstructure:"first_turn_don" yaml:"first_turn_don"`
	DonPerTurn       int  `mapstructure:"don_per_turn" yaml:"don_per_turn"`
}

// DamageRules holds the battle damage constants: leader life loss and the
// power bonus granted by each attached DON token.
type DamageRules struct {
	LeaderLifeLoss       int `mapstructure:"leader_life_loss" yaml:"leader_life_loss"`
	DoubleAttackLifeLoss int `mapstructure:"double_attack_life_loss" yaml:"double_attack_life_loss"`
	DonPowerBonus        int `mapstructure:"don_power_bonus" yaml:"don_power_bonus"`
}

// Limits holds deck construction limits.
type Limits struct {
	MainDeckSize int `mapstructure:"main_deck_size" yaml:"main_deck_size"`
	DonDeckSize  int `mapstructure:"don_deck_size" yaml:"don_deck_size"`
	MaxCopies    int `mapstructure:"max_copies" yaml:"max_copies"`
	LeaderCount  int `mapstructure:"leader_count" yaml:"leader_count"`
}

// Config is the backing data for a rules Context. It is validated once at
// Context construction and never mutated afterwards.
type Config struct {
	Version          string         `mapstructure:"version" yaml:"version"`
	Phases           []string       `mapstructure:"phases" yaml:"phases"`
	BattleSteps      []string       `mapstructure:"battle_steps" yaml:"battle_steps"`
	Keywords         []KeywordSpec  `mapstructure:"keywords" yaml:"keywords"`
	ZoneCapacities   map[string]int `mapstructure:"zone_capacities" yaml:"zone_capacities"`
	Damage           DamageRules    `mapstructure:"damage" yaml:"damage"`
	DefeatConditions []string       `mapstructure:"defeat_conditions" yaml:"defeat_conditions"`
	LoopGuard        LoopGuardRules `mapstructure:"loop_guard" yaml:"loop_guard"`
	Setup            SetupRules     `mapstructure:"setup" yaml:"setup"`
	Limits           Limits         `mapstructure:"limits" yaml:"limits"`
}

// Default returns the built-in rule set for a standard two-player match.
func Default() Config {
	return Config{
		Version:     "1.0",
		Phases:      []string{"REFRESH", "DRAW", "DON", "MAIN", "END"},
		BattleSteps: []string{"ATTACK", "BLOCK", "COUNTER", "DAMAGE", "END"},
		Keywords: []KeywordSpec{
			{Name: "Rush", Description: "This card can attack on the turn it is played.", Type: "static", AppliesTo: []string{"CHARACTER"}},
			{Name: "Blocker", Description: "When your opponent attacks, you may rest this card to make it the new target of the attack.", Type: "static", AppliesTo: []string{"CHARACTER"}},
			{Name: "Trigger", Description: "Special handling when this card is taken as life damage.", Type: "triggered", AppliesTo: []string{"CHARACTER", "EVENT", "STAGE"}},
			{Name: "Double Attack", Description: "This card deals 2 damage to a leader instead of 1.", Type: "static", AppliesTo: []string{"LEADER", "CHARACTER"}},
			{Name: "Counter", Description: "This card may be used from hand during the counter step.", Type: "static", AppliesTo: []string{"CHARACTER", "EVENT"}},
			{Name: "Banish", Description: "Life cards lost to this card's attacks are trashed instead of added to hand.", Type: "static", AppliesTo: []string{"LEADER", "CHARACTER"}},
		},
		ZoneCapacities: map[string]int{
			"CHARACTER_AREA": 5,
			"STAGE_AREA":     1,
			"LEADER_AREA":    1,
		},
		Damage: DamageRules{
			LeaderLifeLoss:       1,
			DoubleAttackLifeLoss: 2,
			DonPowerBonus:        1000,
		},
		DefeatConditions: []string{"LIFE_ZERO", "DECK_OUT"},
		LoopGuard: LoopGuardRules{
			MaxRepeats: 3,
			Resolution: "DRAW",
		},
		Setup: SetupRules{
			StartingHandSize: 5,
			FirstTurnDraw:    false,
			FirstTurnAttack:  false,
			FirstTurnDon:     1,
			DonPerTurn:       2,
		},
		Limits: Limits{
			MainDeckSize: 50,
			DonDeckSize:  10,
			MaxCopies:    4,
			LeaderCount:  1,
		},
	}
}

// Load reads a rules configuration file (YAML) with viper. Values missing
// from the file are filled in from the defaults, so a partial override file
// is valid input.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	def := Default()
	v.SetDefault("version", def.Version)
	v.SetDefault("phases", def.Phases)
	v.SetDefault("battle_steps", def.BattleSteps)
	v.SetDefault("zone_capacities", def.ZoneCapacities)
	v.SetDefault("damage.leader_life_loss", def.Damage.LeaderLifeLoss)
	v.SetDefault("damage.double_attack_life_loss", def.Damage.DoubleAttackLifeLoss)
	v.SetDefault("damage.don_power_bonus", def.Damage.DonPowerBonus)
	v.SetDefault("defeat_conditions", def.DefeatConditions)
	v.SetDefault("loop_guard.max_repeats", def.LoopGuard.MaxRepeats)
	v.SetDefault("loop_guard.resolution", def.LoopGuard.Resolution)
	v.SetDefault("setup.starting_hand_size", def.Setup.StartingHandSize)
	v.SetDefault("setup.first_turn_draw", def.Setup.FirstTurnDraw)
	v.SetDefault("setup.first_turn_attack", def.Setup.FirstTurnAttack)
	v.SetDefault("setup.first_turn_don", def.Setup.FirstTurnDon)
	v.SetDefault("setup.don_per_turn", def.Setup.DonPerTurn)
	v.SetDefault("limits.main_deck_size", def.Limits.MainDeckSize)
	v.SetDefault("limits.don_deck_size", def.Limits.DonDeckSize)
	v.SetDefault("limits.max_copies", def.Limits.MaxCopies)
	v.SetDefault("limits.leader_count", def.Limits.LeaderCount)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read rules config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal rules config %s: %w", path, err)
	}
	if len(cfg.Keywords) == 0 {
		cfg.Keywords = def.Keywords
	}
	return cfg, nil
}

// Context is a read-only, validated provider of rule parameters. All getters
// are pure queries returning defensive copies.
type Context struct {
	cfg      Config
	keywords map[string]KeywordSpec
}

// NewContext validates the configuration and constructs a Context.
// Validation fails fast: an engine is never allowed to run against a rule
// set with missing sections.
func NewContext(cfg Config) (*Context, error) {
	if len(cfg.Phases) == 0 {
		return nil, &ConfigError{Section: "phases", Reason: "phase list is required"}
	}
	if len(cfg.BattleSteps) == 0 {
		return nil, &ConfigError{Section: "battle_steps", Reason: "battle step list is required"}
	}
	if len(cfg.Keywords) == 0 {
		return nil, &ConfigError{Section: "keywords", Reason: "keyword registry is required"}
	}
	if len(cfg.ZoneCapacities) == 0 {
		return nil, &ConfigError{Section: "zone_capacities", Reason: "zone capacity map is required"}
	}
	if len(cfg.DefeatConditions) == 0 {
		return nil, &ConfigError{Section: "defeat_conditions", Reason: "defeat condition list is required"}
	}
	if cfg.LoopGuard.MaxRepeats <= 0 {
		return nil, &ConfigError{Section: "loop_guard", Reason: "max_repeats must be positive"}
	}
	if cfg.Setup.StartingHandSize <= 0 {
		return nil, &ConfigError{Section: "setup", Reason: "starting_hand_size must be positive"}
	}
	if cfg.Damage.LeaderLifeLoss <= 0 || cfg.Damage.DoubleAttackLifeLoss <= 0 {
		return nil, &ConfigError{Section: "damage", Reason: "life loss constants must be positive"}
	}
	if cfg.Limits.MainDeckSize <= 0 || cfg.Limits.DonDeckSize <= 0 || cfg.Limits.MaxCopies <= 0 || cfg.Limits.LeaderCount <= 0 {
		return nil, &ConfigError{Section: "limits", Reason: "deck limits must be positive"}
	}

	keywords := make(map[string]KeywordSpec, len(cfg.Keywords))
	for _, kw := range cfg.Keywords {
		if kw.Name == "" {
			return nil, &ConfigError{Section: "keywords", Reason: "keyword with empty name"}
		}
		if _, dup := keywords[kw.Name]; dup {
			return nil, &ConfigError{Section: "keywords", Reason: fmt.Sprintf("duplicate keyword %q", kw.Name)}
		}
		keywords[kw.Name] = kw
	}

	return &Context{cfg: cfg, keywords: keywords}, nil
}

// Version returns the rule set version string.
func (c *Context) Version() string { return c.cfg.Version }

// Phases returns the configured phase order.
func (c *Context) Phases() []string {
	return append([]string(nil), c.cfg.Phases...)
}

// BattleSteps returns the configured battle step order.
func (c *Context) BattleSteps() []string {
	return append([]string(nil), c.cfg.BattleSteps...)
}

// Keyword looks up a keyword in the registry by exact, case-sensitive name.
func (c *Context) Keyword(name string) (KeywordSpec, bool) {
	kw, ok := c.keywords[name]
	if !ok {
		return KeywordSpec{}, false
	}
	kw.AppliesTo = append([]string(nil), kw.AppliesTo...)
	return kw, true
}

// Keywords returns every registered keyword.
func (c *Context) Keywords() []KeywordSpec {
	out := make([]KeywordSpec, 0, len(c.cfg.Keywords))
	for _, kw := range c.cfg.Keywords {
		kw.AppliesTo = append([]string(nil), kw.AppliesTo...)
		out = append(out, kw)
	}
	return out
}

// ZoneCapacity returns the configured capacity for a zone name. The second
// return is false for zones without a capacity limit.
func (c *Context) ZoneCapacity(zone string) (int, bool) {
	capacity, ok := c.cfg.ZoneCapacities[zone]
	return capacity, ok
}

// Damage returns the life-loss constants.
func (c *Context) Damage() DamageRules { return c.cfg.Damage }

// DefeatConditions returns the configured defeat condition names.
func (c *Context) DefeatConditions() []string {
	return append([]string(nil), c.cfg.DefeatConditions...)
}

// LoopGuard returns the repeated-state detection rules.
func (c *Context) LoopGuard() LoopGuardRules { return c.cfg.LoopGuard }

// Setup returns the match setup constants.
func (c *Context) Setup() SetupRules { return c.cfg.Setup }

// Limits returns the deck construction limits.
func (c *Context) Limits() Limits { return c.cfg.Limits }
