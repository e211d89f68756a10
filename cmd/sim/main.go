package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/grandline-tcg/engine-go/internal/config"
	"github.com/grandline-tcg/engine-go/internal/game"
	"github.com/grandline-tcg/engine-go/internal/game/events"
	"github.com/grandline-tcg/engine-go/internal/game/rules"
)

var (
	configPath = flag.String("config", "config/sim.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting match simulator",
		zap.String("version", version),
		zap.Int64("seed", cfg.Match.Seed),
	)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	rulesCfg := rules.Default()
	if cfg.Match.RulesFile != "" {
		var err error
		rulesCfg, err = rules.Load(cfg.Match.RulesFile)
		if err != nil {
			return err
		}
	}
	rulesCtx, err := rules.NewContext(rulesCfg)
	if err != nil {
		return err
	}

	bus := events.NewBus()
	bus.Subscribe(func(evt events.Event) {
		logger.Debug("engine event",
			zap.String("type", string(evt.Type)),
			zap.String("card_id", evt.CardID),
			zap.String("player_id", evt.PlayerID),
			zap.String("from_zone", evt.FromZone),
			zap.String("to_zone", evt.ToZone),
			zap.Int("amount", evt.Amount),
		)
	})

	zones := game.NewZoneManager(rulesCtx, bus, logger)
	modifiers := game.NewModifierManager(logger)
	keywords := game.NewKeywordHandler(rulesCtx)
	battle := game.NewBattleSystem(zones, modifiers, keywords, rulesCtx, bus, game.PassiveAgent{}, nil, logger)
	phases := game.NewPhaseManager(zones, modifiers, rulesCtx, bus, nil, logger)

	p1 := game.PlayerID(cfg.Match.Player1)
	p2 := game.PlayerID(cfg.Match.Player2)

	deck1, err := loadDeck(cfg.Match.DeckFile1)
	if err != nil {
		return err
	}
	deck2, err := loadDeck(cfg.Match.DeckFile2)
	if err != nil {
		return err
	}

	gsm, err := game.SetupMatch(rulesCtx, zones, p1, p2, map[game.PlayerID]*game.Deck{p1: deck1, p2: deck2}, cfg.Match.Seed, logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	for turn := 0; turn < cfg.Match.MaxTurns && !gsm.IsGameOver(); turn++ {
		gsm, err = playTurn(ctx, gsm, phases, battle, zones, rulesCtx, logger)
		if err != nil {
			return err
		}
		var repeats int
		gsm, repeats = gsm.RecordStateHash()
		if repeats >= rulesCtx.LoopGuard().MaxRepeats {
			logger.Warn("repeated game state detected", zap.Int("repeats", repeats))
			gsm = gsm.SetGameOver(nil, rulesCtx.LoopGuard().Resolution)
		}
	}

	if winner := gsm.Winner(); winner != nil {
		logger.Info("match finished",
			zap.String("winner", string(*winner)),
			zap.Int("turns", gsm.Turn()),
		)
	} else {
		logger.Info("match finished without a winner", zap.Int("turns", gsm.Turn()))
	}
	return nil
}

// playTurn drives one player turn: the standard phases, with a simple
// scripted main phase that plays the first affordable character and attacks
// with the leader.
func playTurn(
	ctx context.Context,
	gsm *game.GameStateManager,
	phases *game.PhaseManager,
	battle *game.BattleSystem,
	zones *game.ZoneManager,
	rulesCtx *rules.Context,
	logger *zap.Logger,
) (*game.GameStateManager, error) {
	var err error
	for _, name := range rulesCtx.Phases() {
		gsm, err = phases.RunPhase(ctx, gsm, name)
		if err != nil {
			return gsm, err
		}
		if gsm.IsGameOver() {
			return gsm, nil
		}
		if name != game.PhaseMain {
			continue
		}

		gsm, err = playFirstAffordableCharacter(gsm, battle, zones)
		if err != nil {
			return gsm, err
		}

		active := gsm.ActivePlayer()
		leaders := gsm.ZoneList(active, game.ZoneLeaderArea)
		targets := gsm.ZoneList(gsm.Opponent(active), game.ZoneLeaderArea)
		if len(leaders) == 0 || len(targets) == 0 {
			continue
		}
		if battle.CanAttack(gsm, leaders[0], targets[0]) != nil {
			continue
		}
		var result *game.BattleResult
		gsm, result, err = battle.ExecuteAttack(ctx, gsm, leaders[0], targets[0])
		if err != nil {
			return gsm, err
		}
		logger.Info("battle resolved",
			zap.Int("damage_dealt", result.DamageDealt),
			zap.Bool("defender_kod", result.DefenderKOd),
		)
		if gsm.IsGameOver() {
			return gsm, nil
		}
	}
	return gsm, nil
}

// playFirstAffordableCharacter moves the first playable character from the
// active player's hand to the character area, paying its DON cost.
func playFirstAffordableCharacter(gsm *game.GameStateManager, battle *game.BattleSystem, zones *game.ZoneManager) (*game.GameStateManager, error) {
	active := gsm.ActivePlayer()

	var activeDon []string
	for _, id := range gsm.ZoneList(active, game.ZoneCostArea) {
		if don := gsm.Don(id); don != nil && don.State == game.StateActive {
			activeDon = append(activeDon, id)
		}
	}

	for _, cardID := range gsm.ZoneList(active, game.ZoneHand) {
		card := gsm.Card(cardID)
		if card == nil || card.Def.Category != game.CategoryCharacter {
			continue
		}
		cost := battle.EffectiveCost(gsm, cardID)
		if cost > len(activeDon) {
			continue
		}
		next, err := zones.MoveCard(gsm, cardID, game.ZoneCharacterArea, -1)
		if err != nil {
			// Character area full; nothing to play this turn.
			return gsm, nil
		}
		gsm = next
		for _, donID := range activeDon[:cost] {
			gsm, err = gsm.UpdateDon(donID, func(d *game.DonInstance) {
				d.State = game.StateRested
			})
			if err != nil {
				return gsm, err
			}
		}
		gsm, err = zones.SetCardState(gsm, cardID, game.StateActive)
		if err != nil {
			return gsm, err
		}
		return gsm, nil
	}
	return gsm, nil
}

// loadDeck reads a deck list file, or falls back to the built-in starter
// deck when no file is configured.
func loadDeck(path string) (*game.Deck, error) {
	catalog, err := game.NewCatalog(game.BuiltinDefinitions())
	if err != nil {
		return nil, err
	}
	if path == "" {
		return builtinDeck(catalog)
	}
	list, err := game.LoadDeckList(path)
	if err != nil {
		return nil, err
	}
	return game.ResolveDeck(list, catalog)
}

// builtinDeck assembles a legal red starter deck from the built-in catalog.
func builtinDeck(catalog *game.Catalog) (*game.Deck, error) {
	list := &game.DeckList{Name: "Straw Hat Crew", Leader: "ST01-001", DonCount: 10}
	fours := []string{
		"ST01-002", "ST01-003", "ST01-004", "ST01-005", "ST01-006", "ST01-007",
		"ST01-008", "ST01-009", "ST01-010", "ST01-011", "ST01-012", "ST01-013",
	}
	for _, id := range fours {
		list.Cards = append(list.Cards, game.DeckEntry{ID: id, Count: 4})
	}
	list.Cards = append(list.Cards, game.DeckEntry{ID: "ST01-014", Count: 1})
	list.Cards = append(list.Cards, game.DeckEntry{ID: "ST01-015", Count: 1})
	return game.ResolveDeck(list, catalog)
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
