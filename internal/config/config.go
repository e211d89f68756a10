package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// LoggingConfig controls the zap logger construction.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// MatchConfig controls the simulated match.
type MatchConfig struct {
	Seed      int64  `mapstructure:"seed"`
	MaxTurns  int    `mapstructure:"max_turns"`
	RulesFile string `mapstructure:"rules_file"` // empty uses the built-in rule set
	DeckFile1 string `mapstructure:"deck_file_1"`
	DeckFile2 string `mapstructure:"deck_file_2"`
	Player1   string `mapstructure:"player_1"`
	Player2   string `mapstructure:"player_2"`
}

// Config is the application configuration for the simulator binary.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Match   MatchConfig   `mapstructure:"match"`
}

// Load reads configuration from the given file. A missing file is not an
// error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("match.seed", 1)
	v.SetDefault("match.max_turns", 50)
	v.SetDefault("match.player_1", "player1")
	v.SetDefault("match.player_2", "player2")

	if err := v.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	return &cfg, nil
}
