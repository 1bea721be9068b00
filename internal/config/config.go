package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"lifesim/internal/game"

	"github.com/joho/godotenv"
)

type LogConfig struct {
	Level  string
	Format string
	File   string
}

// GameConfig holds the session rules shared by the server and the simulator.
type GameConfig struct {
	MaxDays           int
	InterestInterval  int
	EndAliveThreshold int
	GlobalEventChance float64
	MaxPlayers        int
	MaxSessions       int
	CatalogPath       string
}

type APIConfig struct {
	Addr         string
	TurnDuration time.Duration
	ResultDelay  time.Duration
	Game         GameConfig
	Log          LogConfig
}

type SimConfig struct {
	Sessions int
	Players  int
	Seed     int64
	Game     GameConfig
	Log      LogConfig
}

type CLIConfig struct {
	APIBaseURL string
}

// LoadDotEnv reads .env from the working directory when one exists. Values
// already present in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

func LoadAPIFromEnv() (APIConfig, error) {
	LoadDotEnv()
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("LIFESIM_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:         addr,
		TurnDuration: envDurationDefault("LIFESIM_TURN_DURATION", 30*time.Second),
		ResultDelay:  envDurationDefault("LIFESIM_RESULT_DELAY", 5*time.Second),
		Game:         loadGame(),
		Log:          loadLog(),
	}
	if cfg.TurnDuration <= 0 {
		return cfg, fmt.Errorf("LIFESIM_TURN_DURATION must be positive")
	}
	if cfg.ResultDelay < 0 {
		return cfg, fmt.Errorf("LIFESIM_RESULT_DELAY must not be negative")
	}
	if _, err := cfg.Game.Rules(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func LoadSimFromEnv() (SimConfig, error) {
	LoadDotEnv()
	cfg := SimConfig{
		Sessions: envIntDefault("LIFESIM_SIM_SESSIONS", 1),
		Players:  envIntDefault("LIFESIM_SIM_PLAYERS", 4),
		Seed:     int64(envIntDefault("LIFESIM_SIM_SEED", 0)),
		Game:     loadGame(),
		Log:      loadLog(),
	}
	if _, err := cfg.Game.Rules(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	LoadDotEnv()
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("LIFE_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

// Rules overlays the configured knobs on the default rule set.
func (g GameConfig) Rules() (game.Rules, error) {
	r := game.DefaultRules()
	r.MaxDays = g.MaxDays
	r.InterestInterval = g.InterestInterval
	r.EndAliveThreshold = g.EndAliveThreshold
	r.GlobalEventChance = g.GlobalEventChance
	r.MaxPlayers = g.MaxPlayers
	if err := r.Validate(); err != nil {
		return r, fmt.Errorf("invalid game config: %w", err)
	}
	return r, nil
}

func loadGame() GameConfig {
	return GameConfig{
		MaxDays:           envIntDefault("LIFESIM_MAX_DAYS", 100),
		InterestInterval:  envIntDefault("LIFESIM_INTEREST_INTERVAL", 7),
		EndAliveThreshold: envIntDefault("LIFESIM_END_ALIVE_THRESHOLD", 0),
		GlobalEventChance: envFloatDefault("LIFESIM_GLOBAL_EVENT_CHANCE", 0.12),
		MaxPlayers:        envIntDefault("LIFESIM_MAX_PLAYERS", game.DefaultMaxPlayers),
		MaxSessions:       envIntDefault("LIFESIM_MAX_SESSIONS", 256),
		CatalogPath:       strings.TrimSpace(os.Getenv("LIFESIM_CATALOG_PATH")),
	}
}

func loadLog() LogConfig {
	return LogConfig{
		Level:  strings.ToLower(envDefault("LIFESIM_LOG_LEVEL", "info")),
		Format: strings.ToLower(envDefault("LIFESIM_LOG_FORMAT", "console")),
		File:   strings.TrimSpace(os.Getenv("LIFESIM_LOG_FILE")),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloatDefault(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
