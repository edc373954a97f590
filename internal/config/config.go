package config

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/rules"
)

const (
	HumanWhite  = "white"
	HumanBlack  = "black"
	HumanRandom = "random"
)

type OpponentConfig struct {
	Policy        string        `yaml:"policy" validate:"required,oneof=best worst random humanized uci"`
	Depth         int           `yaml:"depth" validate:"min=1,max=6"`
	Seed          int64         `yaml:"seed"`
	StockfishPath string        `yaml:"stockfish_path" validate:"required_if=Policy uci"`
	UCIPoolSize   int           `yaml:"uci_pool_size" validate:"min=0,max=16"`
	BookPath      string        `yaml:"book_path"`
	BookMaxPly    int           `yaml:"book_max_ply" validate:"min=0,max=60"`
	RedisURL      string        `yaml:"redis_url" validate:"omitempty,url"`
	CacheTTL      time.Duration `yaml:"cache_ttl" validate:"min=0"`
	MoveTimeout   time.Duration `yaml:"move_timeout" validate:"min=0"`
	Fallback      string        `yaml:"fallback" validate:"omitempty,oneof=best worst random humanized"`
}

type AppConfig struct {
	HumanColor  string         `yaml:"human_color" validate:"required,oneof=white black random"`
	StartFEN    string         `yaml:"start_fen" validate:"omitempty,max=100"`
	Opponent    OpponentConfig `yaml:"opponent"`
	HTTPAddr    string         `yaml:"http_addr" validate:"omitempty,hostname_port"`
	MessagesDir string         `yaml:"messages_dir"`
	Lang        string         `yaml:"lang" validate:"required,alpha,min=2,max=5"`
	SelfPlayMax int            `yaml:"selfplay_max_plies" validate:"min=1,max=2000"`
}

var validate = validator.New()

func Defaults() *AppConfig {
	return &AppConfig{
		HumanColor: HumanWhite,
		Opponent: OpponentConfig{
			Policy:     "best",
			Depth:      3,
			Seed:       time.Now().UnixNano(),
			BookMaxPly: 12,
			CacheTTL:   7 * 24 * time.Hour,
			Fallback:   "random",
		},
		Lang:        "en",
		SelfPlayMax: 200,
	}
}

// Load applies defaults, then the YAML file at path (optional), then the
// environment, and validates the result.
func Load(path string) (*AppConfig, error) {
	cfg := Defaults()
	if p := strings.TrimSpace(path); p != "" {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read config %q: %w", p, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", p, err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	normalize(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) Validate() error {
	if err := c.validateFields(); err != nil {
		return err
	}
	board, err := rules.BoardFromFEN(c.StartFEN)
	if err != nil {
		return fmt.Errorf("invalid config: start_fen: %w", err)
	}
	if err := rules.CheckPlayable(board); err != nil {
		return fmt.Errorf("invalid config: start_fen: %w", err)
	}
	return nil
}

func (c *AppConfig) validateFields() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	var details strings.Builder
	for _, fe := range verrs {
		if details.Len() > 0 {
			details.WriteString("; ")
		}
		switch fe.Tag() {
		case "required", "required_if":
			fmt.Fprintf(&details, "%s is required", fe.Namespace())
		case "oneof":
			fmt.Fprintf(&details, "%s must be one of [%s]", fe.Namespace(), fe.Param())
		case "min", "max":
			fmt.Fprintf(&details, "%s must be %s %s", fe.Namespace(), fe.Tag(), fe.Param())
		default:
			fmt.Fprintf(&details, "%s failed %s", fe.Namespace(), fe.Tag())
		}
	}
	return fmt.Errorf("invalid config: %s", details.String())
}

// ResolveHumanColor turns "random" into a coin flip.
func (c *AppConfig) ResolveHumanColor(r *rand.Rand) domain.Color {
	switch c.HumanColor {
	case HumanBlack:
		return domain.Black
	case HumanRandom:
		if r != nil && r.Intn(2) == 1 {
			return domain.Black
		}
		return domain.White
	}
	return domain.White
}

func applyEnv(cfg *AppConfig) error {
	if v := env("CHESS_HUMAN_COLOR"); v != "" {
		cfg.HumanColor = v
	}
	if v := env("CHESS_START_FEN"); v != "" {
		cfg.StartFEN = v
	}
	if v := env("CHESS_OPPONENT_POLICY"); v != "" {
		cfg.Opponent.Policy = v
	}
	if v := env("CHESS_FALLBACK_POLICY"); v != "" {
		cfg.Opponent.Fallback = v
	}
	if v := env("CHESS_AI_DEPTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHESS_AI_DEPTH: %w", err)
		}
		cfg.Opponent.Depth = n
	}
	if v := env("CHESS_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("CHESS_SEED: %w", err)
		}
		cfg.Opponent.Seed = n
	}
	if v := env("STOCKFISH_PATH"); v != "" {
		cfg.Opponent.StockfishPath = v
	}
	if v := env("CHESS_UCI_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Opponent.UCIPoolSize = n
		}
	}
	if v := env("CHESS_POLYGLOT_BOOK_PATH"); v != "" {
		cfg.Opponent.BookPath = v
	}
	if v := env("CHESS_OPENING_MAX_PLY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Opponent.BookMaxPly = n
		}
	}
	if v := env("REDIS_URL"); v != "" {
		cfg.Opponent.RedisURL = v
	}
	if v := env("CHESS_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CHESS_CACHE_TTL: %w", err)
		}
		cfg.Opponent.CacheTTL = d
	}
	if v := env("CHESS_MOVE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CHESS_MOVE_TIMEOUT: %w", err)
		}
		cfg.Opponent.MoveTimeout = d
	}
	if v := env("CHESS_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := env("CHESS_MESSAGES_DIR"); v != "" {
		cfg.MessagesDir = v
	}
	if v := env("CHESS_LANG"); v != "" {
		cfg.Lang = v
	}
	if v := env("CHESS_SELFPLAY_MAX_PLIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SelfPlayMax = n
		}
	}
	return nil
}

func normalize(cfg *AppConfig) {
	cfg.HumanColor = strings.ToLower(strings.TrimSpace(cfg.HumanColor))
	cfg.Opponent.Policy = strings.ToLower(strings.TrimSpace(cfg.Opponent.Policy))
	cfg.Opponent.Fallback = strings.ToLower(strings.TrimSpace(cfg.Opponent.Fallback))
	cfg.StartFEN = strings.TrimSpace(cfg.StartFEN)
	cfg.Lang = strings.ToLower(strings.TrimSpace(cfg.Lang))
}

func env(key string) string { return strings.TrimSpace(os.Getenv(key)) }
