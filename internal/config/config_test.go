package config

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/rules"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HumanColor != HumanWhite || cfg.Opponent.Policy != "best" || cfg.Opponent.Depth != 3 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "desk.yaml")
	body := `
human_color: black
start_fen: "7k/P7/8/8/8/8/8/K7 w - - 0 1"
opponent:
  policy: random
  depth: 2
  cache_ttl: 1h
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CHESS_AI_DEPTH", "4")
	t.Setenv("CHESS_OPPONENT_POLICY", "Worst")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HumanColor != HumanBlack {
		t.Fatalf("human = %q", cfg.HumanColor)
	}
	if cfg.Opponent.Policy != "worst" || cfg.Opponent.Depth != 4 {
		t.Fatalf("env did not override yaml: %+v", cfg.Opponent)
	}
	if cfg.Opponent.CacheTTL != time.Hour {
		t.Fatalf("cache ttl = %v", cfg.Opponent.CacheTTL)
	}
	if !strings.HasPrefix(cfg.StartFEN, "7k/P7") {
		t.Fatalf("start fen = %q", cfg.StartFEN)
	}
}

func TestValidationRejectsOutOfRangeDepth(t *testing.T) {
	t.Setenv("CHESS_AI_DEPTH", "9")
	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "Depth") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidationRequiresStockfishForUCI(t *testing.T) {
	t.Setenv("CHESS_OPPONENT_POLICY", "uci")
	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "StockfishPath") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidationRejectsUnknownPolicy(t *testing.T) {
	t.Setenv("CHESS_OPPONENT_POLICY", "genius")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error")
	}
}

func TestBadEnvNumber(t *testing.T) {
	t.Setenv("CHESS_SEED", "abc")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error")
	}
}

func TestResolveHumanColor(t *testing.T) {
	cfg := Defaults()
	if cfg.ResolveHumanColor(nil) != domain.White {
		t.Fatalf("white expected")
	}
	cfg.HumanColor = HumanBlack
	if cfg.ResolveHumanColor(nil) != domain.Black {
		t.Fatalf("black expected")
	}
	cfg.HumanColor = HumanRandom
	r := rand.New(rand.NewSource(7))
	seen := map[domain.Color]bool{}
	for i := 0; i < 64; i++ {
		seen[cfg.ResolveHumanColor(r)] = true
	}
	if !seen[domain.White] || !seen[domain.Black] {
		t.Fatalf("random never produced both colors: %v", seen)
	}
}

func TestValidationRejectsDecidedStart(t *testing.T) {
	for _, fen := range []string{
		"k7/8/8/8/8/8/5PPP/r5K1 w - - 0 1",
		"7k/5Q2/6K1/8/8/8/8/8 b - - 0 1",
	} {
		t.Setenv("CHESS_START_FEN", fen)
		if _, err := Load(""); !errors.Is(err, rules.ErrTerminalPosition) {
			t.Fatalf("%q: err = %v", fen, err)
		}
	}
}

func TestValidationRejectsBadStartFEN(t *testing.T) {
	t.Setenv("CHESS_START_FEN", "not a position")
	if _, err := Load(""); !errors.Is(err, rules.ErrInvalidFEN) {
		t.Fatalf("err = %v", err)
	}
}
