package uci

import (
	"testing"
	"time"
)

func TestPositionCommand(t *testing.T) {
	if got := positionCommand(""); got != "position startpos\n" {
		t.Fatalf("got %q", got)
	}
	fen := "7k/P7/8/8/8/8/8/K7 w - - 0 1"
	if got := positionCommand(fen); got != "position fen "+fen+"\n" {
		t.Fatalf("got %q", got)
	}
}

func TestGoCommand(t *testing.T) {
	got, err := goCommand(Limits{Depth: 4})
	if err != nil || got != "go depth 4" {
		t.Fatalf("got %q, %v", got, err)
	}
	if _, err := goCommand(Limits{}); err == nil {
		t.Fatalf("expected error without limits")
	}
}

func TestSearchTimeoutClamped(t *testing.T) {
	if d := searchTimeout(Limits{Depth: 1}); d != 6*time.Second {
		t.Fatalf("low depth timeout = %v", d)
	}
	if d := searchTimeout(Limits{Depth: 200}); d != 20*time.Second {
		t.Fatalf("high depth timeout = %v", d)
	}
}

func TestParseInfo(t *testing.T) {
	info, ok := parseInfo("info depth 12 seldepth 18 multipv 1 score cp -34 nodes 1000 pv e7e5 g1f3 b8c6")
	if !ok {
		t.Fatalf("expected info")
	}
	if info.Depth != 12 || info.EvalCP != -34 || info.Mate {
		t.Fatalf("info = %+v", info)
	}
	if len(info.Principal) != 3 || info.Principal[0] != "e7e5" {
		t.Fatalf("pv = %v", info.Principal)
	}

	info, ok = parseInfo("info depth 5 score mate -2 pv h7h6 d1h5")
	if !ok || !info.Mate || info.EvalCP >= 0 {
		t.Fatalf("mate info = %+v, %v", info, ok)
	}

	if _, ok := parseInfo("info string NNUE evaluation enabled"); ok {
		t.Fatalf("string info must be skipped")
	}
}

func TestNewPoolRequiresBinary(t *testing.T) {
	if _, err := NewPool(PoolConfig{}, nil); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := NewPool(PoolConfig{BinaryPath: "/nonexistent/stockfish"}, nil); err == nil {
		t.Fatalf("expected error for missing binary")
	}
}
