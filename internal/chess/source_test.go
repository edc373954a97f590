package chess

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/park285/cheese-desk/internal/config"
	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/movecache"
	"github.com/park285/cheese-desk/internal/rules"
)

func mustBoard(t *testing.T, fen string) rules.Board {
	t.Helper()
	b, err := rules.BoardFromFEN(fen)
	if err != nil {
		t.Fatalf("BoardFromFEN: %v", err)
	}
	return b
}

func sq(s string) domain.Position { return domain.MustPosition(s) }

func TestMinimaxFindsMateInOne(t *testing.T) {
	b := mustBoard(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	mv, err := Minimax{Depth: 2}.SelectMove(context.Background(), b)
	if err != nil {
		t.Fatalf("SelectMove: %v", err)
	}
	if mv != domain.Plain(sq("a1"), sq("a8")) {
		t.Fatalf("best move = %v", mv)
	}
}

func TestMinimaxTakesHangingQueen(t *testing.T) {
	b := mustBoard(t, "4k3/8/8/3q4/8/8/8/3RK3 w - - 0 1")
	mv, err := Minimax{Depth: 1}.SelectMove(context.Background(), b)
	if err != nil {
		t.Fatalf("SelectMove: %v", err)
	}
	if mv != domain.Plain(sq("d1"), sq("d5")) {
		t.Fatalf("best move = %v", mv)
	}
}

func TestWorstMoveAvoidsMate(t *testing.T) {
	b := mustBoard(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	mv, err := Minimax{Depth: 1, Worst: true}.SelectMove(context.Background(), b)
	if err != nil {
		t.Fatalf("SelectMove: %v", err)
	}
	if mv == domain.Plain(sq("a1"), sq("a8")) {
		t.Fatalf("worst policy played the mate")
	}
	if !rules.NewStandardEngine().IsLegal(b, mv, domain.White) {
		t.Fatalf("worst move %v is illegal", mv)
	}
}

func TestScoreMovesRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ScoreMoves(ctx, rules.StartingBoard(), 3); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestNoLegalMoves(t *testing.T) {
	b := mustBoard(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if _, err := (Minimax{Depth: 1}).SelectMove(context.Background(), b); !errors.Is(err, ErrNoLegalMoves) {
		t.Fatalf("err = %v", err)
	}
	if _, err := NewRandom(1).SelectMove(context.Background(), b); !errors.Is(err, ErrNoLegalMoves) {
		t.Fatalf("err = %v", err)
	}
}

func TestRandomIsLegal(t *testing.T) {
	src := NewRandom(42)
	b := rules.StartingBoard()
	eng := rules.NewStandardEngine()
	for i := 0; i < 10; i++ {
		mv, err := src.SelectMove(context.Background(), b)
		if err != nil {
			t.Fatalf("SelectMove: %v", err)
		}
		if !eng.IsLegal(b, mv, domain.White) {
			t.Fatalf("random move %v is illegal", mv)
		}
	}
}

func TestSelectCandidatePlaysForcedMate(t *testing.T) {
	cands := []Scored{{UCI: "a1a8", Score: mateScore - 1}, {UCI: "g1f1", Score: 10}}
	for i := 0; i < 10; i++ {
		got, err := SelectCandidate(defaultProfile, cands, rand.New(rand.NewSource(int64(i))))
		if err != nil || got.UCI != "a1a8" {
			t.Fatalf("got %v, %v", got, err)
		}
	}
}

func TestSelectCandidateStaysInTopChoices(t *testing.T) {
	cands := []Scored{
		{UCI: "a", Score: 300}, {UCI: "b", Score: 290}, {UCI: "c", Score: 280},
		{UCI: "d", Score: -500}, {UCI: "e", Score: -900},
	}
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		got, err := SelectCandidate(defaultProfile, cands, r)
		if err != nil {
			t.Fatalf("SelectCandidate: %v", err)
		}
		if got.UCI == "d" || got.UCI == "e" {
			t.Fatalf("picked a losing candidate %q", got.UCI)
		}
	}
	if _, err := SelectCandidate(defaultProfile, nil, r); err == nil {
		t.Fatalf("expected error on empty list")
	}
}

func TestHumanizedIsLegal(t *testing.T) {
	b := rules.StartingBoard()
	mv, err := NewHumanized(1, 5).SelectMove(context.Background(), b)
	if err != nil {
		t.Fatalf("SelectMove: %v", err)
	}
	if !rules.NewStandardEngine().IsLegal(b, mv, domain.White) {
		t.Fatalf("humanized move %v is illegal", mv)
	}
}

type countingSource struct {
	calls int
	move  domain.Move
	err   error
}

func (c *countingSource) Name() string { return "counting" }

func (c *countingSource) SelectMove(context.Context, rules.Board) (domain.Move, error) {
	c.calls++
	return c.move, c.err
}

func TestWithCacheMemoises(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	inner := &countingSource{move: domain.Plain(sq("e2"), sq("e4"))}
	src := WithCache(inner, movecache.NewStore(rdb, 0), 3, nil)
	b := rules.StartingBoard()
	for i := 0; i < 3; i++ {
		mv, err := src.SelectMove(context.Background(), b)
		if err != nil {
			t.Fatalf("SelectMove: %v", err)
		}
		if mv != inner.move {
			t.Fatalf("move = %v", mv)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("inner called %d times", inner.calls)
	}
	if src.Name() != "counting+cache" {
		t.Fatalf("name = %q", src.Name())
	}
}

func TestWithFallback(t *testing.T) {
	primary := &countingSource{err: errors.New("down")}
	backup := &countingSource{move: domain.Plain(sq("d2"), sq("d4"))}
	src := WithFallback(primary, backup, nil)
	mv, err := src.SelectMove(context.Background(), rules.StartingBoard())
	if err != nil || mv != backup.move {
		t.Fatalf("got %v, %v", mv, err)
	}
	if primary.calls != 1 || backup.calls != 1 {
		t.Fatalf("calls = %d/%d", primary.calls, backup.calls)
	}
	if WithFallback(primary, nil, nil) != Source(primary) {
		t.Fatalf("nil fallback should return primary")
	}
}

func TestWithBookNilBookIsTransparent(t *testing.T) {
	inner := &countingSource{}
	if WithBook(inner, nil, 10, 1, nil) != Source(inner) {
		t.Fatalf("nil book should not wrap")
	}
}

func TestNewBuildsChain(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	cfg := config.Defaults().Opponent
	cfg.Depth = 1
	cfg.RedisURL = fmt.Sprintf("redis://%s/0", mr.Addr())
	set, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer set.Close()
	if set.Primary.Name() != "best+cache" {
		t.Fatalf("primary = %q", set.Primary.Name())
	}
	if set.Fallback == nil || set.Fallback.Name() != PolicyRandom {
		t.Fatalf("fallback = %v", set.Fallback)
	}
	if _, err := set.Primary.SelectMove(context.Background(), rules.StartingBoard()); err != nil {
		t.Fatalf("SelectMove: %v", err)
	}

	cfg.Policy = "genius"
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
