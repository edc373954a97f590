package session

import (
	"context"
	"errors"
	"testing"

	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/rules"
)

func scripted(t *testing.T, moves ...string) MoveSource {
	t.Helper()
	i := 0
	return MoveSourceFunc(func(_ context.Context, b rules.Board) (domain.Move, error) {
		if i >= len(moves) {
			return domain.Move{}, errors.New("script exhausted")
		}
		mv, err := b.ParseUCI(moves[i])
		i++
		return mv, err
	})
}

func TestSelfPlayFoolsMate(t *testing.T) {
	var plies int
	res, err := SelfPlay(context.Background(), SelfPlayConfig{
		White:  scripted(t, "f2f3", "g2g4"),
		Black:  scripted(t, "e7e5", "d8h4"),
		OnMove: func(ply int, _ domain.Move, _ rules.Board) { plies = ply },
	}, nil)
	if err != nil {
		t.Fatalf("SelfPlay: %v", err)
	}
	if !res.Finished || res.Message != "Black wins!" {
		t.Fatalf("res = %+v", res)
	}
	if len(res.Moves) != 4 || plies != 4 {
		t.Fatalf("moves = %d, callbacks = %d", len(res.Moves), plies)
	}
}

func TestSelfPlayStopsAtPlyCap(t *testing.T) {
	res, err := SelfPlay(context.Background(), SelfPlayConfig{
		White:    firstLegal(),
		Black:    firstLegal(),
		MaxPlies: 6,
	}, nil)
	if err != nil {
		t.Fatalf("SelfPlay: %v", err)
	}
	if res.Finished || len(res.Moves) != 6 {
		t.Fatalf("res = %+v", res)
	}
	if res.Final.Turn() != domain.White {
		t.Fatalf("white should be on move after 6 plies")
	}
}

func TestSelfPlayRejectsIllegalMove(t *testing.T) {
	bad := MoveSourceFunc(func(context.Context, rules.Board) (domain.Move, error) {
		return domain.Plain(sq("e2"), sq("e5")), nil
	})
	_, err := SelfPlay(context.Background(), SelfPlayConfig{White: bad, Black: firstLegal()}, nil)
	if !errors.Is(err, ErrContractViolation) {
		t.Fatalf("err = %v", err)
	}
}

func TestSelfPlayRejectsDecidedStart(t *testing.T) {
	stalemate, err := rules.BoardFromFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if err != nil {
		t.Fatalf("fen: %v", err)
	}
	_, err = SelfPlay(context.Background(), SelfPlayConfig{
		StartingBoard: stalemate,
		White:         scripted(t),
		Black:         scripted(t),
	}, nil)
	if !errors.Is(err, rules.ErrTerminalPosition) {
		t.Fatalf("err = %v", err)
	}
}
