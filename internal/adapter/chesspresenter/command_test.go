package chesspresenter

import (
	"errors"
	"testing"

	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/session"
)

func TestParseCommandClicks(t *testing.T) {
	e2, e4 := domain.MustPosition("e2"), domain.MustPosition("e4")
	cases := map[string][]session.Event{
		"click e2": {session.SquareClicked{Pos: e2}},
		"E2":       {session.SquareClicked{Pos: e2}},
		"e2 e4":    {session.SquareClicked{Pos: e2}, session.SquareClicked{Pos: e4}},
		"e2e4":     {session.SquareClicked{Pos: e2}, session.SquareClicked{Pos: e4}},
	}
	for in, want := range cases {
		cmd, err := ParseCommand(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if cmd.Kind != CmdEvents || len(cmd.Events) != len(want) {
			t.Fatalf("%q: %+v", in, cmd)
		}
		for i := range want {
			if cmd.Events[i] != want[i] {
				t.Fatalf("%q event %d = %v", in, i, cmd.Events[i])
			}
		}
	}
}

func TestParseCommandOthers(t *testing.T) {
	cmd, err := ParseCommand("promote N")
	if err != nil || cmd.Events[0] != (session.PromotionPieceChosen{Kind: domain.Knight}) {
		t.Fatalf("promote: %+v %v", cmd, err)
	}
	if cmd, _ := ParseCommand("new"); cmd.Events[0] != (session.NewGameRequested{}) {
		t.Fatalf("new: %+v", cmd)
	}
	if cmd, _ := ParseCommand("png Out.PNG"); cmd.Kind != CmdPNG || cmd.Arg != "Out.PNG" {
		t.Fatalf("png: %+v", cmd)
	}
	if cmd, _ := ParseCommand("png"); cmd.Arg != "board.png" {
		t.Fatalf("png default: %+v", cmd)
	}
	for in, kind := range map[string]CommandKind{"board": CmdBoard, "help": CmdHelp, "quit": CmdQuit} {
		if cmd, err := ParseCommand(in); err != nil || cmd.Kind != kind {
			t.Fatalf("%q: %+v %v", in, cmd, err)
		}
	}
}

func TestParseCommandErrors(t *testing.T) {
	if _, err := ParseCommand("   "); !errors.Is(err, ErrEmptyCommand) {
		t.Fatalf("empty: %v", err)
	}
	if _, err := ParseCommand("castle please"); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("unknown: %v", err)
	}
	var serr SquareError
	if _, err := ParseCommand("click z9"); !errors.As(err, &serr) || serr.Input != "z9" {
		t.Fatalf("square: %v", err)
	}
	var perr PieceError
	if _, err := ParseCommand("promote x"); !errors.As(err, &perr) {
		t.Fatalf("piece: %v", err)
	}
}
