package session

import (
	"fmt"

	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/ledger"
	"github.com/park285/cheese-desk/internal/rules"
)

// played is one move carried through the engine.
type played struct {
	board   rules.Board
	kind    rules.ResultKind
	uci     string
	message string
}

func (p played) over() bool { return p.kind != rules.ResultContinuing }

// playMove applies an already legality-checked move. The captured piece is
// recorded before the board is replaced; a decided game keeps the final board.
func playMove(engine rules.Engine, msgs Messages, board rules.Board, captures *ledger.Ledger, mv domain.Move) (played, error) {
	if to, ok := mv.Target(); ok {
		if victim, ok := board.PieceAt(to); ok {
			captures.Record(victim)
		}
	}
	uci, err := board.UCI(mv)
	if err != nil {
		uci = mv.String()
	}

	res := engine.Apply(board, mv)
	out := played{board: board, kind: res.Kind(), uci: uci}
	switch res.Kind() {
	case rules.ResultContinuing:
		out.board = res.Next()
	case rules.ResultVictory:
		out.message = msgs.Victory(res.Winner())
	case rules.ResultStalemate:
		out.message = msgs.Stalemate()
	default:
		return out, fmt.Errorf("engine rejected validated move %s", mv)
	}
	if out.over() && !res.Final().IsZero() {
		out.board = res.Final()
	}
	return out, nil
}
