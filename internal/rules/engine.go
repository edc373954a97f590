package rules

import (
	nchess "github.com/corentings/chess/v2"

	"github.com/park285/cheese-desk/internal/domain"
)

type ResultKind int

const (
	ResultContinuing ResultKind = iota
	ResultVictory
	ResultStalemate
	ResultIllegalMove
)

func (k ResultKind) String() string {
	switch k {
	case ResultContinuing:
		return "continuing"
	case ResultVictory:
		return "victory"
	case ResultStalemate:
		return "stalemate"
	case ResultIllegalMove:
		return "illegal_move"
	}
	return "unknown"
}

// GameResult is the outcome of applying one move. Only the accessor matching
// Kind carries a meaningful value.
type GameResult struct {
	kind   ResultKind
	next   Board
	final  Board
	winner domain.Color
	move   domain.Move
}

func Continuing(next Board) GameResult {
	return GameResult{kind: ResultContinuing, next: next}
}

func Victory(winner domain.Color) GameResult {
	return GameResult{kind: ResultVictory, winner: winner}
}

func Stalemate() GameResult { return GameResult{kind: ResultStalemate} }

func IllegalMove(m domain.Move) GameResult {
	return GameResult{kind: ResultIllegalMove, move: m}
}

// WithFinal attaches the terminal position to a Victory or Stalemate.
func (r GameResult) WithFinal(b Board) GameResult {
	r.final = b
	return r
}

func (r GameResult) Kind() ResultKind     { return r.kind }
func (r GameResult) Final() Board         { return r.final }
func (r GameResult) Next() Board          { return r.next }
func (r GameResult) Winner() domain.Color { return r.winner }
func (r GameResult) Move() domain.Move    { return r.move }

// Engine is the chess rules authority. Implementations must be pure.
type Engine interface {
	IsLegal(b Board, m domain.Move, c domain.Color) bool
	Apply(b Board, m domain.Move) GameResult
}

// StandardEngine implements Engine with FIDE rules.
type StandardEngine struct{}

func NewStandardEngine() StandardEngine { return StandardEngine{} }

func (StandardEngine) IsLegal(b Board, m domain.Move, c domain.Color) bool {
	if b.IsZero() || b.pos.Turn() != toColor(c) {
		return false
	}
	_, ok := b.match(m)
	return ok
}

func (StandardEngine) Apply(b Board, m domain.Move) GameResult {
	if b.IsZero() {
		return IllegalMove(m)
	}
	mv, ok := b.match(m)
	if !ok {
		return IllegalMove(m)
	}
	mover := fromColor(b.pos.Turn())
	next := b.pos.Update(mv)
	if next == nil {
		return IllegalMove(m)
	}
	switch next.Status() {
	case nchess.Checkmate:
		return Victory(mover).WithFinal(Board{pos: next})
	case nchess.Stalemate:
		return Stalemate().WithFinal(Board{pos: next})
	}
	return Continuing(Board{pos: next})
}
