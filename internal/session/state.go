package session

import (
	"context"

	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/ledger"
	"github.com/park285/cheese-desk/internal/rules"
)

type StateKind int

const (
	AwaitingFirstClick StateKind = iota
	AwaitingSecondClick
	AwaitingPromotionChoice
	AwaitingOpponentMove
	GameOver
)

func (s StateKind) String() string {
	switch s {
	case AwaitingFirstClick:
		return "awaiting_first_click"
	case AwaitingSecondClick:
		return "awaiting_second_click"
	case AwaitingPromotionChoice:
		return "awaiting_promotion_choice"
	case AwaitingOpponentMove:
		return "awaiting_opponent_move"
	case GameOver:
		return "game_over"
	}
	return "unknown"
}

// Event is one inbound input for the controller.
type Event interface {
	eventName() string
}

type SquareClicked struct {
	Pos domain.Position
}

type PromotionPieceChosen struct {
	Kind domain.PieceKind
}

// OpponentMoveReady carries the reply to the Request with the same Seq.
type OpponentMoveReady struct {
	Move domain.Move
	Seq  uint64
}

type NewGameRequested struct{}

func (SquareClicked) eventName() string        { return "square_clicked" }
func (PromotionPieceChosen) eventName() string { return "promotion_piece_chosen" }
func (OpponentMoveReady) eventName() string    { return "opponent_move_ready" }
func (NewGameRequested) eventName() string     { return "new_game_requested" }

// Request asks the opponent source for a move on Board. Board is a private
// copy owned by the receiver.
type Request struct {
	Seq   uint64
	Board rules.Board
	Color domain.Color
}

// MoveSource selects a legal move for the side to move on b.
type MoveSource interface {
	SelectMove(ctx context.Context, b rules.Board) (domain.Move, error)
}

type MoveSourceFunc func(ctx context.Context, b rules.Board) (domain.Move, error)

func (f MoveSourceFunc) SelectMove(ctx context.Context, b rules.Board) (domain.Move, error) {
	return f(ctx, b)
}

type PendingPromotion struct {
	From domain.Position
	To   domain.Position
}

// View is everything a presentation layer may read.
type View struct {
	SessionID  string
	State      StateKind
	Board      rules.Board
	Turn       domain.Color
	HumanColor domain.Color
	Selected   *domain.Position
	Promotion  *PendingPromotion
	Captured   ledger.Snapshot
	LastMove   *domain.Move
	Plies      int
	Moves      []string // UCI, oldest first
	Message    string
}

func (v View) Over() bool { return v.State == GameOver }
