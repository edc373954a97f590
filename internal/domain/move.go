package domain

import "fmt"

type MoveKind int

const (
	MovePlain MoveKind = iota
	MoveKingSideCastle
	MoveQueenSideCastle
	MovePromotion
)

// Move is a move intent. From/To are meaningless for castles; Promote only
// for promotions.
type Move struct {
	Kind    MoveKind
	From    Position
	To      Position
	Promote PieceKind
}

func Plain(from, to Position) Move { return Move{Kind: MovePlain, From: from, To: to} }

func KingSideCastle() Move { return Move{Kind: MoveKingSideCastle} }

func QueenSideCastle() Move { return Move{Kind: MoveQueenSideCastle} }

func Promotion(from, to Position, kind PieceKind) Move {
	return Move{Kind: MovePromotion, From: from, To: to, Promote: kind}
}

// Target is the destination square of plain and promotion moves.
func (m Move) Target() (Position, bool) {
	switch m.Kind {
	case MovePlain, MovePromotion:
		return m.To, true
	}
	return Position{}, false
}

func (m Move) String() string {
	switch m.Kind {
	case MoveKingSideCastle:
		return "O-O"
	case MoveQueenSideCastle:
		return "O-O-O"
	case MovePromotion:
		return fmt.Sprintf("%s%s=%s", m.From, m.To, Piece{Kind: m.Promote, Color: White}.Letter())
	}
	return fmt.Sprintf("%s%s", m.From, m.To)
}
