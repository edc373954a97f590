package render

import (
	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/session"
)

// OptionsFor derives drawing options from a session view. The board is
// oriented toward the human player.
func OptionsFor(v session.View, title, turn string) Options {
	opts := Options{
		Title:    title,
		Turn:     turn,
		Flip:     v.HumanColor == domain.Black,
		Selected: v.Selected,
		Captured: v.Captured,
	}
	if v.LastMove != nil {
		if from, to, ok := MoveSquares(*v.LastMove, v.Turn.Other()); ok {
			opts.Highlight = &Highlight{From: from, To: to, Mover: v.Turn.Other()}
		}
	}
	return opts
}

// MoveSquares returns the king's squares for castles and from/to otherwise.
func MoveSquares(m domain.Move, mover domain.Color) (from, to domain.Position, ok bool) {
	home := 0
	if mover == domain.Black {
		home = domain.BoardSize - 1
	}
	switch m.Kind {
	case domain.MoveKingSideCastle:
		return domain.NewPosition(home, 4), domain.NewPosition(home, 6), true
	case domain.MoveQueenSideCastle:
		return domain.NewPosition(home, 4), domain.NewPosition(home, 2), true
	case domain.MovePlain, domain.MovePromotion:
		return m.From, m.To, true
	}
	return domain.Position{}, domain.Position{}, false
}
