package chesspresenter

import (
	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/render"
	"github.com/park285/cheese-desk/internal/rules"
	"github.com/park285/cheese-desk/internal/session"
	"github.com/park285/cheese-desk/pkg/chessdto"
)

// ToDTO flattens a view into its JSON form.
func ToDTO(v session.View) chessdto.ViewState {
	out := chessdto.ViewState{
		SessionID:  v.SessionID,
		State:      v.State.String(),
		Turn:       v.Turn.String(),
		HumanColor: v.HumanColor.String(),
		MovesUCI:   append([]string{}, v.Moves...),
		Plies:      v.Plies,
		Message:    v.Message,
		Over:       v.Over(),
		Captured: chessdto.CapturedPieces{
			White: letters(v.Captured.White),
			Black: letters(v.Captured.Black),
		},
	}
	if !v.Board.IsZero() {
		out.FEN = v.Board.FEN()
	}
	out.Material = chessdto.MaterialScore{
		White: render.Material(v.Captured.Black),
		Black: render.Material(v.Captured.White),
	}
	if v.Selected != nil {
		out.Selected = v.Selected.String()
	}
	if v.Promotion != nil {
		out.Promotion = &chessdto.PendingPromotion{
			From:    v.Promotion.From.String(),
			To:      v.Promotion.To.String(),
			Choices: []string{"q", "r", "b", "n"},
		}
	}
	if v.LastMove != nil {
		out.LastMove = v.LastMove.String()
	}
	return out
}

func letters(ps []domain.Piece) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Letter())
	}
	return out
}

// FromDTO rebuilds enough of a view to draw a remote session locally.
// Last-move highlighting is not recovered.
func FromDTO(s chessdto.ViewState) (session.View, error) {
	b, err := rules.BoardFromFEN(s.FEN)
	if err != nil {
		return session.View{}, err
	}
	human, err := domain.ParseColor(s.HumanColor)
	if err != nil {
		return session.View{}, err
	}
	v := session.View{
		SessionID:  s.SessionID,
		Board:      b,
		Turn:       b.Turn(),
		HumanColor: human,
		Plies:      s.Plies,
		Moves:      s.MovesUCI,
		Message:    s.Message,
	}
	for k := session.AwaitingFirstClick; k <= session.GameOver; k++ {
		if k.String() == s.State {
			v.State = k
		}
	}
	if s.Selected != "" {
		if pos, err := domain.ParsePosition(s.Selected); err == nil {
			v.Selected = &pos
		}
	}
	v.Captured.White = pieces(s.Captured.White, domain.White)
	v.Captured.Black = pieces(s.Captured.Black, domain.Black)
	return v, nil
}

func pieces(letters []string, c domain.Color) []domain.Piece {
	out := make([]domain.Piece, 0, len(letters))
	for _, l := range letters {
		if k, err := domain.ParsePieceKind(l); err == nil {
			out = append(out, domain.Piece{Kind: k, Color: c})
		}
	}
	return out
}
