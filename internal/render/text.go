package render

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/session"
)

// Text draws a session view for a terminal. With Color off the output is
// plain text and stable for tests.
type Text struct {
	Color   bool
	Symbols bool // unicode glyphs instead of FEN letters

	light, dark, mark, white, black, dim *color.Color
}

func NewText(useColor, symbols bool) *Text {
	t := &Text{
		Color:   useColor,
		Symbols: symbols,
		light:   color.New(color.BgHiYellow),
		dark:    color.New(color.BgYellow),
		mark:    color.New(color.BgGreen),
		white:   color.New(color.FgHiWhite, color.Bold),
		black:   color.New(color.FgBlack, color.Bold),
		dim:     color.New(color.Faint),
	}
	for _, c := range []*color.Color{t.light, t.dark, t.mark, t.white, t.black, t.dim} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return t
}

// Board renders ranks from the human's side followed by the status lines.
func (t *Text) Board(v session.View, turnLine string) string {
	var sb strings.Builder
	marked := map[domain.Position]bool{}
	if v.Selected != nil {
		marked[*v.Selected] = true
	}
	if v.LastMove != nil {
		if from, to, ok := MoveSquares(*v.LastMove, v.Turn.Other()); ok {
			marked[from], marked[to] = true, true
		}
	}

	rows, cols := order(true), order(false)
	if v.HumanColor == domain.Black {
		rows, cols = order(false), order(true)
	}

	for _, row := range rows {
		fmt.Fprintf(&sb, "%d ", row+1)
		for _, col := range cols {
			pos := domain.NewPosition(row, col)
			cell := " . "
			if p, ok := v.Board.PieceAt(pos); ok {
				cell = " " + t.glyph(p) + " "
			}
			bg := t.dark
			if (row+col)%2 == 1 {
				bg = t.light
			}
			if marked[pos] {
				bg = t.mark
			}
			sb.WriteString(bg.Sprint(cell))
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  ")
	for _, col := range cols {
		fmt.Fprintf(&sb, " %c ", 'a'+col)
	}
	sb.WriteByte('\n')

	for _, c := range []domain.Color{domain.White, domain.Black} {
		lost := v.Captured.Of(c)
		if len(lost) == 0 {
			continue
		}
		names := make([]string, 0, len(lost))
		for _, p := range lost {
			names = append(names, t.glyph(p))
		}
		sb.WriteString(t.dim.Sprintf("%s lost: %s", c, strings.Join(names, " ")))
		sb.WriteByte('\n')
	}
	if turnLine != "" {
		sb.WriteString(turnLine)
		sb.WriteByte('\n')
	}
	if v.Message != "" {
		sb.WriteString(v.Message)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (t *Text) glyph(p domain.Piece) string {
	s := p.Letter()
	if t.Symbols {
		s = string(p.Symbol())
	}
	if p.Color == domain.White {
		return t.white.Sprint(s)
	}
	return t.black.Sprint(s)
}

// order lists 0..7, or 7..0 when reversed.
func order(reversed bool) []int {
	out := make([]int, domain.BoardSize)
	for i := range out {
		out[i] = i
		if reversed {
			out[i] = domain.BoardSize - 1 - i
		}
	}
	return out
}
