package chesspresenter

import (
	"fmt"
	"strings"

	"github.com/park285/cheese-desk/internal/msgcat"
	"github.com/park285/cheese-desk/pkg/chessdto"
)

// Formatter renders view DTOs into status lines through the message catalog.
type Formatter struct {
	cat    *msgcat.Catalog
	source string
}

// NewFormatter builds a formatter. source names the opponent in the
// thinking line.
func NewFormatter(cat *msgcat.Catalog, source string) *Formatter {
	return &Formatter{cat: cat, source: source}
}

func (f *Formatter) text(key, fallback string, data map[string]any) string {
	if f == nil {
		return fallback
	}
	return f.cat.Text(key, fallback, data)
}

func (f *Formatter) Welcome() string { return f.text("cli.welcome", "cheese-desk", nil) }

func (f *Formatter) Help() string {
	return strings.TrimRight(f.text("cli.help", "click <sq> | <from> <to> | promote <piece> | new | board | png <file> | quit", nil), "\n")
}

func (f *Formatter) Turn(color string) string {
	return f.text("ui.turn", "Turn: "+color, map[string]any{"Turn": color})
}

func (f *Formatter) Started(human string) string {
	return f.text("game.started", "You play "+human+".", map[string]any{"Human": human})
}

func (f *Formatter) Unknown(input string) string {
	return f.text("cli.unknown", "Unknown command: "+input, map[string]any{"Input": input})
}

func (f *Formatter) BadSquare(input string) string {
	return f.text("cli.bad_square", "Not a square: "+input, map[string]any{"Input": input})
}

func (f *Formatter) BadPiece(input string) string {
	return f.text("cli.bad_piece", "Not a promotion piece: "+input, map[string]any{"Input": input})
}

func (f *Formatter) PNGWritten(path string) string {
	return f.text("cli.png_written", "Wrote "+path, map[string]any{"Path": path})
}

func (f *Formatter) Fatal(err error) string {
	return f.text("cli.fatal", "Session stopped: "+err.Error(), map[string]any{"Err": err.Error()})
}

// Status lists what the player needs besides the board, most urgent first.
func (f *Formatter) Status(state chessdto.ViewState) []string {
	var lines []string
	switch state.State {
	case "awaiting_opponent_move":
		lines = append(lines, f.text("ui.thinking", "Opponent is thinking...", map[string]any{"Source": f.source}))
	case "awaiting_promotion_choice":
		if p := state.Promotion; p != nil {
			lines = append(lines, f.text("ui.promotion", "Promote to q, r, b or n", map[string]any{"From": p.From, "To": p.To}))
		}
	case "awaiting_second_click":
		lines = append(lines, f.text("ui.selected", "Selected "+state.Selected, map[string]any{"Square": state.Selected}))
	}
	if state.LastMove != "" {
		lines = append(lines, f.text("ui.last_move", "Last move: "+state.LastMove, map[string]any{"Move": state.LastMove}))
	}
	if o := state.Opening; o != nil {
		lines = append(lines, f.text("game.opening", o.Code+" "+o.Title, map[string]any{"Code": o.Code, "Title": o.Title}))
	}
	if m := formatMaterial(state.Material); m != "" {
		lines = append(lines, m)
	}
	return lines
}

func formatMaterial(score chessdto.MaterialScore) string {
	switch diff := score.Diff(); {
	case diff > 0:
		return fmt.Sprintf("Material: White +%d", diff)
	case diff < 0:
		return fmt.Sprintf("Material: Black +%d", -diff)
	}
	return ""
}
