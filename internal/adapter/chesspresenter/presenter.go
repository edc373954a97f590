package chesspresenter

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/park285/cheese-desk/internal/render"
	"github.com/park285/cheese-desk/internal/session"
	"github.com/park285/cheese-desk/pkg/chessdto"
)

// OpeningNamer maps a UCI move list to an ECO code and title.
type OpeningNamer func(moves []string) (code, title string, ok bool)

// Presenter writes boards and status lines to a terminal without coupling
// to the command loop.
type Presenter struct {
	out       io.Writer
	text      *render.Text
	png       render.BoardRenderer
	formatter *Formatter
	opening   OpeningNamer
}

func NewPresenter(out io.Writer, text *render.Text, png render.BoardRenderer, formatter *Formatter, opening OpeningNamer) *Presenter {
	return &Presenter{out: out, text: text, png: png, formatter: formatter, opening: opening}
}

func (p *Presenter) Formatter() *Formatter { return p.formatter }

func (p *Presenter) Line(s string) {
	if strings.TrimSpace(s) == "" {
		return
	}
	fmt.Fprintln(p.out, s)
}

// Show draws a local session view.
func (p *Presenter) Show(v session.View) {
	state := ToDTO(v)
	if p.opening != nil {
		if code, title, ok := p.opening(v.Moves); ok {
			state.Opening = &chessdto.Opening{Code: code, Title: title}
		}
	}
	p.draw(v, state)
}

// ShowRemote draws a view received from a desk server.
func (p *Presenter) ShowRemote(state chessdto.ViewState) error {
	v, err := FromDTO(state)
	if err != nil {
		return err
	}
	p.draw(v, state)
	return nil
}

func (p *Presenter) draw(v session.View, state chessdto.ViewState) {
	fmt.Fprint(p.out, p.text.Board(v, p.formatter.Turn(state.Turn)))
	for _, line := range p.formatter.Status(state) {
		p.Line(line)
	}
}

// WritePNG renders v to path.
func (p *Presenter) WritePNG(ctx context.Context, v session.View, path string) error {
	title := v.Message
	if title == "" && p.opening != nil {
		if code, name, ok := p.opening(v.Moves); ok {
			title = code + " " + name
		}
	}
	raw, err := p.png.RenderPNG(ctx, v.Board, render.OptionsFor(v, title, p.formatter.Turn(v.Turn.String())))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	p.Line(p.formatter.PNGWritten(path))
	return nil
}
