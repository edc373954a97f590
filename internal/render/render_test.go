package render

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"strings"
	"testing"

	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/ledger"
	"github.com/park285/cheese-desk/internal/rules"
	"github.com/park285/cheese-desk/internal/session"
)

func startView(human domain.Color) session.View {
	b := rules.StartingBoard()
	return session.View{Board: b, Turn: b.Turn(), HumanColor: human}
}

func TestTextBoardWhiteSide(t *testing.T) {
	out := NewText(false, false).Board(startView(domain.White), "Turn: White")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if !strings.HasPrefix(lines[0], "8  r  n  b  q  k  b  n  r") {
		t.Fatalf("top rank = %q", lines[0])
	}
	if !strings.HasPrefix(lines[7], "1  R  N  B  Q  K  B  N  R") {
		t.Fatalf("bottom rank = %q", lines[7])
	}
	if strings.TrimSpace(lines[8]) != "a  b  c  d  e  f  g  h" {
		t.Fatalf("files = %q", lines[8])
	}
	if lines[len(lines)-1] != "Turn: White" {
		t.Fatalf("turn line = %q", lines[len(lines)-1])
	}
}

func TestTextBoardBlackSide(t *testing.T) {
	out := NewText(false, false).Board(startView(domain.Black), "")
	lines := strings.Split(out, "\n")
	if !strings.HasPrefix(lines[0], "1  R  N  B  K  Q  B  N  R") {
		t.Fatalf("top rank = %q", lines[0])
	}
	if strings.TrimSpace(lines[8]) != "h  g  f  e  d  c  b  a" {
		t.Fatalf("files = %q", lines[8])
	}
}

func TestTextBoardCapturesAndMessage(t *testing.T) {
	v := startView(domain.White)
	v.Captured = ledger.Snapshot{Black: []domain.Piece{{Kind: domain.Queen, Color: domain.Black}}}
	v.Message = "White wins!"
	out := NewText(false, false).Board(v, "")
	if !strings.Contains(out, "Black lost: q") || !strings.HasSuffix(out, "White wins!\n") {
		t.Fatalf("out = %q", out)
	}
}

func TestMoveSquaresCastles(t *testing.T) {
	from, to, ok := MoveSquares(domain.KingSideCastle(), domain.Black)
	if !ok || from != domain.MustPosition("e8") || to != domain.MustPosition("g8") {
		t.Fatalf("got %v %v %v", from, to, ok)
	}
	from, to, _ = MoveSquares(domain.QueenSideCastle(), domain.White)
	if from != domain.MustPosition("e1") || to != domain.MustPosition("c1") {
		t.Fatalf("got %v %v", from, to)
	}
}

func TestMaterialDiff(t *testing.T) {
	snap := ledger.Snapshot{
		Black: []domain.Piece{{Kind: domain.Rook, Color: domain.Black}},
		White: []domain.Piece{{Kind: domain.Pawn, Color: domain.White}},
	}
	if got := MaterialDiff(snap); got != 4 {
		t.Fatalf("diff = %d", got)
	}
	if formatMaterialDiff(ledger.Snapshot{}) != "0" || formatMaterialDiff(snap) != "+4" {
		t.Fatalf("format broken")
	}
}

func TestRenderPNG(t *testing.T) {
	v := startView(domain.White)
	mv := domain.Plain(domain.MustPosition("e2"), domain.MustPosition("e4"))
	v.LastMove = &mv
	v.Turn = domain.Black
	sel := domain.MustPosition("g8")
	v.Selected = &sel
	v.Captured = ledger.Snapshot{White: []domain.Piece{{Kind: domain.Pawn, Color: domain.White}}}

	r := NewPNGRenderer(32)
	raw, err := r.RenderPNG(context.Background(), v.Board, OptionsFor(v, "desk", "Turn: Black"))
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := 32*8 + sideMargin*2
	if img.Bounds().Dx() != want {
		t.Fatalf("width = %d, want %d", img.Bounds().Dx(), want)
	}
	// a1 corner pixel is a dark square with no overlay.
	px := img.At(sideMargin+1, topMargin+32*8-2)
	if r, g, b, _ := px.RGBA(); r>>8 != 187 || g>>8 != 136 || b>>8 != 96 {
		t.Fatalf("a1 pixel = %v", px)
	}
}

func TestRenderPNGErrors(t *testing.T) {
	r := NewPNGRenderer(0)
	if _, err := r.RenderPNG(context.Background(), rules.Board{}, Options{}); !errors.Is(err, ErrEmptyBoard) {
		t.Fatalf("err = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.RenderPNG(ctx, rules.StartingBoard(), Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestPieceAssetsLoad(t *testing.T) {
	for _, c := range []domain.Color{domain.White, domain.Black} {
		for _, k := range []domain.PieceKind{domain.King, domain.Queen, domain.Rook, domain.Bishop, domain.Knight, domain.Pawn} {
			if _, err := pieceImage(domain.Piece{Kind: k, Color: c}, 16); err != nil {
				t.Fatalf("%v %v: %v", c, k, err)
			}
		}
	}
}
