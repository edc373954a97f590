package domain

import (
	"fmt"
	"strings"
)

const BoardSize = 8

// Position is a board coordinate. Row 0 is rank 1, Col 0 is file a.
type Position struct {
	Row int
	Col int
}

func NewPosition(row, col int) Position { return Position{Row: row, Col: col} }

func (p Position) Valid() bool {
	return p.Row >= 0 && p.Row < BoardSize && p.Col >= 0 && p.Col < BoardSize
}

func (p Position) String() string {
	if !p.Valid() {
		return "-"
	}
	return fmt.Sprintf("%c%d", 'a'+p.Col, p.Row+1)
}

// ParsePosition reads algebraic square names such as "e4".
func ParsePosition(s string) (Position, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if len(v) != 2 {
		return Position{}, fmt.Errorf("invalid square %q", s)
	}
	p := Position{Row: int(v[1] - '1'), Col: int(v[0] - 'a')}
	if !p.Valid() {
		return Position{}, fmt.Errorf("invalid square %q", s)
	}
	return p, nil
}

// MustPosition is ParsePosition for literals.
func MustPosition(s string) Position {
	p, err := ParsePosition(s)
	if err != nil {
		panic(err)
	}
	return p
}

type Color int

const (
	White Color = iota
	Black
)

func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "White"
	}
	return "Black"
}

// PromotionRank is the row a pawn of color c promotes on.
func (c Color) PromotionRank() int {
	if c == White {
		return BoardSize - 1
	}
	return 0
}

func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	default:
		return White, fmt.Errorf("invalid color %q", s)
	}
}

type PieceKind int

const (
	King PieceKind = iota
	Queen
	Rook
	Bishop
	Knight
	Pawn
)

func (k PieceKind) String() string {
	switch k {
	case King:
		return "king"
	case Queen:
		return "queen"
	case Rook:
		return "rook"
	case Bishop:
		return "bishop"
	case Knight:
		return "knight"
	case Pawn:
		return "pawn"
	}
	return "unknown"
}

// Promotable reports whether a pawn may become this kind.
func (k PieceKind) Promotable() bool {
	return k == Queen || k == Rook || k == Bishop || k == Knight
}

// ParsePieceKind accepts full names and single letters (q, r, b, n, k, p).
func ParsePieceKind(s string) (PieceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "king", "k":
		return King, nil
	case "queen", "q":
		return Queen, nil
	case "rook", "r":
		return Rook, nil
	case "bishop", "b":
		return Bishop, nil
	case "knight", "n":
		return Knight, nil
	case "pawn", "p":
		return Pawn, nil
	}
	return Pawn, fmt.Errorf("invalid piece %q", s)
}

// Piece is a piece as it stands on one board snapshot.
type Piece struct {
	Kind  PieceKind
	Color Color
	Pos   Position
}

var symbols = map[PieceKind]rune{
	King:   '♚',
	Queen:  '♛',
	Rook:   '♜',
	Bishop: '♝',
	Knight: '♞',
	Pawn:   '♟',
}

func (p Piece) Symbol() rune { return symbols[p.Kind] }

// Letter is the FEN letter: upper case for white.
func (p Piece) Letter() string {
	l := "kqrbnp"[p.Kind : p.Kind+1]
	if p.Color == White {
		return strings.ToUpper(l)
	}
	return l
}

func (p Piece) String() string {
	return fmt.Sprintf("%s %s@%s", p.Color, p.Kind, p.Pos)
}
