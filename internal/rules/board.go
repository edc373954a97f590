package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/cheese-desk/internal/domain"
)

var (
	ErrInvalidFEN       = errors.New("invalid fen")
	ErrTerminalPosition = errors.New("position is already decided")
)

// Board is an immutable position snapshot. The zero value is not usable.
type Board struct {
	pos *nchess.Position
}

// StartingBoard returns the standard initial position.
func StartingBoard() Board {
	return Board{pos: nchess.NewGame().Position()}
}

// BoardFromFEN parses a FEN string. Empty input and "startpos" yield the
// starting position.
func BoardFromFEN(fen string) (Board, error) {
	v := strings.TrimSpace(fen)
	if v == "" || v == "startpos" {
		return StartingBoard(), nil
	}
	opt, err := nchess.FEN(v)
	if err != nil {
		return Board{}, fmt.Errorf("%w: %q: %v", ErrInvalidFEN, v, err)
	}
	return Board{pos: nchess.NewGame(opt).Position()}, nil
}

func (b Board) IsZero() bool { return b.pos == nil }

// Terminal reports whether the side to move is checkmated or stalemated.
// ResultVictory carries no winner here; callers only need the kind.
func (b Board) Terminal() (ResultKind, bool) {
	if b.IsZero() {
		return ResultContinuing, false
	}
	switch b.pos.Status() {
	case nchess.Checkmate:
		return ResultVictory, true
	case nchess.Stalemate:
		return ResultStalemate, true
	}
	return ResultContinuing, false
}

// CheckPlayable rejects a starting board on which no move can be made.
func CheckPlayable(b Board) error {
	if kind, ok := b.Terminal(); ok {
		return fmt.Errorf("%w: %s (%s)", ErrTerminalPosition, kind, b.FEN())
	}
	return nil
}

// Clone returns an independent copy that may be handed to another goroutine.
// The native position caches its move list lazily, so shared snapshots are
// not safe for concurrent use.
func (b Board) Clone() Board {
	if b.pos == nil {
		return b
	}
	c, err := BoardFromFEN(b.FEN())
	if err != nil {
		return b
	}
	return c
}

func (b Board) Turn() domain.Color {
	if b.pos.Turn() == nchess.Black {
		return domain.Black
	}
	return domain.White
}

func (b Board) FEN() string { return b.pos.String() }

func (b Board) String() string { return b.FEN() }

// Ply is the number of half-moves played since the game's first move,
// derived from the FEN move counter.
func (b Board) Ply() int {
	fields := strings.Fields(b.FEN())
	if len(fields) < 6 {
		return 0
	}
	full, err := strconv.Atoi(fields[5])
	if err != nil || full < 1 {
		return 0
	}
	ply := (full - 1) * 2
	if b.Turn() == domain.Black {
		ply++
	}
	return ply
}

// Native exposes the underlying position for engines that speak FEN/UCI.
func (b Board) Native() *nchess.Position { return b.pos }

// PieceAt reports the piece standing on p.
func (b Board) PieceAt(p domain.Position) (domain.Piece, bool) {
	if !p.Valid() {
		return domain.Piece{}, false
	}
	pc := b.pos.Board().Piece(toSquare(p))
	if pc == nchess.NoPiece {
		return domain.Piece{}, false
	}
	kind, ok := fromPieceType(pc.Type())
	if !ok {
		return domain.Piece{}, false
	}
	return domain.Piece{Kind: kind, Color: fromColor(pc.Color()), Pos: p}, true
}

// Pieces lists every piece on the board, rank 1 first.
func (b Board) Pieces() []domain.Piece {
	out := make([]domain.Piece, 0, 32)
	for row := 0; row < domain.BoardSize; row++ {
		for col := 0; col < domain.BoardSize; col++ {
			if pc, ok := b.PieceAt(domain.NewPosition(row, col)); ok {
				out = append(out, pc)
			}
		}
	}
	return out
}

// LegalMoves lists the legal moves for the side to move.
func (b Board) LegalMoves() []domain.Move {
	native := b.pos.ValidMoves()
	out := make([]domain.Move, 0, len(native))
	for i := range native {
		out = append(out, fromNative(&native[i]))
	}
	return out
}

// UCI renders m in long algebraic form for this position.
func (b Board) UCI(m domain.Move) (string, error) {
	mv, ok := b.match(m)
	if !ok {
		return "", fmt.Errorf("move %s not legal in %s", m, b.FEN())
	}
	return mv.String(), nil
}

// ParseUCI decodes a long algebraic move ("e2e4", "e7e8q", "e1g1") against
// this position. The result is always one of LegalMoves.
func (b Board) ParseUCI(s string) (domain.Move, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	native := b.pos.ValidMoves()
	for i := range native {
		if native[i].String() == v {
			return fromNative(&native[i]), nil
		}
	}
	return domain.Move{}, fmt.Errorf("move %q not legal in %s", s, b.FEN())
}

func (b Board) match(m domain.Move) (*nchess.Move, bool) {
	native := b.pos.ValidMoves()
	for i := range native {
		mv := &native[i]
		if sameMove(m, mv) {
			return mv, true
		}
	}
	return nil, false
}

func sameMove(m domain.Move, mv *nchess.Move) bool {
	switch m.Kind {
	case domain.MoveKingSideCastle:
		return mv.HasTag(nchess.KingSideCastle)
	case domain.MoveQueenSideCastle:
		return mv.HasTag(nchess.QueenSideCastle)
	case domain.MovePlain:
		if mv.HasTag(nchess.KingSideCastle) || mv.HasTag(nchess.QueenSideCastle) {
			return false
		}
		return mv.Promo() == nchess.NoPieceType &&
			mv.S1() == toSquare(m.From) && mv.S2() == toSquare(m.To)
	case domain.MovePromotion:
		want, ok := toPieceType(m.Promote)
		if !ok {
			return false
		}
		return mv.Promo() == want &&
			mv.S1() == toSquare(m.From) && mv.S2() == toSquare(m.To)
	}
	return false
}

func fromNative(mv *nchess.Move) domain.Move {
	switch {
	case mv.HasTag(nchess.KingSideCastle):
		return domain.KingSideCastle()
	case mv.HasTag(nchess.QueenSideCastle):
		return domain.QueenSideCastle()
	}
	from, to := fromSquare(mv.S1()), fromSquare(mv.S2())
	if mv.Promo() != nchess.NoPieceType {
		kind, _ := fromPieceType(mv.Promo())
		return domain.Promotion(from, to, kind)
	}
	return domain.Plain(from, to)
}

func toSquare(p domain.Position) nchess.Square {
	return nchess.NewSquare(nchess.File(p.Col), nchess.Rank(p.Row))
}

func fromSquare(sq nchess.Square) domain.Position {
	return domain.NewPosition(int(sq.Rank()), int(sq.File()))
}

func fromColor(c nchess.Color) domain.Color {
	if c == nchess.Black {
		return domain.Black
	}
	return domain.White
}

func toColor(c domain.Color) nchess.Color {
	if c == domain.Black {
		return nchess.Black
	}
	return nchess.White
}

func fromPieceType(t nchess.PieceType) (domain.PieceKind, bool) {
	switch t {
	case nchess.King:
		return domain.King, true
	case nchess.Queen:
		return domain.Queen, true
	case nchess.Rook:
		return domain.Rook, true
	case nchess.Bishop:
		return domain.Bishop, true
	case nchess.Knight:
		return domain.Knight, true
	case nchess.Pawn:
		return domain.Pawn, true
	}
	return 0, false
}

func toPieceType(k domain.PieceKind) (nchess.PieceType, bool) {
	switch k {
	case domain.King:
		return nchess.King, true
	case domain.Queen:
		return nchess.Queen, true
	case domain.Rook:
		return nchess.Rook, true
	case domain.Bishop:
		return nchess.Bishop, true
	case domain.Knight:
		return nchess.Knight, true
	case domain.Pawn:
		return nchess.Pawn, true
	}
	return nchess.NoPieceType, false
}
