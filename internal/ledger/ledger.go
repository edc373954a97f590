package ledger

import "github.com/park285/cheese-desk/internal/domain"

// Ledger keeps the pieces removed from the board, grouped by the color of the
// captured piece. Entries are only ever appended.
type Ledger struct {
	white []domain.Piece
	black []domain.Piece
}

func New() *Ledger { return &Ledger{} }

func (l *Ledger) Record(p domain.Piece) {
	if p.Color == domain.White {
		l.white = append(l.white, p)
		return
	}
	l.black = append(l.black, p)
}

// Snapshot is a read-only copy of a Ledger.
type Snapshot struct {
	White []domain.Piece
	Black []domain.Piece
}

func (s Snapshot) Of(c domain.Color) []domain.Piece {
	if c == domain.White {
		return s.White
	}
	return s.Black
}

func (s Snapshot) Len() int { return len(s.White) + len(s.Black) }

func (l *Ledger) Snapshot() Snapshot {
	return Snapshot{
		White: append([]domain.Piece(nil), l.white...),
		Black: append([]domain.Piece(nil), l.black...),
	}
}

func (l *Ledger) Clear() {
	l.white = nil
	l.black = nil
}
