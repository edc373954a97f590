package chess

import nchess "github.com/corentings/chess/v2"

const (
	mateScore     = 100000
	mateThreshold = mateScore - 1000
)

var pieceValue = map[nchess.PieceType]int{
	nchess.Pawn:   100,
	nchess.Knight: 320,
	nchess.Bishop: 330,
	nchess.Rook:   500,
	nchess.Queen:  900,
	nchess.King:   0,
}

// Piece-square tables from White's side, index 0 = a8.
var pawnTable = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightTable = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopTable = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookTable = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

var queenTable = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var kingTable = [64]int{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

func tableFor(t nchess.PieceType) *[64]int {
	switch t {
	case nchess.Pawn:
		return &pawnTable
	case nchess.Knight:
		return &knightTable
	case nchess.Bishop:
		return &bishopTable
	case nchess.Rook:
		return &rookTable
	case nchess.Queen:
		return &queenTable
	case nchess.King:
		return &kingTable
	}
	return nil
}

// evaluate scores pos from the side to move's point of view.
func evaluate(pos *nchess.Position) int {
	board := pos.Board()
	score := 0
	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			pc := board.Piece(nchess.NewSquare(nchess.File(file), nchess.Rank(rank)))
			if pc == nchess.NoPiece {
				continue
			}
			v := pieceValue[pc.Type()]
			if tbl := tableFor(pc.Type()); tbl != nil {
				if pc.Color() == nchess.White {
					v += tbl[(7-rank)*8+file]
				} else {
					v += tbl[rank*8+file]
				}
			}
			if pc.Color() == nchess.White {
				score += v
			} else {
				score -= v
			}
		}
	}
	if pos.Turn() == nchess.Black {
		return -score
	}
	return score
}

// moveOrderScore puts captures of valuable pieces by cheap ones first.
func moveOrderScore(board *nchess.Board, mv *nchess.Move) int {
	score := 0
	if victim := board.Piece(mv.S2()); victim != nchess.NoPiece {
		score += 10*pieceValue[victim.Type()] - pieceValue[board.Piece(mv.S1()).Type()]
	}
	if mv.HasTag(nchess.EnPassant) {
		score += 10 * pieceValue[nchess.Pawn]
	}
	if mv.Promo() != nchess.NoPieceType {
		score += pieceValue[mv.Promo()]
	}
	return score
}
