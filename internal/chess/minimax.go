package chess

import (
	"context"
	"errors"
	"sort"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/rules"
)

const (
	DefaultDepth = 3
	MaxDepth     = 6

	quiescenceDepth = 4
	infinity        = 1 << 30
)

var ErrNoLegalMoves = errors.New("no legal moves")

// Scored is a root move with its search score from the mover's side.
type Scored struct {
	Move  domain.Move
	UCI   string
	Score int
}

// ScoreMoves searches every root move to depth plies and returns them best
// first. Equal scores keep generation order.
func ScoreMoves(ctx context.Context, b rules.Board, depth int) ([]Scored, error) {
	if depth < 1 {
		depth = 1
	}
	if depth > MaxDepth {
		depth = MaxDepth
	}
	pos := b.Native()
	moves := pos.ValidMoves()
	if len(moves) == 0 {
		return nil, ErrNoLegalMoves
	}
	legal := b.LegalMoves()
	out := make([]Scored, 0, len(moves))
	for i := range moves {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mv := &moves[i]
		child := pos.Update(mv)
		score := -negamax(ctx, child, depth-1, 1, -infinity, infinity)
		out = append(out, Scored{Move: legal[i], UCI: mv.String(), Score: score})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func negamax(ctx context.Context, pos *nchess.Position, depth, ply, alpha, beta int) int {
	switch pos.Status() {
	case nchess.Checkmate:
		return -mateScore + ply
	case nchess.Stalemate:
		return 0
	}
	if depth <= 0 {
		return quiesce(pos, quiescenceDepth, alpha, beta)
	}
	if ctx.Err() != nil {
		return evaluate(pos)
	}

	moves := ordered(pos, false)
	best := -infinity
	for _, mv := range moves {
		score := -negamax(ctx, pos.Update(mv), depth-1, ply+1, -beta, -alpha)
		if score > best {
			best = score
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break
		}
	}
	return best
}

// quiesce extends the search through captures so the static score is not
// taken in the middle of an exchange.
func quiesce(pos *nchess.Position, depth, alpha, beta int) int {
	stand := evaluate(pos)
	if depth == 0 || stand >= beta {
		return stand
	}
	if stand > alpha {
		alpha = stand
	}
	for _, mv := range ordered(pos, true) {
		score := -quiesce(pos.Update(mv), depth-1, -beta, -alpha)
		if score >= beta {
			return score
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha
}

func ordered(pos *nchess.Position, tacticalOnly bool) []*nchess.Move {
	board := pos.Board()
	all := pos.ValidMoves()
	out := make([]*nchess.Move, 0, len(all))
	for i := range all {
		mv := &all[i]
		if tacticalOnly {
			capture := board.Piece(mv.S2()) != nchess.NoPiece || mv.HasTag(nchess.EnPassant)
			if !capture && mv.Promo() == nchess.NoPieceType {
				continue
			}
		}
		out = append(out, mv)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return moveOrderScore(board, out[i]) > moveOrderScore(board, out[j])
	})
	return out
}

// Minimax picks the best or, with Worst set, the worst move by fixed-depth
// search.
type Minimax struct {
	Depth int
	Worst bool
}

func (m Minimax) Name() string {
	if m.Worst {
		return PolicyWorst
	}
	return PolicyBest
}

func (m Minimax) SelectMove(ctx context.Context, b rules.Board) (domain.Move, error) {
	scored, err := ScoreMoves(ctx, b, m.depth())
	if err != nil {
		return domain.Move{}, err
	}
	if m.Worst {
		return scored[len(scored)-1].Move, nil
	}
	return scored[0].Move, nil
}

func (m Minimax) depth() int {
	if m.Depth <= 0 {
		return DefaultDepth
	}
	return m.Depth
}
