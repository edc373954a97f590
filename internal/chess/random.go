package chess

import (
	"context"
	"math/rand"
	"sync"

	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/rules"
)

// Random plays a uniformly chosen legal move.
type Random struct {
	mu   sync.Mutex
	rand *rand.Rand
}

func NewRandom(seed int64) *Random {
	return &Random{rand: rand.New(rand.NewSource(seed))}
}

func (r *Random) Name() string { return PolicyRandom }

func (r *Random) SelectMove(ctx context.Context, b rules.Board) (domain.Move, error) {
	if err := ctx.Err(); err != nil {
		return domain.Move{}, err
	}
	moves := b.LegalMoves()
	if len(moves) == 0 {
		return domain.Move{}, ErrNoLegalMoves
	}
	r.mu.Lock()
	i := r.rand.Intn(len(moves))
	r.mu.Unlock()
	return moves[i], nil
}
