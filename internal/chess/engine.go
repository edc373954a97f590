package chess

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/park285/cheese-desk/internal/chess/uci"
	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/rules"
)

// Engine asks an external UCI engine for a move at a fixed depth.
type Engine struct {
	pool   *uci.Pool
	depth  int
	logger *zap.Logger
}

func NewEngine(binaryPath string, depth, capacity int, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := uci.NewPool(uci.PoolConfig{
		BinaryPath: binaryPath,
		Capacity:   capacity,
		Options:    uci.Options{Threads: 1, HashMB: 32},
	}, logger)
	if err != nil {
		return nil, err
	}
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Engine{pool: pool, depth: depth, logger: logger}, nil
}

func (e *Engine) Name() string { return PolicyUCI }

func (e *Engine) SelectMove(ctx context.Context, b rules.Board) (domain.Move, error) {
	session, err := e.pool.Acquire(ctx)
	if err != nil {
		return domain.Move{}, err
	}
	var releaseErr error
	defer func() { e.pool.Release(session, releaseErr) }()

	res, err := session.Search(ctx, b.FEN(), uci.Limits{Depth: e.depth})
	if err != nil {
		releaseErr = err
		return domain.Move{}, err
	}
	mv, err := b.ParseUCI(res.BestMove)
	if err != nil {
		releaseErr = err
		return domain.Move{}, fmt.Errorf("engine bestmove %q: %w", res.BestMove, err)
	}
	e.logger.Debug("uci_bestmove",
		zap.String("move", res.BestMove),
		zap.Int("depth", res.Info.Depth),
		zap.Int("eval_cp", res.Info.EvalCP))
	return mv, nil
}

func (e *Engine) Close() error {
	if e == nil || e.pool == nil {
		return nil
	}
	return e.pool.Close()
}
