package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/ledger"
	"github.com/park285/cheese-desk/internal/rules"
)

const defaultSelfPlayPlies = 200

type SelfPlayConfig struct {
	Engine        rules.Engine
	StartingBoard rules.Board
	White         MoveSource
	Black         MoveSource
	Messages      Messages
	MaxPlies      int
	// OnMove is called after every applied move with the resulting board.
	OnMove func(ply int, mv domain.Move, b rules.Board)
}

type SelfPlayResult struct {
	Moves    []domain.Move
	Final    rules.Board
	Captured ledger.Snapshot
	Message  string
	Finished bool
}

// SelfPlay lets two sources play each other until the game ends or the ply
// cap is hit.
func SelfPlay(ctx context.Context, cfg SelfPlayConfig, logger *zap.Logger) (SelfPlayResult, error) {
	if cfg.White == nil || cfg.Black == nil {
		return SelfPlayResult{}, fmt.Errorf("both sides need a move source")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Engine == nil {
		cfg.Engine = rules.NewStandardEngine()
	}
	if cfg.StartingBoard.IsZero() {
		cfg.StartingBoard = rules.StartingBoard()
	}
	if err := rules.CheckPlayable(cfg.StartingBoard); err != nil {
		return SelfPlayResult{}, err
	}
	if cfg.Messages == nil {
		cfg.Messages = plainMessages{}
	}
	if cfg.MaxPlies <= 0 {
		cfg.MaxPlies = defaultSelfPlayPlies
	}

	board := cfg.StartingBoard
	captures := ledger.New()
	var res SelfPlayResult

	for ply := 1; ply <= cfg.MaxPlies; ply++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		mover := board.Turn()
		src := cfg.White
		if mover == domain.Black {
			src = cfg.Black
		}
		mv, err := src.SelectMove(ctx, board.Clone())
		if err != nil {
			return res, fmt.Errorf("%s source: %w", mover, err)
		}
		if !cfg.Engine.IsLegal(board, mv, mover) {
			return res, fmt.Errorf("%w: %s played %s in %s", ErrContractViolation, mover, mv, board.FEN())
		}
		out, err := playMove(cfg.Engine, cfg.Messages, board, captures, mv)
		if err != nil {
			return res, fmt.Errorf("%w: %v", ErrContractViolation, err)
		}
		board = out.board
		res.Moves = append(res.Moves, mv)
		res.Captured = captures.Snapshot()
		res.Message = out.message
		res.Final = board
		if cfg.OnMove != nil {
			cfg.OnMove(ply, mv, board)
		}
		if out.over() {
			res.Finished = true
			logger.Info("selfplay_finished", zap.Int("plies", ply), zap.String("message", res.Message))
			return res, nil
		}
	}

	res.Final = board
	logger.Info("selfplay_ply_cap", zap.Int("plies", cfg.MaxPlies))
	return res, nil
}
