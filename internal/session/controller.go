package session

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/ledger"
	"github.com/park285/cheese-desk/internal/rules"
)

// ErrContractViolation means a collaborator returned something the state
// machine cannot accept. The controller stops processing events after it.
var ErrContractViolation = errors.New("engine contract violation")

// Config is the explicit per-session configuration.
type Config struct {
	Engine        rules.Engine
	StartingBoard rules.Board
	HumanColor    domain.Color
	Messages      Messages
}

type Controller struct {
	id       string
	engine   rules.Engine
	start    rules.Board
	human    domain.Color
	messages Messages
	logger   *zap.Logger

	state     StateKind
	board     rules.Board
	selected  domain.Position
	promoteTo domain.Position
	captures  *ledger.Ledger
	message   string
	lastMove  *domain.Move
	plies     int
	history   []string // UCI

	seq     uint64
	pending *Request
	fault   error
}

func NewController(cfg Config, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Engine == nil {
		cfg.Engine = rules.NewStandardEngine()
	}
	if cfg.StartingBoard.IsZero() {
		cfg.StartingBoard = rules.StartingBoard()
	}
	if cfg.Messages == nil {
		cfg.Messages = plainMessages{}
	}
	c := &Controller{
		id:       uuid.NewString(),
		engine:   cfg.Engine,
		start:    cfg.StartingBoard,
		human:    cfg.HumanColor,
		messages: cfg.Messages,
		captures: ledger.New(),
	}
	c.logger = logger.With(zap.String("session_id", c.id))
	c.reset()
	return c
}

func (c *Controller) ID() string { return c.id }

func (c *Controller) State() StateKind { return c.state }

// Pending returns the in-flight opponent request, if any.
func (c *Controller) Pending() *Request {
	if c.state != AwaitingOpponentMove || c.pending == nil {
		return nil
	}
	req := *c.pending
	return &req
}

// Err returns the fault that stopped the controller.
func (c *Controller) Err() error { return c.fault }

// Handle processes one event to completion. A non-nil Request must be
// delivered to the opponent source.
func (c *Controller) Handle(ev Event) (*Request, error) {
	if c.fault != nil {
		return nil, c.fault
	}
	switch e := ev.(type) {
	case SquareClicked:
		return c.onClick(e.Pos)
	case PromotionPieceChosen:
		return c.onPromotion(e.Kind)
	case OpponentMoveReady:
		return c.onOpponentMove(e)
	case NewGameRequested:
		return c.onNewGame(), nil
	case nil:
		return nil, nil
	default:
		c.logger.Debug("session_event_unknown", zap.String("event", fmt.Sprintf("%T", ev)))
		return nil, nil
	}
}

func (c *Controller) View() View {
	v := View{
		SessionID:  c.id,
		State:      c.state,
		Board:      c.board,
		Turn:       c.board.Turn(),
		HumanColor: c.human,
		Captured:   c.captures.Snapshot(),
		Plies:      c.plies,
		Moves:      append([]string(nil), c.history...),
		Message:    c.message,
	}
	switch c.state {
	case AwaitingSecondClick:
		sel := c.selected
		v.Selected = &sel
	case AwaitingPromotionChoice:
		sel := c.selected
		v.Selected = &sel
		v.Promotion = &PendingPromotion{From: c.selected, To: c.promoteTo}
	}
	if c.lastMove != nil {
		mv := *c.lastMove
		v.LastMove = &mv
	}
	return v
}

func (c *Controller) reset() *Request {
	c.board = c.start
	c.captures.Clear()
	c.message = ""
	c.lastMove = nil
	c.plies = 0
	c.history = nil
	c.pending = nil
	c.selected = domain.Position{}
	c.promoteTo = domain.Position{}
	return c.afterBoardChange()
}

// afterBoardChange settles the state for the side to move on the current board.
func (c *Controller) afterBoardChange() *Request {
	if c.board.Turn() == c.human {
		c.state = AwaitingFirstClick
		c.pending = nil
		return nil
	}
	c.seq++
	c.state = AwaitingOpponentMove
	c.pending = &Request{Seq: c.seq, Board: c.board.Clone(), Color: c.board.Turn()}
	c.logger.Debug("session_opponent_request",
		zap.Uint64("seq", c.seq),
		zap.String("fen", c.board.FEN()))
	req := *c.pending
	return &req
}

func (c *Controller) onClick(pos domain.Position) (*Request, error) {
	if !pos.Valid() {
		return nil, nil
	}
	switch c.state {
	case AwaitingFirstClick:
		if c.ownPiece(pos) {
			c.selected = pos
			c.state = AwaitingSecondClick
		}
		return nil, nil
	case AwaitingSecondClick:
		return c.onSecondClick(pos)
	default:
		return nil, nil
	}
}

func (c *Controller) onSecondClick(to domain.Position) (*Request, error) {
	from := c.selected
	if to == from {
		c.state = AwaitingFirstClick
		return nil, nil
	}
	if c.ownPiece(to) {
		c.selected = to
		return nil, nil
	}
	piece, ok := c.board.PieceAt(from)
	if !ok {
		c.state = AwaitingFirstClick
		return nil, nil
	}
	if piece.Kind == domain.Pawn && to.Row == piece.Color.PromotionRank() {
		c.promoteTo = to
		c.state = AwaitingPromotionChoice
		return nil, nil
	}
	return c.applyHuman(buildMove(piece, from, to))
}

func (c *Controller) onPromotion(kind domain.PieceKind) (*Request, error) {
	if c.state != AwaitingPromotionChoice || !kind.Promotable() {
		return nil, nil
	}
	return c.applyHuman(domain.Promotion(c.selected, c.promoteTo, kind))
}

func (c *Controller) onOpponentMove(e OpponentMoveReady) (*Request, error) {
	if c.state != AwaitingOpponentMove || c.pending == nil || e.Seq != c.pending.Seq {
		c.logger.Debug("session_opponent_move_stale",
			zap.Uint64("seq", e.Seq),
			zap.String("state", c.state.String()))
		return nil, nil
	}
	mover := c.human.Other()
	if c.board.Turn() != mover {
		return nil, c.violate(fmt.Errorf("opponent %s moved on %s's turn", mover, c.board.Turn()))
	}
	if !c.engine.IsLegal(c.board, e.Move, mover) {
		return nil, c.violate(fmt.Errorf("opponent move %s is illegal in %s", e.Move, c.board.FEN()))
	}
	c.pending = nil
	return c.apply(e.Move, mover)
}

func (c *Controller) onNewGame() *Request {
	if c.state != GameOver {
		return nil
	}
	c.logger.Info("session_new_game")
	return c.reset()
}

func (c *Controller) applyHuman(mv domain.Move) (*Request, error) {
	c.state = AwaitingFirstClick
	if c.board.Turn() != c.human || !c.engine.IsLegal(c.board, mv, c.human) {
		c.logger.Debug("session_move_rejected", zap.String("move", mv.String()))
		return nil, nil
	}
	return c.apply(mv, c.human)
}

// apply runs a legality-checked move through the engine.
func (c *Controller) apply(mv domain.Move, mover domain.Color) (*Request, error) {
	out, err := playMove(c.engine, c.messages, c.board, c.captures, mv)
	if err != nil {
		return nil, c.violate(err)
	}
	c.board = out.board
	c.message = out.message

	c.plies++
	c.history = append(c.history, out.uci)
	c.lastMove = &mv
	c.logger.Info("session_move_applied",
		zap.String("color", mover.String()),
		zap.String("move", mv.String()),
		zap.String("result", out.kind.String()))

	if out.over() {
		c.state = GameOver
		c.pending = nil
		c.logger.Info("session_game_over", zap.String("message", c.message))
		return nil, nil
	}
	return c.afterBoardChange(), nil
}

func (c *Controller) violate(err error) error {
	c.fault = fmt.Errorf("%w: %v", ErrContractViolation, err)
	c.pending = nil
	c.logger.Error("session_contract_violation", zap.Error(c.fault))
	return c.fault
}

func (c *Controller) ownPiece(pos domain.Position) bool {
	p, ok := c.board.PieceAt(pos)
	return ok && p.Color == c.board.Turn()
}

// buildMove turns two clicks into a move intent. A king stepping two files
// along its rank is a castle.
func buildMove(p domain.Piece, from, to domain.Position) domain.Move {
	if p.Kind == domain.King && from.Row == to.Row {
		switch to.Col - from.Col {
		case 2:
			return domain.KingSideCastle()
		case -2:
			return domain.QueenSideCastle()
		}
	}
	return domain.Plain(from, to)
}
