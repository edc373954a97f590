package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/rules"
)

var (
	ErrRunnerStopped = errors.New("session runner stopped")
	ErrSourceFailed  = errors.New("opponent source failed")
)

const defaultEventBuffer = 32

// RunnerConfig wires a controller to its opponent sources.
type RunnerConfig struct {
	Session  Config
	Source   MoveSource
	Fallback MoveSource
	// MoveTimeout bounds a single SelectMove call. Zero means no limit.
	MoveTimeout time.Duration
}

type envelope struct {
	ev    Event
	reply chan reply
}

type reply struct {
	view View
	err  error
}

type sourceFailed struct {
	seq uint64
	err error
}

func (sourceFailed) eventName() string { return "source_failed" }

// Runner serialises every event through one goroutine and runs opponent
// searches off that path.
type Runner struct {
	ctrl     *Controller
	source   MoveSource
	fallback MoveSource
	timeout  time.Duration
	logger   *zap.Logger

	events chan envelope
	done   chan struct{}

	mu        sync.RWMutex
	view      View
	changed   chan struct{}
	observers []func(View)
	err       error
}

func NewRunner(cfg RunnerConfig, logger *zap.Logger) (*Runner, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("opponent source required")
	}
	if !cfg.Session.StartingBoard.IsZero() {
		if err := rules.CheckPlayable(cfg.Session.StartingBoard); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctrl := NewController(cfg.Session, logger)
	return &Runner{
		ctrl:     ctrl,
		source:   cfg.Source,
		fallback: cfg.Fallback,
		timeout:  cfg.MoveTimeout,
		logger:   logger.With(zap.String("session_id", ctrl.ID())),
		events:   make(chan envelope, defaultEventBuffer),
		done:     make(chan struct{}),
		view:     ctrl.View(),
		changed:  make(chan struct{}),
	}, nil
}

func (r *Runner) ID() string { return r.ctrl.ID() }

// OnView registers an observer called after every resolved event. Observers
// run on the event goroutine and must not call Submit.
func (r *Runner) OnView(fn func(View)) {
	r.mu.Lock()
	r.observers = append(r.observers, fn)
	r.mu.Unlock()
}

// View returns the most recently published view.
func (r *Runner) View() View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.view
}

// Err reports why the runner stopped, if it did.
func (r *Runner) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// Post enqueues ev without waiting for it to be processed.
func (r *Runner) Post(ev Event) {
	select {
	case r.events <- envelope{ev: ev}:
	case <-r.done:
	}
}

// Submit enqueues ev and waits for the view it produced.
func (r *Runner) Submit(ctx context.Context, ev Event) (View, error) {
	ch := make(chan reply, 1)
	select {
	case r.events <- envelope{ev: ev, reply: ch}:
	case <-r.done:
		return r.View(), r.stoppedErr()
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
	select {
	case res := <-ch:
		return res.view, res.err
	case <-r.done:
		return r.View(), r.stoppedErr()
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// Await blocks until the published view satisfies pred.
func (r *Runner) Await(ctx context.Context, pred func(View) bool) (View, error) {
	for {
		r.mu.RLock()
		v, changed := r.view, r.changed
		r.mu.RUnlock()
		if pred(v) {
			return v, nil
		}
		select {
		case <-changed:
		case <-r.done:
			v := r.View()
			if pred(v) {
				return v, nil
			}
			return v, r.stoppedErr()
		case <-ctx.Done():
			return v, ctx.Err()
		}
	}
}

// Settled waits until the opponent is no longer thinking.
func (r *Runner) Settled(ctx context.Context) (View, error) {
	return r.Await(ctx, func(v View) bool { return v.State != AwaitingOpponentMove })
}

// Run processes events until ctx is cancelled or a fatal error occurs.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.logger.Info("session_started",
		zap.String("human", r.ctrl.View().HumanColor.String()),
		zap.String("fen", r.ctrl.View().Board.FEN()))

	if req := r.ctrl.Pending(); req != nil {
		r.dispatch(searchCtx, req)
	}

	for {
		select {
		case <-ctx.Done():
			r.stop(ctx.Err())
			return nil
		case env := <-r.events:
			if err := r.handle(searchCtx, env); err != nil {
				r.stop(err)
				return err
			}
		}
	}
}

func (r *Runner) handle(ctx context.Context, env envelope) error {
	var (
		req *Request
		err error
	)
	if f, ok := env.ev.(sourceFailed); ok {
		if p := r.ctrl.Pending(); p != nil && p.Seq == f.seq {
			err = fmt.Errorf("%w: %v", ErrSourceFailed, f.err)
		}
	} else {
		req, err = r.ctrl.Handle(env.ev)
	}

	v := r.ctrl.View()
	r.publish(v)
	if env.reply != nil {
		env.reply <- reply{view: v, err: err}
	}
	if err != nil {
		return err
	}
	if req != nil {
		r.dispatch(ctx, req)
	}
	return nil
}

func (r *Runner) dispatch(ctx context.Context, req *Request) {
	go func() {
		mv, err := r.selectMove(ctx, r.source, req)
		if err != nil && r.fallback != nil && ctx.Err() == nil {
			r.logger.Warn("opponent_source_failed", zap.Uint64("seq", req.Seq), zap.Error(err))
			mv, err = r.selectMove(ctx, r.fallback, req)
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Error("opponent_fallback_failed", zap.Uint64("seq", req.Seq), zap.Error(err))
			r.Post(sourceFailed{seq: req.Seq, err: err})
			return
		}
		r.Post(OpponentMoveReady{Move: mv, Seq: req.Seq})
	}()
}

func (r *Runner) selectMove(ctx context.Context, src MoveSource, req *Request) (domain.Move, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	start := time.Now()
	mv, err := src.SelectMove(ctx, req.Board)
	if err != nil {
		return domain.Move{}, err
	}
	r.logger.Debug("opponent_move_selected",
		zap.Uint64("seq", req.Seq),
		zap.String("move", mv.String()),
		zap.Duration("took", time.Since(start)))
	return mv, nil
}

// publish notifies observers before waiters so Await never outruns them.
func (r *Runner) publish(v View) {
	r.mu.RLock()
	observers := make([]func(View), len(r.observers))
	copy(observers, r.observers)
	r.mu.RUnlock()
	for _, fn := range observers {
		fn(v)
	}

	r.mu.Lock()
	r.view = v
	close(r.changed)
	r.changed = make(chan struct{})
	r.mu.Unlock()
}

func (r *Runner) stop(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
	if err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Error("session_stopped", zap.Error(err))
		return
	}
	r.logger.Info("session_stopped")
}

func (r *Runner) stoppedErr() error {
	if err := r.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return ErrRunnerStopped
}
