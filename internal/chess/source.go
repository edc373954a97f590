package chess

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"github.com/park285/cheese-desk/internal/chess/openingbook"
	"github.com/park285/cheese-desk/internal/config"
	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/movecache"
	"github.com/park285/cheese-desk/internal/rules"
	"github.com/park285/cheese-desk/internal/session"
)

const (
	PolicyBest      = "best"
	PolicyWorst     = "worst"
	PolicyRandom    = "random"
	PolicyHumanized = "humanized"
	PolicyUCI       = "uci"
)

// Source is a named move source.
type Source interface {
	session.MoveSource
	Name() string
}

type bookSource struct {
	inner  Source
	book   *openingbook.Book
	maxPly int
	logger *zap.Logger

	mu   sync.Mutex
	rand *rand.Rand
}

// WithBook plays polyglot book moves while the game is within maxPly plies.
func WithBook(inner Source, book *openingbook.Book, maxPly int, seed int64, logger *zap.Logger) Source {
	if book == nil {
		return inner
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &bookSource{inner: inner, book: book, maxPly: maxPly, logger: logger, rand: rand.New(rand.NewSource(seed))}
}

func (s *bookSource) Name() string { return s.inner.Name() + "+book" }

func (s *bookSource) SelectMove(ctx context.Context, b rules.Board) (domain.Move, error) {
	if s.maxPly <= 0 || b.Ply() < s.maxPly {
		results, err := s.book.Lookup(b)
		if err != nil {
			s.logger.Warn("opening_book_lookup_failed", zap.Error(err))
		}
		s.mu.Lock()
		pick, ok := openingbook.Pick(results, s.rand)
		s.mu.Unlock()
		if ok {
			s.logger.Debug("opening_book_move", zap.String("move", pick.UCI), zap.Uint16("weight", pick.Weight))
			return pick.Move, nil
		}
	}
	return s.inner.SelectMove(ctx, b)
}

type cacheSource struct {
	inner  Source
	store  *movecache.Store
	depth  int
	logger *zap.Logger
}

// WithCache memoises selections of a deterministic source in redis.
func WithCache(inner Source, store *movecache.Store, depth int, logger *zap.Logger) Source {
	if store == nil {
		return inner
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cacheSource{inner: inner, store: store, depth: depth, logger: logger}
}

func (s *cacheSource) Name() string { return s.inner.Name() + "+cache" }

func (s *cacheSource) SelectMove(ctx context.Context, b rules.Board) (domain.Move, error) {
	fen := b.FEN()
	policy := s.inner.Name()
	entry, err := s.store.Load(ctx, policy, s.depth, fen)
	if err != nil {
		s.logger.Warn("move_cache_load_failed", zap.Error(err))
	}
	if entry != nil {
		if mv, err := b.ParseUCI(entry.Move); err == nil {
			return mv, nil
		}
		_ = s.store.Forget(ctx, policy, s.depth, fen)
	}

	mv, err := s.inner.SelectMove(ctx, b)
	if err != nil {
		return domain.Move{}, err
	}
	uci, err := b.UCI(mv)
	if err != nil {
		return mv, nil
	}
	if err := s.store.Save(ctx, movecache.Entry{Move: uci, Policy: policy, Depth: s.depth, FEN: fen}); err != nil {
		s.logger.Warn("move_cache_save_failed", zap.Error(err))
	}
	return mv, nil
}

type fallbackSource struct {
	primary  Source
	fallback Source
	logger   *zap.Logger
}

// WithFallback retries with fallback when primary fails.
func WithFallback(primary, fallback Source, logger *zap.Logger) Source {
	if fallback == nil {
		return primary
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &fallbackSource{primary: primary, fallback: fallback, logger: logger}
}

func (s *fallbackSource) Name() string { return s.primary.Name() }

func (s *fallbackSource) SelectMove(ctx context.Context, b rules.Board) (domain.Move, error) {
	mv, err := s.primary.SelectMove(ctx, b)
	if err == nil || ctx.Err() != nil {
		return mv, err
	}
	s.logger.Warn("opponent_source_failed", zap.String("source", s.primary.Name()), zap.Error(err))
	return s.fallback.SelectMove(ctx, b)
}

// Set is the opponent chain built from configuration.
type Set struct {
	Primary  Source
	Fallback Source
	closers  []io.Closer
}

func (s *Set) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New builds the configured source chain: base policy, optional redis memo
// for deterministic policies, optional opening book, plus the fallback.
func New(ctx context.Context, cfg config.OpponentConfig, logger *zap.Logger) (*Set, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	set := &Set{}
	base, err := newBase(cfg.Policy, cfg, logger)
	if err != nil {
		return nil, err
	}
	if c, ok := base.(io.Closer); ok {
		set.closers = append(set.closers, c)
	}

	if cfg.RedisURL != "" && deterministic(cfg.Policy) {
		store, err := movecache.Open(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			logger.Warn("move_cache_disabled", zap.Error(err))
		} else {
			set.closers = append(set.closers, store)
			base = WithCache(base, store, cfg.Depth, logger)
		}
	}

	if cfg.BookPath != "" {
		book, err := openingbook.Open(cfg.BookPath)
		if err != nil {
			set.Close()
			return nil, err
		}
		base = WithBook(base, book, cfg.BookMaxPly, cfg.Seed, logger)
	}
	set.Primary = base

	if cfg.Fallback != "" && cfg.Fallback != cfg.Policy {
		fb, err := newBase(cfg.Fallback, cfg, logger)
		if err != nil {
			set.Close()
			return nil, err
		}
		set.Fallback = fb
	}
	logger.Info("opponent_ready", zap.String("source", set.Primary.Name()), zap.Int("depth", cfg.Depth))
	return set, nil
}

func newBase(policy string, cfg config.OpponentConfig, logger *zap.Logger) (Source, error) {
	switch policy {
	case PolicyBest:
		return Minimax{Depth: cfg.Depth}, nil
	case PolicyWorst:
		return Minimax{Depth: cfg.Depth, Worst: true}, nil
	case PolicyRandom:
		return NewRandom(cfg.Seed), nil
	case PolicyHumanized:
		return NewHumanized(cfg.Depth, cfg.Seed), nil
	case PolicyUCI:
		return NewEngine(cfg.StockfishPath, cfg.Depth, cfg.UCIPoolSize, logger)
	}
	return nil, fmt.Errorf("unknown opponent policy %q", policy)
}

func deterministic(policy string) bool {
	return policy == PolicyBest || policy == PolicyWorst
}
