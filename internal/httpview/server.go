package httpview

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/cheese-desk/internal/adapter/chesspresenter"
	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/render"
	"github.com/park285/cheese-desk/internal/session"
	"github.com/park285/cheese-desk/pkg/chessdto"
)

// Backend is the part of a session runner the HTTP layer drives.
type Backend interface {
	View() session.View
	Submit(ctx context.Context, ev session.Event) (session.View, error)
	Settled(ctx context.Context) (session.View, error)
}

type Server struct {
	backend  Backend
	renderer render.BoardRenderer
	opening  chesspresenter.OpeningNamer
	turnText func(domain.Color) string
	logger   *zap.Logger
	timeout  time.Duration

	srvMu sync.Mutex
	srv   *fasthttp.Server
}

type Option func(*Server)

func WithRenderer(r render.BoardRenderer) Option { return func(s *Server) { s.renderer = r } }

func WithOpening(fn chesspresenter.OpeningNamer) Option { return func(s *Server) { s.opening = fn } }

func WithTurnText(fn func(domain.Color) string) Option { return func(s *Server) { s.turnText = fn } }

func WithTimeout(d time.Duration) Option { return func(s *Server) { s.timeout = d } }

func New(backend Backend, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		backend:  backend,
		renderer: render.NewPNGRenderer(0),
		turnText: func(c domain.Color) string { return "Turn: " + c.String() },
		logger:   logger,
		timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	srv := &fasthttp.Server{
		Handler:      s.Handler(),
		Name:         "cheese-desk",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()
	s.logger.Info("http_listening", zap.String("addr", ln.Addr().String()))
	return srv.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.ShutdownWithContext(ctx)
}

func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		path := string(ctx.Path())
		switch {
		case path == "/healthz":
			ctx.SetContentType("text/plain; charset=utf-8")
			ctx.SetBodyString("ok")
		case path == "/api/view" && ctx.IsGet():
			s.handleView(ctx)
		case path == "/api/board.png" && ctx.IsGet():
			s.handleBoard(ctx)
		case path == "/api/click" && ctx.IsPost():
			s.handleClick(ctx)
		case path == "/api/promote" && ctx.IsPost():
			s.handlePromote(ctx)
		case path == "/api/new" && ctx.IsPost():
			s.submit(ctx, session.NewGameRequested{})
		default:
			writeError(ctx, fasthttp.StatusNotFound, chessdto.DomainError{Code: "not_found", Message: "no such route"})
		}
		s.logger.Debug("http_request",
			zap.ByteString("method", ctx.Method()),
			zap.String("path", path),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("took", time.Since(start)))
	}
}

func (s *Server) handleView(ctx *fasthttp.RequestCtx) {
	v := s.backend.View()
	if ctx.QueryArgs().GetBool("wait") {
		rctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		settled, err := s.backend.Settled(rctx)
		if err != nil {
			s.fail(ctx, err)
			return
		}
		v = settled
	}
	writeJSON(ctx, fasthttp.StatusOK, s.dto(v))
}

func (s *Server) handleBoard(ctx *fasthttp.RequestCtx) {
	v := s.backend.View()
	title := v.Message
	if title == "" {
		title = s.openingTitle(v.Moves)
	}
	rctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	raw, err := s.renderer.RenderPNG(rctx, v.Board, render.OptionsFor(v, title, s.turnText(v.Turn)))
	if err != nil {
		s.fail(ctx, err)
		return
	}
	ctx.SetContentType("image/png")
	ctx.Response.Header.Set("Cache-Control", "no-store")
	ctx.SetBody(raw)
}

func (s *Server) handleClick(ctx *fasthttp.RequestCtx) {
	pos, err := domain.ParsePosition(string(ctx.QueryArgs().Peek("square")))
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, chessdto.DomainError{Code: "bad_square", Message: err.Error()})
		return
	}
	s.submit(ctx, session.SquareClicked{Pos: pos})
}

func (s *Server) handlePromote(ctx *fasthttp.RequestCtx) {
	kind, err := domain.ParsePieceKind(string(ctx.QueryArgs().Peek("piece")))
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, chessdto.DomainError{Code: "bad_piece", Message: err.Error()})
		return
	}
	s.submit(ctx, session.PromotionPieceChosen{Kind: kind})
}

func (s *Server) submit(ctx *fasthttp.RequestCtx, ev session.Event) {
	rctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	v, err := s.backend.Submit(rctx, ev)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, s.dto(v))
}

func (s *Server) fail(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		writeError(ctx, fasthttp.StatusGatewayTimeout, chessdto.DomainError{Code: "timeout", Message: err.Error(), Retryable: true})
	case errors.Is(err, session.ErrRunnerStopped),
		errors.Is(err, session.ErrContractViolation),
		errors.Is(err, session.ErrSourceFailed):
		writeError(ctx, fasthttp.StatusServiceUnavailable, chessdto.DomainError{Code: "session_stopped", Message: err.Error()})
	default:
		s.logger.Warn("http_handler_failed", zap.Error(err))
		writeError(ctx, fasthttp.StatusInternalServerError, chessdto.DomainError{Code: "internal", Message: err.Error()})
	}
}

func (s *Server) openingTitle(moves []string) string {
	if s.opening == nil {
		return ""
	}
	code, title, ok := s.opening(moves)
	if !ok {
		return ""
	}
	return strings.TrimSpace(code + " " + title)
}

func (s *Server) dto(v session.View) chessdto.ViewState {
	out := chesspresenter.ToDTO(v)
	if s.opening != nil {
		if code, title, ok := s.opening(v.Moves); ok {
			out.Opening = &chessdto.Opening{Code: code, Title: title}
		}
	}
	return out
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		ctx.Error("encode response", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json; charset=utf-8")
	ctx.SetBody(raw)
}

func writeError(ctx *fasthttp.RequestCtx, status int, e chessdto.DomainError) {
	writeJSON(ctx, status, e)
}
