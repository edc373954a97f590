package httpview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/rules"
	"github.com/park285/cheese-desk/internal/session"
	"github.com/park285/cheese-desk/pkg/chessdto"
)

func firstLegal(_ context.Context, b rules.Board) (domain.Move, error) {
	moves := b.LegalMoves()
	if len(moves) == 0 {
		return domain.Move{}, errors.New("no moves")
	}
	return moves[0], nil
}

func startRunner(t *testing.T, src session.MoveSource) *session.Runner {
	t.Helper()
	r, err := session.NewRunner(session.RunnerConfig{
		Session: session.Config{HumanColor: domain.White},
		Source:  src,
	}, nil)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return r
}

func serve(h fasthttp.RequestHandler, method, uri string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)
	h(&ctx)
	return &ctx
}

func decodeView(t *testing.T, ctx *fasthttp.RequestCtx) chessdto.ViewState {
	t.Helper()
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status = %d body = %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var v chessdto.ViewState
	if err := json.Unmarshal(ctx.Response.Body(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestClickFlowAndWait(t *testing.T) {
	r := startRunner(t, session.MoveSourceFunc(firstLegal))
	opening := func(moves []string) (string, string, bool) {
		if len(moves) > 0 && moves[0] == "e2e4" {
			return "B00", "King's Pawn", true
		}
		return "", "", false
	}
	h := New(r, nil, WithOpening(opening)).Handler()

	v := decodeView(t, serve(h, "GET", "/api/view"))
	if v.State != "awaiting_first_click" || v.Turn != "White" || v.HumanColor != "White" {
		t.Fatalf("initial view = %+v", v)
	}

	v = decodeView(t, serve(h, "POST", "/api/click?square=e2"))
	if v.Selected != "e2" || v.State != "awaiting_second_click" {
		t.Fatalf("after first click = %+v", v)
	}
	decodeView(t, serve(h, "POST", "/api/click?square=e4"))

	v = decodeView(t, serve(h, "GET", "/api/view?wait=1"))
	if v.State != "awaiting_first_click" || v.Plies != 2 || len(v.MovesUCI) != 2 {
		t.Fatalf("settled view = %+v", v)
	}
	if v.Opening == nil || v.Opening.Code != "B00" {
		t.Fatalf("opening = %+v", v.Opening)
	}
}

func TestBadInputs(t *testing.T) {
	r := startRunner(t, session.MoveSourceFunc(firstLegal))
	h := New(r, nil).Handler()

	cases := []struct {
		method, uri string
		status      int
		code        string
	}{
		{"POST", "/api/click?square=z9", fasthttp.StatusBadRequest, "bad_square"},
		{"POST", "/api/promote?piece=x", fasthttp.StatusBadRequest, "bad_piece"},
		{"GET", "/api/click?square=e2", fasthttp.StatusNotFound, "not_found"},
		{"GET", "/nowhere", fasthttp.StatusNotFound, "not_found"},
	}
	for _, tc := range cases {
		ctx := serve(h, tc.method, tc.uri)
		if ctx.Response.StatusCode() != tc.status {
			t.Fatalf("%s %s: status = %d", tc.method, tc.uri, ctx.Response.StatusCode())
		}
		var derr chessdto.DomainError
		if err := json.Unmarshal(ctx.Response.Body(), &derr); err != nil || derr.Code != tc.code {
			t.Fatalf("%s %s: body = %s", tc.method, tc.uri, ctx.Response.Body())
		}
	}
}

func TestBoardPNG(t *testing.T) {
	r := startRunner(t, session.MoveSourceFunc(firstLegal))
	ctx := serve(New(r, nil).Handler(), "GET", "/api/board.png")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
	if string(ctx.Response.Header.ContentType()) != "image/png" {
		t.Fatalf("content type = %s", ctx.Response.Header.ContentType())
	}
	if _, err := png.Decode(bytes.NewReader(ctx.Response.Body())); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestStoppedSessionIsUnavailable(t *testing.T) {
	illegal := func(context.Context, rules.Board) (domain.Move, error) {
		return domain.Plain(domain.MustPosition("a7"), domain.MustPosition("a3")), nil
	}
	r := startRunner(t, session.MoveSourceFunc(illegal))
	h := New(r, nil).Handler()
	decodeView(t, serve(h, "POST", "/api/click?square=e2"))
	serve(h, "POST", "/api/click?square=e4")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for ctx.Err() == nil && r.Err() == nil {
		time.Sleep(5 * time.Millisecond)
	}
	got := serve(h, "POST", "/api/new")
	if got.Response.StatusCode() != fasthttp.StatusServiceUnavailable {
		t.Fatalf("status = %d body = %s", got.Response.StatusCode(), got.Response.Body())
	}
}

func TestClientOverInMemoryListener(t *testing.T) {
	r := startRunner(t, session.MoveSourceFunc(firstLegal))
	srv := New(r, nil)
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	c := NewClient("http://desk", WithDial(func(string) (net.Conn, error) { return ln.Dial() }), WithRetry(1))
	ctx := context.Background()
	if _, err := c.Click(ctx, "g1"); err != nil {
		t.Fatalf("Click: %v", err)
	}
	if _, err := c.Click(ctx, "f3"); err != nil {
		t.Fatalf("Click: %v", err)
	}
	v, err := c.View(ctx, true)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if v.Plies != 2 || v.MovesUCI[0] != "g1f3" {
		t.Fatalf("view = %+v", v)
	}
	if _, err := c.Promote(ctx, "queen"); err != nil {
		t.Fatalf("Promote outside promotion should be ignored, got %v", err)
	}
	_, err = c.Click(ctx, "k0")
	var derr chessdto.DomainError
	if !errors.As(err, &derr) || derr.Code != "bad_square" {
		t.Fatalf("err = %v", err)
	}
	raw, err := c.BoardPNG(ctx)
	if err != nil || len(raw) == 0 {
		t.Fatalf("BoardPNG: %d bytes, %v", len(raw), err)
	}
}
