package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/park285/cheese-desk/internal/adapter/chesspresenter"
	"github.com/park285/cheese-desk/internal/chess"
	"github.com/park285/cheese-desk/internal/chess/openingbook"
	appcfg "github.com/park285/cheese-desk/internal/config"
	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/httpview"
	"github.com/park285/cheese-desk/internal/msgcat"
	"github.com/park285/cheese-desk/internal/obslog"
	"github.com/park285/cheese-desk/internal/render"
	"github.com/park285/cheese-desk/internal/rules"
	"github.com/park285/cheese-desk/internal/session"
)

func main() {
	configPath := flag.String("config", os.Getenv("CHESS_CONFIG"), "YAML config file")
	httpAddr := flag.String("http", "", "serve the HTTP view on this address (overrides config)")
	selfPlay := flag.Bool("selfplay", false, "let the opponent play itself and print the game")
	attach := flag.String("attach", "", "drive a desk already served at this base URL")
	headless := flag.Bool("headless", false, "serve the HTTP view only, without a REPL")
	flag.Parse()

	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	cfg, err := appcfg.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}

	cat, err := msgcat.New(cfg.Lang, cfg.MessagesDir)
	if err != nil {
		log.Fatalf("messages error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	in, out, closeIn := openInput(interactive)
	defer closeIn()

	if *attach != "" {
		formatter := chesspresenter.NewFormatter(cat, "remote")
		presenter := chesspresenter.NewPresenter(out, render.NewText(interactive, interactive), render.NewPNGRenderer(0), formatter, nil)
		if err := runRemote(ctx, httpview.NewClient(*attach), presenter, in); err != nil {
			log.Fatalf("attach error: %v", err)
		}
		return
	}

	start, err := rules.BoardFromFEN(cfg.StartFEN)
	if err != nil {
		log.Fatalf("start position error: %v", err)
	}
	var opening chesspresenter.OpeningNamer
	if start.FEN() == rules.StartingBoard().FEN() {
		opening = openingbook.Name
	}

	sources, err := chess.New(ctx, cfg.Opponent, logger)
	if err != nil {
		log.Fatalf("opponent init error: %v", err)
	}
	defer sources.Close()

	formatter := chesspresenter.NewFormatter(cat, sources.Primary.Name())
	presenter := chesspresenter.NewPresenter(out, render.NewText(interactive, interactive), render.NewPNGRenderer(0), formatter, opening)

	if *selfPlay {
		runSelfPlay(ctx, cfg, start, sources, cat, presenter, logger)
		return
	}

	seed := cfg.Opponent.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	human := cfg.ResolveHumanColor(rand.New(rand.NewSource(seed)))

	runner, err := session.NewRunner(session.RunnerConfig{
		Session: session.Config{
			Engine:        rules.NewStandardEngine(),
			StartingBoard: start,
			HumanColor:    human,
			Messages:      msgcat.NewGameMessages(cat),
		},
		Source:      sources.Primary,
		Fallback:    sources.Fallback,
		MoveTimeout: cfg.Opponent.MoveTimeout,
	}, logger)
	if err != nil {
		log.Fatalf("session init error: %v", err)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- runner.Run(ctx) }()

	if cfg.HTTPAddr != "" {
		srv := httpview.New(runner, logger,
			httpview.WithOpening(opening),
			httpview.WithTurnText(func(c domain.Color) string { return formatter.Turn(c.String()) }))
		go func() {
			if err := srv.ListenAndServe(cfg.HTTPAddr); err != nil {
				logger.Error("http_serve_failed", zap.Error(err))
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	if *headless {
		if cfg.HTTPAddr == "" {
			log.Fatalf("-headless needs an HTTP address")
		}
		logger.Info("desk_headless", zap.String("addr", cfg.HTTPAddr), zap.String("human", human.String()))
		select {
		case <-ctx.Done():
		case err := <-runErr:
			logger.Error("session_runner_stopped", zap.Error(err))
			return
		}
	} else {
		presenter.Line(formatter.Welcome())
		presenter.Line(formatter.Started(human.String()))
		if err := runLocal(ctx, runner, presenter, in); err != nil {
			presenter.Line(formatter.Fatal(err))
		}
	}
	stop()
	if err := <-runErr; err != nil {
		logger.Warn("session_runner_stopped", zap.Error(err))
	}
}

// lineReader yields REPL lines until io.EOF.
type lineReader interface {
	Readline() (string, error)
}

type scannerReader struct{ s *bufio.Scanner }

func (r scannerReader) Readline() (string, error) {
	if !r.s.Scan() {
		if err := r.s.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.s.Text(), nil
}

// openInput uses readline on a terminal and a plain scanner for piped input.
func openInput(interactive bool) (lineReader, io.Writer, func()) {
	if !interactive {
		return scannerReader{s: bufio.NewScanner(os.Stdin)}, os.Stdout, func() {}
	}
	completer := readline.NewPrefixCompleter(
		readline.PcItem("click"),
		readline.PcItem("promote",
			readline.PcItem("queen"), readline.PcItem("rook"),
			readline.PcItem("bishop"), readline.PcItem("knight")),
		readline.PcItem("new"),
		readline.PcItem("board"),
		readline.PcItem("png"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "desk> ",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		log.Fatalf("readline init error: %v", err)
	}
	return rl, rl.Stdout(), func() { _ = rl.Close() }
}

func runLocal(ctx context.Context, runner *session.Runner, p *chesspresenter.Presenter, in lineReader) error {
	f := p.Formatter()
	v, err := runner.Settled(ctx)
	if err != nil {
		return err
	}
	p.Show(v)

	for {
		line, err := in.Readline()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				return nil
			}
			return err
		}
		cmd, err := chesspresenter.ParseCommand(line)
		if err != nil {
			reportParseError(p, f, line, err)
			continue
		}
		switch cmd.Kind {
		case chesspresenter.CmdQuit:
			return nil
		case chesspresenter.CmdHelp:
			p.Line(f.Help())
		case chesspresenter.CmdBoard:
			p.Show(runner.View())
		case chesspresenter.CmdPNG:
			if err := p.WritePNG(ctx, runner.View(), cmd.Arg); err != nil {
				p.Line(err.Error())
			}
		case chesspresenter.CmdEvents:
			for _, ev := range cmd.Events {
				if _, err := runner.Submit(ctx, ev); err != nil {
					return err
				}
			}
			if v, err = runner.Settled(ctx); err != nil {
				return err
			}
			p.Show(v)
		}
	}
}

func runRemote(ctx context.Context, c *httpview.Client, p *chesspresenter.Presenter, in lineReader) error {
	f := p.Formatter()
	state, err := c.View(ctx, true)
	if err != nil {
		return err
	}
	if err := p.ShowRemote(*state); err != nil {
		return err
	}
	for {
		line, err := in.Readline()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				return nil
			}
			return err
		}
		cmd, err := chesspresenter.ParseCommand(line)
		if err != nil {
			reportParseError(p, f, line, err)
			continue
		}
		switch cmd.Kind {
		case chesspresenter.CmdQuit:
			return nil
		case chesspresenter.CmdHelp:
			p.Line(f.Help())
			continue
		case chesspresenter.CmdPNG:
			raw, err := c.BoardPNG(ctx)
			if err == nil {
				err = os.WriteFile(cmd.Arg, raw, 0o644)
			}
			if err != nil {
				p.Line(err.Error())
			} else {
				p.Line(f.PNGWritten(cmd.Arg))
			}
			continue
		case chesspresenter.CmdEvents:
			for _, ev := range cmd.Events {
				if err := sendRemote(ctx, c, ev); err != nil {
					return err
				}
			}
		}
		if state, err = c.View(ctx, true); err != nil {
			return err
		}
		if err := p.ShowRemote(*state); err != nil {
			return err
		}
	}
}

func sendRemote(ctx context.Context, c *httpview.Client, ev session.Event) error {
	var err error
	switch e := ev.(type) {
	case session.SquareClicked:
		_, err = c.Click(ctx, e.Pos.String())
	case session.PromotionPieceChosen:
		_, err = c.Promote(ctx, strings.ToLower(e.Kind.String()))
	case session.NewGameRequested:
		_, err = c.NewGame(ctx)
	}
	return err
}

func reportParseError(p *chesspresenter.Presenter, f *chesspresenter.Formatter, line string, err error) {
	var serr chesspresenter.SquareError
	var perr chesspresenter.PieceError
	switch {
	case errors.Is(err, chesspresenter.ErrEmptyCommand):
	case errors.As(err, &serr):
		p.Line(f.BadSquare(serr.Input))
	case errors.As(err, &perr):
		p.Line(f.BadPiece(perr.Input))
	default:
		p.Line(f.Unknown(strings.TrimSpace(line)))
	}
}

func runSelfPlay(ctx context.Context, cfg *appcfg.AppConfig, start rules.Board, sources *chess.Set, cat *msgcat.Catalog, p *chesspresenter.Presenter, logger *zap.Logger) {
	var opponent session.MoveSource = sources.Primary
	if sources.Fallback != nil {
		opponent = chess.WithFallback(sources.Primary, sources.Fallback, logger)
	}
	res, err := session.SelfPlay(ctx, session.SelfPlayConfig{
		Engine:        rules.NewStandardEngine(),
		StartingBoard: start,
		White:         opponent,
		Black:         opponent,
		Messages:      msgcat.NewGameMessages(cat),
		MaxPlies:      cfg.SelfPlayMax,
		OnMove: func(ply int, mv domain.Move, _ rules.Board) {
			p.Line(fmt.Sprintf("%3d. %s", ply, mv))
		},
	}, logger)
	if err != nil {
		log.Fatalf("selfplay error: %v", err)
	}

	view := session.View{
		State:    session.GameOver,
		Board:    res.Final,
		Turn:     res.Final.Turn(),
		Captured: res.Captured,
		Plies:    len(res.Moves),
		Message:  res.Message,
	}
	p.Show(view)
	if res.Finished {
		p.Line(cat.Text("selfplay.summary", res.Message, map[string]any{"Plies": len(res.Moves), "Result": res.Message}))
		return
	}
	p.Line(cat.Text("selfplay.unfinished", "unfinished", map[string]any{"Plies": len(res.Moves)}))
}
