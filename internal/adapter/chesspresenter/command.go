package chesspresenter

import (
	"errors"
	"strings"

	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/session"
)

type CommandKind int

const (
	CmdEvents CommandKind = iota
	CmdBoard
	CmdPNG
	CmdHelp
	CmdQuit
)

// Command is one parsed REPL line. Events carry the inputs in order for
// CmdEvents; Arg holds the file path for CmdPNG.
type Command struct {
	Kind   CommandKind
	Events []session.Event
	Arg    string
}

var (
	ErrEmptyCommand   = errors.New("empty command")
	ErrUnknownCommand = errors.New("unknown command")
)

// SquareError reports an unparsable square; PieceError an unparsable
// promotion choice.
type SquareError struct{ Input string }

func (e SquareError) Error() string { return "invalid square " + e.Input }

type PieceError struct{ Input string }

func (e PieceError) Error() string { return "invalid piece " + e.Input }

const defaultPNGPath = "board.png"

// ParseCommand accepts:
//
//	click e2 | e2 | e2 e4 | e2e4 | promote q | new | board | png [file] | help | quit
func ParseCommand(line string) (Command, error) {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(line)))
	if len(parts) == 0 {
		return Command{}, ErrEmptyCommand
	}
	head, args := parts[0], parts[1:]
	switch head {
	case "quit", "exit", "q!":
		return Command{Kind: CmdQuit}, nil
	case "help", "?":
		return Command{Kind: CmdHelp}, nil
	case "board", "b!":
		return Command{Kind: CmdBoard}, nil
	case "png":
		path := defaultPNGPath
		if len(args) > 0 {
			// keep the caller's case for file names
			path = strings.Fields(strings.TrimSpace(line))[1]
		}
		return Command{Kind: CmdPNG, Arg: path}, nil
	case "new":
		return Command{Kind: CmdEvents, Events: []session.Event{session.NewGameRequested{}}}, nil
	case "promote", "p":
		if len(args) != 1 {
			return Command{}, PieceError{Input: strings.Join(args, " ")}
		}
		kind, err := domain.ParsePieceKind(args[0])
		if err != nil {
			return Command{}, PieceError{Input: args[0]}
		}
		return Command{Kind: CmdEvents, Events: []session.Event{session.PromotionPieceChosen{Kind: kind}}}, nil
	case "click":
		return clicks(args)
	}
	if len(parts) == 1 && len(head) == 4 {
		return clicks([]string{head[:2], head[2:]})
	}
	if looksLikeSquare(head) {
		return clicks(parts)
	}
	return Command{}, ErrUnknownCommand
}

func clicks(args []string) (Command, error) {
	if len(args) == 0 || len(args) > 2 {
		return Command{}, SquareError{Input: strings.Join(args, " ")}
	}
	cmd := Command{Kind: CmdEvents}
	for _, a := range args {
		pos, err := domain.ParsePosition(a)
		if err != nil {
			return Command{}, SquareError{Input: a}
		}
		cmd.Events = append(cmd.Events, session.SquareClicked{Pos: pos})
	}
	return cmd, nil
}

func looksLikeSquare(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'z' && s[1] >= '0' && s[1] <= '9'
}
