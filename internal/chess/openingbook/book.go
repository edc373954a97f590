package openingbook

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"

	chesslib "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"

	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/rules"
)

var ErrEmptyPath = errors.New("polyglot book path required")

// Result is one book move that is legal in the probed position.
type Result struct {
	Move   domain.Move
	UCI    string
	Weight uint16
}

// Book wraps a polyglot opening book.
type Book struct {
	book *chesslib.PolyglotBook
}

func Open(path string) (*Book, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open polyglot book %q: %w", path, err)
	}
	defer file.Close()
	b, err := Load(file)
	if err != nil {
		return nil, fmt.Errorf("load polyglot book %q: %w", path, err)
	}
	return b, nil
}

func Load(r io.Reader) (*Book, error) {
	book, err := chesslib.LoadFromReader(r)
	if err != nil {
		return nil, err
	}
	return &Book{book: book}, nil
}

// Lookup lists the book moves for b, heaviest first. Entries that are not
// legal in b are skipped.
func (bk *Book) Lookup(b rules.Board) ([]Result, error) {
	if bk == nil || bk.book == nil {
		return nil, nil
	}
	hashStr, err := chesslib.NewZobristHasher().HashPosition(b.FEN())
	if err != nil {
		return nil, fmt.Errorf("compute polyglot hash: %w", err)
	}
	entries := bk.book.FindMoves(chesslib.ZobristHashToUint64(hashStr))
	out := make([]Result, 0, len(entries))
	for _, entry := range entries {
		if entry.Weight == 0 {
			continue
		}
		move := chesslib.DecodeMove(entry.Move).ToMove()
		uci := castleFromPolyglot(b, move.String())
		mv, err := b.ParseUCI(uci)
		if err != nil {
			continue
		}
		out = append(out, Result{Move: mv, UCI: uci, Weight: entry.Weight})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out, nil
}

// castleFromPolyglot rewrites king-takes-own-rook castling (e1h1) to the
// king's destination square (e1g1).
func castleFromPolyglot(b rules.Board, uci string) string {
	if len(uci) != 4 {
		return uci
	}
	from, err := domain.ParsePosition(uci[:2])
	if err != nil {
		return uci
	}
	to, err := domain.ParsePosition(uci[2:])
	if err != nil {
		return uci
	}
	king, ok := b.PieceAt(from)
	if !ok || king.Kind != domain.King || from.Col != 4 || from.Row != to.Row {
		return uci
	}
	rook, ok := b.PieceAt(to)
	if !ok || rook.Kind != domain.Rook || rook.Color != king.Color {
		return uci
	}
	switch to.Col {
	case 7:
		return uci[:2] + domain.NewPosition(from.Row, 6).String()
	case 0:
		return uci[:2] + domain.NewPosition(from.Row, 2).String()
	}
	return uci
}

// Pick draws one result with probability proportional to its weight.
func Pick(results []Result, r *rand.Rand) (Result, bool) {
	if len(results) == 0 {
		return Result{}, false
	}
	total := 0
	for _, res := range results {
		total += int(res.Weight)
	}
	if total == 0 || r == nil {
		return results[0], true
	}
	threshold := r.Intn(total)
	for _, res := range results {
		threshold -= int(res.Weight)
		if threshold < 0 {
			return res, true
		}
	}
	return results[len(results)-1], true
}

var (
	ecoOnce sync.Once
	ecoBook *opening.BookECO
)

// Name reports the ECO opening reached by playing moves (UCI) from the
// standard starting position.
func Name(moves []string) (code, title string, ok bool) {
	if len(moves) == 0 {
		return "", "", false
	}
	game := chesslib.NewGame()
	for _, mv := range moves {
		if err := game.PushNotationMove(mv, chesslib.UCINotation{}, nil); err != nil {
			return "", "", false
		}
	}
	ecoOnce.Do(func() { ecoBook = opening.NewBookECO() })
	o := ecoBook.Find(game.Moves())
	if o == nil {
		return "", "", false
	}
	return o.Code(), o.Title(), true
}
