package openingbook

import (
	"math/rand"
	"testing"

	"github.com/park285/cheese-desk/internal/domain"
	"github.com/park285/cheese-desk/internal/rules"
)

func TestCastleFromPolyglot(t *testing.T) {
	b, err := rules.BoardFromFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatalf("BoardFromFEN: %v", err)
	}
	if got := castleFromPolyglot(b, "e1h1"); got != "e1g1" {
		t.Fatalf("king side = %q", got)
	}
	if got := castleFromPolyglot(b, "e1a1"); got != "e1c1" {
		t.Fatalf("queen side = %q", got)
	}
	if got := castleFromPolyglot(b, "a1a8"); got != "a1a8" {
		t.Fatalf("rook move rewritten: %q", got)
	}
}

func TestPickIsWeighted(t *testing.T) {
	e4 := Result{Move: domain.Plain(domain.MustPosition("e2"), domain.MustPosition("e4")), Weight: 100}
	d4 := Result{Move: domain.Plain(domain.MustPosition("d2"), domain.MustPosition("d4")), Weight: 0}
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		got, ok := Pick([]Result{d4, e4}, r)
		if !ok || got.Move != e4.Move {
			t.Fatalf("zero-weight entry picked")
		}
	}
	if _, ok := Pick(nil, r); ok {
		t.Fatalf("empty pick should fail")
	}
}

func TestNilBookLooksUpNothing(t *testing.T) {
	var bk *Book
	res, err := bk.Lookup(rules.StartingBoard())
	if err != nil || len(res) != 0 {
		t.Fatalf("Lookup = %v, %v", res, err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := Open("/nonexistent/book.bin"); err == nil {
		t.Fatalf("expected error")
	}
}
