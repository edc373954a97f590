package domain

import "testing"

func TestParsePosition(t *testing.T) {
	p, err := ParsePosition("e4")
	if err != nil {
		t.Fatalf("ParsePosition: %v", err)
	}
	if p != (Position{Row: 3, Col: 4}) {
		t.Fatalf("unexpected position %+v", p)
	}
	if p.String() != "e4" {
		t.Fatalf("String = %q", p.String())
	}
	for _, bad := range []string{"", "i1", "a9", "e44", "zz"} {
		if _, err := ParsePosition(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestColorHelpers(t *testing.T) {
	if White.Other() != Black || Black.Other() != White {
		t.Fatalf("Other broken")
	}
	if White.PromotionRank() != 7 || Black.PromotionRank() != 0 {
		t.Fatalf("PromotionRank broken")
	}
	if c, err := ParseColor("b"); err != nil || c != Black {
		t.Fatalf("ParseColor(b) = %v, %v", c, err)
	}
}

func TestPieceKindParsing(t *testing.T) {
	k, err := ParsePieceKind("Q")
	if err != nil || k != Queen {
		t.Fatalf("ParsePieceKind(Q) = %v, %v", k, err)
	}
	if !Knight.Promotable() || King.Promotable() || Pawn.Promotable() {
		t.Fatalf("Promotable broken")
	}
	if (Piece{Kind: Knight, Color: White}).Letter() != "N" {
		t.Fatalf("white knight letter")
	}
	if (Piece{Kind: Knight, Color: Black}).Letter() != "n" {
		t.Fatalf("black knight letter")
	}
}

func TestMoveTarget(t *testing.T) {
	m := Plain(MustPosition("e2"), MustPosition("e4"))
	if to, ok := m.Target(); !ok || to != MustPosition("e4") {
		t.Fatalf("Target = %v, %v", to, ok)
	}
	if _, ok := KingSideCastle().Target(); ok {
		t.Fatalf("castle has no target square")
	}
	pm := Promotion(MustPosition("a7"), MustPosition("a8"), Queen)
	if pm.String() != "a7a8=Q" {
		t.Fatalf("String = %q", pm.String())
	}
}
