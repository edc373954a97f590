package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/park285/cheese-desk/internal/domain"
)

func TestEnglishDefaults(t *testing.T) {
	cat, err := New("", "")
	if err != nil { t.Fatalf("New: %v", err) }
	got, err := cat.Render("ui.turn", map[string]any{"Turn": "White"})
	if err != nil || got != "Turn: White" {
		t.Fatalf("got %q, %v", got, err)
	}
	msgs := NewGameMessages(cat)
	if msgs.Victory(domain.Black) != "Black wins!" || msgs.Stalemate() != "Stalemate!" {
		t.Fatalf("messages = %q / %q", msgs.Victory(domain.Black), msgs.Stalemate())
	}
}

func TestKoreanFallsBackPerKey(t *testing.T) {
	cat, err := New("ko", "")
	if err != nil { t.Fatalf("New: %v", err) }
	if got := cat.Text("game.stalemate", "", nil); got != "스테일메이트!" {
		t.Fatalf("stalemate = %q", got)
	}
	if got := cat.Text("cli.help", "", nil); !strings.Contains(got, "promote") {
		t.Fatalf("help did not fall back to english: %q", got)
	}
}

func TestUnknownLanguage(t *testing.T) {
	if _, err := New("xx", ""); err == nil {
		t.Fatalf("expected error")
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	body := "game:\n  victory: \"{{.Winner}} takes it\"\n"
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cat, err := New("en", dir)
	if err != nil { t.Fatalf("New: %v", err) }
	if got := NewGameMessages(cat).Victory(domain.White); got != "White takes it" {
		t.Fatalf("victory = %q", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "b.yml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New("en", dir); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("err = %v", err)
	}
}

func TestRenderMissingField(t *testing.T) {
	cat, err := New("en", "")
	if err != nil { t.Fatalf("New: %v", err) }
	if _, err := cat.Render("ui.turn", map[string]any{}); err == nil {
		t.Fatalf("expected missing key error")
	}
	if got := cat.Text("no.such.key", "fallback", nil); got != "fallback" {
		t.Fatalf("got %q", got)
	}
}

func TestNilCatalogMessages(t *testing.T) {
	var msgs GameMessages
	if msgs.Victory(domain.White) != "White wins!" {
		t.Fatalf("nil catalog fallback broken")
	}
}
