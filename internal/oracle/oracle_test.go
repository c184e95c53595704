package oracle

import (
	"errors"
	"strings"
	"testing"

	"github.com/vovakirdan/glasschess/internal/chess/state"
)

func TestStartSnapshot(t *testing.T) {
	g := New()
	snap := g.Snapshot(state.White)

	if snap.Turn != state.White {
		t.Fatalf("turn = %s, want white", snap.Turn)
	}
	if len(snap.Pieces) != 10 {
		t.Fatalf("movable pieces = %d, want 10", len(snap.Pieces))
	}
	if snap.Pieces[0].ID != "b1" || snap.Pieces[0].Type != state.Knight {
		t.Errorf("first piece = %+v, want knight on b1", snap.Pieces[0])
	}

	total := 0
	for _, p := range snap.Pieces {
		total += len(p.Moves)
	}
	if total != 20 {
		t.Errorf("moves = %d, want 20", total)
	}

	if black := g.Snapshot(state.Black); len(black.Pieces) != 0 {
		t.Errorf("pieces offered to the side not on move: %d", len(black.Pieces))
	}
}

func TestPromotionOptionsOrdered(t *testing.T) {
	g, err := NewFromFEN("8/4P3/8/8/8/8/k7/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("NewFromFEN: %v", err)
	}
	snap := g.Snapshot(state.White)

	var pawn *state.Piece
	for i := range snap.Pieces {
		if snap.Pieces[i].ID == "e7" {
			pawn = &snap.Pieces[i]
		}
	}
	if pawn == nil {
		t.Fatal("pawn on e7 not listed")
	}
	if len(pawn.Moves) != 1 {
		t.Fatalf("pawn destinations = %d, want 1", len(pawn.Moves))
	}

	opt := pawn.Moves[0]
	if !opt.IsPromotion() || len(opt.Promotions) != 4 {
		t.Fatalf("expected four promotion options, got %+v", opt)
	}
	want := []string{"e7e8q", "e7e8r", "e7e8b", "e7e8n"}
	for i, p := range opt.Promotions {
		if p.UCI != want[i] {
			t.Errorf("promotion %d UCI = %s, want %s", i, p.UCI, want[i])
		}
		if p.Piece != state.PromotionOrder[i] {
			t.Errorf("promotion %d piece = %s, want %s", i, p.Piece, state.PromotionOrder[i])
		}
	}
}

func TestApplyIllegal(t *testing.T) {
	g := New()
	tests := []string{"e2e5", "zz99", "", "e7e5"}
	for _, uci := range tests {
		if _, err := g.ApplyUCI(uci); !errors.Is(err, ErrIllegalMove) {
			t.Errorf("ApplyUCI(%q) err = %v, want ErrIllegalMove", uci, err)
		}
	}
	if g.Position() != New().Position() {
		t.Error("illegal moves changed the position")
	}
}

func TestApplyAndOutcome(t *testing.T) {
	g := New()
	for _, uci := range []string{"f2f3", "e7e5", "g2g4"} {
		if _, err := g.ApplyUCI(uci); err != nil {
			t.Fatalf("ApplyUCI(%s): %v", uci, err)
		}
	}
	if g.Outcome() != state.ReasonNone {
		t.Fatalf("outcome = %s before mate", g.Outcome())
	}

	m, err := g.Apply("d8", "h4", state.NoPieceType)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if m.SAN != "Qh4#" {
		t.Errorf("SAN = %q, want Qh4#", m.SAN)
	}
	if g.Outcome() != state.ReasonCheckmate {
		t.Errorf("outcome = %s, want checkmate", g.Outcome())
	}
	if !g.InCheck() {
		t.Error("mated side should be in check")
	}
	if _, err := g.ApplyUCI("a2a3"); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("move after mate err = %v, want ErrIllegalMove", err)
	}
}

func TestInsufficientMaterial(t *testing.T) {
	g, err := NewFromFEN("4k3/8/8/8/8/8/3p4/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("NewFromFEN: %v", err)
	}
	if _, err := g.ApplyUCI("e1d2"); err != nil {
		t.Fatalf("ApplyUCI: %v", err)
	}
	if got := g.Outcome(); got != state.ReasonInsufficientMaterial {
		t.Errorf("outcome = %s, want insufficient-material", got)
	}
}

func TestOpeningName(t *testing.T) {
	g := New()
	for _, uci := range []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5"} {
		if _, err := g.ApplyUCI(uci); err != nil {
			t.Fatalf("ApplyUCI(%s): %v", uci, err)
		}
	}
	if name := g.Opening(); !strings.Contains(name, "Ruy Lopez") {
		t.Errorf("opening = %q, want a Ruy Lopez line", name)
	}
}

func TestResetAndLoad(t *testing.T) {
	g := New()
	if _, err := g.ApplyUCI("e2e4"); err != nil {
		t.Fatalf("ApplyUCI: %v", err)
	}
	g.Reset()
	if g.Turn() != state.White || len(g.LegalMoves("")) != 20 {
		t.Fatal("Reset did not restore the start position")
	}
	if err := g.Load("not a fen"); err == nil {
		t.Fatal("Load accepted garbage")
	}
	if moves := g.LegalMoves("g1"); len(moves) != 2 {
		t.Errorf("knight moves from g1 = %d, want 2", len(moves))
	}
}

func TestInCheckAfterLoad(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want bool
	}{
		{"start", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", false},
		{"rook on file", "4k3/8/8/8/8/8/8/4R1K1 b - - 0 1", true},
		{"knight", "4k3/8/3N4/8/8/8/8/6K1 b - - 0 1", true},
		{"pawn", "4k3/3P4/8/8/8/8/8/6K1 b - - 0 1", true},
		{"bishop open", "4k3/8/8/7B/8/8/8/6K1 b - - 0 1", true},
		{"bishop blocked", "4k3/5p2/8/7B/8/8/8/6K1 b - - 0 1", false},
		{"white king by queen", "6k1/8/8/8/8/8/8/q3K3 w - - 0 1", true},
		{"pawn past king", "8/8/8/8/3P4/4k3/8/6K1 b - - 0 1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewFromFEN(tt.fen)
			if err != nil {
				t.Fatalf("NewFromFEN: %v", err)
			}
			if got := g.InCheck(); got != tt.want {
				t.Errorf("InCheck() = %v, want %v", got, tt.want)
			}
			if got := g.Snapshot(g.Turn()).InCheck; got != tt.want {
				t.Errorf("snapshot InCheck = %v, want %v", got, tt.want)
			}
		})
	}
}
