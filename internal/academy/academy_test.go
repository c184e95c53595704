package academy

import (
	"strings"
	"testing"
)

func TestKnightDistance(t *testing.T) {
	tests := []struct {
		from, to string
		want     int
	}{
		{"g1", "g1", 0},
		{"g1", "f3", 1},
		{"g1", "e5", 2},
		{"a1", "b2", 4},
		{"a1", "h8", 6},
		{"z9", "a1", -1},
	}

	for _, tt := range tests {
		t.Run(tt.from+"-"+tt.to, func(t *testing.T) {
			if got := KnightDistance(tt.from, tt.to); got != tt.want {
				t.Errorf("KnightDistance(%s, %s) = %d, want %d", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestKnightJumps(t *testing.T) {
	got := KnightJumps("a1")
	if strings.Join(got, ",") != "c2,b3" {
		t.Errorf("KnightJumps(a1) = %v, want [c2 b3]", got)
	}
	if n := len(KnightJumps("d4")); n != 8 {
		t.Errorf("KnightJumps(d4) has %d squares, want 8", n)
	}
	if KnightJumps("i9") != nil {
		t.Error("KnightJumps on an invalid square should be nil")
	}
}

func TestSquareRoundTrip(t *testing.T) {
	for i := 0; i < 64; i++ {
		sq := SquareAt(i)
		if got := SquareIndex(sq); got != i {
			t.Fatalf("SquareIndex(SquareAt(%d)) = %d", i, got)
		}
	}
	if SquareAt(0) != "a1" || SquareAt(63) != "h8" {
		t.Errorf("corner squares wrong: %s %s", SquareAt(0), SquareAt(63))
	}
}

func TestNextRandDeterministic(t *testing.T) {
	a1, s1 := NextRand(42)
	a2, s2 := NextRand(42)
	if a1 != a2 || s1 != s2 {
		t.Fatal("NextRand is not deterministic")
	}
	b, _ := NextRand(s1)
	if b == a1 {
		t.Error("consecutive values should differ")
	}
}

func TestLoadDefaultCatalog(t *testing.T) {
	cat, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if len(cat.Tactics) == 0 || len(cat.Mates) == 0 || len(cat.Studies) == 0 {
		t.Fatalf("catalog incomplete: %d tactics, %d mates, %d studies",
			len(cat.Tactics), len(cat.Mates), len(cat.Studies))
	}

	for _, p := range append(cat.Tactics, cat.Mates...) {
		solves := 0
		for _, c := range p.Choices {
			if c.Solves {
				solves++
			}
		}
		if solves == 0 {
			t.Errorf("puzzle %q has no solving choice", p.Name)
		}
	}

	// Back rank: Ra8 is the only mate.
	back := cat.Mates[0]
	for _, c := range back.Choices {
		if c.Solves && c.UCI != "a1a8" {
			t.Errorf("unexpected mating move %s in %q", c.UCI, back.Name)
		}
		if c.UCI == "a1a8" && c.SAN != "Ra8#" {
			t.Errorf("SAN of a1a8 = %q, want Ra8#", c.SAN)
		}
	}

	for _, st := range cat.Studies {
		for i, ply := range st.Plies {
			if ply.Answer < 0 || ply.Answer >= len(ply.Choices) {
				t.Fatalf("%s ply %d: answer %d out of range", st.Title, i, ply.Answer)
			}
			if ply.Choices[ply.Answer] != ply.Move {
				t.Errorf("%s ply %d: answer %q != move %q", st.Title, i, ply.Choices[ply.Answer], ply.Move)
			}
		}
	}
}

func TestLoadRejectsUnsolvablePuzzle(t *testing.T) {
	data := []byte(`
tactics:
  - name: Nothing here
    fen: "4k3/8/8/8/8/8/8/4K3 w - - 0 1"
    solution: a1a2
`)
	if _, err := Load(data); err == nil {
		t.Fatal("expected an error for a puzzle without a legal solution")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	if _, err := Load([]byte("tactics: [")); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestFoolsMateStudy(t *testing.T) {
	cat, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	var fool *Study
	for i := range cat.Studies {
		if cat.Studies[i].Title == "Fool's Mate" {
			fool = &cat.Studies[i]
		}
	}
	if fool == nil {
		t.Fatal("Fool's Mate study missing")
	}
	var moves []string
	for _, p := range fool.Plies {
		moves = append(moves, p.Move)
	}
	if got := strings.Join(moves, " "); got != "f3 e5 g4 Qh4#" {
		t.Errorf("moves = %q", got)
	}
}
