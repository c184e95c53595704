package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/glasschess/internal/chess/state"
	"github.com/vovakirdan/glasschess/internal/config"
	"github.com/vovakirdan/glasschess/internal/storage"
)

func newApp(t *testing.T, store *storage.Store) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Engine.FallbackDelayCap = 5 * time.Millisecond
	a, err := New(Options{Config: cfg, Store: store, Seed: 7})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return a
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLaunchPlaysAgainstFallback(t *testing.T) {
	a := newApp(t, nil)
	g := a.Launch(context.Background(), "", nil)
	defer g.Close()

	if f := g.Frame(); !strings.Contains(f.Text, "Your move") || f.Phase != "idle" {
		t.Fatalf("first frame = %+v", f)
	}

	now := time.Now()
	g.Session.Dispatch(state.Scroll{Direction: state.ScrollDown, At: now})
	g.Session.Dispatch(state.Tap{At: now.Add(time.Second)})
	g.Session.Dispatch(state.Tap{At: now.Add(2 * time.Second)})

	waitFor(t, "fallback reply", func() bool {
		st := g.Session.State()
		return len(st.History) == 2 && st.Turn == state.White
	})
	if !strings.Contains(g.Frame().Text, "Last: ") {
		t.Errorf("frame after reply:\n%s", g.Frame().Text)
	}
}

func TestLaunchUsesPlayerSlot(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "g.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	a := newApp(t, store)

	exited := make(chan bool, 1)
	g := a.Launch(context.Background(), "alice", func(save bool) { exited <- save })
	g.Session.Dispatch(state.SetDifficulty{Level: state.DifficultySerious})
	g.Session.Dispatch(state.ConfirmExit{Save: true})
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("OnExit not called")
	}
	g.Close()
	g.Close()

	saved, err := store.Slot("alice").LoadGame()
	if err != nil || saved.Difficulty != "serious" {
		t.Fatalf("alice's save = %+v, %v", saved, err)
	}
	if _, err := store.LoadGame(); err == nil {
		t.Error("local slot should be empty")
	}

	again := a.Launch(context.Background(), "alice", nil)
	defer again.Close()
	if d := again.Session.State().Difficulty; d != state.DifficultySerious {
		t.Errorf("resumed difficulty = %s", d)
	}
}
