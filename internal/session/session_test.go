package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vovakirdan/glasschess/internal/chess/state"
	"github.com/vovakirdan/glasschess/internal/engine"
	"github.com/vovakirdan/glasschess/internal/input"
	"github.com/vovakirdan/glasschess/internal/oracle"
	"github.com/vovakirdan/glasschess/internal/storage"
)

type memPersistence struct {
	mu      sync.Mutex
	saved   *storage.SavedGame
	scores  map[string][]int
	deletes int
}

func newMemPersistence() *memPersistence {
	return &memPersistence{scores: make(map[string][]int)}
}

func (m *memPersistence) SaveGame(g storage.SavedGame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = &g
	return nil
}

func (m *memPersistence) LoadGame() (storage.SavedGame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return storage.SavedGame{}, storage.ErrNoSavedGame
	}
	return *m.saved, nil
}

func (m *memPersistence) DeleteGame() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = nil
	m.deletes++
	return nil
}

func (m *memPersistence) SaveScore(gameID string, score int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[gameID] = append(m.scores[gameID], score)
	return int64(len(m.scores[gameID])), nil
}

func (m *memPersistence) snapshot() (*storage.SavedGame, map[string][]int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	scores := make(map[string][]int, len(m.scores))
	for k, v := range m.scores {
		scores[k] = append([]int(nil), v...)
	}
	return m.saved, scores
}

// replyMover answers from a script; an empty entry is a failure.
type replyMover struct {
	mu    sync.Mutex
	moves []string
	calls atomic.Int32
}

func (m *replyMover) BestMove(ctx context.Context, fen string, p engine.Profile) (string, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.moves) == 0 {
		return "", engine.ErrNoMove
	}
	mv := m.moves[0]
	m.moves = m.moves[1:]
	if mv == "" {
		return "", engine.ErrNoMove
	}
	return mv, nil
}

func newSession(t *testing.T, p Persistence, mover *replyMover, onExit func(bool)) (*Session, *oracle.Game) {
	t.Helper()
	g := oracle.New()
	s := New(Deps{
		Reducer:       state.NewReducer(state.Config{Start: g.Snapshot(state.White)}),
		Oracle:        g,
		Mover:         mover,
		Persistence:   p,
		GameOverDelay: 10 * time.Millisecond,
		TickInterval:  5 * time.Millisecond,
		OnExit:        onExit,
	})
	s.Start()
	t.Cleanup(s.Close)
	return s, g
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// playFirstMove enters the first destination of the first piece: Nb1-a3.
func playFirstMove(s *Session) {
	now := time.Now()
	s.Dispatch(state.Scroll{Direction: state.ScrollDown, At: now})
	s.Dispatch(state.Tap{At: now.Add(time.Second)})
	s.Dispatch(state.Tap{At: now.Add(2 * time.Second)})
}

func TestPlayerMoveGetsEngineReply(t *testing.T) {
	mover := &replyMover{moves: []string{"e7e5"}}
	s, g := newSession(t, nil, mover, nil)

	playFirstMove(s)
	waitFor(t, "engine reply", func() bool { return len(s.State().History) == 2 })

	st := s.State()
	if st.History[0] != "Na3" || st.History[1] != "e5" {
		t.Errorf("history = %v", st.History)
	}
	if st.Turn != state.White || st.PendingMove != nil || st.EngineThinking {
		t.Errorf("turn=%s pending=%v thinking=%v", st.Turn, st.PendingMove, st.EngineThinking)
	}
	if st.Position != g.Position() {
		t.Error("state and oracle disagree on the position")
	}
}

func TestNewGameResetsOracle(t *testing.T) {
	mover := &replyMover{moves: []string{"e7e5"}}
	s, g := newSession(t, nil, mover, nil)

	playFirstMove(s)
	waitFor(t, "engine reply", func() bool { return len(s.State().History) == 2 })

	s.Dispatch(state.NewGame{At: time.Now()})
	if g.Position() != s.State().Position || len(g.LegalMoves("")) != 20 {
		t.Errorf("oracle not reset: %s", g.Position())
	}
}

func TestEngineRetryAfterFailure(t *testing.T) {
	mover := &replyMover{moves: []string{"", "e7e5"}}
	s, _ := newSession(t, nil, mover, nil)

	playFirstMove(s)
	waitFor(t, "engine failure", func() bool {
		st := s.State()
		return mover.calls.Load() == 1 && !st.EngineThinking && st.PendingMove == nil
	})
	if s.State().Turn != state.Black {
		t.Fatal("engine failure should leave the engine to move")
	}

	s.Dispatch(state.Tap{At: time.Now().Add(time.Minute)})
	waitFor(t, "retried reply", func() bool { return s.State().Turn == state.White })
	if mover.calls.Load() != 2 {
		t.Errorf("engine calls = %d, want 2", mover.calls.Load())
	}
	if s.State().PendingEngineRetry {
		t.Error("retry intent not cleared")
	}
}

func TestExitSavesAndResumes(t *testing.T) {
	store := newMemPersistence()
	mover := &replyMover{moves: []string{"e7e5"}}
	exited := make(chan bool, 1)
	s, _ := newSession(t, store, mover, func(save bool) { exited <- save })

	playFirstMove(s)
	waitFor(t, "engine reply", func() bool { return len(s.State().History) == 2 })

	s.Dispatch(state.ConfirmExit{Save: true})
	select {
	case save := <-exited:
		if !save {
			t.Error("OnExit got save=false")
		}
	case <-time.After(time.Second):
		t.Fatal("OnExit not called")
	}
	waitFor(t, "exit intent cleared", func() bool { return s.State().PendingExit == nil })

	saved, _ := store.snapshot()
	if saved == nil || len(saved.History) != 2 || saved.Turn != "w" {
		t.Fatalf("saved = %+v", saved)
	}

	resumed, g := newSession(t, store, &replyMover{}, nil)
	st := resumed.State()
	if st.Position != saved.Position || len(st.History) != 2 || st.Generation != 1 {
		t.Errorf("resumed state: pos=%s history=%v gen=%d", st.Position, st.History, st.Generation)
	}
	if g.Position() != saved.Position {
		t.Error("oracle not loaded from the save")
	}
	if len(st.Pieces) == 0 {
		t.Error("resumed game has no movable pieces")
	}
}

func TestExitWithoutSaveDeletes(t *testing.T) {
	store := newMemPersistence()
	store.SaveGame(storage.SavedGame{Position: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"})
	s, _ := newSession(t, store, &replyMover{}, nil)

	s.Dispatch(state.ConfirmExit{Save: false})
	if saved, _ := store.snapshot(); saved != nil {
		t.Errorf("save survived a discard exit: %+v", saved)
	}
}

func TestDifficultyChangePersists(t *testing.T) {
	store := newMemPersistence()
	s, _ := newSession(t, store, &replyMover{}, nil)

	s.Dispatch(state.SetDifficulty{Level: state.DifficultySerious})
	saved, _ := store.snapshot()
	if saved == nil || saved.Difficulty != "serious" {
		t.Fatalf("saved = %+v", saved)
	}
}

func TestDrillScoreRecorded(t *testing.T) {
	store := newMemPersistence()
	s, _ := newSession(t, store, &replyMover{}, nil)
	now := time.Now()

	s.Dispatch(state.StartDrill{Type: state.DrillCoordinate, At: now})
	s.Dispatch(state.DrillAnswer{Correct: true})
	s.Dispatch(state.NextDrillQuestion{})

	// A menu pause keeps the run open.
	s.Dispatch(state.OpenMenu{At: now})
	s.Dispatch(state.CloseMenu{At: now})
	if _, scores := store.snapshot(); len(scores) != 0 {
		t.Fatalf("score recorded on a menu pause: %v", scores)
	}

	s.Dispatch(state.DrillAnswer{Correct: false})
	s.Dispatch(state.DoubleTap{At: now.Add(time.Second)})

	_, scores := store.snapshot()
	got := scores[ScoreID(state.DrillCoordinate)]
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("scores = %v, want one run scoring 1", scores)
	}
}

func TestBulletTimeoutEndsGame(t *testing.T) {
	store := newMemPersistence()
	store.SaveGame(storage.SavedGame{Position: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"})
	s, _ := newSession(t, store, &replyMover{}, nil)

	s.Dispatch(state.StartBulletGame{TimeControlIndex: 0, At: time.Now().Add(-2 * time.Minute)})
	waitFor(t, "time-out", func() bool { return s.State().GameOver == state.ReasonTimeout })
	if saved, _ := store.snapshot(); saved != nil {
		t.Error("finished game left a save behind")
	}
}

func TestHandleEventMapsAndDispatches(t *testing.T) {
	s, _ := newSession(t, nil, &replyMover{}, nil)

	if !s.HandleEvent(input.TextEvent{Type: input.TypePtr(input.ScrollBottom)}) {
		t.Fatal("scroll not mapped")
	}
	if s.State().Phase != state.PhasePieceSelect {
		t.Errorf("phase = %s, want pieceSelect", s.State().Phase)
	}
	if s.HandleEvent(input.SysEvent{}) {
		t.Error("typeless system event produced an action")
	}
}

func TestStoreNotifiesOnlyOnChange(t *testing.T) {
	g := oracle.New()
	store := NewStore(state.NewReducer(state.Config{Start: g.Snapshot(state.White)}), nil)

	var calls int
	unsub := store.Subscribe(func(prev, next *state.GameState) {
		if prev == next {
			t.Error("listener called without a change")
		}
		calls++
	})

	before := store.State()
	if after := store.Dispatch(state.ClearIntents{}); after != before {
		t.Error("no-op dispatch replaced the state")
	}
	store.Dispatch(state.OpenMenu{At: time.Now()})
	unsub()
	store.Dispatch(state.CloseMenu{At: time.Now()})

	if calls != 1 {
		t.Errorf("listener called %d times, want 1", calls)
	}
}

func TestHydrateIgnoresMissingSave(t *testing.T) {
	store := newMemPersistence()
	s, _ := newSession(t, store, &replyMover{}, nil)
	if s.State().Generation != 0 || len(s.State().History) != 0 {
		t.Error("fresh session changed without a save")
	}
	if _, err := store.LoadGame(); !errors.Is(err, storage.ErrNoSavedGame) {
		t.Errorf("err = %v", err)
	}
}

// refusingOracle rejects every player move.
type refusingOracle struct {
	*oracle.Game
	applies atomic.Int32
}

func (o *refusingOracle) Apply(from, to string, promo state.PieceType) (oracle.Move, error) {
	o.applies.Add(1)
	return oracle.Move{}, oracle.ErrIllegalMove
}

func TestRejectedPlayerMoveLeavesNoHistory(t *testing.T) {
	g := &refusingOracle{Game: oracle.New()}
	start := g.Position()
	p := newMemPersistence()
	s := New(Deps{
		Reducer:     state.NewReducer(state.Config{Start: g.Snapshot(state.White)}),
		Oracle:      g,
		Mover:       &replyMover{},
		Persistence: p,
	})
	s.Start()
	t.Cleanup(s.Close)

	playFirstMove(s)
	waitFor(t, "rejection", func() bool {
		return g.applies.Load() == 1 && s.State().PendingMove == nil
	})

	st := s.State()
	if len(st.History) != 0 {
		t.Errorf("rejected move left in history: %v", st.History)
	}
	if st.Turn != state.White || st.Position != start || st.LastPlayerSquare != "" {
		t.Errorf("turn=%s position=%s last=%q", st.Turn, st.Position, st.LastPlayerSquare)
	}

	s.Dispatch(state.SetDifficulty{Level: state.DifficultySerious})
	saved, _ := p.snapshot()
	if saved == nil {
		t.Fatal("difficulty change did not save")
	}
	if len(saved.History) != 0 {
		t.Errorf("saved history = %v, want empty", saved.History)
	}
}
