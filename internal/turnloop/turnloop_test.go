package turnloop

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vovakirdan/glasschess/internal/chess/state"
	"github.com/vovakirdan/glasschess/internal/engine"
	"github.com/vovakirdan/glasschess/internal/oracle"
)

type recordingStore struct {
	mu      sync.Mutex
	r       *state.Reducer
	s       *state.GameState
	actions []string
}

func newStore(g *oracle.Game) *recordingStore {
	r := state.NewReducer(state.Config{Start: g.Snapshot(state.White)})
	return &recordingStore{r: r, s: r.Initial()}
}

func (st *recordingStore) State() *state.GameState {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s
}

func (st *recordingStore) Dispatch(a state.Action) *state.GameState {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.actions = append(st.actions, a.ActionName())
	st.s = st.r.Reduce(st.s, a)
	return st.s
}

func (st *recordingStore) log() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return strings.Join(st.actions, ",")
}

// countingOracle counts player-move applications.
type countingOracle struct {
	*oracle.Game
	applies atomic.Int32
}

func (c *countingOracle) Apply(from, to string, promo state.PieceType) (oracle.Move, error) {
	c.applies.Add(1)
	return c.Game.Apply(from, to, promo)
}

// scriptedMover replies with fixed moves, optionally waiting for release.
type scriptedMover struct {
	moves   []string
	err     error
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (m *scriptedMover) BestMove(ctx context.Context, fen string, p engine.Profile) (string, error) {
	n := m.calls.Add(1)
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.release != nil {
		<-m.release
	}
	if m.err != nil {
		return "", m.err
	}
	return m.moves[int(n-1)%len(m.moves)], nil
}

func pending(from, to string) state.PendingMove {
	return state.PendingMove{From: from, To: to, UCI: from + to}
}

func TestSingleFlight(t *testing.T) {
	g := &countingOracle{Game: oracle.New()}
	store := newStore(g.Game)
	mover := &scriptedMover{
		moves:   []string{"e7e5"},
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	l := New(g, mover, store, Options{})
	defer l.Close()

	errc := make(chan error, 1)
	go func() { errc <- l.OnPlayerMoved(context.Background(), pending("e2", "e4")) }()

	<-mover.entered
	if err := l.OnPlayerMoved(context.Background(), pending("d2", "d4")); !errors.Is(err, ErrBusy) {
		t.Fatalf("second call err = %v, want ErrBusy", err)
	}
	if err := l.RequestEngineMove(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("engine request err = %v, want ErrBusy", err)
	}
	close(mover.release)

	if err := <-errc; err != nil {
		t.Fatalf("first call: %v", err)
	}
	if n := g.applies.Load(); n != 1 {
		t.Errorf("oracle Apply called %d times, want 1", n)
	}
	if l.Busy() {
		t.Error("loop still busy")
	}
}

func TestTurnOrdering(t *testing.T) {
	g := oracle.New()
	store := newStore(g)
	l := New(g, &scriptedMover{moves: []string{"e7e5"}}, store, Options{})
	defer l.Close()

	if err := l.OnPlayerMoved(context.Background(), pending("e2", "e4")); err != nil {
		t.Fatalf("OnPlayerMoved: %v", err)
	}
	if got := store.log(); got != "refresh,engineThinking,engineMove" {
		t.Errorf("actions = %s", got)
	}

	s := store.State()
	if s.EngineThinking || s.Turn != state.White {
		t.Errorf("after reply: thinking=%v turn=%s", s.EngineThinking, s.Turn)
	}
	if s.LastMove == nil || s.LastMove.UCI != "e7e5" {
		t.Errorf("last move = %+v", s.LastMove)
	}
	if len(s.Pieces) == 0 {
		t.Error("player has no pieces after the reply")
	}
}

func TestEngineFailureRecovers(t *testing.T) {
	g := oracle.New()
	store := newStore(g)
	l := New(g, &scriptedMover{err: engine.ErrNoMove}, store, Options{})
	defer l.Close()

	if err := l.OnPlayerMoved(context.Background(), pending("e2", "e4")); err != nil {
		t.Fatalf("OnPlayerMoved: %v", err)
	}
	if got := store.log(); got != "refresh,engineThinking,engineError" {
		t.Errorf("actions = %s", got)
	}
	s := store.State()
	if s.EngineThinking || s.Turn != state.Black {
		t.Errorf("after failure: thinking=%v turn=%s", s.EngineThinking, s.Turn)
	}
}

func TestIllegalEngineMoveIsFailure(t *testing.T) {
	g := oracle.New()
	store := newStore(g)
	l := New(g, &scriptedMover{moves: []string{"e2e4"}}, store, Options{})
	defer l.Close()

	if err := l.OnPlayerMoved(context.Background(), pending("d2", "d4")); err != nil {
		t.Fatalf("OnPlayerMoved: %v", err)
	}
	if !strings.HasSuffix(store.log(), "engineError") {
		t.Errorf("actions = %s", store.log())
	}
}

func TestIllegalPlayerMoveAborts(t *testing.T) {
	g := oracle.New()
	store := newStore(g)
	mover := &scriptedMover{moves: []string{"e7e5"}}
	l := New(g, mover, store, Options{})
	defer l.Close()

	err := l.OnPlayerMoved(context.Background(), pending("e2", "e5"))
	if !errors.Is(err, oracle.ErrIllegalMove) {
		t.Fatalf("err = %v, want ErrIllegalMove", err)
	}
	if store.log() != "" || mover.calls.Load() != 0 {
		t.Errorf("aborted turn dispatched %q and called the engine %d times", store.log(), mover.calls.Load())
	}
}

func TestPlayerMateSkipsEngine(t *testing.T) {
	g, err := oracle.NewFromFEN("6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	store := newStore(g)
	mover := &scriptedMover{moves: []string{"g8h8"}}
	l := New(g, mover, store, Options{})
	defer l.Close()

	if err := l.OnPlayerMoved(context.Background(), pending("a1", "a8")); err != nil {
		t.Fatalf("OnPlayerMoved: %v", err)
	}
	if mover.calls.Load() != 0 {
		t.Error("engine was asked to move after mate")
	}
	if s := store.State(); s.GameOver != state.ReasonCheckmate {
		t.Errorf("game over = %q", s.GameOver)
	}
}

func TestEngineMateIsDelayed(t *testing.T) {
	g := oracle.New()
	for _, uci := range []string{"f2f3", "e7e5"} {
		if _, err := g.ApplyUCI(uci); err != nil {
			t.Fatal(err)
		}
	}
	store := newStore(g)
	l := New(g, &scriptedMover{moves: []string{"d8h4"}}, store, Options{GameOverDelay: 20 * time.Millisecond})
	defer l.Close()

	if err := l.OnPlayerMoved(context.Background(), pending("g2", "g4")); err != nil {
		t.Fatalf("OnPlayerMoved: %v", err)
	}
	if store.State().GameOver != state.ReasonNone {
		t.Fatal("game over dispatched before the delay")
	}

	deadline := time.Now().Add(time.Second)
	for store.State().GameOver == state.ReasonNone && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := store.State().GameOver; got != state.ReasonCheckmate {
		t.Errorf("game over = %q, want checkmate", got)
	}
}

func TestCloseCancelsDelayedGameOver(t *testing.T) {
	g := oracle.New()
	for _, uci := range []string{"f2f3", "e7e5"} {
		if _, err := g.ApplyUCI(uci); err != nil {
			t.Fatal(err)
		}
	}
	store := newStore(g)
	l := New(g, &scriptedMover{moves: []string{"d8h4"}}, store, Options{GameOverDelay: time.Hour})

	if err := l.OnPlayerMoved(context.Background(), pending("g2", "g4")); err != nil {
		t.Fatalf("OnPlayerMoved: %v", err)
	}
	l.Close()
	if strings.Contains(store.log(), "gameOver") {
		t.Error("closed loop still dispatched game over")
	}
}

func TestBulletIncrements(t *testing.T) {
	g := oracle.New()
	store := newStore(g)
	store.Dispatch(state.StartBulletGame{TimeControlIndex: 1, At: time.Now()})
	l := New(g, &scriptedMover{moves: []string{"e7e5"}}, store, Options{})
	defer l.Close()

	if err := l.OnPlayerMoved(context.Background(), pending("e2", "e4")); err != nil {
		t.Fatalf("OnPlayerMoved: %v", err)
	}
	tm := store.State().Timers
	if tm.White != time.Minute+time.Second || tm.Black != time.Minute+time.Second {
		t.Errorf("clocks = %s / %s, want both incremented", tm.White, tm.Black)
	}
}

func TestStaleReplyDiscarded(t *testing.T) {
	g := oracle.New()
	store := newStore(g)
	mover := &scriptedMover{
		moves:   []string{"e7e5"},
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	l := New(g, mover, store, Options{})
	defer l.Close()

	errc := make(chan error, 1)
	go func() { errc <- l.OnPlayerMoved(context.Background(), pending("e2", "e4")) }()
	<-mover.entered

	g.Reset()
	store.Dispatch(state.NewGame{At: time.Now()})
	close(mover.release)

	if err := <-errc; err != nil {
		t.Fatalf("OnPlayerMoved: %v", err)
	}
	if g.Turn() != state.White || len(g.LegalMoves("")) != 20 {
		t.Error("stale reply was applied to the new game")
	}
	if strings.Contains(store.log(), "engineMove") {
		t.Errorf("actions = %s", store.log())
	}
}

func TestRequestEngineMoveOnlyWhenOwed(t *testing.T) {
	g := oracle.New()
	store := newStore(g)
	mover := &scriptedMover{moves: []string{"e7e5"}}
	l := New(g, mover, store, Options{})
	defer l.Close()

	if err := l.RequestEngineMove(context.Background()); err != nil {
		t.Fatal(err)
	}
	if mover.calls.Load() != 0 {
		t.Fatal("engine asked to move on the player's turn")
	}

	if _, err := g.ApplyUCI("e2e4"); err != nil {
		t.Fatal(err)
	}
	if err := l.RequestEngineMove(context.Background()); err != nil {
		t.Fatal(err)
	}
	if mover.calls.Load() != 1 || g.Turn() != state.White {
		t.Errorf("engine calls %d, turn %s", mover.calls.Load(), g.Turn())
	}
}
