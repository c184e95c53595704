package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/glasschess/internal/chess/state"
	"github.com/vovakirdan/glasschess/internal/engine"
	"github.com/vovakirdan/glasschess/internal/input"
	"github.com/vovakirdan/glasschess/internal/oracle"
	"github.com/vovakirdan/glasschess/internal/storage"
	"github.com/vovakirdan/glasschess/internal/turnloop"
)

// DefaultTickInterval is how often the bullet clock is advanced.
const DefaultTickInterval = 100 * time.Millisecond

// busyRetry is how long a player move waits for a stale search to finish.
const busyRetry = 25 * time.Millisecond

// Persistence is the storage the session writes to. *storage.Store
// satisfies it.
type Persistence interface {
	SaveGame(g storage.SavedGame) error
	LoadGame() (storage.SavedGame, error)
	DeleteGame() error
	SaveScore(gameID string, score int) (int64, error)
}

// Deps are the collaborators of one session. Reducer, Oracle and Mover are
// required.
type Deps struct {
	Reducer     *state.Reducer
	Oracle      oracle.Oracle
	Mover       turnloop.Mover
	Persistence Persistence
	Logger      *log.Logger

	Input         input.Config
	Profiles      []engine.Profile
	GameOverDelay time.Duration
	TickInterval  time.Duration
	Now           func() time.Time

	// OnExit is called once the exit intent has been persisted.
	OnExit func(save bool)
}

// Session is one player's game: state slot, turn loop, input mapper and the
// side effects that connect them.
type Session struct {
	store   *Store
	oracle  oracle.Oracle
	loop    *turnloop.Loop
	mapper  *input.Mapper
	persist Persistence
	log     *log.Logger
	deps    Deps

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	openRun *state.Academy
	unsub   func()
	closed  bool
}

// New builds a session. Call Start before feeding it input.
func New(d Deps) *Session {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.TickInterval <= 0 {
		d.TickInterval = DefaultTickInterval
	}
	if d.Input == (input.Config{}) {
		d.Input = input.DefaultConfig()
	}
	logger := d.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	store := NewStore(d.Reducer, nil)
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		store:  store,
		oracle: d.Oracle,
		loop: turnloop.New(d.Oracle, d.Mover, store, turnloop.Options{
			GameOverDelay: d.GameOverDelay,
			Profiles:      d.Profiles,
			Logger:        logger,
		}),
		mapper:  input.NewMapper(d.Input, d.Now),
		persist: d.Persistence,
		log:     logger.WithPrefix("session"),
		deps:    d,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Store returns the session's state slot.
func (s *Session) Store() *Store { return s.store }

// State is shorthand for Store().State().
func (s *Session) State() *state.GameState { return s.store.State() }

// Start wires the side effects, resumes the saved game if there is one and
// starts the bullet clock.
func (s *Session) Start() {
	s.mu.Lock()
	s.unsub = s.store.Subscribe(s.observe)
	s.mu.Unlock()

	s.hydrate()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runClock()
	}()
}

// HandleEvent maps a raw device event and dispatches the resulting action.
// It reports whether the event produced an action.
func (s *Session) HandleEvent(ev input.Event) bool {
	a, ok := s.mapper.Map(ev)
	if !ok {
		return false
	}
	s.store.Dispatch(a)
	return true
}

// Dispatch forwards a to the store.
func (s *Session) Dispatch(a state.Action) *state.GameState {
	return s.store.Dispatch(a)
}

// Close stops the clock, waits for running turns and records an unfinished
// drill run. It does not persist the game; exit intents do that.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsub := s.unsub
	run := s.openRun
	s.openRun = nil
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.loop.Close()
	if unsub != nil {
		unsub()
	}
	if run != nil {
		s.recordRun(run)
	}
}

// observe runs inside Dispatch. Anything that dispatches again is moved to
// a goroutine.
func (s *Session) observe(prev, next *state.GameState) {
	s.mapper.ObservePhase(prev.Phase, next.Phase)

	if next.Generation != prev.Generation {
		s.syncOracle(next)
		if next.EngineOwesMove() {
			s.async(func() { s.requestEngine() })
		}
	}

	if next.PendingMove != nil && next.PendingMove != prev.PendingMove {
		mv := *next.PendingMove
		s.async(func() { s.playerMoved(mv) })
	}

	if next.PendingEngineRetry && !prev.PendingEngineRetry {
		s.async(func() {
			s.store.Dispatch(state.ClearIntents{})
			s.requestEngine()
		})
	}

	if next.Difficulty != prev.Difficulty && next.Generation == prev.Generation {
		s.saveGame(next)
	}

	if next.GameOver != state.ReasonNone && prev.GameOver == state.ReasonNone {
		s.log.Info("game over", "reason", next.GameOver, "moves", len(next.History))
		s.deleteGame()
	}

	s.trackDrill(next)

	if next.PendingExit != nil && next.PendingExit != prev.PendingExit {
		s.exit(next, *next.PendingExit)
	}
}

func (s *Session) async(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

// syncOracle makes the oracle match a freshly started or loaded game.
func (s *Session) syncOracle(next *state.GameState) {
	if len(next.History) == 0 {
		s.oracle.Reset()
	}
	if s.oracle.Position() == next.Position {
		return
	}
	if err := s.oracle.Load(next.Position); err != nil {
		s.log.Error("cannot sync oracle", "fen", next.Position, "err", err)
	}
}

func (s *Session) playerMoved(mv state.PendingMove) {
	for {
		err := s.loop.OnPlayerMoved(s.ctx, mv)
		switch {
		case err == nil:
			return
		case errors.Is(err, turnloop.ErrBusy):
			// A search from the previous game is still winding down.
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(busyRetry):
			}
		default:
			s.log.Error("player move rejected", "move", mv.UCI, "err", err)
			cur := s.store.State()
			s.store.Dispatch(state.MoveRejected{
				Move:  mv,
				Board: s.oracle.Snapshot(cur.PlayerColor),
			})
			return
		}
	}
}

func (s *Session) requestEngine() {
	for {
		err := s.loop.RequestEngineMove(s.ctx)
		if !errors.Is(err, turnloop.ErrBusy) {
			if err != nil {
				s.log.Error("engine request failed", "err", err)
			}
			return
		}
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(busyRetry):
		}
	}
}

// hydrate resumes the saved game. Missing or corrupt saves start fresh.
func (s *Session) hydrate() {
	if s.persist == nil {
		return
	}
	saved, err := s.persist.LoadGame()
	if err != nil {
		if errors.Is(err, storage.ErrNoSavedGame) {
			s.log.Debug("no saved game", "reason", err)
		} else {
			s.log.Warn("cannot read saved game", "err", err)
		}
		return
	}
	if err := s.oracle.Load(saved.Position); err != nil {
		s.log.Warn("discarding unreadable saved game", "err", err)
		if err := s.persist.DeleteGame(); err != nil {
			s.log.Error("cannot delete saved game", "err", err)
		}
		return
	}

	player := s.store.State().PlayerColor
	s.store.Dispatch(state.LoadGame{
		Board:      s.oracle.Snapshot(player),
		History:    saved.History,
		Difficulty: state.Difficulty(saved.Difficulty),
		At:         s.deps.Now(),
	})
	s.log.Info("resumed saved game", "moves", len(saved.History))
}

func (s *Session) saveGame(st *state.GameState) {
	if s.persist == nil || st.GameOver != state.ReasonNone {
		return
	}
	err := s.persist.SaveGame(storage.SavedGame{
		Position:   st.Position,
		History:    st.History,
		Turn:       string(st.Turn),
		Difficulty: string(st.Difficulty),
	})
	if err != nil {
		s.log.Error("cannot save game", "err", err)
	}
}

func (s *Session) deleteGame() {
	if s.persist == nil {
		return
	}
	if err := s.persist.DeleteGame(); err != nil {
		s.log.Error("cannot delete saved game", "err", err)
	}
}

func (s *Session) exit(st *state.GameState, intent state.ExitIntent) {
	if intent.Save && st.GameOver == state.ReasonNone {
		s.saveGame(st)
	} else {
		s.deleteGame()
	}
	s.log.Info("exit", "save", intent.Save)

	s.async(func() { s.store.Dispatch(state.ClearIntents{}) })
	if s.deps.OnExit != nil {
		// Not tracked by wg: OnExit usually closes the session.
		go s.deps.OnExit(intent.Save)
	}
}

// trackDrill keeps the latest academy state of a running drill and records
// its score once the player leaves the drill for anything but a menu pause.
func (s *Session) trackDrill(next *state.GameState) {
	s.mu.Lock()
	var finished *state.Academy
	switch {
	case next.Phase.IsDrill():
		s.openRun = next.Academy
	case next.Phase == state.PhaseAcademySelect || !next.Phase.InMenuTree():
		finished = s.openRun
		s.openRun = nil
	}
	s.mu.Unlock()

	if finished != nil {
		s.recordRun(finished)
	}
}

func (s *Session) recordRun(ac *state.Academy) {
	if s.persist == nil || ac.Attempts == 0 || ac.Drill == nil {
		return
	}
	id := ScoreID(ac.Drill.Type())
	if _, err := s.persist.SaveScore(id, ac.Score); err != nil {
		s.log.Error("cannot record drill score", "drill", id, "err", err)
		return
	}
	s.log.Info("drill finished", "drill", id, "score", ac.Score, "attempts", ac.Attempts)
}

// ScoreID is the scores-table key of a drill.
func ScoreID(t state.DrillType) string { return "academy:" + string(t) }

// runClock advances the bullet clock until the session closes.
func (s *Session) runClock() {
	ticker := time.NewTicker(s.deps.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if t := s.store.State().Timers; t != nil && t.Active {
				s.store.Dispatch(state.TimerTick{Now: s.deps.Now()})
			}
		}
	}
}
