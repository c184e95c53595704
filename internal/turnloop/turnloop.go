// Package turnloop sequences a player's move and the engine's reply:
// apply to the oracle, refresh the UI, ask the engine, apply its answer.
package turnloop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/glasschess/internal/chess/state"
	"github.com/vovakirdan/glasschess/internal/engine"
	"github.com/vovakirdan/glasschess/internal/oracle"
)

// ErrBusy is returned when a turn is already in flight.
var ErrBusy = errors.New("turnloop: turn already in flight")

// DefaultGameOverDelay lets the final move render before the result.
const DefaultGameOverDelay = 500 * time.Millisecond

// Mover produces the engine's reply for a position.
type Mover interface {
	BestMove(ctx context.Context, fen string, p engine.Profile) (string, error)
}

// Store is the state slot the loop reports into.
type Store interface {
	State() *state.GameState
	Dispatch(a state.Action) *state.GameState
}

// Options configures a Loop.
type Options struct {
	GameOverDelay time.Duration
	Profiles      []engine.Profile
	Logger        *log.Logger
}

// Loop runs at most one turn at a time.
type Loop struct {
	oracle oracle.Oracle
	mover  Mover
	store  Store
	opts   Options
	log    *log.Logger

	busy atomic.Bool

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// New wires a loop to its collaborators. The mover is owned by the caller.
func New(o oracle.Oracle, m Mover, store Store, opts Options) *Loop {
	if opts.GameOverDelay <= 0 {
		opts.GameOverDelay = DefaultGameOverDelay
	}
	if len(opts.Profiles) == 0 {
		opts.Profiles = engine.DefaultProfiles()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Loop{
		oracle: o,
		mover:  m,
		store:  store,
		opts:   opts,
		log:    logger.WithPrefix("turnloop"),
		done:   make(chan struct{}),
	}
}

// OnPlayerMoved applies the player's move and, unless the game ended,
// obtains and applies the engine's reply. A call made while another turn
// is in flight returns ErrBusy without touching anything.
func (l *Loop) OnPlayerMoved(ctx context.Context, mv state.PendingMove) error {
	if !l.busy.CompareAndSwap(false, true) {
		l.log.Warn("player move dropped, turn in flight", "move", mv.UCI)
		return ErrBusy
	}
	defer l.busy.Store(false)

	s := l.store.State()
	gen := s.Generation

	played, err := l.oracle.Apply(mv.From, mv.To, mv.Promotion)
	if err != nil {
		l.log.Error("oracle rejected player move", "move", mv.UCI, "err", err)
		return fmt.Errorf("turnloop: apply %s: %w", mv.UCI, err)
	}

	l.store.Dispatch(state.Refresh{
		Generation: gen,
		Board:      l.oracle.Snapshot(s.PlayerColor),
		LastMove:   &state.MoveRef{From: played.From, To: played.To, UCI: played.UCI},
	})

	if clockRunning(s) {
		l.store.Dispatch(state.ApplyIncrement{Color: s.PlayerColor})
	}

	if reason := l.oracle.Outcome(); reason != state.ReasonNone {
		l.store.Dispatch(state.GameOver{Generation: gen, Reason: reason})
		return nil
	}

	return l.engineTurn(ctx, gen)
}

// RequestEngineMove runs only the engine half of a turn. It is used to
// retry after an engine error and does nothing when the engine does not
// owe a move.
func (l *Loop) RequestEngineMove(ctx context.Context) error {
	if !l.busy.CompareAndSwap(false, true) {
		l.log.Warn("engine request dropped, turn in flight")
		return ErrBusy
	}
	defer l.busy.Store(false)

	s := l.store.State()
	if l.oracle.Turn() == s.PlayerColor || l.oracle.Outcome() != state.ReasonNone {
		return nil
	}
	return l.engineTurn(ctx, s.Generation)
}

// Busy reports whether a turn is in flight.
func (l *Loop) Busy() bool { return l.busy.Load() }

func (l *Loop) engineTurn(ctx context.Context, gen int) error {
	s := l.store.Dispatch(state.EngineThinking{Generation: gen})
	profile := l.profileFor(s.Difficulty)
	fen := l.oracle.Position()

	uci, err := l.mover.BestMove(ctx, fen, profile)
	if err != nil {
		l.log.Error("engine produced no move", "err", err)
		l.fail(gen, s.PlayerColor)
		return nil
	}

	// A new game or load during the search makes the reply meaningless.
	if cur := l.store.State(); cur.Generation != gen || l.oracle.Position() != fen {
		l.log.Info("discarding stale engine reply", "move", uci)
		return nil
	}

	played, err := l.oracle.ApplyUCI(uci)
	if err != nil {
		l.log.Error("oracle rejected engine move", "move", uci, "err", err)
		l.fail(gen, s.PlayerColor)
		return nil
	}

	l.store.Dispatch(state.EngineMove{
		Generation: gen,
		UCI:        played.UCI,
		SAN:        played.SAN,
		Board:      l.oracle.Snapshot(s.PlayerColor),
	})

	if cur := l.store.State(); clockRunning(cur) {
		l.store.Dispatch(state.ApplyIncrement{Color: cur.PlayerColor.Other()})
	}

	if reason := l.oracle.Outcome(); reason != state.ReasonNone {
		l.later(l.opts.GameOverDelay, state.GameOver{Generation: gen, Reason: reason})
	}
	return nil
}

func (l *Loop) fail(gen int, player state.Color) {
	board := l.oracle.Snapshot(player)
	l.store.Dispatch(state.EngineError{Generation: gen, Board: &board})
}

// later dispatches a after d unless the loop is closed first.
func (l *Loop) later(d time.Duration, a state.Action) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			l.store.Dispatch(a)
		case <-l.done:
		}
	}()
}

// Close cancels pending delayed dispatches. It does not interrupt an engine
// search in progress.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.done) })
	l.wg.Wait()
}

func (l *Loop) profileFor(d state.Difficulty) engine.Profile {
	if p, ok := engine.Lookup(l.opts.Profiles, string(d)); ok {
		return p
	}
	return l.opts.Profiles[0]
}

func clockRunning(s *state.GameState) bool {
	return s.Mode == state.ModeBullet && s.Timers != nil && s.Timers.Active
}
