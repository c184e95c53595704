// Package app wires configuration, storage and the engine into running
// chess sessions. Every front end (terminal, SSH, device bridge) launches
// its games through an App.
package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/glasschess/internal/academy"
	"github.com/vovakirdan/glasschess/internal/chess/state"
	"github.com/vovakirdan/glasschess/internal/config"
	"github.com/vovakirdan/glasschess/internal/display"
	"github.com/vovakirdan/glasschess/internal/engine"
	"github.com/vovakirdan/glasschess/internal/oracle"
	"github.com/vovakirdan/glasschess/internal/session"
	"github.com/vovakirdan/glasschess/internal/storage"
)

// Options configures an App. Store may be nil to play without persistence.
type Options struct {
	Config config.Config
	Store  *storage.Store
	Logger *log.Logger
	// Seed makes fallback engine moves reproducible. 0 means random.
	Seed int64

	// Starter overrides the engine process built from Config.Engine.
	Starter engine.StartFunc
}

// App launches games. It is safe for concurrent use.
type App struct {
	cfg     config.Config
	store   *storage.Store
	log     *log.Logger
	seed    int64
	starter engine.StartFunc
	reducer *state.Reducer

	launched atomic.Int64
}

// New loads the academy catalog and builds the shared reducer.
func New(opts Options) (*App, error) {
	cat, err := academy.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("app: cannot load academy catalog: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	starter := opts.Starter
	if starter == nil && opts.Config.Engine.Path != "" {
		starter = engine.ProcessStarter(opts.Config.Engine.Path, opts.Config.Engine.Args...)
	}

	start := oracle.New().Snapshot(state.White)
	return &App{
		cfg:     opts.Config,
		store:   opts.Store,
		log:     logger,
		seed:    opts.Seed,
		starter: starter,
		reducer: state.NewReducer(opts.Config.ReducerConfig(start, cat)),
	}, nil
}

// Reducer returns the reducer every game of this App runs on.
func (a *App) Reducer() *state.Reducer { return a.reducer }

// Game is one running session with its own oracle and engine worker.
type Game struct {
	Player  string
	Session *session.Session

	renderer *display.Renderer
	bridge   *engine.Bridge
	once     sync.Once
}

// Frame renders the current state.
func (g *Game) Frame() display.Frame {
	return g.renderer.Render(g.Session.State())
}

// Close stops the session and the engine worker. It is idempotent.
func (g *Game) Close() {
	g.once.Do(func() {
		g.Session.Close()
		_ = g.bridge.Close()
	})
}

// Launch starts a game for player, resuming their saved game. An empty
// player is the local player. onExit runs after an exit intent has been
// persisted. The engine handshake is bounded by ctx and the configured
// timeout; a failed handshake leaves the game on the fallback generator.
func (a *App) Launch(ctx context.Context, player string, onExit func(save bool)) *Game {
	n := a.launched.Add(1)
	logger := a.log
	if player != "" {
		logger = logger.With("player", player)
	}

	var seed int64
	if a.seed != 0 {
		seed = a.seed + n - 1
	}
	bridge := engine.NewBridge(a.starter, a.cfg.BridgeOptions(seed, logger))
	if err := bridge.Init(ctx); err != nil {
		logger.Info("engine fallback in use", "err", err)
	}

	var persist session.Persistence
	if a.store != nil {
		if player == "" {
			persist = a.store
		} else {
			persist = a.store.Slot(player)
		}
	}

	sess := session.New(session.Deps{
		Reducer:       a.reducer,
		Oracle:        oracle.New(),
		Mover:         bridge,
		Persistence:   persist,
		Logger:        logger,
		Input:         a.cfg.Input,
		Profiles:      a.cfg.Profiles,
		GameOverDelay: a.cfg.Game.GameOverDelay,
		TickInterval:  a.cfg.Game.ClockTick,
		OnExit:        onExit,
	})
	sess.Start()

	return &Game{
		Player:   player,
		Session:  sess,
		renderer: display.NewRenderer(a.reducer),
		bridge:   bridge,
	}
}
