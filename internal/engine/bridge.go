package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// ErrNoMove means neither the engine nor the fallback produced a move.
	ErrNoMove = errors.New("engine: no move available")
	// ErrWorkerUnavailable means the engine process could not be used.
	ErrWorkerUnavailable = errors.New("engine: worker unavailable")

	errSearchTimeout = errors.New("engine: search timed out")
)

const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultGrace            = 2 * time.Second
	DefaultFallbackDelayCap = 300 * time.Millisecond
)

// Options tunes the bridge. Zero values take the defaults above.
type Options struct {
	HandshakeTimeout time.Duration
	Grace            time.Duration
	FallbackDelayCap time.Duration
	Seed             int64
	Logger           *log.Logger
}

// Bridge owns one engine worker. Requests are serialized; a worker that
// fails is never restarted and every later request uses the fallback.
type Bridge struct {
	start StartFunc
	opts  Options
	log   *log.Logger

	mu       sync.Mutex
	worker   Worker
	fallback bool
	closed   bool

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewBridge creates a bridge. start may be nil to run on the fallback only.
func NewBridge(start StartFunc, opts Options) *Bridge {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if opts.Grace <= 0 {
		opts.Grace = DefaultGrace
	}
	if opts.FallbackDelayCap <= 0 {
		opts.FallbackDelayCap = DefaultFallbackDelayCap
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Bridge{
		start: start,
		opts:  opts,
		log:   logger.WithPrefix("engine"),
		rng:   rand.New(rand.NewSource(opts.Seed)),
	}
}

// Init starts the worker and performs the uci/isready handshake. On error
// the bridge stays usable on the fallback generator.
func (b *Bridge) Init(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.worker != nil || b.fallback {
		return nil
	}
	if b.start == nil {
		b.fallback = true
		return fmt.Errorf("engine: no worker configured: %w", ErrWorkerUnavailable)
	}

	hctx, cancel := context.WithTimeout(ctx, b.opts.HandshakeTimeout)
	defer cancel()

	w, err := b.start(hctx)
	if err != nil {
		b.fallback = true
		b.log.Warn("engine unavailable, using fallback", "err", err)
		return fmt.Errorf("engine: start: %w", errors.Join(ErrWorkerUnavailable, err))
	}

	if err := b.handshake(hctx, w); err != nil {
		_ = w.Close()
		b.fallback = true
		b.log.Warn("engine handshake failed, using fallback", "err", err)
		return fmt.Errorf("engine: handshake: %w", errors.Join(ErrWorkerUnavailable, err))
	}

	b.worker = w
	b.log.Info("engine ready")
	return nil
}

func (b *Bridge) handshake(ctx context.Context, w Worker) error {
	if err := w.Send("uci"); err != nil {
		return err
	}
	if err := waitFor(ctx, w, "uciok"); err != nil {
		return err
	}
	if err := w.Send("isready"); err != nil {
		return err
	}
	return waitFor(ctx, w, "readyok")
}

// waitFor discards lines until one equals want.
func waitFor(ctx context.Context, w Worker, want string) error {
	for {
		select {
		case line, ok := <-w.Lines():
			if !ok {
				return fmt.Errorf("worker exited waiting for %s", want)
			}
			if strings.TrimSpace(line) == want {
				return nil
			}
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", want, ctx.Err())
		}
	}
}

// UsingFallback reports whether the worker has been given up on.
func (b *Bridge) UsingFallback() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fallback || b.worker == nil
}

// BestMove returns a move in UCI notation for the position. Engine
// failures are absorbed by the fallback; the error is non-nil only when no
// legal move exists, the FEN is invalid, or ctx ends.
func (b *Bridge) BestMove(ctx context.Context, fen string, p Profile) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return "", fmt.Errorf("engine: bridge closed: %w", ErrWorkerUnavailable)
	}
	if b.fallback || b.worker == nil {
		return b.randomMove(ctx, fen, p)
	}

	mv, err := b.search(ctx, fen, p)
	switch {
	case err == nil:
		return mv, nil
	case errors.Is(err, errSearchTimeout):
		// A late bestmove is drained by the next request's isready sync.
		_ = b.worker.Send("stop")
		b.log.Warn("engine search timed out, using fallback for this move", "movetime", p.MoveTime)
		return b.randomMove(ctx, fen, p)
	case ctx.Err() != nil:
		_ = b.worker.Send("stop")
		return "", ctx.Err()
	default:
		b.log.Error("engine failed, switching to fallback", "err", err)
		_ = b.worker.Close()
		b.worker = nil
		b.fallback = true
		return b.randomMove(ctx, fen, p)
	}
}

func (b *Bridge) search(ctx context.Context, fen string, p Profile) (string, error) {
	w := b.worker

	// isready/readyok fences off output left over from an earlier search.
	sctx, cancel := context.WithTimeout(ctx, b.opts.Grace)
	err := w.Send("isready")
	if err == nil {
		err = waitFor(sctx, w, "readyok")
	}
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("sync: %w", err)
	}

	cmds := []string{
		fmt.Sprintf("setoption name Skill Level value %d", p.SkillLevel),
		fmt.Sprintf("setoption name MultiPV value %d", p.multiPV()),
		"position fen " + fen,
		fmt.Sprintf("go depth %d movetime %d", max(p.Depth, 1), p.MoveTime.Milliseconds()),
	}
	for _, c := range cmds {
		if err := w.Send(c); err != nil {
			return "", err
		}
	}

	deadline := time.NewTimer(p.MoveTime + b.opts.Grace)
	defer deadline.Stop()

	bySlot := make(map[int]string)
	for {
		select {
		case line, ok := <-w.Lines():
			if !ok {
				return "", fmt.Errorf("worker exited during search: %w", ErrWorkerUnavailable)
			}
			if c, ok := parseInfo(line); ok {
				bySlot[c.multipv] = c.move
				continue
			}
			best, ok := parseBestMove(line)
			if !ok {
				continue
			}
			if isNullMove(best) {
				return "", fmt.Errorf("bestmove %q: %w", best, ErrNoMove)
			}
			if p.Variety {
				if cands := candidateMoves(bySlot); len(cands) > 1 {
					return cands[b.intn(len(cands))], nil
				}
			}
			return best, nil
		case <-deadline.C:
			return "", errSearchTimeout
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Close releases the worker after any running request has returned.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.worker == nil {
		return nil
	}
	err := b.worker.Close()
	b.worker = nil
	return err
}

func (b *Bridge) intn(n int) int {
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	return b.rng.Intn(n)
}
