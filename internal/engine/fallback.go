package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/notnil/chess"
)

// randomMove picks a uniformly random legal move after a short delay so the
// "thinking" state stays visible.
func (b *Bridge) randomMove(ctx context.Context, fen string, p Profile) (string, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return "", fmt.Errorf("engine: bad position %q: %w", fen, err)
	}
	pos := chess.NewGame(opt).Position()
	moves := pos.ValidMoves()
	if len(moves) == 0 {
		return "", ErrNoMove
	}
	m := moves[b.intn(len(moves))]

	delay := min(p.MoveTime, b.opts.FallbackDelayCap)
	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return chess.UCINotation{}.Encode(pos, m), nil
}
