// Package oracle is the move-legality authority. Everything the app knows
// about chess rules comes from here; the rest of the code only handles
// squares, SAN strings and UCI codes.
package oracle

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/notnil/chess"
	"github.com/notnil/chess/opening"

	"github.com/vovakirdan/glasschess/internal/chess/state"
)

// ErrIllegalMove is returned when a move is not legal in the current
// position.
var ErrIllegalMove = errors.New("oracle: illegal move")

// Move is a legal move as the oracle reports it.
type Move struct {
	From      string
	To        string
	Promotion state.PieceType
	UCI       string
	SAN       string
	Check     bool
}

// Oracle is the capability the turn loop and session consume.
type Oracle interface {
	Position() string
	Turn() state.Color
	LegalMoves(from string) []Move
	Apply(from, to string, promo state.PieceType) (Move, error)
	ApplyUCI(uci string) (Move, error)
	Outcome() state.GameOverReason
	InCheck() bool
	Load(fen string) error
	Reset()
	Snapshot(player state.Color) state.BoardSnapshot
	Opening() string
}

var (
	ecoOnce sync.Once
	ecoBook *opening.BookECO
)

func book() *opening.BookECO {
	ecoOnce.Do(func() {
		ecoBook = opening.NewBookECO()
	})
	return ecoBook
}

// Game is an Oracle backed by github.com/notnil/chess. It is safe for
// concurrent use.
type Game struct {
	mu   sync.Mutex
	game *chess.Game
	// loaded positions carry no move list, so their opening is unknown
	fromFEN bool
}

// New returns an oracle at the standard starting position.
func New() *Game {
	return &Game{game: chess.NewGame()}
}

// NewFromFEN returns an oracle at the given position.
func NewFromFEN(fen string) (*Game, error) {
	g := New()
	if err := g.Load(fen); err != nil {
		return nil, err
	}
	return g, nil
}

// Position returns the FEN of the current position.
func (g *Game) Position() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.game.Position().String()
}

// Turn returns the side to move.
func (g *Game) Turn() state.Color {
	g.mu.Lock()
	defer g.mu.Unlock()
	return colorOf(g.game.Position().Turn())
}

// LegalMoves lists the legal moves, optionally only those leaving from.
// An empty from lists every move.
func (g *Game) LegalMoves(from string) []Move {
	g.mu.Lock()
	defer g.mu.Unlock()

	pos := g.game.Position()
	var out []Move
	for _, m := range pos.ValidMoves() {
		if from != "" && m.S1().String() != from {
			continue
		}
		out = append(out, describe(pos, m))
	}
	return out
}

// Apply plays the move from→to, promoting to promo when it is a promotion.
func (g *Game) Apply(from, to string, promo state.PieceType) (Move, error) {
	uci := from + to
	if promo != state.NoPieceType {
		uci += string(promo)
	}
	return g.ApplyUCI(uci)
}

// ApplyUCI plays a move given in UCI notation such as "e2e4" or "e7e8q".
func (g *Game) ApplyUCI(uci string) (Move, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.game.Outcome() != chess.NoOutcome {
		return Move{}, fmt.Errorf("%w: game is over", ErrIllegalMove)
	}

	pos := g.game.Position()
	m, err := chess.UCINotation{}.Decode(pos, strings.ToLower(strings.TrimSpace(uci)))
	if err != nil {
		return Move{}, fmt.Errorf("%w: %s: %v", ErrIllegalMove, uci, err)
	}

	// Decode accepts well-formed but illegal moves; match against the
	// legal list so the applied move carries its tags.
	var legal *chess.Move
	for _, v := range pos.ValidMoves() {
		if v.S1() == m.S1() && v.S2() == m.S2() && v.Promo() == m.Promo() {
			legal = v
			break
		}
	}
	if legal == nil {
		return Move{}, fmt.Errorf("%w: %s", ErrIllegalMove, uci)
	}

	played := describe(pos, legal)
	if err := g.game.Move(legal); err != nil {
		return Move{}, fmt.Errorf("%w: %s: %v", ErrIllegalMove, uci, err)
	}
	return played, nil
}

// Outcome reports why the game ended, or ReasonNone.
func (g *Game) Outcome() state.GameOverReason {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.game.Outcome() == chess.NoOutcome {
		// Threefold repetition is only claimable in notnil/chess; against
		// an engine it ends the game.
		for _, m := range g.game.EligibleDraws() {
			if m == chess.ThreefoldRepetition {
				return state.ReasonRepetition
			}
		}
		return state.ReasonNone
	}

	switch g.game.Method() {
	case chess.Checkmate:
		return state.ReasonCheckmate
	case chess.Stalemate:
		return state.ReasonStalemate
	case chess.ThreefoldRepetition, chess.FivefoldRepetition:
		return state.ReasonRepetition
	case chess.InsufficientMaterial:
		return state.ReasonInsufficientMaterial
	case chess.FiftyMoveRule, chess.SeventyFiveMoveRule, chess.DrawOffer:
		return state.ReasonDraw
	default:
		return state.ReasonUnknown
	}
}

// InCheck reports whether the side to move is in check.
func (g *Game) InCheck() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inCheck()
}

func (g *Game) inCheck() bool {
	moves := g.game.Moves()
	if len(moves) > 0 {
		return moves[len(moves)-1].HasTag(chess.Check)
	}
	// notnil/chess only tags check on played moves.
	pos := g.game.Position()
	return kingAttacked(pos.Board(), pos.Turn())
}

var (
	knightSteps = [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookLines   = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopLines = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// kingAttacked reports whether the king of side stands on a square the
// other side attacks.
func kingAttacked(b *chess.Board, side chess.Color) bool {
	king := chess.NoSquare
	for sq, p := range b.SquareMap() {
		if p.Type() == chess.King && p.Color() == side {
			king = sq
			break
		}
	}
	if king == chess.NoSquare {
		return false
	}
	f, r := int(king.File()), int(king.Rank())
	enemy := side.Other()

	at := func(df, dr int) (chess.Piece, bool) {
		nf, nr := f+df, r+dr
		if nf < 0 || nf > 7 || nr < 0 || nr > 7 {
			return chess.NoPiece, false
		}
		return b.Piece(chess.Square(nr*8 + nf)), true
	}
	hits := func(df, dr int, types ...chess.PieceType) bool {
		p, _ := at(df, dr)
		if p == chess.NoPiece || p.Color() != enemy {
			return false
		}
		for _, t := range types {
			if p.Type() == t {
				return true
			}
		}
		return false
	}

	pawnRank := 1
	if enemy == chess.White {
		pawnRank = -1
	}
	if hits(-1, pawnRank, chess.Pawn) || hits(1, pawnRank, chess.Pawn) {
		return true
	}
	for _, d := range knightSteps {
		if hits(d[0], d[1], chess.Knight) {
			return true
		}
	}
	for _, d := range kingSteps {
		if hits(d[0], d[1], chess.King) {
			return true
		}
	}
	slide := func(lines [][2]int, types ...chess.PieceType) bool {
		for _, d := range lines {
			for i := 1; ; i++ {
				p, ok := at(d[0]*i, d[1]*i)
				if !ok {
					break
				}
				if p == chess.NoPiece {
					continue
				}
				if hits(d[0]*i, d[1]*i, types...) {
					return true
				}
				break
			}
		}
		return false
	}
	return slide(rookLines, chess.Rook, chess.Queen) || slide(bishopLines, chess.Bishop, chess.Queen)
}

// Load replaces the game with the given FEN position.
func (g *Game) Load(fen string) error {
	opt, err := chess.FEN(fen)
	if err != nil {
		return fmt.Errorf("oracle: cannot load position: %w", err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.game = chess.NewGame(opt)
	g.fromFEN = true
	return nil
}

// Reset returns to the standard starting position.
func (g *Game) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.game = chess.NewGame()
	g.fromFEN = false
}

// Opening returns the ECO title of the moves played so far, or "".
func (g *Game) Opening() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.opening()
}

func (g *Game) opening() string {
	moves := g.game.Moves()
	if g.fromFEN || len(moves) == 0 {
		return ""
	}
	if o := book().Find(moves); o != nil {
		return o.Title()
	}
	return ""
}

// Snapshot returns the board as the reducer sees it, with the movable
// pieces of player in board order.
func (g *Game) Snapshot(player state.Color) state.BoardSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	pos := g.game.Position()
	snap := state.BoardSnapshot{
		Position: pos.String(),
		Turn:     colorOf(pos.Turn()),
		InCheck:  g.inCheck(),
		Opening:  g.opening(),
	}
	if snap.Turn != player || g.game.Outcome() != chess.NoOutcome {
		return snap
	}
	snap.Pieces = pieces(pos, player)
	return snap
}

// pieces groups the legal moves of the side to move by origin square.
func pieces(pos *chess.Position, player state.Color) []state.Piece {
	bySquare := make(map[chess.Square][]*chess.Move)
	for _, m := range pos.ValidMoves() {
		bySquare[m.S1()] = append(bySquare[m.S1()], m)
	}

	board := pos.Board()
	var out []state.Piece
	for sq := chess.Square(0); sq < 64; sq++ {
		moves := bySquare[sq]
		if len(moves) == 0 {
			continue
		}
		pc := board.Piece(sq)
		out = append(out, state.Piece{
			ID:    sq.String(),
			Type:  pieceTypeOf(pc.Type()),
			Color: player,
			Moves: moveOptions(pos, moves),
		})
	}
	return out
}

// moveOptions orders destinations by square and folds the four promotion
// moves to one square into a single option.
func moveOptions(pos *chess.Position, moves []*chess.Move) []state.MoveOption {
	byDest := make(map[chess.Square][]*chess.Move)
	for _, m := range moves {
		byDest[m.S2()] = append(byDest[m.S2()], m)
	}

	var out []state.MoveOption
	for sq := chess.Square(0); sq < 64; sq++ {
		group := byDest[sq]
		if len(group) == 0 {
			continue
		}
		if group[0].Promo() == chess.NoPieceType {
			d := describe(pos, group[0])
			out = append(out, state.MoveOption{To: d.To, UCI: d.UCI, SAN: d.SAN})
			continue
		}

		opt := state.MoveOption{To: sq.String()}
		for _, want := range state.PromotionOrder {
			for _, m := range group {
				if pieceTypeOf(m.Promo()) != want {
					continue
				}
				d := describe(pos, m)
				opt.Promotions = append(opt.Promotions, state.PromotionOption{
					Piece: want,
					UCI:   d.UCI,
					SAN:   d.SAN,
				})
			}
		}
		// The option's own codes name the default (queen) promotion.
		opt.UCI = opt.Promotions[0].UCI
		opt.SAN = opt.Promotions[0].SAN
		out = append(out, opt)
	}
	return out
}

func describe(pos *chess.Position, m *chess.Move) Move {
	return Move{
		From:      m.S1().String(),
		To:        m.S2().String(),
		Promotion: pieceTypeOf(m.Promo()),
		UCI:       chess.UCINotation{}.Encode(pos, m),
		SAN:       chess.AlgebraicNotation{}.Encode(pos, m),
		Check:     m.HasTag(chess.Check),
	}
}

func colorOf(c chess.Color) state.Color {
	if c == chess.Black {
		return state.Black
	}
	return state.White
}

func pieceTypeOf(t chess.PieceType) state.PieceType {
	switch t {
	case chess.King:
		return state.King
	case chess.Queen:
		return state.Queen
	case chess.Rook:
		return state.Rook
	case chess.Bishop:
		return state.Bishop
	case chess.Knight:
		return state.Knight
	case chess.Pawn:
		return state.Pawn
	default:
		return state.NoPieceType
	}
}
