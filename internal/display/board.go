package display

import (
	"unicode"

	"github.com/notnil/chess"

	"github.com/vovakirdan/glasschess/internal/academy"
)

// Board geometry inside the screen.
const (
	boardTop  = 1
	boardLeft = 0
	panelLeft = 20
)

// Square markers.
const (
	markSelected = '>'
	markTarget   = '*'
	markLastMove = '+'
	markGoal     = '#'
)

// pieceLetters decodes the placement of fen into FEN letters by square.
// An unreadable FEN yields an empty board.
func pieceLetters(fen string) map[string]rune {
	out := make(map[string]rune, 32)
	if fen == "" {
		return out
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return out
	}
	board := chess.NewGame(opt).Position().Board()
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := board.Piece(sq)
		if p == chess.NoPiece {
			continue
		}
		r := letterOf(p.Type())
		if p.Color() == chess.White {
			r = unicode.ToUpper(r)
		}
		out[sq.String()] = r
	}
	return out
}

func letterOf(t chess.PieceType) rune {
	switch t {
	case chess.King:
		return 'k'
	case chess.Queen:
		return 'q'
	case chess.Rook:
		return 'r'
	case chess.Bishop:
		return 'b'
	case chess.Knight:
		return 'n'
	default:
		return 'p'
	}
}

// drawBoard draws an 8x8 board, rank 8 on top unless flipped. Each square
// takes two columns: a marker and the piece letter.
func drawBoard(scr *Screen, pieces map[string]rune, flipped, labels bool, marks map[string]rune) {
	for row := 0; row < 8; row++ {
		rank := 7 - row
		if flipped {
			rank = row
		}
		y := boardTop + row
		if labels {
			scr.Set(boardLeft, y, rune('1'+rank))
		}
		for col := 0; col < 8; col++ {
			file := col
			if flipped {
				file = 7 - col
			}
			sq := academy.SquareName(file, rank)
			x := boardLeft + 2 + col*2
			if m, ok := marks[sq]; ok {
				scr.Set(x, y, m)
			}
			p, ok := pieces[sq]
			if !ok {
				p = '.'
			}
			scr.Set(x+1, y, p)
		}
	}
	if !labels {
		return
	}
	for col := 0; col < 8; col++ {
		file := col
		if flipped {
			file = 7 - col
		}
		scr.Set(boardLeft+3+col*2, boardTop+8, rune('a'+file))
	}
}
