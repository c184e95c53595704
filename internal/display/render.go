package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/glasschess/internal/academy"
	"github.com/vovakirdan/glasschess/internal/chess/state"
)

// Frame is one display update.
type Frame struct {
	Phase string `json:"phase"`
	Text  string `json:"text"`
}

// Renderer draws game states. It reads drill content and option lists from
// the reducer that produced the states.
type Renderer struct {
	reducer *state.Reducer
}

// NewRenderer returns a renderer for states produced by r.
func NewRenderer(r *state.Reducer) *Renderer {
	return &Renderer{reducer: r}
}

// Render draws s. A nil state renders an empty frame.
func (r *Renderer) Render(s *state.GameState) Frame {
	scr := NewScreen(Cols, Rows)
	if s == nil {
		return Frame{Text: scr.String()}
	}
	switch {
	case s.Phase.InMenuTree():
		r.menu(scr, s)
	case s.Phase.IsDrill():
		r.drill(scr, s)
	default:
		r.game(scr, s)
	}
	return Frame{Phase: s.Phase.String(), Text: scr.String()}
}

func (r *Renderer) game(scr *Screen, s *state.GameState) {
	header := fmt.Sprintf("CHESS  %s  %s", s.Difficulty, s.Mode)
	scr.DrawText(0, 0, header)

	marks := make(map[string]rune)
	if s.BoardMarkers && s.LastMove != nil {
		marks[s.LastMove.From] = markLastMove
		marks[s.LastMove.To] = markLastMove
	}
	if s.Phase != state.PhaseIdle {
		if p, ok := s.SelectedPiece(); ok {
			marks[p.ID] = markSelected
		}
	}
	if s.Phase == state.PhaseDestSelect || s.Phase == state.PhasePromotionSelect {
		if mv, ok := s.SelectedMove(); ok {
			marks[mv.To] = markTarget
		}
	}
	drawBoard(scr, pieceLetters(s.Position), s.PlayerColor == state.Black, s.BoardMarkers, marks)

	var lines []string
	lines = append(lines, statusLine(s))
	lines = append(lines, selectionLines(s)...)
	if n := len(s.History); n > 0 && s.Phase == state.PhaseIdle {
		lines = append(lines, "Last: "+s.History[n-1])
	}
	if s.Opening != "" {
		lines = append(lines, clip(s.Opening, Cols-panelLeft))
	}
	if t := s.Timers; t != nil {
		line := fmt.Sprintf("W %s  B %s", clock(t.White), clock(t.Black))
		if t.Suspended {
			line += " (paused)"
		}
		lines = append(lines, line)
	}
	for i, line := range lines {
		scr.DrawText(panelLeft, boardTop+i, clip(line, Cols-panelLeft))
	}

	scr.DrawText(0, Rows-1, gameHint(s))
}

func statusLine(s *state.GameState) string {
	switch {
	case s.GameOver != state.ReasonNone:
		return resultText(s)
	case s.EngineThinking:
		return "Engine thinking..."
	case s.PendingMove != nil:
		return "Sending " + s.PendingMove.SAN
	case s.Turn != s.PlayerColor:
		return "Engine to move"
	case s.InCheck:
		return "Check! Your move"
	default:
		return "Your move"
	}
}

func selectionLines(s *state.GameState) []string {
	switch s.Phase {
	case state.PhasePieceSelect:
		p, ok := s.SelectedPiece()
		if !ok {
			return nil
		}
		idx := 0
		for i := range s.Pieces {
			if s.Pieces[i].ID == p.ID {
				idx = i
			}
		}
		return []string{fmt.Sprintf("%s %s (%d/%d)", pieceName(p.Type), p.ID, idx+1, len(s.Pieces))}

	case state.PhaseDestSelect:
		p, _ := s.SelectedPiece()
		mv, ok := s.SelectedMove()
		if !ok {
			return nil
		}
		san := mv.SAN
		if mv.IsPromotion() {
			san = mv.To + "=?"
		}
		return []string{fmt.Sprintf("Move %s (%d/%d)", san, s.SelectedMoveIndex+1, len(p.Moves))}

	case state.PhasePromotionSelect:
		mv, ok := s.SelectedMove()
		i := s.SelectedPromotionIndex
		if !ok || i < 0 || i >= len(mv.Promotions) {
			return nil
		}
		opt := mv.Promotions[i]
		return []string{"Promote: < " + pieceName(opt.Piece) + " >", opt.SAN}
	}
	return nil
}

func resultText(s *state.GameState) string {
	switch s.GameOver {
	case state.ReasonCheckmate:
		if s.Turn == s.PlayerColor {
			return "Checkmate. You lost"
		}
		return "Checkmate. You won!"
	case state.ReasonTimeout:
		if t := s.Timers; t != nil && t.Remaining(s.PlayerColor) <= 0 {
			return "Time out. You lost"
		}
		return "Time out. You won!"
	case state.ReasonStalemate:
		return "Draw by stalemate"
	case state.ReasonRepetition:
		return "Draw by repetition"
	case state.ReasonInsufficientMaterial:
		return "Draw: no mating material"
	case state.ReasonDraw:
		return "Draw"
	default:
		return "Game over"
	}
}

func gameHint(s *state.GameState) string {
	if s.GameOver != state.ReasonNone {
		return "double tap: menu"
	}
	switch s.Phase {
	case state.PhasePieceSelect:
		return "scroll: piece  tap: pick  2x: back"
	case state.PhaseDestSelect:
		return "scroll: square  tap: play  2x: back"
	case state.PhasePromotionSelect:
		return "scroll: piece  tap: promote  2x: back"
	}
	if s.EngineOwesMove() {
		return "tap: ask engine again  2x: menu"
	}
	return "scroll: pieces  double tap: menu"
}

func (r *Renderer) menu(scr *Screen, s *state.GameState) {
	var (
		title  string
		items  []string
		cursor int
	)

	switch s.Phase {
	case state.PhaseMenu:
		title = "MENU"
		for _, opt := range state.MenuOptions {
			items = append(items, menuLabel(opt, s))
		}
		cursor = s.MenuIndex

	case state.PhaseViewLog:
		r.moveLog(scr, s)
		return

	case state.PhaseDifficultySelect:
		title = "DIFFICULTY"
		for _, d := range r.reducer.Difficulties() {
			label := string(d)
			if d == s.Difficulty {
				label += " (current)"
			}
			items = append(items, label)
		}
		cursor = s.OptionIndex

	case state.PhaseBoardMarkersSelect:
		title = "BOARD MARKERS"
		items, cursor = []string{"On", "Off"}, toggleCursor(s.ConfirmYes)

	case state.PhaseModeSelect:
		title = "MODE"
		for _, m := range state.Modes {
			items = append(items, string(m))
		}
		cursor = s.OptionIndex

	case state.PhaseBulletSetup:
		title = "BULLET TIME CONTROL"
		for _, tc := range r.reducer.TimeControls() {
			items = append(items, tc.Name)
		}
		cursor = s.TimeControlIndex

	case state.PhaseAcademySelect:
		title = "ACADEMY"
		for _, d := range state.DrillTypes {
			items = append(items, d.Title())
		}
		cursor = s.OptionIndex

	case state.PhaseResetConfirm:
		title = "START A NEW GAME?"
		items, cursor = []string{"Yes", "No"}, toggleCursor(s.ConfirmYes)

	case state.PhaseExitConfirm:
		title = "LEAVE CHESS"
		items, cursor = []string{"Save and exit", "Exit without saving"}, toggleCursor(s.ConfirmYes)
	}

	scr.DrawText(0, 0, title)
	drawList(scr, 2, Rows-4, items, cursor)
	scr.DrawText(0, Rows-1, "scroll: move  tap: select  2x: back")
}

func menuLabel(opt state.MenuOption, s *state.GameState) string {
	switch opt {
	case state.MenuDifficulty:
		return opt.String() + ": " + string(s.Difficulty)
	case state.MenuBoardMarkers:
		if s.BoardMarkers {
			return opt.String() + ": on"
		}
		return opt.String() + ": off"
	case state.MenuMode:
		return opt.String() + ": " + string(s.Mode)
	}
	return opt.String()
}

func toggleCursor(yes bool) int {
	if yes {
		return 0
	}
	return 1
}

// drawList draws items from row top, keeping the cursor inside a window of
// height rows.
func drawList(scr *Screen, top, height int, items []string, cursor int) {
	first := 0
	if cursor >= height {
		first = cursor - height + 1
	}
	for i := 0; i < height && first+i < len(items); i++ {
		idx := first + i
		prefix := "  "
		if idx == cursor {
			prefix = "> "
		}
		scr.DrawText(0, top+i, clip(prefix+items[idx], Cols))
	}
}

// moveLog shows the history newest last. LogScroll moves the window back
// towards the first move.
func (r *Renderer) moveLog(scr *Screen, s *state.GameState) {
	scr.DrawText(0, 0, fmt.Sprintf("MOVES (%d)", len(s.History)))
	scr.DrawText(0, Rows-1, "scroll: older/newer  tap: back")
	if len(s.History) == 0 {
		scr.DrawText(0, 2, "No moves yet")
		return
	}

	height := Rows - 3
	last := len(s.History) - 1 - s.LogScroll
	if last < 0 {
		last = 0
	}
	first := last - height + 1
	if first < 0 {
		first = 0
	}
	for i := first; i <= last; i++ {
		n := i/2 + 1
		line := fmt.Sprintf("%d. %s", n, s.History[i])
		if i%2 == 1 {
			line = fmt.Sprintf("%d... %s", n, s.History[i])
		}
		scr.DrawText(0, 1+i-first, line)
	}
}

func (r *Renderer) drill(scr *Screen, s *state.GameState) {
	ac := s.Academy
	if ac == nil || ac.Drill == nil {
		return
	}
	scr.DrawText(0, 0, fmt.Sprintf("ACADEMY %s  %d/%d", strings.ToUpper(ac.Drill.Type().Title()), ac.Score, ac.Attempts))

	var lines []string
	marks := make(map[string]rune)
	pieces := map[string]rune{}

	switch d := ac.Drill.(type) {
	case state.CoordinateDrill:
		cursor := academy.SquareName(d.CursorFile, d.CursorRank)
		marks[cursor] = markTarget
		lines = append(lines, "Find "+d.Target)
		switch ac.Feedback {
		case state.FeedbackCorrect:
			lines = append(lines, "Correct!")
		case state.FeedbackIncorrect:
			lines = append(lines, "No, that is "+cursor)
		}
		drawBoard(scr, pieces, false, false, marks)

	case state.KnightDrill:
		pieces[d.Current] = 'N'
		marks[d.Target] = markGoal
		if ac.Feedback == state.FeedbackNone && d.Cursor >= 0 && d.Cursor < len(d.Choices) {
			marks[d.Choices[d.Cursor]] = markTarget
			lines = append(lines, "Reach "+d.Target, "Jump to "+d.Choices[d.Cursor])
		} else {
			lines = append(lines, "Reach "+d.Target)
		}
		lines = append(lines, fmt.Sprintf("Jumps %d", d.Jumps))
		switch ac.Feedback {
		case state.FeedbackCorrect:
			lines = append(lines, "Shortest path!")
		case state.FeedbackIncorrect:
			lines = append(lines, fmt.Sprintf("Best was %d jumps", d.Optimal))
		}
		drawBoard(scr, pieces, false, s.BoardMarkers, marks)

	case state.PuzzleDrill:
		p, ok := r.reducer.Puzzle(d)
		if !ok {
			return
		}
		lines = append(lines, p.Name, p.Prompt)
		if d.Cursor >= 0 && d.Cursor < len(p.Choices) {
			c := p.Choices[d.Cursor]
			if len(c.UCI) >= 4 {
				marks[c.UCI[:2]] = markSelected
				marks[c.UCI[2:4]] = markTarget
			}
			lines = append(lines, fmt.Sprintf("< %s > (%d/%d)", c.SAN, d.Cursor+1, len(p.Choices)))
		}
		switch ac.Feedback {
		case state.FeedbackCorrect:
			lines = append(lines, "Correct!")
		case state.FeedbackIncorrect:
			lines = append(lines, "Answer: "+solution(p))
		}
		drawBoard(scr, pieceLetters(p.FEN), false, s.BoardMarkers, marks)

	case state.StudyDrill:
		ply, ok := r.reducer.StudyPly(d)
		if !ok {
			return
		}
		if cat := r.reducer.Catalog(); d.Index >= 0 && d.Index < len(cat.Studies) {
			lines = append(lines, cat.Studies[d.Index].Title)
		}
		lines = append(lines, fmt.Sprintf("Move %d: what was played?", d.Ply/2+1))
		for i, c := range ply.Choices {
			prefix := "  "
			if i == d.Cursor {
				prefix = "> "
			}
			lines = append(lines, prefix+c)
		}
		switch ac.Feedback {
		case state.FeedbackCorrect:
			lines = append(lines, "Correct!")
		case state.FeedbackIncorrect:
			lines = append(lines, "Played: "+ply.Move)
		}
		drawBoard(scr, pieceLetters(ply.FEN), false, s.BoardMarkers, marks)
	}

	for i, line := range lines {
		scr.DrawText(panelLeft, boardTop+i, clip(line, Cols-panelLeft))
	}
	if ac.Feedback != state.FeedbackNone {
		scr.DrawText(0, Rows-1, "tap: next  2x: academy")
	} else {
		scr.DrawText(0, Rows-1, "scroll: choose  tap: answer  2x: academy")
	}
}

func solution(p academy.Puzzle) string {
	var sans []string
	for _, c := range p.Choices {
		if c.Solves {
			sans = append(sans, c.SAN)
		}
	}
	return strings.Join(sans, " or ")
}

func pieceName(t state.PieceType) string {
	switch t {
	case state.King:
		return "King"
	case state.Queen:
		return "Queen"
	case state.Rook:
		return "Rook"
	case state.Bishop:
		return "Bishop"
	case state.Knight:
		return "Knight"
	case state.Pawn:
		return "Pawn"
	default:
		return "?"
	}
}

func clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "~"
}
