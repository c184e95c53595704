package state

import (
	"strings"
	"time"

	"github.com/vovakirdan/glasschess/internal/academy"
)

const (
	// DefaultGestureWindow is how soon after entering pieceSelect a
	// double-tap still counts as "open menu".
	DefaultGestureWindow = 200 * time.Millisecond
	// DefaultHistoryCap bounds the SAN history.
	DefaultHistoryCap = 200
)

// DefaultDifficulties lists the engine presets in menu order.
var DefaultDifficulties = []Difficulty{DifficultyEasy, DifficultyCasual, DifficultySerious}

// DefaultTimeControls lists the bullet presets in menu order.
var DefaultTimeControls = []TimeControl{
	{Name: "1+0", Base: time.Minute},
	{Name: "1+1", Base: time.Minute, Increment: time.Second},
	{Name: "2+1", Base: 2 * time.Minute, Increment: time.Second},
	{Name: "3+0", Base: 3 * time.Minute},
	{Name: "3+2", Base: 3 * time.Minute, Increment: 2 * time.Second},
	{Name: "5+0", Base: 5 * time.Minute},
}

// Config is the static data a Reducer needs. Start is the board of a new
// game as reported by the move oracle.
type Config struct {
	GestureWindow time.Duration
	HistoryCap    int
	Difficulty    Difficulty
	Difficulties  []Difficulty
	TimeControls  []TimeControl
	Start         BoardSnapshot
	Catalog       *academy.Catalog
}

// Reducer implements every phase transition. It holds no mutable state and
// is safe for concurrent use.
type Reducer struct {
	cfg Config
}

// NewReducer fills unset config fields with defaults.
func NewReducer(cfg Config) *Reducer {
	if cfg.GestureWindow <= 0 {
		cfg.GestureWindow = DefaultGestureWindow
	}
	if cfg.HistoryCap <= 0 {
		cfg.HistoryCap = DefaultHistoryCap
	}
	if len(cfg.Difficulties) == 0 {
		cfg.Difficulties = DefaultDifficulties
	}
	if indexOfDifficulty(cfg.Difficulties, cfg.Difficulty) < 0 {
		cfg.Difficulty = cfg.Difficulties[0]
	}
	if len(cfg.TimeControls) == 0 {
		cfg.TimeControls = DefaultTimeControls
	}
	if cfg.Catalog == nil {
		cfg.Catalog = &academy.Catalog{}
	}
	return &Reducer{cfg: cfg}
}

// Difficulties returns the configured difficulty list.
func (r *Reducer) Difficulties() []Difficulty { return r.cfg.Difficulties }

// TimeControls returns the configured bullet presets.
func (r *Reducer) TimeControls() []TimeControl { return r.cfg.TimeControls }

// Catalog returns the academy content the drills draw from.
func (r *Reducer) Catalog() *academy.Catalog { return r.cfg.Catalog }

// Initial returns the state of a fresh session.
func (r *Reducer) Initial() *GameState {
	s := &GameState{
		PlayerColor:  White,
		Phase:        PhaseIdle,
		Difficulty:   r.cfg.Difficulty,
		BoardMarkers: true,
		Mode:         ModeStandard,
	}
	s.setBoard(r.cfg.Start)
	return s
}

// Reduce applies a to s. It never mutates s and returns s itself when the
// action changes nothing.
func (r *Reducer) Reduce(s *GameState, a Action) *GameState {
	if s == nil {
		return r.Initial()
	}

	switch a := a.(type) {
	case Scroll:
		return r.scroll(s, a)
	case Tap:
		return r.tap(s, a)
	case DoubleTap:
		return r.doubleTap(s, a)
	case ForegroundEnter:
		return r.foregroundEnter(s, a)
	case ForegroundExit:
		return r.foregroundExit(s)

	case EngineThinking:
		if a.Generation != s.Generation || s.EngineThinking || s.GameOver != ReasonNone {
			return s
		}
		next := s.clone()
		next.EngineThinking = true
		return next
	case EngineError:
		return r.engineError(s, a)
	case EngineMove:
		return r.engineMove(s, a)
	case GameOver:
		return r.gameOver(s, a)
	case Refresh:
		return r.refresh(s, a)
	case MoveRejected:
		return r.moveRejected(s, a)
	case ClearIntents:
		if s.PendingMove == nil && !s.PendingEngineRetry && s.PendingExit == nil {
			return s
		}
		next := s.clone()
		next.PendingMove = nil
		next.PendingEngineRetry = false
		next.PendingExit = nil
		return next

	case NewGame:
		return r.newGame(s, a.At)
	case OpenMenu:
		return r.openMenu(s, a.At)
	case MenuSelect:
		if !s.Phase.InMenuTree() {
			return s
		}
		return r.menuSelect(s, a.Option, a.At)
	case CloseMenu:
		return r.closeMenu(s)
	case ConfirmExit:
		if s.PendingExit != nil && s.PendingExit.Save == a.Save {
			return s
		}
		next := s.clone()
		next.PendingExit = &ExitIntent{Save: a.Save}
		return next
	case LoadGame:
		return r.loadGame(s, a)
	case SetDifficulty:
		if a.Level == s.Difficulty || indexOfDifficulty(r.cfg.Difficulties, a.Level) < 0 {
			return s
		}
		next := s.clone()
		next.Difficulty = a.Level
		return next
	case SetBoardMarkers:
		if a.Enabled == s.BoardMarkers {
			return s
		}
		next := s.clone()
		next.BoardMarkers = a.Enabled
		return next
	case SetMode:
		return r.setMode(s, a.Mode)
	case StartBulletGame:
		return r.startBulletGame(s, a.TimeControlIndex, a.At)
	case TimerTick:
		return r.timerTick(s, a.Now)
	case ApplyIncrement:
		return r.applyIncrement(s, a.Color)

	case StartDrill:
		return r.startDrill(s, a.Type, a.At)
	case DrillAnswer:
		if !s.Phase.IsDrill() || s.Academy == nil || s.Academy.Feedback != FeedbackNone {
			return s
		}
		return r.answer(s, a.Correct, nil)
	case NextDrillQuestion:
		if !s.Phase.IsDrill() || s.Academy == nil {
			return s
		}
		return r.nextQuestion(s)
	}

	return s
}

// gameplayBlocked reports whether scroll and tap must be ignored in a
// gameplay phase.
func gameplayBlocked(s *GameState) bool {
	return s.GameOver != ReasonNone || s.EngineThinking || s.PendingMove != nil
}

func (r *Reducer) scroll(s *GameState, a Scroll) *GameState {
	switch {
	case s.Phase.IsGameplay():
		if gameplayBlocked(s) {
			return s
		}
	case s.Phase.InMenuTree():
		return r.menuScroll(s, a.Direction)
	case s.Phase.IsDrill():
		return r.drillScroll(s, a.Direction)
	}

	switch s.Phase {
	case PhaseIdle:
		if s.Turn != s.PlayerColor || len(s.Pieces) == 0 {
			return s
		}
		id := s.Pieces[0].ID
		if s.LastPlayerSquare != "" {
			if _, ok := findPiece(s.Pieces, s.LastPlayerSquare); ok {
				id = s.LastPlayerSquare
			}
		}
		next := s.clone()
		next.Phase = PhasePieceSelect
		next.PhaseEnteredAt = a.At
		next.SelectedPieceID = id
		next.SelectedMoveIndex = 0
		return next

	case PhasePieceSelect:
		n := len(s.Pieces)
		if n == 0 {
			return s
		}
		cur, ok := findPiece(s.Pieces, s.SelectedPieceID)
		if !ok {
			cur = -1
			if a.Direction == ScrollUp {
				cur = 0
			}
		}
		idx := cycle(cur, n, a.Direction)
		if s.Pieces[idx].ID == s.SelectedPieceID {
			return s
		}
		next := s.clone()
		next.SelectedPieceID = s.Pieces[idx].ID
		next.SelectedMoveIndex = 0
		return next

	case PhaseDestSelect:
		p, ok := s.SelectedPiece()
		if !ok || len(p.Moves) == 0 {
			return s
		}
		idx := cycle(s.SelectedMoveIndex, len(p.Moves), a.Direction)
		if idx == s.SelectedMoveIndex {
			return s
		}
		next := s.clone()
		next.SelectedMoveIndex = idx
		return next

	case PhasePromotionSelect:
		m, ok := s.SelectedMove()
		if !ok || !m.IsPromotion() {
			return s
		}
		idx := cycle(s.SelectedPromotionIndex, len(m.Promotions), a.Direction)
		if idx == s.SelectedPromotionIndex {
			return s
		}
		next := s.clone()
		next.SelectedPromotionIndex = idx
		return next
	}
	return s
}

func (r *Reducer) tap(s *GameState, a Tap) *GameState {
	switch {
	case s.Phase.IsGameplay():
		if gameplayBlocked(s) {
			return s
		}
	case s.Phase.InMenuTree():
		return r.menuTap(s, a.At)
	case s.Phase.IsDrill():
		return r.drillTap(s)
	}

	switch s.Phase {
	case PhaseIdle:
		if s.EngineOwesMove() && !s.PendingEngineRetry {
			next := s.clone()
			next.PendingEngineRetry = true
			return next
		}
		return s

	case PhasePieceSelect:
		p, ok := s.SelectedPiece()
		if !ok || len(p.Moves) == 0 || s.Turn != s.PlayerColor {
			return s
		}
		next := s.clone()
		next.Phase = PhaseDestSelect
		next.PhaseEnteredAt = a.At
		next.SelectedMoveIndex = 0
		return next

	case PhaseDestSelect:
		m, ok := s.SelectedMove()
		if !ok {
			return s
		}
		if m.IsPromotion() {
			next := s.clone()
			next.Phase = PhasePromotionSelect
			next.PhaseEnteredAt = a.At
			next.SelectedPromotionIndex = 0
			return next
		}
		return r.commit(s, PendingMove{
			From: s.SelectedPieceID,
			To:   m.To,
			UCI:  m.UCI,
			SAN:  m.SAN,
		}, a.At)

	case PhasePromotionSelect:
		m, ok := s.SelectedMove()
		if !ok || s.SelectedPromotionIndex < 0 || s.SelectedPromotionIndex >= len(m.Promotions) {
			return s
		}
		opt := m.Promotions[s.SelectedPromotionIndex]
		return r.commit(s, PendingMove{
			From:      s.SelectedPieceID,
			To:        m.To,
			Promotion: opt.Piece,
			UCI:       opt.UCI,
			SAN:       opt.SAN,
		}, a.At)
	}
	return s
}

func (r *Reducer) doubleTap(s *GameState, a DoubleTap) *GameState {
	switch s.Phase {
	case PhaseIdle:
		return r.openMenu(s, a.At)

	case PhasePieceSelect:
		if !s.PhaseEnteredAt.IsZero() {
			if d := a.At.Sub(s.PhaseEnteredAt); d >= 0 && d < r.cfg.GestureWindow {
				next := s.clone()
				next.Phase = PhaseMenu
				next.PreviousPhase = PhaseIdle
				next.PhaseEnteredAt = a.At
				next.MenuIndex = 0
				return next
			}
		}
		next := s.clone()
		next.Phase = PhaseIdle
		next.PhaseEnteredAt = a.At
		return next

	case PhaseDestSelect:
		next := s.clone()
		next.Phase = PhasePieceSelect
		next.PhaseEnteredAt = time.Time{}
		return next

	case PhasePromotionSelect:
		next := s.clone()
		next.Phase = PhaseDestSelect
		next.PhaseEnteredAt = a.At
		return next

	case PhaseMenu:
		return r.closeMenu(s)

	case PhaseBulletSetup:
		next := s.clone()
		next.Phase = PhaseModeSelect
		next.PhaseEnteredAt = a.At
		next.OptionIndex = indexOfMode(ModeBullet)
		return next
	}

	if s.Phase.InMenuTree() {
		next := s.clone()
		next.Phase = PhaseMenu
		next.PhaseEnteredAt = a.At
		return next
	}
	if s.Phase.IsDrill() {
		next := s.clone()
		next.Phase = PhaseAcademySelect
		next.PhaseEnteredAt = a.At
		if s.Academy != nil && s.Academy.Drill != nil {
			next.OptionIndex = indexOfDrill(s.Academy.Drill.Type())
		}
		return next
	}
	return s
}

// commit records the player's move and hands it to the turn loop.
func (r *Reducer) commit(s *GameState, m PendingMove, at time.Time) *GameState {
	m.generation = s.Generation
	m.history = s.History
	m.lastSquare = s.LastPlayerSquare
	m.committed = true

	next := s.clone()
	next.History = r.appendHistory(s.History, m.SAN)
	next.PendingMove = &m
	next.LastPlayerSquare = m.To
	next.Phase = PhaseIdle
	next.PhaseEnteredAt = at
	return next
}

// appendHistory returns a new slice; the old one may be shared with
// earlier states.
func (r *Reducer) appendHistory(history []string, san string) []string {
	keep := history
	if len(keep) >= r.cfg.HistoryCap {
		keep = keep[len(keep)-r.cfg.HistoryCap+1:]
	}
	out := make([]string, 0, len(keep)+1)
	out = append(out, keep...)
	return append(out, san)
}

func (r *Reducer) capHistory(history []string) []string {
	if len(history) > r.cfg.HistoryCap {
		history = history[len(history)-r.cfg.HistoryCap:]
	}
	out := make([]string, len(history))
	copy(out, history)
	return out
}

func (r *Reducer) engineError(s *GameState, a EngineError) *GameState {
	if a.Generation != s.Generation {
		return s
	}
	if !s.EngineThinking && a.Board == nil {
		return s
	}
	next := s.clone()
	next.EngineThinking = false
	if a.Board != nil {
		next.setBoard(*a.Board)
	}
	settleSelection(next)
	return next
}

func (r *Reducer) engineMove(s *GameState, a EngineMove) *GameState {
	if a.Generation != s.Generation {
		return s
	}
	if s.GameOver != ReasonNone {
		if !s.EngineThinking {
			return s
		}
		next := s.clone()
		next.EngineThinking = false
		return next
	}

	next := s.clone()
	next.EngineThinking = false
	next.History = r.appendHistory(s.History, a.SAN)
	next.setBoard(a.Board)
	next.LastMove = moveRefFromUCI(a.UCI)
	settleSelection(next)
	return next
}

func (r *Reducer) gameOver(s *GameState, a GameOver) *GameState {
	if a.Generation != s.Generation || a.Reason == ReasonNone || s.GameOver == a.Reason {
		return s
	}
	next := s.clone()
	next.GameOver = a.Reason
	next.EngineThinking = false
	if s.Timers != nil {
		t := *s.Timers
		t.Active = false
		next.Timers = &t
	}
	if next.Phase.IsGameplay() {
		next.Phase = PhaseIdle
	}
	return next
}

func (r *Reducer) refresh(s *GameState, a Refresh) *GameState {
	if a.Generation != s.Generation {
		return s
	}
	next := s.clone()
	next.setBoard(a.Board)
	if a.LastMove != nil {
		lm := *a.LastMove
		next.LastMove = &lm
	}
	next.PendingMove = nil
	next.PendingEngineRetry = false
	settleSelection(next)
	return next
}

// moveRejected undoes commit after the oracle refused the move.
func (r *Reducer) moveRejected(s *GameState, a MoveRejected) *GameState {
	m := a.Move
	if !m.committed || m.generation != s.Generation {
		return s
	}
	if len(s.History) == 0 || s.History[len(s.History)-1] != m.SAN {
		return s
	}
	next := s.clone()
	next.setBoard(a.Board)
	next.History = m.history
	next.LastPlayerSquare = m.lastSquare
	next.PendingMove = nil
	settleSelection(next)
	return next
}

func (r *Reducer) newGame(s *GameState, at time.Time) *GameState {
	next := r.Initial()
	next.Generation = s.Generation + 1
	next.PlayerColor = s.PlayerColor
	next.Difficulty = s.Difficulty
	next.BoardMarkers = s.BoardMarkers
	next.Mode = s.Mode
	next.TimeControlIndex = s.TimeControlIndex
	next.PhaseEnteredAt = at
	if next.Mode == ModeBullet {
		next.Timers = r.newTimers(s.TimeControlIndex, at)
	}
	return next
}

func (r *Reducer) loadGame(s *GameState, a LoadGame) *GameState {
	next := r.Initial()
	next.Generation = s.Generation + 1
	next.PlayerColor = s.PlayerColor
	next.BoardMarkers = s.BoardMarkers
	next.Difficulty = s.Difficulty
	if indexOfDifficulty(r.cfg.Difficulties, a.Difficulty) >= 0 {
		next.Difficulty = a.Difficulty
	}
	next.setBoard(a.Board)
	next.History = r.capHistory(a.History)
	next.PhaseEnteredAt = a.At
	return next
}

func (r *Reducer) setMode(s *GameState, m Mode) *GameState {
	if m == s.Mode || indexOfMode(m) < 0 {
		return s
	}
	next := s.clone()
	next.Mode = m
	if m == ModeStandard {
		next.Timers = nil
	}
	return next
}

func (r *Reducer) startBulletGame(s *GameState, idx int, at time.Time) *GameState {
	if idx < 0 || idx >= len(r.cfg.TimeControls) {
		return s
	}
	cur := s.clone()
	cur.Mode = ModeBullet
	cur.TimeControlIndex = idx
	return r.newGame(cur, at)
}

func (r *Reducer) newTimers(idx int, at time.Time) *Timers {
	if idx < 0 || idx >= len(r.cfg.TimeControls) {
		idx = 0
	}
	tc := r.cfg.TimeControls[idx]
	return &Timers{
		White:     tc.Base,
		Black:     tc.Base,
		Increment: tc.Increment,
		Active:    true,
		LastTick:  at,
	}
}

func (r *Reducer) timerTick(s *GameState, now time.Time) *GameState {
	t := s.Timers
	if t == nil || !t.Active || t.Suspended || s.GameOver != ReasonNone {
		return s
	}
	elapsed := now.Sub(t.LastTick)
	if elapsed <= 0 {
		return s
	}

	nt := *t
	nt.LastTick = now
	next := s.clone()
	next.Timers = &nt

	// Drills pause the clock.
	if s.Phase.IsDrill() {
		return next
	}

	remaining := nt.Remaining(s.Turn) - elapsed
	if remaining <= 0 {
		remaining = 0
		nt.Active = false
		next.GameOver = ReasonTimeout
		next.EngineThinking = false
		if next.Phase.IsGameplay() {
			next.Phase = PhaseIdle
		}
	}
	if s.Turn == Black {
		nt.Black = remaining
	} else {
		nt.White = remaining
	}
	return next
}

func (r *Reducer) applyIncrement(s *GameState, c Color) *GameState {
	t := s.Timers
	if t == nil || t.Increment <= 0 || s.GameOver != ReasonNone {
		return s
	}
	nt := *t
	if c == Black {
		nt.Black += nt.Increment
	} else {
		nt.White += nt.Increment
	}
	next := s.clone()
	next.Timers = &nt
	return next
}

func (r *Reducer) foregroundExit(s *GameState) *GameState {
	if s.Timers == nil || !s.Timers.Active || s.Timers.Suspended {
		return s
	}
	nt := *s.Timers
	nt.Suspended = true
	next := s.clone()
	next.Timers = &nt
	return next
}

func (r *Reducer) foregroundEnter(s *GameState, a ForegroundEnter) *GameState {
	if s.Timers == nil || !s.Timers.Suspended {
		return s
	}
	nt := *s.Timers
	nt.Suspended = false
	nt.LastTick = a.At
	next := s.clone()
	next.Timers = &nt
	return next
}

// setBoard copies the oracle's view of the board into s.
func (s *GameState) setBoard(b BoardSnapshot) {
	s.Position = b.Position
	s.Turn = b.Turn
	s.Pieces = b.Pieces
	s.InCheck = b.InCheck
	s.Opening = b.Opening
}

// settleSelection drops back to idle when a board change invalidated the
// gameplay selection.
func settleSelection(s *GameState) {
	switch s.Phase {
	case PhasePieceSelect:
		if _, ok := s.SelectedPiece(); !ok || !s.PlayerToMove() {
			s.Phase = PhaseIdle
		}
	case PhaseDestSelect, PhasePromotionSelect:
		if _, ok := s.SelectedMove(); !ok || !s.PlayerToMove() {
			s.Phase = PhaseIdle
		}
	}
}

func moveRefFromUCI(uci string) *MoveRef {
	if len(uci) < 4 {
		return nil
	}
	return &MoveRef{From: uci[:2], To: uci[2:4], UCI: strings.ToLower(uci)}
}

func findPiece(pieces []Piece, id string) (int, bool) {
	for i, p := range pieces {
		if p.ID == id {
			return i, true
		}
	}
	return -1, false
}

// cycle moves cur one step in direction d over n items, wrapping both ways.
func cycle(cur, n int, d Direction) int {
	if n <= 0 {
		return 0
	}
	return ((cur+d.step())%n + n) % n
}

func indexOfDifficulty(list []Difficulty, d Difficulty) int {
	for i, v := range list {
		if v == d {
			return i
		}
	}
	return -1
}

func indexOfMode(m Mode) int {
	for i, v := range Modes {
		if v == m {
			return i
		}
	}
	return -1
}

func indexOfDrill(d DrillType) int {
	for i, v := range DrillTypes {
		if v == d {
			return i
		}
	}
	return 0
}
