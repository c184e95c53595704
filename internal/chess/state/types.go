// Package state holds the chess mini-app's single GameState value and the
// pure reducer that drives every UI phase transition.
//
// A GameState is never mutated after it leaves the reducer. Every dispatch
// produces a fresh value (or the identical pointer when nothing changed), so
// subscribers can detect changes by pointer identity.
package state

import "time"

// Color identifies a side. Values match the FEN side-to-move field.
type Color string

const (
	White Color = "w"
	Black Color = "b"
)

// Other returns the opposing side.
func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

// String returns a human-readable name for the side.
func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "unknown"
	}
}

// PieceType is the lowercase piece letter used in UCI promotion suffixes.
type PieceType string

const (
	NoPieceType PieceType = ""
	Pawn        PieceType = "p"
	Knight      PieceType = "n"
	Bishop      PieceType = "b"
	Rook        PieceType = "r"
	Queen       PieceType = "q"
	King        PieceType = "k"
)

// PromotionOrder is the order promotion choices are offered in.
var PromotionOrder = []PieceType{Queen, Rook, Bishop, Knight}

// Phase is the active UI phase. Exactly one phase is active at a time.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePieceSelect
	PhaseDestSelect
	PhasePromotionSelect
	PhaseMenu
	PhaseViewLog
	PhaseDifficultySelect
	PhaseBoardMarkersSelect
	PhaseModeSelect
	PhaseBulletSetup
	PhaseAcademySelect
	PhaseResetConfirm
	PhaseExitConfirm
	PhaseDrillCoordinate
	PhaseDrillKnight
	PhaseDrillTactics
	PhaseDrillMate
	PhaseDrillPGN
)

// String returns the phase name used in logs and bridge frames.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePieceSelect:
		return "pieceSelect"
	case PhaseDestSelect:
		return "destSelect"
	case PhasePromotionSelect:
		return "promotionSelect"
	case PhaseMenu:
		return "menu"
	case PhaseViewLog:
		return "viewLog"
	case PhaseDifficultySelect:
		return "difficultySelect"
	case PhaseBoardMarkersSelect:
		return "boardMarkersSelect"
	case PhaseModeSelect:
		return "modeSelect"
	case PhaseBulletSetup:
		return "bulletSetup"
	case PhaseAcademySelect:
		return "academySelect"
	case PhaseResetConfirm:
		return "resetConfirm"
	case PhaseExitConfirm:
		return "exitConfirm"
	case PhaseDrillCoordinate:
		return "drillCoordinate"
	case PhaseDrillKnight:
		return "drillKnight"
	case PhaseDrillTactics:
		return "drillTactics"
	case PhaseDrillMate:
		return "drillMate"
	case PhaseDrillPGN:
		return "drillPGN"
	default:
		return "unknown"
	}
}

// IsGameplay reports whether the phase is part of normal move entry.
func (p Phase) IsGameplay() bool {
	return p >= PhaseIdle && p <= PhasePromotionSelect
}

// InMenuTree reports whether the phase is the menu or one of its sub-screens.
func (p Phase) InMenuTree() bool {
	return p >= PhaseMenu && p <= PhaseExitConfirm
}

// IsDrill reports whether the phase is an academy drill.
func (p Phase) IsDrill() bool {
	return p >= PhaseDrillCoordinate && p <= PhaseDrillPGN
}

// GameOverReason is the closed set of ways a game can end.
// The zero value means the game is still running.
type GameOverReason string

const (
	ReasonNone                 GameOverReason = ""
	ReasonCheckmate            GameOverReason = "checkmate"
	ReasonStalemate            GameOverReason = "stalemate"
	ReasonRepetition           GameOverReason = "repetition"
	ReasonInsufficientMaterial GameOverReason = "insufficient-material"
	ReasonDraw                 GameOverReason = "draw"
	ReasonTimeout              GameOverReason = "time-out"
	ReasonUnknown              GameOverReason = "unknown"
)

// Difficulty names one of the static engine presets.
type Difficulty string

const (
	DifficultyEasy    Difficulty = "easy"
	DifficultyCasual  Difficulty = "casual"
	DifficultySerious Difficulty = "serious"
)

// Mode is the game mode.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeBullet   Mode = "bullet"
)

// MoveRef identifies a move that was played.
type MoveRef struct {
	From string
	To   string
	UCI  string
}

// PromotionOption is one of the four pieces a pawn may promote to.
type PromotionOption struct {
	Piece PieceType
	UCI   string
	SAN   string
}

// MoveOption is one legal destination of a piece. Promotion destinations
// carry exactly four Promotions ordered queen, rook, bishop, knight.
type MoveOption struct {
	To         string
	UCI        string
	SAN        string
	Promotions []PromotionOption
}

// IsPromotion reports whether choosing this destination requires a
// promotion piece.
func (m MoveOption) IsPromotion() bool {
	return len(m.Promotions) > 0
}

// Piece is one of the player's movable pieces. ID is its origin square.
type Piece struct {
	ID    string
	Type  PieceType
	Color Color
	Moves []MoveOption
}

// PendingMove is the player's committed move, waiting for the turn loop.
type PendingMove struct {
	From      string
	To        string
	Promotion PieceType
	UCI       string
	SAN       string

	// State before the commit, restored if the oracle refuses the move.
	generation int
	history    []string
	lastSquare string
	committed  bool
}

// ExitIntent asks the side-effect layer to leave the app.
type ExitIntent struct {
	Save bool
}

// Timers holds both bullet clocks. Only present in bullet mode.
type Timers struct {
	White     time.Duration
	Black     time.Duration
	Increment time.Duration
	Active    bool
	Suspended bool // paused because the app left the foreground
	LastTick  time.Time
}

// Remaining returns the clock of the given side.
func (t *Timers) Remaining(c Color) time.Duration {
	if c == Black {
		return t.Black
	}
	return t.White
}

// TimeControl is a bullet preset such as 1+1.
type TimeControl struct {
	Name      string
	Base      time.Duration
	Increment time.Duration
}

// BoardSnapshot is everything the oracle reports about a position.
type BoardSnapshot struct {
	Position string
	Turn     Color
	Pieces   []Piece
	InCheck  bool
	Opening  string
}

// GameState is the single source of truth of the chess app.
type GameState struct {
	// Board identity.
	Position    string
	Turn        Color
	PlayerColor Color
	History     []string
	LastMove    *MoveRef
	InCheck     bool
	GameOver    GameOverReason
	Opening     string
	Pieces      []Piece

	// LastPlayerSquare is where the player's previous move landed.
	LastPlayerSquare string

	Phase          Phase
	PreviousPhase  Phase
	PhaseEnteredAt time.Time

	// Selection cursors, each meaningful only in the phases that use it.
	SelectedPieceID        string
	SelectedMoveIndex      int
	SelectedPromotionIndex int
	MenuIndex              int
	OptionIndex            int
	LogScroll              int
	TimeControlIndex       int
	ConfirmYes             bool

	// Pending intents consumed by the side-effect layer.
	PendingMove        *PendingMove
	PendingEngineRetry bool
	PendingExit        *ExitIntent

	Difficulty   Difficulty
	BoardMarkers bool
	Mode         Mode
	Timers       *Timers

	EngineThinking bool

	// Generation changes whenever a new game starts or a game is loaded.
	// Engine results stamped with an older generation are ignored.
	Generation int

	Academy *Academy
}

// SelectedPiece returns the selected piece, or false when it no longer
// exists in the piece list.
func (s *GameState) SelectedPiece() (Piece, bool) {
	for _, p := range s.Pieces {
		if p.ID == s.SelectedPieceID {
			return p, true
		}
	}
	return Piece{}, false
}

// SelectedMove returns the selected destination of the selected piece.
func (s *GameState) SelectedMove() (MoveOption, bool) {
	p, ok := s.SelectedPiece()
	if !ok || s.SelectedMoveIndex < 0 || s.SelectedMoveIndex >= len(p.Moves) {
		return MoveOption{}, false
	}
	return p.Moves[s.SelectedMoveIndex], true
}

// PlayerToMove reports whether the human may enter a move right now.
func (s *GameState) PlayerToMove() bool {
	return s.Turn == s.PlayerColor &&
		s.GameOver == ReasonNone &&
		!s.EngineThinking &&
		s.PendingMove == nil
}

// EngineOwesMove reports whether the engine should move but nothing is
// in flight, which happens after an engine failure.
func (s *GameState) EngineOwesMove() bool {
	return s.Turn != s.PlayerColor &&
		s.GameOver == ReasonNone &&
		!s.EngineThinking &&
		s.PendingMove == nil
}

// clone returns a shallow copy. Slices are shared and must be replaced,
// never written in place.
func (s *GameState) clone() *GameState {
	next := *s
	return &next
}
