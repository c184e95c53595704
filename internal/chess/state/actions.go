package state

import "time"

// Action is the closed vocabulary the reducer understands.
type Action interface {
	ActionName() string
}

// Direction of a scroll gesture.
type Direction int

const (
	ScrollDown Direction = iota
	ScrollUp
)

// step returns the cursor delta for the direction.
func (d Direction) step() int {
	if d == ScrollUp {
		return -1
	}
	return 1
}

// Device input.
type (
	Scroll struct {
		Direction Direction
		At        time.Time
	}
	Tap struct {
		Index int
		Name  string
		At    time.Time
	}
	DoubleTap struct {
		At time.Time
	}
	ForegroundEnter struct {
		At time.Time
	}
	ForegroundExit struct {
		At time.Time
	}
)

// Turn loop results. Generation must match the state's generation.
type (
	EngineThinking struct {
		Generation int
	}
	EngineError struct {
		Generation int
		Board      *BoardSnapshot
	}
	EngineMove struct {
		Generation int
		UCI        string
		SAN        string
		Board      BoardSnapshot
	}
	GameOver struct {
		Generation int
		Reason     GameOverReason
	}
	Refresh struct {
		Generation int
		Board      BoardSnapshot
		LastMove   *MoveRef
	}
	// MoveRejected undoes a committed player move the oracle refused.
	MoveRejected struct {
		Move  PendingMove
		Board BoardSnapshot
	}
	ClearIntents struct{}
)

// Menu and settings.
type (
	NewGame struct {
		At time.Time
	}
	OpenMenu struct {
		At time.Time
	}
	MenuSelect struct {
		Option MenuOption
		At     time.Time
	}
	CloseMenu struct {
		At time.Time
	}
	ConfirmExit struct {
		Save bool
	}
	LoadGame struct {
		Board      BoardSnapshot
		History    []string
		Difficulty Difficulty
		At         time.Time
	}
	SetDifficulty struct {
		Level Difficulty
	}
	SetBoardMarkers struct {
		Enabled bool
	}
	SetMode struct {
		Mode Mode
	}
	StartBulletGame struct {
		TimeControlIndex int
		At               time.Time
	}
	TimerTick struct {
		Now time.Time
	}
	ApplyIncrement struct {
		Color Color
	}
)

// Academy.
type (
	StartDrill struct {
		Type DrillType
		At   time.Time
	}
	DrillAnswer struct {
		Correct bool
	}
	NextDrillQuestion struct{}
)

func (Scroll) ActionName() string            { return "scroll" }
func (Tap) ActionName() string               { return "tap" }
func (DoubleTap) ActionName() string         { return "doubleTap" }
func (ForegroundEnter) ActionName() string   { return "foregroundEnter" }
func (ForegroundExit) ActionName() string    { return "foregroundExit" }
func (EngineThinking) ActionName() string    { return "engineThinking" }
func (EngineError) ActionName() string       { return "engineError" }
func (EngineMove) ActionName() string        { return "engineMove" }
func (GameOver) ActionName() string          { return "gameOver" }
func (Refresh) ActionName() string           { return "refresh" }
func (MoveRejected) ActionName() string      { return "moveRejected" }
func (ClearIntents) ActionName() string      { return "clearIntents" }
func (NewGame) ActionName() string           { return "newGame" }
func (OpenMenu) ActionName() string          { return "openMenu" }
func (MenuSelect) ActionName() string        { return "menuSelect" }
func (CloseMenu) ActionName() string         { return "closeMenu" }
func (ConfirmExit) ActionName() string       { return "confirmExit" }
func (LoadGame) ActionName() string          { return "loadGame" }
func (SetDifficulty) ActionName() string     { return "setDifficulty" }
func (SetBoardMarkers) ActionName() string   { return "setBoardMarkers" }
func (SetMode) ActionName() string           { return "setMode" }
func (StartBulletGame) ActionName() string   { return "startBulletGame" }
func (TimerTick) ActionName() string         { return "timerTick" }
func (ApplyIncrement) ActionName() string    { return "applyIncrement" }
func (StartDrill) ActionName() string        { return "startDrill" }
func (DrillAnswer) ActionName() string       { return "drillAnswer" }
func (NextDrillQuestion) ActionName() string { return "nextDrillQuestion" }

// MenuOption is an entry of the in-game menu.
type MenuOption int

const (
	MenuResume MenuOption = iota
	MenuViewLog
	MenuDifficulty
	MenuBoardMarkers
	MenuMode
	MenuAcademy
	MenuNewGame
	MenuExit
)

// MenuOptions lists the menu entries in display order.
var MenuOptions = []MenuOption{
	MenuResume,
	MenuViewLog,
	MenuDifficulty,
	MenuBoardMarkers,
	MenuMode,
	MenuAcademy,
	MenuNewGame,
	MenuExit,
}

// String returns the menu label.
func (o MenuOption) String() string {
	switch o {
	case MenuResume:
		return "Resume"
	case MenuViewLog:
		return "View log"
	case MenuDifficulty:
		return "Difficulty"
	case MenuBoardMarkers:
		return "Board markers"
	case MenuMode:
		return "Mode"
	case MenuAcademy:
		return "Academy"
	case MenuNewGame:
		return "New game"
	case MenuExit:
		return "Exit"
	default:
		return "Unknown"
	}
}

// Modes lists the modes in the order the mode screen shows them.
var Modes = []Mode{ModeStandard, ModeBullet}
