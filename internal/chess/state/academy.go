package state

// DrillType identifies an academy drill.
type DrillType string

const (
	DrillCoordinate DrillType = "coordinate"
	DrillKnight     DrillType = "knight"
	DrillTactics    DrillType = "tactics"
	DrillMate       DrillType = "mate"
	DrillPGN        DrillType = "pgn"
)

// DrillTypes lists the drills in the order the academy menu shows them.
var DrillTypes = []DrillType{DrillCoordinate, DrillKnight, DrillTactics, DrillMate, DrillPGN}

// Title returns the menu label of the drill.
func (d DrillType) Title() string {
	switch d {
	case DrillCoordinate:
		return "Coordinates"
	case DrillKnight:
		return "Knight path"
	case DrillTactics:
		return "Tactics"
	case DrillMate:
		return "Mate in one"
	case DrillPGN:
		return "Study a game"
	default:
		return string(d)
	}
}

// Phase returns the UI phase that hosts the drill.
func (d DrillType) Phase() Phase {
	switch d {
	case DrillCoordinate:
		return PhaseDrillCoordinate
	case DrillKnight:
		return PhaseDrillKnight
	case DrillTactics:
		return PhaseDrillTactics
	case DrillMate:
		return PhaseDrillMate
	case DrillPGN:
		return PhaseDrillPGN
	default:
		return PhaseAcademySelect
	}
}

// Feedback is the result of the last answer in a drill.
type Feedback int

const (
	FeedbackNone Feedback = iota
	FeedbackCorrect
	FeedbackIncorrect
)

// Academy is the drill sub-state. Drill holds exactly one variant.
type Academy struct {
	Score    int
	Attempts int
	Feedback Feedback
	Seed     uint64
	Drill    Drill
}

// Drill is the closed set of per-drill records.
type Drill interface {
	Type() DrillType
	isDrill()
}

// CoordinateDrill asks the player to locate a named square.
type CoordinateDrill struct {
	Target     string
	CursorFile int
	CursorRank int
}

// KnightDrill asks the player to walk a knight to a target square.
type KnightDrill struct {
	Start   string
	Target  string
	Current string
	Jumps   int
	Optimal int
	Choices []string
	Cursor  int
}

// PuzzleDrill is a tactics or mate-in-one puzzle from the catalog.
type PuzzleDrill struct {
	Kind   DrillType
	Index  int
	Cursor int
}

// StudyDrill replays a catalog game, asking for each next move.
type StudyDrill struct {
	Index  int
	Ply    int
	Cursor int
}

func (CoordinateDrill) Type() DrillType { return DrillCoordinate }
func (KnightDrill) Type() DrillType     { return DrillKnight }
func (d PuzzleDrill) Type() DrillType   { return d.Kind }
func (StudyDrill) Type() DrillType      { return DrillPGN }

func (CoordinateDrill) isDrill() {}
func (KnightDrill) isDrill()     {}
func (PuzzleDrill) isDrill()     {}
func (StudyDrill) isDrill()      {}
