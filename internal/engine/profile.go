// Package engine drives a UCI chess engine running as a child process and
// falls back to a random legal move generator when the engine is missing,
// slow or broken.
package engine

import "time"

// Profile bundles the search parameters of one difficulty level.
type Profile struct {
	Name       string        `yaml:"name"`
	SkillLevel int           `yaml:"skill"`
	Depth      int           `yaml:"depth"`
	MoveTime   time.Duration `yaml:"movetime"`
	// MultiPV is the number of candidate lines requested when Variety is
	// set; the reply is picked uniformly among their first moves.
	MultiPV int  `yaml:"multipv"`
	Variety bool `yaml:"variety"`
}

// DefaultProfiles returns the built-in easy, casual and serious presets.
func DefaultProfiles() []Profile {
	return []Profile{
		{Name: "easy", SkillLevel: 0, Depth: 1, MoveTime: 150 * time.Millisecond, MultiPV: 4, Variety: true},
		{Name: "casual", SkillLevel: 5, Depth: 5, MoveTime: 400 * time.Millisecond, MultiPV: 3, Variety: true},
		{Name: "serious", SkillLevel: 15, Depth: 12, MoveTime: time.Second, MultiPV: 1},
	}
}

// Lookup finds the profile with the given name.
func Lookup(profiles []Profile, name string) (Profile, bool) {
	for _, p := range profiles {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

func (p Profile) multiPV() int {
	if !p.Variety || p.MultiPV < 1 {
		return 1
	}
	return p.MultiPV
}
