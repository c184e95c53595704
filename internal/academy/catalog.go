package academy

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/notnil/chess"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Choice is one candidate answer of a puzzle.
type Choice struct {
	UCI    string
	SAN    string
	Solves bool
}

// Puzzle is a position plus every legal move, with the solving moves marked.
type Puzzle struct {
	Name    string
	Prompt  string
	FEN     string
	Choices []Choice
}

// StudyPly is one move of a studied game, offered as a multiple choice.
type StudyPly struct {
	FEN     string
	Move    string
	Choices []string
	Answer  int
}

// Study is a famous game replayed move by move.
type Study struct {
	Title string
	Plies []StudyPly
}

// Catalog holds all drill content. It is built once at start-up and only
// read afterwards.
type Catalog struct {
	Tactics []Puzzle
	Mates   []Puzzle
	Studies []Study
}

type catalogFile struct {
	Tactics []struct {
		Name     string `yaml:"name"`
		Prompt   string `yaml:"prompt"`
		FEN      string `yaml:"fen"`
		Solution string `yaml:"solution"`
	} `yaml:"tactics"`
	Mates []struct {
		Name string `yaml:"name"`
		FEN  string `yaml:"fen"`
	} `yaml:"mates"`
	Studies []struct {
		Title string `yaml:"title"`
		PGN   string `yaml:"pgn"`
	} `yaml:"studies"`
}

// LoadDefault builds the catalog from the embedded content.
func LoadDefault() (*Catalog, error) {
	return Load(defaultCatalogYAML)
}

// Load parses catalog YAML and expands every entry with the legal moves of
// its position.
func Load(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("academy: cannot parse catalog: %w", err)
	}

	cat := &Catalog{}

	for _, t := range file.Tactics {
		p, err := buildPuzzle(t.Name, t.Prompt, t.FEN, func(m *chess.Move, _ *chess.Position) bool {
			return chess.UCINotation{}.Encode(nil, m) == strings.ToLower(t.Solution)
		})
		if err != nil {
			return nil, err
		}
		cat.Tactics = append(cat.Tactics, p)
	}

	for _, m := range file.Mates {
		p, err := buildPuzzle(m.Name, "Mate in one", m.FEN, func(_ *chess.Move, after *chess.Position) bool {
			return after.Status() == chess.Checkmate
		})
		if err != nil {
			return nil, err
		}
		cat.Mates = append(cat.Mates, p)
	}

	for _, s := range file.Studies {
		st, err := buildStudy(s.Title, s.PGN)
		if err != nil {
			return nil, err
		}
		cat.Studies = append(cat.Studies, st)
	}

	return cat, nil
}

func buildPuzzle(name, prompt, fen string, solves func(*chess.Move, *chess.Position) bool) (Puzzle, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return Puzzle{}, fmt.Errorf("academy: puzzle %q: bad FEN: %w", name, err)
	}
	pos := chess.NewGame(opt).Position()

	p := Puzzle{Name: name, Prompt: prompt, FEN: fen}
	solved := false
	for _, m := range pos.ValidMoves() {
		c := Choice{
			UCI:    chess.UCINotation{}.Encode(pos, m),
			SAN:    chess.AlgebraicNotation{}.Encode(pos, m),
			Solves: solves(m, pos.Update(m)),
		}
		solved = solved || c.Solves
		p.Choices = append(p.Choices, c)
	}
	if !solved {
		return Puzzle{}, fmt.Errorf("academy: puzzle %q has no solving move", name)
	}

	sort.Slice(p.Choices, func(i, j int) bool {
		return p.Choices[i].SAN < p.Choices[j].SAN
	})
	return p, nil
}

func buildStudy(title, pgn string) (Study, error) {
	opt, err := chess.PGN(strings.NewReader(pgn))
	if err != nil {
		return Study{}, fmt.Errorf("academy: study %q: bad PGN: %w", title, err)
	}
	game := chess.NewGame(opt)
	moves := game.Moves()
	positions := game.Positions()
	if len(moves) == 0 {
		return Study{}, fmt.Errorf("academy: study %q has no moves", title)
	}

	st := Study{Title: title}
	for i, m := range moves {
		pos := positions[i]
		actual := chess.AlgebraicNotation{}.Encode(pos, m)

		var others []string
		for _, alt := range pos.ValidMoves() {
			san := chess.AlgebraicNotation{}.Encode(pos, alt)
			if san != actual {
				others = append(others, san)
			}
		}
		sort.Strings(others)

		choices := []string{actual}
		choices = append(choices, pickDistractors(others, i, 2)...)
		sort.Strings(choices)

		answer := 0
		for j, c := range choices {
			if c == actual {
				answer = j
			}
		}

		st.Plies = append(st.Plies, StudyPly{
			FEN:     pos.String(),
			Move:    actual,
			Choices: choices,
			Answer:  answer,
		})
	}
	return st, nil
}

// pickDistractors spreads picks across the sorted alternatives so the same
// alphabetically-first moves are not offered every ply.
func pickDistractors(others []string, ply, n int) []string {
	if len(others) <= n {
		return others
	}
	picked := make([]string, 0, n)
	seen := make(map[int]bool, n)
	for k := 0; len(picked) < n; k++ {
		idx := (ply*7 + k*(len(others)/n+1)) % len(others)
		for seen[idx] {
			idx = (idx + 1) % len(others)
		}
		seen[idx] = true
		picked = append(picked, others[idx])
	}
	return picked
}
