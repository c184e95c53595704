package state

import (
	"time"

	"github.com/vovakirdan/glasschess/internal/academy"
)

// knightGiveUp is how many jumps beyond the optimum a knight drill allows
// before it is scored as a miss.
const knightGiveUp = 4

func (r *Reducer) startDrill(s *GameState, t DrillType, at time.Time) *GameState {
	cat := r.cfg.Catalog
	switch t {
	case DrillCoordinate, DrillKnight:
	case DrillTactics:
		if len(cat.Tactics) == 0 {
			return s
		}
	case DrillMate:
		if len(cat.Mates) == 0 {
			return s
		}
	case DrillPGN:
		if len(cat.Studies) == 0 {
			return s
		}
	default:
		return s
	}

	seed := uint64(at.UnixNano())
	if s.Academy != nil {
		seed ^= s.Academy.Seed
	}
	ac := &Academy{Seed: seed}
	ac.Drill, ac.Seed = r.question(t, nil, ac.Seed)

	next := s.clone()
	next.Academy = ac
	next.Phase = t.Phase()
	next.PhaseEnteredAt = at
	next.OptionIndex = indexOfDrill(t)
	return next
}

// question generates the drill that follows prev, or the first one when
// prev is nil.
func (r *Reducer) question(t DrillType, prev Drill, seed uint64) (Drill, uint64) {
	var v uint64
	cat := r.cfg.Catalog

	switch t {
	case DrillCoordinate:
		v, seed = academy.NextRand(seed)
		return CoordinateDrill{Target: academy.SquareAt(int(v % 64))}, seed

	case DrillKnight:
		start, target := "g1", "e5"
		for i := 0; i < 64; i++ {
			var a, b uint64
			a, seed = academy.NextRand(seed)
			b, seed = academy.NextRand(seed)
			from, to := academy.SquareAt(int(a%64)), academy.SquareAt(int(b%64))
			if d := academy.KnightDistance(from, to); d >= 2 && d <= 4 {
				start, target = from, to
				break
			}
		}
		return KnightDrill{
			Start:   start,
			Target:  target,
			Current: start,
			Optimal: academy.KnightDistance(start, target),
			Choices: academy.KnightJumps(start),
		}, seed

	case DrillTactics, DrillMate:
		puzzles := cat.Tactics
		if t == DrillMate {
			puzzles = cat.Mates
		}
		if len(puzzles) == 0 {
			return nil, seed
		}
		v, seed = academy.NextRand(seed)
		idx := int(v % uint64(len(puzzles)))
		if p, ok := prev.(PuzzleDrill); ok && p.Index == idx && len(puzzles) > 1 {
			idx = (idx + 1) % len(puzzles)
		}
		return PuzzleDrill{Kind: t, Index: idx}, seed

	case DrillPGN:
		if len(cat.Studies) == 0 {
			return nil, seed
		}
		if p, ok := prev.(StudyDrill); ok && p.Index < len(cat.Studies) {
			ply := p.Ply + 1
			idx := p.Index
			if ply >= len(cat.Studies[idx].Plies) {
				idx = (idx + 1) % len(cat.Studies)
				ply = 0
			}
			return StudyDrill{Index: idx, Ply: ply}, seed
		}
		v, seed = academy.NextRand(seed)
		return StudyDrill{Index: int(v % uint64(len(cat.Studies)))}, seed
	}
	return nil, seed
}

func (r *Reducer) nextQuestion(s *GameState) *GameState {
	ac := *s.Academy
	if ac.Drill == nil {
		return s
	}
	d, seed := r.question(ac.Drill.Type(), ac.Drill, ac.Seed)
	if d == nil {
		return s
	}
	ac.Drill = d
	ac.Seed = seed
	ac.Feedback = FeedbackNone

	next := s.clone()
	next.Academy = &ac
	return next
}

// answer scores the current question. drill, when non-nil, replaces the
// drill record (the knight drill records its final square).
func (r *Reducer) answer(s *GameState, correct bool, drill Drill) *GameState {
	ac := *s.Academy
	ac.Attempts++
	if correct {
		ac.Score++
		ac.Feedback = FeedbackCorrect
	} else {
		ac.Feedback = FeedbackIncorrect
	}
	if drill != nil {
		ac.Drill = drill
	}
	next := s.clone()
	next.Academy = &ac
	return next
}

func (r *Reducer) drillScroll(s *GameState, d Direction) *GameState {
	ac := s.Academy
	if ac == nil || ac.Drill == nil || ac.Feedback != FeedbackNone {
		return s
	}

	var moved Drill
	switch dr := ac.Drill.(type) {
	case CoordinateDrill:
		idx := cycle(dr.CursorRank*8+dr.CursorFile, 64, d)
		dr.CursorFile, dr.CursorRank = idx%8, idx/8
		moved = dr
	case KnightDrill:
		if len(dr.Choices) < 2 {
			return s
		}
		dr.Cursor = cycle(dr.Cursor, len(dr.Choices), d)
		moved = dr
	case PuzzleDrill:
		p, ok := r.puzzle(dr)
		if !ok || len(p.Choices) < 2 {
			return s
		}
		dr.Cursor = cycle(dr.Cursor, len(p.Choices), d)
		moved = dr
	case StudyDrill:
		ply, ok := r.studyPly(dr)
		if !ok || len(ply.Choices) < 2 {
			return s
		}
		dr.Cursor = cycle(dr.Cursor, len(ply.Choices), d)
		moved = dr
	default:
		return s
	}

	nac := *ac
	nac.Drill = moved
	next := s.clone()
	next.Academy = &nac
	return next
}

func (r *Reducer) drillTap(s *GameState) *GameState {
	ac := s.Academy
	if ac == nil || ac.Drill == nil {
		return s
	}
	if ac.Feedback != FeedbackNone {
		return r.nextQuestion(s)
	}

	switch dr := ac.Drill.(type) {
	case CoordinateDrill:
		return r.answer(s, academy.SquareName(dr.CursorFile, dr.CursorRank) == dr.Target, nil)

	case KnightDrill:
		if dr.Cursor < 0 || dr.Cursor >= len(dr.Choices) {
			return s
		}
		dr.Current = dr.Choices[dr.Cursor]
		dr.Jumps++
		dr.Cursor = 0
		dr.Choices = academy.KnightJumps(dr.Current)
		if dr.Current == dr.Target {
			return r.answer(s, dr.Jumps == dr.Optimal, dr)
		}
		if dr.Jumps >= dr.Optimal+knightGiveUp {
			return r.answer(s, false, dr)
		}
		nac := *ac
		nac.Drill = dr
		next := s.clone()
		next.Academy = &nac
		return next

	case PuzzleDrill:
		p, ok := r.puzzle(dr)
		if !ok || dr.Cursor < 0 || dr.Cursor >= len(p.Choices) {
			return s
		}
		return r.answer(s, p.Choices[dr.Cursor].Solves, nil)

	case StudyDrill:
		ply, ok := r.studyPly(dr)
		if !ok {
			return s
		}
		return r.answer(s, dr.Cursor == ply.Answer, nil)
	}
	return s
}

// puzzle resolves a puzzle drill against the catalog.
func (r *Reducer) puzzle(d PuzzleDrill) (academy.Puzzle, bool) {
	list := r.cfg.Catalog.Tactics
	if d.Kind == DrillMate {
		list = r.cfg.Catalog.Mates
	}
	if d.Index < 0 || d.Index >= len(list) {
		return academy.Puzzle{}, false
	}
	return list[d.Index], true
}

func (r *Reducer) studyPly(d StudyDrill) (academy.StudyPly, bool) {
	studies := r.cfg.Catalog.Studies
	if d.Index < 0 || d.Index >= len(studies) {
		return academy.StudyPly{}, false
	}
	plies := studies[d.Index].Plies
	if d.Ply < 0 || d.Ply >= len(plies) {
		return academy.StudyPly{}, false
	}
	return plies[d.Ply], true
}

// Puzzle returns the catalog puzzle behind a tactics or mate drill.
func (r *Reducer) Puzzle(d PuzzleDrill) (academy.Puzzle, bool) { return r.puzzle(d) }

// StudyPly returns the catalog ply behind a study drill.
func (r *Reducer) StudyPly(d StudyDrill) (academy.StudyPly, bool) { return r.studyPly(d) }
