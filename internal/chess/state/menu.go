package state

import "time"

func (r *Reducer) openMenu(s *GameState, at time.Time) *GameState {
	if s.Phase == PhaseMenu {
		return s
	}
	next := s.clone()
	if !s.Phase.InMenuTree() {
		// PreviousPhase always points outside the menu tree.
		next.PreviousPhase = s.Phase
		next.MenuIndex = 0
	}
	next.Phase = PhaseMenu
	next.PhaseEnteredAt = at
	return next
}

// closeMenu returns to the phase that was active before the menu tree was
// entered, or to idle if that phase is no longer reachable.
func (r *Reducer) closeMenu(s *GameState) *GameState {
	if !s.Phase.InMenuTree() {
		return s
	}
	target := s.PreviousPhase
	switch {
	case target.InMenuTree():
		target = PhaseIdle
	case target.IsDrill():
		if s.Academy == nil || s.Academy.Drill == nil || s.Academy.Drill.Type().Phase() != target {
			target = PhaseIdle
		}
	case target == PhasePieceSelect:
		if _, ok := s.SelectedPiece(); !ok || !s.PlayerToMove() {
			target = PhaseIdle
		}
	case target == PhaseDestSelect || target == PhasePromotionSelect:
		if _, ok := s.SelectedMove(); !ok || !s.PlayerToMove() {
			target = PhaseIdle
		}
	}

	next := s.clone()
	next.Phase = target
	next.PhaseEnteredAt = time.Time{}
	return next
}

func (r *Reducer) menuScroll(s *GameState, d Direction) *GameState {
	next := s.clone()
	switch s.Phase {
	case PhaseMenu:
		next.MenuIndex = cycle(s.MenuIndex, len(MenuOptions), d)
	case PhaseViewLog:
		// LogScroll counts rows back from the newest move.
		scroll := s.LogScroll - d.step()
		maxScroll := len(s.History) - 1
		if scroll > maxScroll {
			scroll = maxScroll
		}
		if scroll < 0 {
			scroll = 0
		}
		next.LogScroll = scroll
	case PhaseDifficultySelect:
		next.OptionIndex = cycle(s.OptionIndex, len(r.cfg.Difficulties), d)
	case PhaseModeSelect:
		next.OptionIndex = cycle(s.OptionIndex, len(Modes), d)
	case PhaseBulletSetup:
		next.TimeControlIndex = cycle(s.TimeControlIndex, len(r.cfg.TimeControls), d)
	case PhaseAcademySelect:
		next.OptionIndex = cycle(s.OptionIndex, len(DrillTypes), d)
	case PhaseBoardMarkersSelect, PhaseResetConfirm, PhaseExitConfirm:
		next.ConfirmYes = !s.ConfirmYes
	default:
		return s
	}
	if next.MenuIndex == s.MenuIndex &&
		next.LogScroll == s.LogScroll &&
		next.OptionIndex == s.OptionIndex &&
		next.TimeControlIndex == s.TimeControlIndex &&
		next.ConfirmYes == s.ConfirmYes {
		return s
	}
	return next
}

func (r *Reducer) menuTap(s *GameState, at time.Time) *GameState {
	switch s.Phase {
	case PhaseMenu:
		if s.MenuIndex < 0 || s.MenuIndex >= len(MenuOptions) {
			return s
		}
		return r.menuSelect(s, MenuOptions[s.MenuIndex], at)

	case PhaseViewLog:
		return r.backToMenu(s, at)

	case PhaseDifficultySelect:
		next := r.backToMenu(s, at)
		if s.OptionIndex >= 0 && s.OptionIndex < len(r.cfg.Difficulties) {
			next.Difficulty = r.cfg.Difficulties[s.OptionIndex]
		}
		return next

	case PhaseBoardMarkersSelect:
		next := r.backToMenu(s, at)
		next.BoardMarkers = s.ConfirmYes
		return next

	case PhaseModeSelect:
		if s.OptionIndex < 0 || s.OptionIndex >= len(Modes) {
			return s
		}
		if Modes[s.OptionIndex] == ModeBullet {
			next := s.clone()
			next.Phase = PhaseBulletSetup
			next.PhaseEnteredAt = at
			return next
		}
		next := r.backToMenu(s, at)
		next.Mode = ModeStandard
		next.Timers = nil
		return next

	case PhaseBulletSetup:
		return r.startBulletGame(s, s.TimeControlIndex, at)

	case PhaseAcademySelect:
		if s.OptionIndex < 0 || s.OptionIndex >= len(DrillTypes) {
			return s
		}
		return r.startDrill(s, DrillTypes[s.OptionIndex], at)

	case PhaseResetConfirm:
		if s.ConfirmYes {
			return r.newGame(s, at)
		}
		return r.backToMenu(s, at)

	case PhaseExitConfirm:
		next := s.clone()
		next.PendingExit = &ExitIntent{Save: s.ConfirmYes}
		return next
	}
	return s
}

func (r *Reducer) menuSelect(s *GameState, opt MenuOption, at time.Time) *GameState {
	next := s.clone()
	next.MenuIndex = int(opt)
	next.PhaseEnteredAt = at

	switch opt {
	case MenuResume:
		return r.closeMenu(s)
	case MenuViewLog:
		next.Phase = PhaseViewLog
		next.LogScroll = 0
	case MenuDifficulty:
		next.Phase = PhaseDifficultySelect
		next.OptionIndex = max(indexOfDifficulty(r.cfg.Difficulties, s.Difficulty), 0)
	case MenuBoardMarkers:
		next.Phase = PhaseBoardMarkersSelect
		next.ConfirmYes = s.BoardMarkers
	case MenuMode:
		next.Phase = PhaseModeSelect
		next.OptionIndex = max(indexOfMode(s.Mode), 0)
	case MenuAcademy:
		next.Phase = PhaseAcademySelect
		next.OptionIndex = 0
		if s.Academy != nil && s.Academy.Drill != nil {
			next.OptionIndex = indexOfDrill(s.Academy.Drill.Type())
		}
	case MenuNewGame:
		next.Phase = PhaseResetConfirm
		next.ConfirmYes = false
	case MenuExit:
		next.Phase = PhaseExitConfirm
		next.ConfirmYes = true
	default:
		return s
	}
	return next
}

func (r *Reducer) backToMenu(s *GameState, at time.Time) *GameState {
	next := s.clone()
	next.Phase = PhaseMenu
	next.PhaseEnteredAt = at
	return next
}
