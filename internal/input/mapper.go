package input

import (
	"sync"
	"time"

	"github.com/vovakirdan/glasschess/internal/chess/state"
)

// Config holds the debounce and cooldown timings.
type Config struct {
	ScrollDebounce time.Duration `yaml:"scroll_debounce"`
	TapCooldown    time.Duration `yaml:"tap_cooldown"`
	MenuCooldown   time.Duration `yaml:"menu_cooldown"`
	SelectCooldown time.Duration `yaml:"select_cooldown"`
	PhantomScroll  time.Duration `yaml:"phantom_scroll"`
}

// DefaultConfig returns the timings tuned for the glasses hardware.
func DefaultConfig() Config {
	return Config{
		ScrollDebounce: 8 * time.Millisecond,
		TapCooldown:    220 * time.Millisecond,
		MenuCooldown:   500 * time.Millisecond,
		SelectCooldown: 280 * time.Millisecond,
		PhantomScroll:  150 * time.Millisecond,
	}
}

// Mapper converts raw events to actions. Each session owns its own Mapper.
type Mapper struct {
	cfg Config
	now func() time.Time

	mu          sync.Mutex
	lastScroll  time.Time
	lastTap     time.Time
	tapsBlocked time.Time // taps before this instant are dropped
}

// NewMapper returns a mapper reading time from now (time.Now when nil).
func NewMapper(cfg Config, now func() time.Time) *Mapper {
	if now == nil {
		now = time.Now
	}
	return &Mapper{cfg: cfg, now: now}
}

// Map returns the action for ev, or false when the event is unrecognized
// or suppressed.
func (m *Mapper) Map(ev Event) (state.Action, bool) {
	if ev == nil {
		return nil, false
	}

	t := ev.eventType()
	if t == nil {
		if _, ok := ev.(SysEvent); ok {
			return nil, false
		}
		t = TypePtr(Click)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()

	switch *t {
	case Click:
		if now.Before(m.tapsBlocked) {
			return nil, false
		}
		m.lastTap = now
		m.tapsBlocked = now.Add(m.cfg.TapCooldown)
		tap := state.Tap{At: now}
		if le, ok := ev.(ListEvent); ok {
			tap.Index, tap.Name = le.Index, le.Name
		}
		return tap, true

	case DoubleClick:
		m.lastTap = now
		return state.DoubleTap{At: now}, true

	case ScrollTop, ScrollBottom:
		if !m.lastTap.IsZero() && now.Sub(m.lastTap) < m.cfg.PhantomScroll {
			return nil, false
		}
		if !m.lastScroll.IsZero() && now.Sub(m.lastScroll) < m.cfg.ScrollDebounce {
			return nil, false
		}
		m.lastScroll = now
		dir := state.ScrollDown
		if *t == ScrollTop {
			dir = state.ScrollUp
		}
		return state.Scroll{Direction: dir, At: now}, true

	case ForegroundEnter:
		return state.ForegroundEnter{At: now}, true

	case ForegroundExit, AbnormalExit:
		return state.ForegroundExit{At: now}, true
	}
	return nil, false
}

// ObservePhase extends the tap cooldown after a phase change that tends to
// render slowly.
func (m *Mapper) ObservePhase(prev, next state.Phase) {
	if prev == next {
		return
	}

	var extra time.Duration
	switch {
	case next == state.PhaseMenu && !prev.InMenuTree():
		extra = m.cfg.MenuCooldown
	case next == state.PhaseDestSelect, next == state.PhasePromotionSelect:
		extra = m.cfg.SelectCooldown
	default:
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if until := m.now().Add(extra); until.After(m.tapsBlocked) {
		m.tapsBlocked = until
	}
}
