// Package session owns a player's GameState and performs every side effect
// the reducer asks for: running turns, syncing the oracle, persisting the
// game and recording drill scores.
package session

import (
	"sync"

	"github.com/vovakirdan/glasschess/internal/chess/state"
)

// Listener observes a state transition. It runs while the store holds its
// notification lock, so it must not call Dispatch synchronously.
type Listener func(prev, next *state.GameState)

// Store is the single state slot. Dispatches are serialized and listeners
// see transitions in dispatch order.
type Store struct {
	reducer *state.Reducer

	notifyMu sync.Mutex // held across reduce and notify

	mu    sync.RWMutex
	state *state.GameState

	subMu  sync.Mutex
	subs   []subscription
	nextID int
}

type subscription struct {
	id int
	fn Listener
}

// NewStore returns a store holding initial, or the reducer's initial state
// when initial is nil.
func NewStore(r *state.Reducer, initial *state.GameState) *Store {
	if initial == nil {
		initial = r.Initial()
	}
	return &Store{
		reducer: r,
		state:   initial,
	}
}

// State returns the current state. The value must be treated as read-only.
func (s *Store) State() *state.GameState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Reducer returns the reducer the store dispatches through.
func (s *Store) Reducer() *state.Reducer { return s.reducer }

// Dispatch reduces a into the current state, notifies listeners when the
// state changed and returns the new state.
func (s *Store) Dispatch(a state.Action) *state.GameState {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	prev := s.state
	next := s.reducer.Reduce(prev, a)
	s.state = next
	s.mu.Unlock()

	if next == prev {
		return next
	}

	s.subMu.Lock()
	subs := append([]subscription(nil), s.subs...)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(prev, next)
	}
	return next
}

// Subscribe registers fn and returns a function that removes it.
// Listeners run in subscription order.
func (s *Store) Subscribe(fn Listener) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}
