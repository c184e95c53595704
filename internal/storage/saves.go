package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SaveKey is the key of the local player's saved game.
const SaveKey = "glasschess.save"

// ErrNoSavedGame is returned when there is nothing usable to resume.
var ErrNoSavedGame = errors.New("storage: no saved game")

// SavedGame is the persisted part of a game in progress.
type SavedGame struct {
	Position   string   `json:"position"`
	History    []string `json:"history"`
	Turn       string   `json:"turn"`
	Difficulty string   `json:"difficulty"`
}

// SaveGame replaces the local player's saved game.
func (s *Store) SaveGame(g SavedGame) error { return s.saveGame(SaveKey, g) }

// LoadGame returns the local player's saved game.
func (s *Store) LoadGame() (SavedGame, error) { return s.loadGame(SaveKey) }

// DeleteGame removes the local player's saved game.
func (s *Store) DeleteGame() error { return s.deleteGame(SaveKey) }

// Slot is the storage view of one remote player: their own saved game and
// the shared scores table.
type Slot struct {
	store *Store
	key   string
}

// Slot returns the view of the player identified by name.
func (s *Store) Slot(name string) *Slot {
	return &Slot{store: s, key: SaveKey + ":" + name}
}

// Key returns the saves-table key of the slot.
func (sl *Slot) Key() string { return sl.key }

// SaveGame replaces the slot's saved game.
func (sl *Slot) SaveGame(g SavedGame) error { return sl.store.saveGame(sl.key, g) }

// LoadGame returns the slot's saved game, or ErrNoSavedGame when there is
// none or it cannot be decoded.
func (sl *Slot) LoadGame() (SavedGame, error) { return sl.store.loadGame(sl.key) }

// DeleteGame removes the slot's saved game. Deleting a missing save is not
// an error.
func (sl *Slot) DeleteGame() error { return sl.store.deleteGame(sl.key) }

// SaveScore records a drill result in the shared scores table.
func (sl *Slot) SaveScore(gameID string, score int) (int64, error) {
	return sl.store.SaveScore(gameID, score)
}

func (s *Store) saveGame(key string, g SavedGame) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("storage: cannot encode saved game: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO saves (key, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, string(data),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save game: %w", err)
	}
	return nil
}

// loadGame returns the game saved under key. Missing or unreadable data
// yields ErrNoSavedGame; a corrupt record is wrapped so callers can log it.
func (s *Store) loadGame(key string) (SavedGame, error) {
	var data string
	err := s.db.QueryRow("SELECT data FROM saves WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedGame{}, ErrNoSavedGame
	}
	if err != nil {
		return SavedGame{}, fmt.Errorf("storage: cannot query saved game: %w", err)
	}

	var g SavedGame
	if err := json.Unmarshal([]byte(data), &g); err != nil {
		return SavedGame{}, fmt.Errorf("%w: corrupt record: %v", ErrNoSavedGame, err)
	}
	if strings.TrimSpace(g.Position) == "" {
		return SavedGame{}, fmt.Errorf("%w: record has no position", ErrNoSavedGame)
	}
	return g, nil
}

// Deleting nothing is not an error.
func (s *Store) deleteGame(key string) error {
	if _, err := s.db.Exec("DELETE FROM saves WHERE key = ?", key); err != nil {
		return fmt.Errorf("storage: cannot delete saved game: %w", err)
	}
	return nil
}
