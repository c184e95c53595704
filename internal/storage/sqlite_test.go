package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenCreatesNestedDirs(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}

func TestStoreScores(t *testing.T) {
	store := openTemp(t)

	for _, s := range []int{3, 5, 1} {
		if _, err := store.SaveScore("academy:knight", s); err != nil {
			t.Fatalf("SaveScore() failed: %v", err)
		}
	}
	if _, err := store.SaveScore("academy:mate", 7); err != nil {
		t.Fatalf("SaveScore() failed: %v", err)
	}

	scores, err := store.TopScores("academy:knight", 2)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(scores) != 2 || scores[0].Score != 5 || scores[1].Score != 3 {
		t.Errorf("TopScores = %+v, want 5 then 3", scores)
	}
	if scores[0].CreatedAt.IsZero() {
		t.Error("CreatedAt not parsed")
	}

	high, err := store.HighScore("academy:knight")
	if err != nil || high != 5 {
		t.Errorf("HighScore = %d, %v", high, err)
	}
	if high, _ := store.HighScore("academy:pgn"); high != 0 {
		t.Errorf("HighScore of empty drill = %d", high)
	}

	stats, err := store.AllStats()
	if err != nil {
		t.Fatalf("AllStats() failed: %v", err)
	}
	k := stats["academy:knight"]
	if k == nil || k.Runs != 3 || k.Best != 5 || k.Average != 3 {
		t.Errorf("knight stats = %+v", k)
	}
	if len(stats) != 2 {
		t.Errorf("stats has %d drills, want 2", len(stats))
	}

	if err := store.ClearScores("academy:knight"); err != nil {
		t.Fatalf("ClearScores() failed: %v", err)
	}
	if left, _ := store.TopScores("academy:knight", 10); len(left) != 0 {
		t.Errorf("scores left after clear: %v", left)
	}
	if left, _ := store.TopScores("academy:mate", 10); len(left) != 1 {
		t.Error("clearing one drill touched another")
	}
}

func TestSavedGameRoundTrip(t *testing.T) {
	store := openTemp(t)

	if _, err := store.LoadGame(); !errors.Is(err, ErrNoSavedGame) {
		t.Fatalf("empty LoadGame err = %v, want ErrNoSavedGame", err)
	}

	first := SavedGame{
		Position:   "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1",
		History:    []string{"e4"},
		Turn:       "b",
		Difficulty: "casual",
	}
	if err := store.SaveGame(first); err != nil {
		t.Fatalf("SaveGame() failed: %v", err)
	}
	second := first
	second.History = []string{"e4", "e5"}
	if err := store.SaveGame(second); err != nil {
		t.Fatalf("SaveGame() overwrite failed: %v", err)
	}

	got, err := store.LoadGame()
	if err != nil {
		t.Fatalf("LoadGame() failed: %v", err)
	}
	if got.Position != second.Position || len(got.History) != 2 || got.Difficulty != "casual" {
		t.Errorf("LoadGame = %+v", got)
	}

	if err := store.DeleteGame(); err != nil {
		t.Fatalf("DeleteGame() failed: %v", err)
	}
	if err := store.DeleteGame(); err != nil {
		t.Fatalf("second DeleteGame() failed: %v", err)
	}
	if _, err := store.LoadGame(); !errors.Is(err, ErrNoSavedGame) {
		t.Errorf("LoadGame after delete err = %v", err)
	}
}

func TestCorruptSaveIsNoSave(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{broken"},
		{"no position", `{"history":["e4"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := openTemp(t)
			if _, err := store.db.Exec("INSERT INTO saves (key, data) VALUES (?, ?)", SaveKey, tt.data); err != nil {
				t.Fatal(err)
			}
			if _, err := store.LoadGame(); !errors.Is(err, ErrNoSavedGame) {
				t.Errorf("err = %v, want ErrNoSavedGame", err)
			}
		})
	}
}

func TestSlotsAreIsolated(t *testing.T) {
	store := openTemp(t)
	alice, bob := store.Slot("alice"), store.Slot("bob")

	g := SavedGame{Position: "8/8/8/8/8/8/8/K6k w - - 0 1", Turn: "w"}
	if err := alice.SaveGame(g); err != nil {
		t.Fatalf("SaveGame() failed: %v", err)
	}
	if _, err := bob.LoadGame(); !errors.Is(err, ErrNoSavedGame) {
		t.Errorf("bob sees alice's game: %v", err)
	}
	if _, err := store.LoadGame(); !errors.Is(err, ErrNoSavedGame) {
		t.Errorf("local slot sees alice's game: %v", err)
	}
	if got, err := alice.LoadGame(); err != nil || got.Position != g.Position {
		t.Errorf("alice LoadGame = %+v, %v", got, err)
	}

	if err := bob.DeleteGame(); err != nil {
		t.Errorf("deleting a missing save: %v", err)
	}
	if err := alice.DeleteGame(); err != nil {
		t.Fatalf("DeleteGame() failed: %v", err)
	}
	if _, err := alice.LoadGame(); !errors.Is(err, ErrNoSavedGame) {
		t.Errorf("alice LoadGame after delete: %v", err)
	}

	if _, err := bob.SaveScore("academy:knight", 4); err != nil {
		t.Fatalf("SaveScore() failed: %v", err)
	}
	if best, _ := store.HighScore("academy:knight"); best != 4 {
		t.Errorf("shared score = %d, want 4", best)
	}
}
