package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/glasschess/internal/chess/state"
	"github.com/vovakirdan/glasschess/internal/platform/tui"
	"github.com/vovakirdan/glasschess/internal/session"
	"github.com/vovakirdan/glasschess/internal/storage"
)

var (
	flagScoresTUI   bool
	flagScoresClear bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores [drill]",
	Short: "Show academy results",
	Long: `Display academy results. Without a drill, prints a summary of every
drill. Drills: coordinate, knight, tactics, mate, pgn.

Examples:
  glasschess scores
  glasschess scores knight
  glasschess scores --tui
  glasschess scores mate --clear`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().BoolVar(&flagScoresTUI, "tui", false, "Browse results in an interactive table")
	scoresCmd.Flags().BoolVar(&flagScoresClear, "clear", false, "Delete the results of the given drill")
}

func runScores(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("cannot open database: %w", err)
	}
	defer store.Close()

	if flagScoresTUI {
		width, height := 80, 24
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width, height = w, h
		}
		return tui.RunScoreboard(store, width, height)
	}

	if len(args) == 0 {
		if flagScoresClear {
			return fmt.Errorf("--clear needs a drill")
		}
		return printSummary(store)
	}

	drill, ok := findDrill(args[0])
	if !ok {
		return fmt.Errorf("unknown drill %q (coordinate, knight, tactics, mate, pgn)", args[0])
	}
	id := session.ScoreID(drill)
	if flagScoresClear {
		if err := store.ClearScores(id); err != nil {
			return err
		}
		fmt.Printf("Cleared results of %s\n", drill.Title())
		return nil
	}
	return printDrill(store, drill)
}

func findDrill(name string) (state.DrillType, bool) {
	for _, d := range state.DrillTypes {
		if string(d) == name {
			return d, true
		}
	}
	return "", false
}

func printSummary(store *storage.Store) error {
	stats, err := store.AllStats()
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)
	dim := color.New(color.Faint)
	bold.Println("Academy results")
	fmt.Println()
	fmt.Printf("  %-14s  %5s  %5s  %7s  %s\n", "Drill", "Runs", "Best", "Average", "Last played")
	for _, d := range state.DrillTypes {
		st, ok := stats[session.ScoreID(d)]
		if !ok {
			dim.Printf("  %-14s  %5s\n", d.Title(), "-")
			continue
		}
		fmt.Printf("  %-14s  %5d  %s  %7.1f  %s\n",
			d.Title(), st.Runs, color.GreenString("%5d", st.Best), st.Average,
			st.LastPlayed.Format("2006-01-02 15:04"))
	}
	return nil
}

func printDrill(store *storage.Store, drill state.DrillType) error {
	id := session.ScoreID(drill)
	scores, err := store.TopScores(id, 10)
	if err != nil {
		return fmt.Errorf("cannot retrieve results: %w", err)
	}

	color.New(color.Bold).Printf("Academy results - %s\n", drill.Title())
	fmt.Println()
	if len(scores) == 0 {
		fmt.Println("No results recorded yet.")
		fmt.Println()
		fmt.Println("Open the academy from the in-game menu to train!")
		return nil
	}

	fmt.Printf("  %-4s  %-8s  %s\n", "Rank", "Correct", "Date")
	fmt.Printf("  %-4s  %-8s  %s\n", "----", "-------", "----")
	for i, entry := range scores {
		line := fmt.Sprintf("  %-4d  %-8d  %s", i+1, entry.Score, entry.CreatedAt.Format("2006-01-02 15:04"))
		if i == 0 {
			color.Yellow("%s", line)
			continue
		}
		fmt.Println(line)
	}

	fmt.Println()
	if best, err := store.HighScore(id); err == nil {
		fmt.Printf("Best: %d\n", best)
	}
	return nil
}
