package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List engine difficulty profiles and time controls",
	Args:  cobra.NoArgs,
	RunE:  runProfiles,
}

func runProfiles(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine := cfg.Engine.Path
	if engine == "" {
		engine = color.YellowString("none (random legal moves)")
	}
	fmt.Printf("Engine: %s\n\n", engine)

	color.New(color.Bold).Println("Difficulty profiles")
	for _, p := range cfg.Profiles {
		marker, name := "  ", fmt.Sprintf("%-10s", p.Name)
		if p.Name == cfg.Game.Difficulty {
			marker, name = "* ", color.GreenString("%-10s", p.Name)
		}
		variety := ""
		if p.Variety {
			variety = fmt.Sprintf("  variety over %d lines", p.MultiPV)
		}
		fmt.Printf("%s%s skill %2d  depth %2d  movetime %s%s\n",
			marker, name, p.SkillLevel, p.Depth, p.MoveTime, variety)
	}

	fmt.Println()
	color.New(color.Bold).Println("Bullet time controls")
	for _, tc := range cfg.TimeControls {
		fmt.Printf("  %-6s base %s  increment %s\n", tc.Name, tc.Base, tc.Increment)
	}
	return nil
}
