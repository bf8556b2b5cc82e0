// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"kawachess/pkg/storage"
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List recorded games",
	RunE:  runGames,
}

func init() {
	rootCmd.AddCommand(gamesCmd)
}

var (
	gamesHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	gamesRowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

func runGames(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	games, err := store.ListGames()
	if err != nil {
		return err
	}
	if len(games) == 0 {
		fmt.Println("No games recorded yet.")
		return nil
	}

	header := fmt.Sprintf("%-4s %-12s %-12s %-20s %-10s %-6s %-6s %s",
		"ID", "WHITE", "BLACK", "DATE", "DURATION", "SKILL", "MOVES", "RESULT")
	fmt.Println(gamesHeaderStyle.Render(header))
	for _, g := range games {
		row := fmt.Sprintf("%-4d %-12s %-12s %-20s %-10s %-6d %-6d %s",
			g.ID, g.White, g.Black, g.Date, g.Duration, g.SkillLevel, g.MoveCount, g.Result)
		fmt.Println(gamesRowStyle.Render(row))
	}
	return nil
}
