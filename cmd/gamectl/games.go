package main

import (
	"fmt"
	"io"
	"strings"

	"changekit/internal/game"
	"changekit/internal/models"

	"github.com/spf13/cobra"
)

func newGamesCmd(a *app) *cobra.Command {
	var filter models.GameFilter
	var recommended bool

	cmd := &cobra.Command{
		Use:   "games",
		Short: "List the available games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend := a.backend()

			var games []models.Game
			var err error
			if recommended {
				games, err = backend.RecommendGames(cmd.Context(), a.userID)
			} else {
				games, err = backend.ListGames(cmd.Context(), filter)
			}
			if err != nil {
				return fmt.Errorf("failed to load games: %w", err)
			}

			printGames(cmd.OutOrStdout(), a.styles(), games)
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.AdkarStage, "adkar-stage", "", "only games for this ADKAR stage")
	cmd.Flags().StringVar(&filter.ChangeType, "change-type", "", "only games for this change type")
	cmd.Flags().BoolVar(&recommended, "recommended", false, "list the games recommended for the user instead")
	return cmd
}

func printGames(w io.Writer, st styles, games []models.Game) {
	if len(games) == 0 {
		fmt.Fprintln(w, st.muted.Render("No games found."))
		return
	}

	for _, g := range games {
		kind := g.GameType
		if t, err := game.ParseType(g.GameType); err == nil {
			kind = string(t)
		}

		var tags []string
		for _, tag := range []string{kind, g.AdkarStage, g.ChangeType} {
			if tag != "" {
				tags = append(tags, tag)
			}
		}
		tags = append(tags, fmt.Sprintf("%d pts", g.Points))

		fmt.Fprintf(w, "%s  %s  %s\n", st.heading.Render(g.GameID), st.title.Render(g.Title), st.badge.Render("["+strings.Join(tags, " · ")+"]"))
		if g.Description != "" {
			fmt.Fprintln(w, st.muted.Render("    "+g.Description))
		}
	}
}
