package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kerbaras/mangashelf/pkg/sources"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [title]",
	Short: "Search AniList for a manga",
	Long:  "Look a title up on AniList and print the id to use with 'mangashelf link'",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		result, err := newCatalog().Search(cmd.Context(), query)
		if errors.Is(err, sources.ErrNoData) {
			fmt.Println("No results found.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		t := newTable("AniList", "Titles")
		t.Row(fmt.Sprintf("%d", result.TrackerID), truncateString(strings.Join(result.Titles, " / "), 70))
		fmt.Println(t)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
