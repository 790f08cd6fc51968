package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/kerbaras/mangashelf/pkg/app"
	"github.com/kerbaras/mangashelf/pkg/services"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var linkCmd = &cobra.Command{
	Use:   "link [series] [anilist-id]",
	Short: "Link a local series name to an AniList entry",
	Long: `Store the AniList id for a series name as it appears in chapter filenames.
With --all, every ledger series without a link is resolved against your AniList list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if all && len(args) != 0 {
			return fmt.Errorf("--all takes no arguments")
		}
		if !all && len(args) != 2 {
			return fmt.Errorf("expected a series name and an AniList id")
		}

		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()
		ledger := services.NewLedger(repo)

		if !all {
			id, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid AniList id %q", args[1])
			}
			if err := services.LinkManually(ledger, args[0], id); err != nil {
				return err
			}
			fmt.Printf("Linked %q to %d\n", args[0], id)
			return nil
		}

		interactive, _ := cmd.Flags().GetBool("interactive")
		interactive = interactive && isatty.IsTerminal(os.Stdin.Fd())

		var ambiguity services.AmbiguityResolver = services.SkipResolver{}
		if interactive {
			ambiguity = app.NewPrompter(os.Stdin, os.Stdout, nil)
		}
		resolver := services.NewResolver(ledger, ambiguity, interactive, logger)

		report, err := services.LinkUnlinked(cmd.Context(), ledger, resolver, newCatalog())
		if err != nil {
			return err
		}
		for _, l := range report.Linked {
			fmt.Printf("Linked %q to %d\n", l.Series, l.TrackerID)
		}
		for _, s := range report.Unresolved {
			fmt.Printf("No match for %q\n", s)
		}
		return nil
	},
}

func init() {
	linkCmd.Flags().Bool("all", false, "resolve every ledger series without an AniList id")
	linkCmd.Flags().Bool("interactive", false, "confirm matches in a terminal prompt")
	rootCmd.AddCommand(linkCmd)
}
