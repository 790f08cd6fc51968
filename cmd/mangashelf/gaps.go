package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/kerbaras/mangashelf/pkg/app/styles"
	"github.com/kerbaras/mangashelf/pkg/services"
	"github.com/kerbaras/mangashelf/pkg/sources"
	"github.com/spf13/cobra"
)

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "List chapters missing below recent imports",
	Long:  "Report every integer chapter absent from the ledger below the newest chapter imported within the window.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		since, _ := cmd.Flags().GetDuration("since")
		withCompletion, _ := cmd.Flags().GetBool("completion")

		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		var catalog []sources.TrackerSeries
		if withCompletion {
			catalog, err = newCatalog().Entries(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load tracker list: %w", err)
			}
		}

		report, err := services.NewGapDetector(repo).Report(time.Now().Add(-since), catalog)
		if err != nil {
			return err
		}

		if len(report.Missing) == 0 {
			fmt.Println("No missing chapters.")
		} else {
			t := newTable("Series", "Chapter", "AniList")
			for _, m := range report.Missing {
				t.Row(truncateString(m.Series, 50), fmt.Sprintf("%d", m.Number), trackerLabel(m.TrackerID))
			}
			fmt.Println(t)
		}

		if len(report.Completion) > 0 {
			t := newTable("Series", "Imported", "Declared", "Complete")
			for _, c := range report.Completion {
				complete := "no"
				if c.Complete {
					complete = "yes"
				}
				t.Row(truncateString(c.Series, 50), fmt.Sprintf("%d", c.Imported), fmt.Sprintf("%d", c.Declared), complete)
			}
			fmt.Println(t)
		}
		return nil
	},
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.HeaderStyle
			}
			return styles.CellStyle
		}).
		Headers(headers...)
}

func trackerLabel(id int) string {
	if id == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", id)
}

func init() {
	gapsCmd.Flags().Duration("since", 24*time.Hour, "look at series imported within this window")
	gapsCmd.Flags().Bool("completion", false, "also compare against AniList declared chapter counts")
	rootCmd.AddCommand(gapsCmd)
}
