package cmd

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/kerbaras/mangashelf/pkg/data"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [series]",
	Short: "List imported chapters",
	Long:  "Display the ledger, or the chapters of one series, in a formatted table",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		var records []*data.ImportRecord
		if len(args) == 1 {
			records, err = repo.GetChapters(args[0])
		} else {
			records, err = repo.ListChapters()
		}
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Println("No chapters in the ledger yet. Run 'mangashelf ingest' first.")
			return nil
		}

		links, err := repo.ListSeriesLinks()
		if err != nil {
			return err
		}
		trackerIDs := make(map[string]int, len(links))
		for _, l := range links {
			trackerIDs[l.Series] = l.TrackerID
		}

		columns := []table.Column{
			{Title: "Series", Width: 36},
			{Title: "Chapter", Width: 8},
			{Title: "AniList", Width: 8},
			{Title: "Imported", Width: 16},
			{Title: "Archive", Width: 40},
		}

		rows := make([]table.Row, 0, len(records))
		for _, rec := range records {
			rows = append(rows, table.Row{
				truncateString(rec.Series, 34),
				rec.Chapter.String(),
				trackerLabel(trackerIDs[rec.Series]),
				rec.CreatedAt.Local().Format("2006-01-02 15:04"),
				truncateString(rec.ArchivePath, 38),
			})
		}

		t := table.New(
			table.WithColumns(columns),
			table.WithRows(rows),
			table.WithFocused(false),
			table.WithHeight(len(rows)),
		)

		s := table.DefaultStyles()
		s.Header = s.Header.
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(true)
		s.Selected = s.Selected.
			Foreground(lipgloss.NoColor{}).
			Bold(false)
		t.SetStyles(s)

		fmt.Printf("\nLedger (%d chapters)\n\n", len(records))
		fmt.Println(t.View())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
