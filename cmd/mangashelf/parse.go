package cmd

import (
	"fmt"

	"github.com/kerbaras/mangashelf/pkg/parser"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [filename...]",
	Short: "Show how chapter filenames are parsed",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t := newTable("Filename", "Series", "Number", "Year", "Group", "Status")
		for _, name := range args {
			parsed := parser.ParseFilename(name)
			status := "ok"
			if parsed.Unparsed {
				status = "quarantine"
			}
			t.Row(truncateString(name, 40), truncateString(parsed.Series, 30),
				parsed.Number.String(), parsed.Year, parsed.ScanGroup, status)
		}
		fmt.Println(t)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
