package services

import (
	"context"
	"fmt"

	"github.com/kerbaras/mangashelf/pkg/data"
	"github.com/kerbaras/mangashelf/pkg/sources"
)

// LinkReport lists what a bulk link pass did.
type LinkReport struct {
	Linked     []data.SeriesLink
	Unresolved []string
}

// LinkUnlinked resolves every ledger series that has no tracker id yet.
// Series the resolver declines are reported, not treated as errors.
func LinkUnlinked(ctx context.Context, ledger *Ledger, resolver *Resolver, catalog sources.Catalog) (*LinkReport, error) {
	series, err := ledger.UnlinkedSeries()
	if err != nil {
		return nil, fmt.Errorf("failed to list unlinked series: %w", err)
	}
	report := &LinkReport{}
	if len(series) == 0 {
		return report, nil
	}

	entries, err := catalog.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracker list: %w", err)
	}

	for _, name := range series {
		trackerID, ok, err := resolver.Resolve(ctx, name, entries)
		if err != nil {
			return report, err
		}
		if !ok {
			report.Unresolved = append(report.Unresolved, name)
			continue
		}
		report.Linked = append(report.Linked, data.SeriesLink{Series: name, TrackerID: trackerID})
	}
	return report, nil
}

// LinkManually stores a user supplied tracker id for series.
func LinkManually(ledger *Ledger, series string, trackerID int) error {
	if series == "" {
		return fmt.Errorf("series name cannot be empty")
	}
	if trackerID <= 0 {
		return fmt.Errorf("invalid tracker id %d", trackerID)
	}
	return ledger.LinkSeries(series, trackerID)
}
