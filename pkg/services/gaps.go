package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/kerbaras/mangashelf/pkg/data"
	"github.com/kerbaras/mangashelf/pkg/sources"
)

// SeriesCompletion is an advisory view of how much of a series is present
// relative to the tracker's declared chapter count.
type SeriesCompletion struct {
	Series    string
	TrackerID int
	Declared  int
	Imported  int
	Complete  bool
}

// GapReport groups the gaps of one detection pass with completion hints for
// the series it looked at.
type GapReport struct {
	Since      time.Time
	Missing    []data.MissingChapter
	Completion []SeriesCompletion
}

// GapDetector finds integer chapters that should be present but are not.
type GapDetector struct {
	store Store
}

// NewGapDetector builds a detector over store.
func NewGapDetector(store Store) *GapDetector {
	return &GapDetector{store: store}
}

// FindGapsSince inspects every series with an import after since. For each
// one the bound is the highest integer chapter imported after since, and
// every n in [1, bound) whose floor is absent from the whole series history is
// reported. Extras such as 10.5 count as present for chapter 10.
func (g *GapDetector) FindGapsSince(since time.Time) ([]data.MissingChapter, error) {
	summaries, err := g.scan(since)
	if err != nil {
		return nil, err
	}
	var missing []data.MissingChapter
	for _, s := range summaries {
		missing = append(missing, s.missing...)
	}
	return missing, nil
}

// Report runs FindGapsSince and adds completion hints using the declared
// chapter counts in catalog. Series without a declared count get no hint.
func (g *GapDetector) Report(since time.Time, catalog []sources.TrackerSeries) (*GapReport, error) {
	summaries, err := g.scan(since)
	if err != nil {
		return nil, err
	}

	declared := make(map[int]int, len(catalog))
	for _, entry := range catalog {
		if entry.DeclaredChapters != nil {
			declared[entry.TrackerID] = *entry.DeclaredChapters
		}
	}

	report := &GapReport{Since: since}
	for _, s := range summaries {
		report.Missing = append(report.Missing, s.missing...)

		total, ok := declared[s.trackerID]
		if !ok || s.trackerID == 0 {
			continue
		}
		imported := 0
		for n := 1; n <= total; n++ {
			if s.present[n] {
				imported++
			}
		}
		report.Completion = append(report.Completion, SeriesCompletion{
			Series:    s.series,
			TrackerID: s.trackerID,
			Declared:  total,
			Imported:  imported,
			Complete:  imported == total,
		})
	}
	return report, nil
}

type seriesSummary struct {
	series    string
	trackerID int
	present   map[int]bool
	missing   []data.MissingChapter
}

func (g *GapDetector) scan(since time.Time) ([]seriesSummary, error) {
	series, err := g.store.SeriesUpdatedSince(since)
	if err != nil {
		return nil, fmt.Errorf("failed to list updated series: %w", err)
	}
	sort.Strings(series)

	summaries := make([]seriesSummary, 0, len(series))
	for _, name := range series {
		records, err := g.store.GetChapters(name)
		if err != nil {
			return nil, fmt.Errorf("failed to load chapters for %s: %w", name, err)
		}
		trackerID, _, err := g.store.GetTrackerIDForSeries(name)
		if err != nil {
			return nil, fmt.Errorf("failed to load tracker id for %s: %w", name, err)
		}

		s := seriesSummary{series: name, trackerID: trackerID, present: make(map[int]bool, len(records))}
		bound := 0
		for _, rec := range records {
			floor := rec.Chapter.Floor()
			s.present[floor] = true
			if rec.CreatedAt.After(since) && floor > bound {
				bound = floor
			}
		}
		for n := 1; n < bound; n++ {
			if !s.present[n] {
				s.missing = append(s.missing, data.MissingChapter{Series: name, TrackerID: trackerID, Number: n})
			}
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}
