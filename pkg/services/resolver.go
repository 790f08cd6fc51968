package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"
	"github.com/kerbaras/mangashelf/pkg/sources"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// SkipTrackerID is the answer an AmbiguityResolver gives to decline a match.
const SkipTrackerID = 0

const (
	// titles are short, so small absolute distances separate punctuation
	// noise from genuinely different series
	acceptDistance    = 4
	candidateDistance = 10
)

// Candidate is one scored (tracker entry, title variant) pair.
type Candidate struct {
	TrackerID int
	Title     string
	Distance  int
}

// Match is the outcome of scoring a series name against the catalog. Best is
// nil for an empty catalog.
type Match struct {
	Best       *Candidate
	Candidates []Candidate
}

// AmbiguityResolver settles matches the resolver cannot accept on its own.
// It returns a tracker id, or SkipTrackerID to leave the series unresolved.
type AmbiguityResolver interface {
	Resolve(ctx context.Context, series string, match Match) (int, error)
}

// SkipResolver never overrides; it is the headless default.
type SkipResolver struct{}

func (SkipResolver) Resolve(context.Context, string, Match) (int, error) {
	return SkipTrackerID, nil
}

// SeriesLinker persists a resolved series link.
type SeriesLinker interface {
	LinkSeries(series string, trackerID int) error
}

// Resolver finds the tracker identity of a locally observed series name.
type Resolver struct {
	linker    SeriesLinker
	ambiguity AmbiguityResolver
	alwaysAsk bool
	fold      cases.Caser
	logger    *zap.Logger
}

// NewResolver builds a resolver. With alwaysAsk set every decision goes
// through ambiguity; otherwise it is consulted only when the best match is
// not close enough to accept.
func NewResolver(linker SeriesLinker, ambiguity AmbiguityResolver, alwaysAsk bool, logger *zap.Logger) *Resolver {
	if ambiguity == nil {
		ambiguity = SkipResolver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		linker:    linker,
		ambiguity: ambiguity,
		alwaysAsk: alwaysAsk,
		fold:      cases.Fold(),
		logger:    logger,
	}
}

// Match scores series against every title variant in catalog order. The
// first entry with the lowest distance wins ties.
func (r *Resolver) Match(series string, catalog []sources.TrackerSeries) Match {
	target := r.fold.String(series)

	var m Match
	for _, entry := range catalog {
		for _, title := range entry.Titles {
			folded := r.fold.String(title)
			d := levenshtein.ComputeDistance(target, folded)
			if m.Best == nil || d < m.Best.Distance {
				m.Best = &Candidate{TrackerID: entry.TrackerID, Title: title, Distance: d}
			}
			if d < candidateDistance {
				r.logger.Info("possible match",
					zap.String("series", series),
					zap.String("title", folded),
					zap.Int("distance", d),
					zap.Int("tracker_id", entry.TrackerID))
				m.Candidates = append(m.Candidates, Candidate{TrackerID: entry.TrackerID, Title: title, Distance: d})
			}
		}
	}

	sort.SliceStable(m.Candidates, func(i, j int) bool {
		return m.Candidates[i].Distance < m.Candidates[j].Distance
	})
	return m
}

// Resolve returns the tracker id for series and links it. ok is false when
// no match was accepted, which is not an error.
func (r *Resolver) Resolve(ctx context.Context, series string, catalog []sources.TrackerSeries) (trackerID int, ok bool, err error) {
	m := r.Match(series, catalog)

	switch {
	case r.alwaysAsk:
		trackerID, err = r.ask(ctx, series, m)
	case m.Best != nil && m.Best.Distance < acceptDistance:
		trackerID = m.Best.TrackerID
	default:
		trackerID, err = r.ask(ctx, series, m)
	}
	if err != nil {
		return 0, false, err
	}
	if trackerID == SkipTrackerID {
		r.logger.Info("series left unresolved", zap.String("series", series))
		return 0, false, nil
	}

	if err := r.linker.LinkSeries(series, trackerID); err != nil {
		return 0, false, fmt.Errorf("failed to link %q: %w", series, err)
	}
	r.logger.Info("series linked", zap.String("series", series), zap.Int("tracker_id", trackerID))
	return trackerID, true, nil
}

func (r *Resolver) ask(ctx context.Context, series string, m Match) (int, error) {
	if m.Best != nil {
		r.logger.Info("best match",
			zap.String("series", series),
			zap.Int("distance", m.Best.Distance),
			zap.Int("tracker_id", m.Best.TrackerID))
	}
	id, err := r.ambiguity.Resolve(ctx, series, m)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve %q: %w", series, err)
	}
	return id, nil
}
