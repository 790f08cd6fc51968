package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// TrackerSeries is one entry of the user's tracker list. Titles holds every
// known title variant, main titles first. DeclaredChapters is nil while a
// series is ongoing or the count is unknown.
type TrackerSeries struct {
	TrackerID        int
	Titles           []string
	Status           string
	DeclaredChapters *int
	CountryOfOrigin  string
	Progress         *int
}

// Media is the extended metadata of a single tracker entry.
type Media struct {
	TrackerID       int
	Title           string
	AltTitle        string
	Format          string
	Status          string
	Description     string
	CountryOfOrigin string
	OriginalSource  string
	Genres          []string
	Tags            []string
	Writer          string
	Penciller       string
	Inker           string
	IsAdult         bool
	SiteURL         string
	Chapters        *int
	Volumes         *int
}

// SearchResult is the best tracker hit for a free-text title search.
type SearchResult struct {
	TrackerID int
	Titles    []string
}

// Catalog is the read side of the remote tracker.
type Catalog interface {
	Entries(ctx context.Context) ([]TrackerSeries, error)
	Media(ctx context.Context, trackerID int) (*Media, error)
	Progress(ctx context.Context, trackerID int) (int, error)
	Search(ctx context.Context, title string) (*SearchResult, error)
}

// ErrNoData means the tracker answered successfully but had nothing for the
// request.
var ErrNoData = errors.New("tracker returned no data")

// UpstreamError is an error payload or non-success status from the tracker.
// Callers may retry on a later run.
type UpstreamError struct {
	StatusCode int
	Messages   []string
}

func (e *UpstreamError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("tracker upstream error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("tracker upstream error (status %d): %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

// AgeRating maps the adult flag to a ComicInfo age rating.
func (m *Media) AgeRating() string {
	if m.IsAdult {
		return "Adults Only 18+"
	}
	return "G"
}

// GenreList joins genres and tags the way readers display them.
func (m *Media) GenreList() string {
	all := make([]string, 0, len(m.Genres)+len(m.Tags))
	all = append(all, m.Genres...)
	all = append(all, m.Tags...)
	return strings.Join(all, ", ")
}

// FormatLabel turns tracker enums like ONE_SHOT into "one shot".
func (m *Media) FormatLabel() string {
	return strings.ReplaceAll(strings.ToLower(m.Format), "_", " ")
}
