package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kerbaras/mangashelf/pkg/chapter"
	"github.com/kerbaras/mangashelf/pkg/data"
	"github.com/kerbaras/mangashelf/pkg/integrations"
	"github.com/kerbaras/mangashelf/pkg/sources"
)

// memStore is an in-memory Store with a clock that ticks on every insert.
type memStore struct {
	mu      sync.Mutex
	records []*data.ImportRecord
	links   map[string]int
	inserts int
	clock   time.Time
}

func newMemStore() *memStore {
	return &memStore{
		links: make(map[string]int),
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) ChapterExists(trackerID int, number chapter.Number) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if id, ok := s.links[rec.Series]; ok && id == trackerID && rec.Chapter == number {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) InsertChapter(rec *data.ImportRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.records {
		if existing.Series == rec.Series && existing.Chapter == rec.Chapter {
			return fmt.Errorf("%s %s: %w", rec.Series, rec.Chapter, data.ErrLedgerConflict)
		}
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.tick()
	}
	stored := *rec
	s.records = append(s.records, &stored)
	s.inserts++
	return nil
}

func (s *memStore) GetChapters(series string) ([]*data.ImportRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*data.ImportRecord
	for _, rec := range s.records {
		if rec.Series == series {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *memStore) SeriesUpdatedSince(since time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, rec := range s.records {
		if rec.CreatedAt.After(since) && !seen[rec.Series] {
			seen[rec.Series] = true
			out = append(out, rec.Series)
		}
	}
	return out, nil
}

func (s *memStore) UpsertSeriesLink(series string, trackerID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[series] = trackerID
	return nil
}

func (s *memStore) GetTrackerIDForSeries(series string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.links[series]
	return id, ok, nil
}

func (s *memStore) ListSeriesWithoutTrackerIDs() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, rec := range s.records {
		if _, ok := s.links[rec.Series]; !ok && !seen[rec.Series] {
			seen[rec.Series] = true
			out = append(out, rec.Series)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *memStore) now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}

// mockCatalog follows the func-field mock style; unset funcs return zero
// values.
type mockCatalog struct {
	entriesFunc  func(ctx context.Context) ([]sources.TrackerSeries, error)
	mediaFunc    func(ctx context.Context, id int) (*sources.Media, error)
	progressFunc func(ctx context.Context, id int) (int, error)
	searchFunc   func(ctx context.Context, title string) (*sources.SearchResult, error)

	mu           sync.Mutex
	entriesCalls int
}

func (m *mockCatalog) Entries(ctx context.Context) ([]sources.TrackerSeries, error) {
	m.mu.Lock()
	m.entriesCalls++
	m.mu.Unlock()
	if m.entriesFunc != nil {
		return m.entriesFunc(ctx)
	}
	return nil, nil
}

func (m *mockCatalog) Media(ctx context.Context, id int) (*sources.Media, error) {
	if m.mediaFunc != nil {
		return m.mediaFunc(ctx, id)
	}
	return nil, sources.ErrNoData
}

func (m *mockCatalog) Progress(ctx context.Context, id int) (int, error) {
	if m.progressFunc != nil {
		return m.progressFunc(ctx, id)
	}
	return 0, sources.ErrNoData
}

func (m *mockCatalog) Search(ctx context.Context, title string) (*sources.SearchResult, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, title)
	}
	return nil, sources.ErrNoData
}

func staticCatalog(entries ...sources.TrackerSeries) *mockCatalog {
	return &mockCatalog{
		entriesFunc: func(context.Context) ([]sources.TrackerSeries, error) {
			return entries, nil
		},
	}
}

// stubAmbiguity answers every prompt with id and counts the prompts.
type stubAmbiguity struct {
	id      int
	err     error
	prompts []string
	matches []Match
}

func (s *stubAmbiguity) Resolve(_ context.Context, series string, m Match) (int, error) {
	s.prompts = append(s.prompts, series)
	s.matches = append(s.matches, m)
	return s.id, s.err
}

type recordingNotifier struct {
	titles   []string
	messages []string
}

func (n *recordingNotifier) Send(_ context.Context, title, message string) error {
	n.titles = append(n.titles, title)
	n.messages = append(n.messages, message)
	return nil
}

// panicArchiver blows up on one source path and delegates the rest.
type panicArchiver struct {
	integrations.Archiver
	path string
}

func (a *panicArchiver) Archive(src, dst string, info *integrations.ComicInfo) error {
	if src == a.path {
		panic("corrupt page")
	}
	return a.Archiver.Archive(src, dst, info)
}
