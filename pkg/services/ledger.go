package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/kerbaras/mangashelf/pkg/chapter"
	"github.com/kerbaras/mangashelf/pkg/data"
)

// Store is the persistence the ledger, resolver and gap detector need.
// *data.Repository satisfies it.
type Store interface {
	ChapterExists(trackerID int, number chapter.Number) (bool, error)
	InsertChapter(rec *data.ImportRecord) error
	GetChapters(series string) ([]*data.ImportRecord, error)
	SeriesUpdatedSince(since time.Time) ([]string, error)
	UpsertSeriesLink(series string, trackerID int) error
	GetTrackerIDForSeries(series string) (int, bool, error)
	ListSeriesWithoutTrackerIDs() ([]string, error)
}

// Ledger records which chapters have been imported and which tracker id
// each local series name maps to.
type Ledger struct {
	store Store

	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

// NewLedger wraps store.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store, locks: make(map[int]*sync.Mutex)}
}

// Exists reports whether any series linked to trackerID already holds number.
func (l *Ledger) Exists(trackerID int, number chapter.Number) (bool, error) {
	exists, err := l.store.ChapterExists(trackerID, chapter.Canon(number.String()))
	if err != nil {
		return false, fmt.Errorf("failed to check ledger for %d/%s: %w", trackerID, number, err)
	}
	return exists, nil
}

// Record inserts an import. A pair that is already present fails with
// data.ErrLedgerConflict and leaves the existing row untouched.
func (l *Ledger) Record(series string, number chapter.Number, archivePath, sourcePath string) error {
	rec := &data.ImportRecord{
		Series:      series,
		Chapter:     chapter.Canon(number.String()),
		ArchivePath: archivePath,
		SourcePath:  sourcePath,
	}
	if err := l.store.InsertChapter(rec); err != nil {
		return fmt.Errorf("failed to record %s %s: %w", series, number, err)
	}
	return nil
}

// LinkSeries stores or replaces the tracker id for series.
func (l *Ledger) LinkSeries(series string, trackerID int) error {
	return l.store.UpsertSeriesLink(series, trackerID)
}

// TrackerIDFor returns the linked tracker id for series, if any.
func (l *Ledger) TrackerIDFor(series string) (int, bool, error) {
	return l.store.GetTrackerIDForSeries(series)
}

// UnlinkedSeries lists ledger series that have no tracker link.
func (l *Ledger) UnlinkedSeries() ([]string, error) {
	return l.store.ListSeriesWithoutTrackerIDs()
}

// Lock serialises the check-then-record sequence for one tracker entry and
// returns the matching unlock.
func (l *Ledger) Lock(trackerID int) func() {
	l.mu.Lock()
	m, ok := l.locks[trackerID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[trackerID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
