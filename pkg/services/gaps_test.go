package services

import (
	"testing"
	"time"

	"github.com/kerbaras/mangashelf/pkg/chapter"
	"github.com/kerbaras/mangashelf/pkg/data"
	"github.com/kerbaras/mangashelf/pkg/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordAll(t *testing.T, store *memStore, series string, numbers ...chapter.Number) {
	t.Helper()
	for _, n := range numbers {
		require.NoError(t, store.InsertChapter(&data.ImportRecord{Series: series, Chapter: n}))
	}
}

func TestFindGapsSinceReportsHole(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.UpsertSeriesLink("X", 9))
	probe := store.now()
	recordAll(t, store, "X", "1", "2", "4", "5")

	missing, err := NewGapDetector(store).FindGapsSince(probe)
	require.NoError(t, err)
	assert.Equal(t, []data.MissingChapter{{Series: "X", TrackerID: 9, Number: 3}}, missing)
}

func TestFindGapsSinceUsesWholeHistory(t *testing.T) {
	store := newMemStore()
	recordAll(t, store, "X", "1", "2")
	probe := store.now()
	recordAll(t, store, "X", "5", "6")

	missing, err := NewGapDetector(store).FindGapsSince(probe)
	require.NoError(t, err)
	assert.Equal(t, []data.MissingChapter{
		{Series: "X", Number: 3},
		{Series: "X", Number: 4},
	}, missing)
}

func TestFindGapsSinceIgnoresOldSeries(t *testing.T) {
	store := newMemStore()
	recordAll(t, store, "Old", "1", "5")
	probe := store.now()
	recordAll(t, store, "New", "1", "2")

	missing, err := NewGapDetector(store).FindGapsSince(probe)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestFindGapsSinceExtrasCountAsPresent(t *testing.T) {
	store := newMemStore()
	probe := store.now()
	recordAll(t, store, "X", "1", "2.5", "3")

	missing, err := NewGapDetector(store).FindGapsSince(probe)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestFindGapsSinceNothingNew(t *testing.T) {
	store := newMemStore()
	recordAll(t, store, "X", "1", "4")

	missing, err := NewGapDetector(store).FindGapsSince(store.now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestGapReportCompletion(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.UpsertSeriesLink("Done", 1))
	require.NoError(t, store.UpsertSeriesLink("Partial", 2))
	require.NoError(t, store.UpsertSeriesLink("Ongoing", 3))
	probe := store.now()
	recordAll(t, store, "Done", "1", "2", "3")
	recordAll(t, store, "Partial", "1", "3")
	recordAll(t, store, "Ongoing", "1")

	three := 3
	catalog := []sources.TrackerSeries{
		{TrackerID: 1, DeclaredChapters: &three},
		{TrackerID: 2, DeclaredChapters: &three},
		{TrackerID: 3},
	}

	report, err := NewGapDetector(store).Report(probe, catalog)
	require.NoError(t, err)

	assert.Equal(t, []data.MissingChapter{{Series: "Partial", TrackerID: 2, Number: 2}}, report.Missing)
	assert.Equal(t, []SeriesCompletion{
		{Series: "Done", TrackerID: 1, Declared: 3, Imported: 3, Complete: true},
		{Series: "Partial", TrackerID: 2, Declared: 3, Imported: 2, Complete: false},
	}, report.Completion)
}
