package data

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kerbaras/mangashelf/pkg/chapter"
)

// ErrLedgerConflict is returned when a (series, chapter) pair is inserted a
// second time. Existing rows are never overwritten.
var ErrLedgerConflict = errors.New("chapter already recorded")

// Repository is the relational ledger: imported chapters and series links.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// OpenRepository opens the database with the given driver and wraps it.
func OpenRepository(driver, path string) (*Repository, error) {
	db, err := Open(driver, path)
	if err != nil {
		return nil, err
	}
	return NewRepository(db), nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// InsertChapter stores rec. CreatedAt is filled in when zero.
func (r *Repository) InsertChapter(rec *ImportRecord) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now()
	}
	res, err := r.db.Exec(`
		INSERT INTO chapters (series, chapter, archive, source, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		rec.Series, rec.Chapter.String(), rec.ArchivePath, rec.SourcePath, rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert chapter: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to insert chapter: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s chapter %s: %w", rec.Series, rec.Chapter, ErrLedgerConflict)
	}
	return nil
}

// ChapterExists reports whether the chapter is recorded for any series linked
// to trackerID.
func (r *Repository) ChapterExists(trackerID int, number chapter.Number) (bool, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*)
		FROM chapters c
		INNER JOIN series_links l ON c.series = l.series
		WHERE c.chapter = ? AND l.tracker_id = ?`,
		number.String(), trackerID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query chapter: %w", err)
	}
	return count > 0, nil
}

// GetChapter returns the record for (series, number) or nil when absent.
func (r *Repository) GetChapter(series string, number chapter.Number) (*ImportRecord, error) {
	row := r.db.QueryRow(`
		SELECT series, chapter, archive, source, created_at
		FROM chapters
		WHERE series = ? AND chapter = ?`,
		series, number.String())
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return rec, nil
}

// GetChapters returns every record of a series ordered by chapter number.
func (r *Repository) GetChapters(series string) ([]*ImportRecord, error) {
	rows, err := r.db.Query(`
		SELECT series, chapter, archive, source, created_at
		FROM chapters
		WHERE series = ?`, series)
	if err != nil {
		return nil, fmt.Errorf("failed to query chapters: %w", err)
	}
	return collectRecords(rows)
}

// ListChapters returns the whole ledger ordered by series then chapter.
func (r *Repository) ListChapters() ([]*ImportRecord, error) {
	rows, err := r.db.Query(`
		SELECT series, chapter, archive, source, created_at
		FROM chapters`)
	if err != nil {
		return nil, fmt.Errorf("failed to query chapters: %w", err)
	}
	return collectRecords(rows)
}

// SeriesUpdatedSince lists series with at least one record created after since.
func (r *Repository) SeriesUpdatedSince(since time.Time) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT series
		FROM chapters
		WHERE created_at > ?
		ORDER BY series`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query updated series: %w", err)
	}
	return collectStrings(rows)
}

// UpsertSeriesLink associates series with trackerID, replacing any earlier
// association.
func (r *Repository) UpsertSeriesLink(series string, trackerID int) error {
	_, err := r.db.Exec(`
		INSERT INTO series_links (series, tracker_id)
		VALUES (?, ?)
		ON CONFLICT (series) DO UPDATE SET tracker_id = excluded.tracker_id`,
		series, trackerID)
	if err != nil {
		return fmt.Errorf("failed to link series: %w", err)
	}
	return nil
}

// GetTrackerIDForSeries returns the linked tracker id, if any.
func (r *Repository) GetTrackerIDForSeries(series string) (int, bool, error) {
	var id int
	err := r.db.QueryRow(`SELECT tracker_id FROM series_links WHERE series = ?`, series).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get tracker id: %w", err)
	}
	return id, true, nil
}

// GetSeriesForTracker lists every series name linked to trackerID.
func (r *Repository) GetSeriesForTracker(trackerID int) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT series FROM series_links
		WHERE tracker_id = ?
		ORDER BY series`, trackerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	return collectStrings(rows)
}

// ListSeriesLinks returns every series link ordered by series.
func (r *Repository) ListSeriesLinks() ([]SeriesLink, error) {
	rows, err := r.db.Query(`SELECT series, tracker_id FROM series_links ORDER BY series`)
	if err != nil {
		return nil, fmt.Errorf("failed to query series links: %w", err)
	}
	defer rows.Close()

	var links []SeriesLink
	for rows.Next() {
		var l SeriesLink
		if err := rows.Scan(&l.Series, &l.TrackerID); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// ListSeriesWithoutTrackerIDs lists ledger series that were never linked.
func (r *Repository) ListSeriesWithoutTrackerIDs() ([]string, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT c.series
		FROM chapters c
		LEFT JOIN series_links l ON c.series = l.series
		WHERE l.tracker_id IS NULL
		ORDER BY c.series`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unlinked series: %w", err)
	}
	return collectStrings(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*ImportRecord, error) {
	var (
		rec     ImportRecord
		number  string
		created any
	)
	if err := s.Scan(&rec.Series, &number, &rec.ArchivePath, &rec.SourcePath, &created); err != nil {
		return nil, err
	}
	rec.Chapter = chapter.Number(number)
	t, err := parseTimestamp(created)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = t
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]*ImportRecord, error) {
	defer rows.Close()

	var out []*ImportRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Series != out[j].Series {
			return out[i].Series < out[j].Series
		}
		return out[i].Chapter.Less(out[j].Chapter)
	})
	return out, nil
}

func collectStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
}

// parseTimestamp accepts whatever the driver hands back for a TIMESTAMP
// column: DuckDB returns time.Time, SQLite may return text.
func parseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return parseTimestampText(t)
	case []byte:
		return parseTimestampText(string(t))
	case int64:
		return time.Unix(t, 0).UTC(), nil
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func parseTimestampText(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
