package data

import (
	"fmt"
	"time"

	"github.com/kerbaras/mangashelf/pkg/chapter"
)

// ImportRecord is one imported chapter. (Series, Chapter) is unique and rows
// are never rewritten once stored.
type ImportRecord struct {
	Series      string
	Chapter     chapter.Number
	ArchivePath string
	SourcePath  string
	CreatedAt   time.Time
}

// SeriesLink maps a locally observed series name to its tracker id.
type SeriesLink struct {
	Series    string
	TrackerID int
}

// MissingChapter is a chapter number absent from the ledger below the newest
// import of a series. It is derived on every run and never stored.
type MissingChapter struct {
	Series    string
	TrackerID int
	Number    int
}

func (m MissingChapter) String() string {
	return fmt.Sprintf("%s #%d", m.Series, m.Number)
}
