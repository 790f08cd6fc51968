package parser

import (
	"regexp"

	"github.com/kerbaras/mangashelf/pkg/chapter"
)

// Fallback years emitted when the filename carries none. They are markers,
// not derived values.
const (
	RelaxedYear  = "2021"
	DegradedYear = "2022"
)

// ParsedChapter is what a chapter filename tells us about its release.
type ParsedChapter struct {
	Series    string
	Number    chapter.Number
	Year      string
	ScanGroup string
	// Unparsed is set when no pattern matched; the file must be quarantined
	// instead of imported.
	Unparsed bool
}

// Series v01 (2019) (Digital) (F2) (Group)
var strictPattern = regexp.MustCompile(
	`^(.+)\sv([0-9]+\.?[0-9]*)\s+(?:\((\d+)\)\s+)?\(Digital\)[\(F\d\)\s]+\(([\p{L}\p{N}_\s\-]+)\)$`,
)

var relaxedPattern = regexp.MustCompile(`^(.+)\sv([0-9]+\.?[0-9]*)`)

// ParseFilename derives series, volume number, year and scan group from a
// chapter file name. It never fails: names matching neither pattern come back
// with defaults and Unparsed set.
func ParseFilename(name string) ParsedChapter {
	if m := strictPattern.FindStringSubmatch(name); m != nil {
		return ParsedChapter{
			Series:    m[1],
			Number:    chapter.Canon(m[2]),
			Year:      m[3],
			ScanGroup: m[4],
		}
	}

	if m := relaxedPattern.FindStringSubmatch(name); m != nil {
		return ParsedChapter{
			Series: m[1],
			Number: chapter.Canon(m[2]),
			Year:   RelaxedYear,
		}
	}

	return ParsedChapter{
		Series:   name,
		Number:   "1",
		Year:     DegradedYear,
		Unparsed: true,
	}
}
