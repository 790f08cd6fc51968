package integrations

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/kerbaras/mangashelf/pkg/chapter"
	"github.com/kerbaras/mangashelf/pkg/parser"
	"github.com/kerbaras/mangashelf/pkg/sources"
)

// ComicInfoName is the entry name readers look for at the archive root.
const ComicInfoName = "ComicInfo.xml"

// ComicInfo is the reader metadata document stored next to the pages.
type ComicInfo struct {
	XMLName         xml.Name `xml:"ComicInfo"`
	Title           string   `xml:"Title,omitempty"`
	Series          string   `xml:"Series,omitempty"`
	Number          string   `xml:"Number,omitempty"`
	Volume          string   `xml:"Volume,omitempty"`
	AlternateSeries string   `xml:"AlternateSeries,omitempty"`
	Summary         string   `xml:"Summary,omitempty"`
	Notes           string   `xml:"Notes,omitempty"`
	Year            string   `xml:"Year,omitempty"`
	Writer          string   `xml:"Writer,omitempty"`
	Penciller       string   `xml:"Penciller,omitempty"`
	Inker           string   `xml:"Inker,omitempty"`
	Genre           string   `xml:"Genre,omitempty"`
	Web             string   `xml:"Web,omitempty"`
	Format          string   `xml:"Format,omitempty"`
	BlackAndWhite   string   `xml:"BlackAndWhite,omitempty"`
	Manga           string   `xml:"Manga,omitempty"`
	ScanInformation string   `xml:"ScanInformation,omitempty"`
	AgeRating       string   `xml:"AgeRating,omitempty"`
}

// NewComicInfo combines what the filename told us with tracker metadata.
// media may be nil, in which case only local fields are set and the parsed
// series name stands in for the tracker title.
func NewComicInfo(title string, parsed parser.ParsedChapter, number chapter.Number, media *sources.Media) *ComicInfo {
	info := &ComicInfo{
		Title:           title,
		Series:          parsed.Series,
		Number:          number.String(),
		Volume:          number.String(),
		Year:            parsed.Year,
		ScanInformation: parsed.ScanGroup,
	}
	if media == nil {
		return info
	}

	if media.Title != "" {
		info.Series = media.Title
	}
	info.AlternateSeries = media.AltTitle
	info.Summary = media.Description
	info.Notes = strings.ToLower(media.Status)
	info.Writer = media.Writer
	info.Penciller = media.Penciller
	info.Inker = media.Inker
	info.Genre = media.GenreList()
	info.Web = media.SiteURL
	info.Format = media.FormatLabel()
	info.AgeRating = media.AgeRating()
	if media.CountryOfOrigin == "JP" {
		info.BlackAndWhite = "Yes"
		info.Manga = "YesAndRightToLeft"
	}
	return info
}

// Marshal renders the document with an XML declaration.
func (c *ComicInfo) Marshal() ([]byte, error) {
	body, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", ComicInfoName, err)
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}
