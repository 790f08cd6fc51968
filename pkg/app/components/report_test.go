package components

import (
	"errors"
	"testing"

	"github.com/kerbaras/mangashelf/pkg/data"
	"github.com/kerbaras/mangashelf/pkg/services"
	"github.com/stretchr/testify/assert"
)

func TestRenderReport(t *testing.T) {
	report := &services.RunReport{
		RunID: "run-1",
		Items: []services.ItemResult{
			{File: services.ChapterFile{ChapterFileName: "Berserk v01"}, Kind: services.KindImported},
			{File: services.ChapterFile{ChapterFileName: "Berserk v02"}, Kind: services.KindSkipped},
			{File: services.ChapterFile{ChapterFileName: "garbage"}, Kind: services.KindQuarantined, Err: services.ErrParseFailure},
			{File: services.ChapterFile{ChapterFileName: "Berserk v03"}, Kind: services.KindFailed, Err: errors.New("disk full")},
		},
		Gaps: []data.MissingChapter{{Series: "Berserk", Number: 4}},
	}

	view := RenderReport(report, 40)

	assert.Contains(t, view, "run-1")
	assert.Contains(t, view, "imported 1")
	assert.Contains(t, view, "failed 1")
	assert.Contains(t, view, "garbage")
	assert.Contains(t, view, "disk full")
	assert.NotContains(t, view, "Berserk v02", "skipped files are only counted")
	assert.Contains(t, view, "Berserk #4")
}

func TestRenderReportHalted(t *testing.T) {
	report := &services.RunReport{RunID: "run-2", Halted: true, Err: services.ErrUnresolvedSeries}
	assert.Contains(t, RenderReport(report, 40), "halted")
}

func TestRenderProgressBar(t *testing.T) {
	assert.Empty(t, renderProgressBar(1, 0, 10))
	assert.Empty(t, renderProgressBar(1, 2, 0))
	assert.Contains(t, renderProgressBar(1, 2, 10), "█████░░░░░")
	assert.Contains(t, renderProgressBar(5, 2, 4), "████")
}
