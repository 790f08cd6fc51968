package integrations

import (
	"context"
	"testing"

	"github.com/kerbaras/mangashelf/pkg/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSummary(t *testing.T) {
	imported := []*data.ImportRecord{
		{Series: "Vinland Saga", Chapter: "12"},
		{Series: "Berserk", Chapter: "40"},
	}
	missing := []data.MissingChapter{{Series: "Berserk", Number: 39}}

	got := BuildSummary(imported, missing)

	assert.Equal(t, "2 new chapter(s) downloaded\nBerserk 40\nVinland Saga 12\n\nMissing chapters:\nBerserk #39", got)
}

func TestBuildSummaryWithoutGaps(t *testing.T) {
	got := BuildSummary([]*data.ImportRecord{{Series: "Berserk", Chapter: "1"}}, nil)
	assert.Equal(t, "1 new chapter(s) downloaded\nBerserk 1", got)
}

func TestNewNotifierWithoutURLs(t *testing.T) {
	n, err := NewNotifier(nil, 0)
	require.NoError(t, err)
	assert.IsType(t, NopNotifier{}, n)
	assert.NoError(t, n.Send(context.Background(), SummaryTitle, "hello"))
}

func TestNewNotifierRejectsUnknownService(t *testing.T) {
	_, err := NewNotifier([]string{"notaservice://token@host"}, 0)
	assert.Error(t, err)
}
