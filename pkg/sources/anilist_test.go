package sources

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

func newTestAniList() *AniList {
	return NewAniList(AniListConfig{Token: "secret", UserID: 7}, nil)
}

const entriesResponse = `{
  "data": {
    "MediaListCollection": {
      "lists": [
        {"entries": [
          {"progress": 117, "media": {"id": 53390, "synonyms": ["AoT", ""], "countryOfOrigin": "JP",
            "title": {"romaji": "Shingeki no Kyojin", "english": "Attack on Titan"},
            "status": "FINISHED", "chapters": 139}}
        ]},
        {"entries": [
          {"progress": null, "media": {"id": 30642, "synonyms": [], "countryOfOrigin": "JP",
            "title": {"romaji": "Vinland Saga", "english": null},
            "status": "RELEASING", "chapters": null}},
          {"progress": 117, "media": {"id": 53390, "synonyms": [], "countryOfOrigin": "JP",
            "title": {"romaji": "Shingeki no Kyojin", "english": "Attack on Titan"},
            "status": "FINISHED", "chapters": 139}}
        ]}
      ]
    }
  }
}`

func TestAniListEntries(t *testing.T) {
	setupHTTPMock(t)

	var gotAuth string
	var gotBody map[string]any
	httpmock.RegisterResponder(http.MethodPost, DefaultAniListEndpoint,
		func(req *http.Request) (*http.Response, error) {
			gotAuth = req.Header.Get("Authorization")
			raw, _ := io.ReadAll(req.Body)
			_ = json.Unmarshal(raw, &gotBody)
			return httpmock.NewStringResponse(http.StatusOK, entriesResponse), nil
		})

	entries, err := newTestAniList().Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, map[string]any{"userId": float64(7)}, gotBody["variables"])

	aot := entries[0]
	assert.Equal(t, 53390, aot.TrackerID)
	assert.Equal(t, []string{"Attack on Titan", "Shingeki no Kyojin", "AoT"}, aot.Titles)
	require.NotNil(t, aot.DeclaredChapters)
	assert.Equal(t, 139, *aot.DeclaredChapters)
	require.NotNil(t, aot.Progress)
	assert.Equal(t, 117, *aot.Progress)

	vinland := entries[1]
	assert.Equal(t, []string{"Vinland Saga"}, vinland.Titles)
	assert.Nil(t, vinland.DeclaredChapters)
	assert.Nil(t, vinland.Progress)
}

func TestAniListCachesSuccessfulResponses(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodPost, DefaultAniListEndpoint,
		httpmock.NewStringResponder(http.StatusOK, entriesResponse))

	client := newTestAniList()
	for i := 0; i < 3; i++ {
		_, err := client.Entries(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, 1, httpmock.GetTotalCallCount())
	assert.Equal(t, 1, client.cache.Len())
}

func TestAniListDoesNotCacheErrors(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodPost, DefaultAniListEndpoint,
		httpmock.NewStringResponder(http.StatusInternalServerError, `{"errors":[{"message":"Internal Server Error","status":500}],"data":null}`))

	client := newTestAniList()
	_, err := client.Entries(context.Background())
	_, err2 := client.Entries(context.Background())

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusInternalServerError, upstream.StatusCode)
	assert.Equal(t, []string{"Internal Server Error"}, upstream.Messages)
	assert.Error(t, err2)
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
	assert.Zero(t, client.cache.Len())
}

func TestAniListErrorPayloadWithOKStatus(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodPost, DefaultAniListEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"errors":[{"message":"Not Found.","status":404}],"data":{"MediaList":null}}`))

	_, err := newTestAniList().Progress(context.Background(), 1)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Contains(t, upstream.Error(), "Not Found.")
	assert.False(t, errors.Is(err, ErrNoData))
}

func TestAniListProgress(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodPost, DefaultAniListEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"data":{"MediaList":{"mediaId":1,"progress":42,"status":"CURRENT"}}}`))

	progress, err := newTestAniList().Progress(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 42, progress)
}

func TestAniListNoData(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodPost, DefaultAniListEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"data":{"MediaList":{"progress":null}, "Media":null}}`))

	client := newTestAniList()

	_, err := client.Progress(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = client.Media(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestAniListSearch(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodPost, DefaultAniListEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"data":{"Media":{"id":30642,"title":{"romaji":"Vinland Saga","english":"Vinland Saga","native":"ヴィンランド・サガ","userPreferred":null}}}}`))

	result, err := newTestAniList().Search(context.Background(), "vinland")
	require.NoError(t, err)
	assert.Equal(t, 30642, result.TrackerID)
	assert.Equal(t, []string{"Vinland Saga", "Vinland Saga", "ヴィンランド・サガ"}, result.Titles)
}

const mediaResponse = `{"data":{"Media":{
  "id": 30642,
  "title": {"userPreferred": "Vinland Saga", "romaji": "Vinland Saga"},
  "format": "MANGA",
  "status": "RELEASING",
  "description": "Thorfinn...",
  "countryOfOrigin": "JP",
  "source": "ORIGINAL",
  "genres": ["Action", "Drama"],
  "staff": {"edges": [
    {"node": {"name": {"userPreferred": "Makoto Yukimura"}, "languageV2": "Japanese"}, "role": "Story & Art"},
    {"node": {"name": {"userPreferred": "Some Translator"}, "languageV2": "English"}, "role": "Translator"}
  ]},
  "isAdult": false,
  "siteUrl": "https://anilist.co/manga/30642",
  "chapters": null,
  "volumes": null,
  "tags": [
    {"name": "Vikings", "category": "Setting-Time", "isGeneralSpoiler": false},
    {"name": "Twist", "category": "Plot", "isGeneralSpoiler": true}
  ]
}}}`

func TestAniListMedia(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodPost, DefaultAniListEndpoint,
		httpmock.NewStringResponder(http.StatusOK, mediaResponse))

	m, err := newTestAniList().Media(context.Background(), 30642)
	require.NoError(t, err)

	assert.Equal(t, "Vinland Saga", m.Title)
	assert.Equal(t, "releasing", m.Status)
	assert.Equal(t, "original", m.OriginalSource)
	assert.Equal(t, "Makoto Yukimura", m.Writer)
	assert.Equal(t, "Makoto Yukimura", m.Penciller)
	assert.Equal(t, "Makoto Yukimura", m.Inker)
	assert.Equal(t, []string{"Setting-Time: Vikings"}, m.Tags)
	assert.Equal(t, "Action, Drama, Setting-Time: Vikings", m.GenreList())
	assert.Equal(t, "G", m.AgeRating())
	assert.Equal(t, "manga", m.FormatLabel())
	assert.Nil(t, m.Chapters)
}

func TestAniListMediaToleratesMissingFields(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodPost, DefaultAniListEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"data":{"Media":{"id":5,"title":{},"isAdult":true}}}`))

	m, err := newTestAniList().Media(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, m.Title)
	assert.Empty(t, m.Writer)
	assert.Empty(t, m.Tags)
	assert.Equal(t, "Adults Only 18+", m.AgeRating())
}

func TestResponseCacheWriteOnce(t *testing.T) {
	c := NewResponseCache()
	key := c.Key("q", map[string]any{"b": 2, "a": 1})
	assert.Equal(t, c.Key("q", map[string]any{"a": 1, "b": 2}), key)

	assert.True(t, c.Put(key, []byte("first")))
	assert.False(t, c.Put(key, []byte("second")))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "first", string(got))

	assert.NotEqual(t, key, c.Key("q", map[string]any{"a": 2, "b": 2}))
}
