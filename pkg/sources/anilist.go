package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/kerbaras/mangashelf/pkg/utils"
	"go.uber.org/zap"
)

const DefaultAniListEndpoint = "https://graphql.anilist.co"

// AniList is the tracker catalog backed by the AniList GraphQL API. Each
// instance owns its response cache, so one instance should serve one run.
type AniList struct {
	api    *utils.API
	userID int
	cache  *ResponseCache
	logger *zap.Logger
}

type AniListConfig struct {
	Endpoint string
	Token    string
	UserID   int
}

func NewAniList(cfg AniListConfig, logger *zap.Logger) *AniList {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultAniListEndpoint
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	api := utils.NewAPI(cfg.Endpoint)
	if cfg.Token != "" {
		token := cfg.Token
		if !strings.HasPrefix(token, "Bearer ") {
			token = "Bearer " + token
		}
		api.SetHeader("Authorization", token)
	}
	return &AniList{
		api:    api,
		userID: cfg.UserID,
		cache:  NewResponseCache(),
		logger: logger.With(zap.String("component", "anilist")),
	}
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// query runs a GraphQL query and decodes its data object into out. Only
// clean 200 responses are cached.
func (a *AniList) query(ctx context.Context, query string, variables map[string]any, out any) error {
	key := a.cache.Key(query, variables)
	body, cached := a.cache.Get(key)
	if !cached {
		status, raw, err := a.api.Post(ctx, "", map[string]any{"query": query, "variables": variables})
		if err != nil {
			return fmt.Errorf("anilist request failed: %w", err)
		}
		if err := checkResponse(status, raw); err != nil {
			return err
		}
		a.cache.Put(key, raw)
		body = raw
	}

	var resp graphQLResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to decode anilist response: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to decode anilist data: %w", err)
	}
	return nil
}

func checkResponse(status int, raw []byte) error {
	var resp graphQLResponse
	decodeErr := json.Unmarshal(raw, &resp)

	if status == http.StatusOK && decodeErr == nil && len(resp.Errors) == 0 {
		return nil
	}

	upstream := &UpstreamError{StatusCode: status}
	for _, e := range resp.Errors {
		upstream.Messages = append(upstream.Messages, e.Message)
	}
	if decodeErr != nil {
		snippet := string(raw)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		upstream.Messages = append(upstream.Messages, snippet)
	}
	return upstream
}

const entriesQuery = `query ($userId: Int) {
  MediaListCollection(userId: $userId, type: MANGA) {
    lists {
      entries {
        progress
        media {
          id
          synonyms
          countryOfOrigin
          title { romaji english }
          status
          chapters
        }
      }
    }
  }
}`

type mediaTitle struct {
	Romaji        *string `json:"romaji"`
	English       *string `json:"english"`
	Native        *string `json:"native"`
	UserPreferred *string `json:"userPreferred"`
}

// Entries returns every manga on the user's lists, merged across lists and
// deduplicated by tracker id in list order.
func (a *AniList) Entries(ctx context.Context) ([]TrackerSeries, error) {
	var data struct {
		MediaListCollection *struct {
			Lists []struct {
				Entries []struct {
					Progress *int `json:"progress"`
					Media    struct {
						ID              int        `json:"id"`
						Synonyms        []string   `json:"synonyms"`
						CountryOfOrigin string     `json:"countryOfOrigin"`
						Title           mediaTitle `json:"title"`
						Status          string     `json:"status"`
						Chapters        *int       `json:"chapters"`
					} `json:"media"`
				} `json:"entries"`
			} `json:"lists"`
		} `json:"MediaListCollection"`
	}
	if err := a.query(ctx, entriesQuery, map[string]any{"userId": a.userID}, &data); err != nil {
		return nil, err
	}
	if data.MediaListCollection == nil {
		return nil, ErrNoData
	}

	seen := make(map[int]bool)
	var out []TrackerSeries
	for _, list := range data.MediaListCollection.Lists {
		for _, entry := range list.Entries {
			m := entry.Media
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true

			titles := nonEmpty(deref(m.Title.English), deref(m.Title.Romaji))
			titles = append(titles, nonEmpty(m.Synonyms...)...)
			out = append(out, TrackerSeries{
				TrackerID:        m.ID,
				Titles:           titles,
				Status:           m.Status,
				DeclaredChapters: m.Chapters,
				CountryOfOrigin:  m.CountryOfOrigin,
				Progress:         entry.Progress,
			})
		}
	}
	a.logger.Debug("fetched tracker entries", zap.Int("count", len(out)))
	return out, nil
}

const progressQuery = `query ($mediaId: Int, $userId: Int) {
  MediaList(userId: $userId, mediaId: $mediaId) {
    mediaId
    progress
    status
  }
}`

// Progress returns how many chapters the user has read of trackerID.
func (a *AniList) Progress(ctx context.Context, trackerID int) (int, error) {
	var data struct {
		MediaList *struct {
			Progress *int `json:"progress"`
		} `json:"MediaList"`
	}
	vars := map[string]any{"mediaId": trackerID, "userId": a.userID}
	if err := a.query(ctx, progressQuery, vars, &data); err != nil {
		return 0, err
	}
	if data.MediaList == nil || data.MediaList.Progress == nil {
		return 0, ErrNoData
	}
	return *data.MediaList.Progress, nil
}

const searchQuery = `query ($search: String) {
  Media(search: $search, type: MANGA) {
    id
    title { romaji english native userPreferred }
  }
}`

// Search returns the tracker's best match for a free-text title.
func (a *AniList) Search(ctx context.Context, title string) (*SearchResult, error) {
	var data struct {
		Media *struct {
			ID    int        `json:"id"`
			Title mediaTitle `json:"title"`
		} `json:"Media"`
	}
	if err := a.query(ctx, searchQuery, map[string]any{"search": title}, &data); err != nil {
		return nil, err
	}
	if data.Media == nil {
		return nil, ErrNoData
	}
	t := data.Media.Title
	return &SearchResult{
		TrackerID: data.Media.ID,
		Titles:    nonEmpty(deref(t.Romaji), deref(t.English), deref(t.Native), deref(t.UserPreferred)),
	}, nil
}

const mediaQuery = `query ($id: Int) {
  Media(id: $id, type: MANGA) {
    id
    title { userPreferred romaji }
    format
    status(version: 2)
    description
    countryOfOrigin
    source(version: 2)
    genres
    staff(sort: RELEVANCE, page: 1, perPage: 3) {
      edges {
        node { name { userPreferred } languageV2 }
        role
      }
    }
    isAdult
    siteUrl
    chapters
    volumes
    tags { name category isGeneralSpoiler }
  }
}`

// Media fetches extended metadata for trackerID. Missing or null fields come
// back empty rather than failing.
func (a *AniList) Media(ctx context.Context, trackerID int) (*Media, error) {
	var data struct {
		Media *struct {
			ID              int        `json:"id"`
			Title           mediaTitle `json:"title"`
			Format          *string    `json:"format"`
			Status          *string    `json:"status"`
			Description     *string    `json:"description"`
			CountryOfOrigin *string    `json:"countryOfOrigin"`
			Source          *string    `json:"source"`
			Genres          []string   `json:"genres"`
			Staff           *struct {
				Edges []struct {
					Node struct {
						Name struct {
							UserPreferred *string `json:"userPreferred"`
						} `json:"name"`
						Language *string `json:"languageV2"`
					} `json:"node"`
					Role string `json:"role"`
				} `json:"edges"`
			} `json:"staff"`
			IsAdult  bool    `json:"isAdult"`
			SiteURL  *string `json:"siteUrl"`
			Chapters *int    `json:"chapters"`
			Volumes  *int    `json:"volumes"`
			Tags     []struct {
				Name             string `json:"name"`
				Category         string `json:"category"`
				IsGeneralSpoiler bool   `json:"isGeneralSpoiler"`
			} `json:"tags"`
		} `json:"Media"`
	}
	if err := a.query(ctx, mediaQuery, map[string]any{"id": trackerID}, &data); err != nil {
		return nil, err
	}
	if data.Media == nil {
		return nil, ErrNoData
	}

	src := data.Media
	m := &Media{
		TrackerID:       trackerID,
		Title:           deref(src.Title.UserPreferred),
		AltTitle:        deref(src.Title.Romaji),
		Format:          deref(src.Format),
		Status:          strings.ToLower(deref(src.Status)),
		Description:     deref(src.Description),
		CountryOfOrigin: deref(src.CountryOfOrigin),
		OriginalSource:  strings.ToLower(deref(src.Source)),
		Genres:          nonEmpty(src.Genres...),
		IsAdult:         src.IsAdult,
		SiteURL:         deref(src.SiteURL),
		Chapters:        src.Chapters,
		Volumes:         src.Volumes,
	}

	if src.Staff != nil {
		for _, edge := range src.Staff.Edges {
			if deref(edge.Node.Language) != "Japanese" {
				continue
			}
			name := deref(edge.Node.Name.UserPreferred)
			if strings.HasPrefix(edge.Role, "Story") {
				m.Writer = name
			}
			if strings.HasSuffix(edge.Role, "Art") {
				m.Penciller = name
				m.Inker = name
			}
		}
	}

	for _, tag := range src.Tags {
		if tag.IsGeneralSpoiler {
			continue
		}
		m.Tags = append(m.Tags, fmt.Sprintf("%s: %s", tag.Category, tag.Name))
	}

	return m, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
