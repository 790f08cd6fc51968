package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// API is a small JSON-over-HTTP helper shared by the remote clients.
type API struct {
	client  *http.Client
	baseURL string
	headers http.Header
}

func NewAPI(baseURL string) *API {
	return &API{client: http.DefaultClient, baseURL: baseURL, headers: http.Header{}}
}

// SetHeader adds a header sent with every request.
func (a *API) SetHeader(key, value string) {
	a.headers.Set(key, value)
}

// Post sends body as JSON to path and returns the response status and raw
// body. Non-2xx statuses are not errors here; callers decide what they mean.
func (a *API) Post(ctx context.Context, path string, body any) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", a.baseURL, path), bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	for k, v := range a.headers {
		req.Header[k] = v
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, data, nil
}
