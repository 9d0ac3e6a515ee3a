package movieapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"cinematch/backend/internal/logging"
	"cinematch/backend/internal/models"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

// MaxSearchResults caps how many titles a search returns.
const MaxSearchResults = 5

// SearchResult is a title found by the streaming search, with its options in the configured country.
type SearchResult struct {
	Title         string                   `json:"title"`
	Year          int                      `json:"year"`
	Description   string                   `json:"description"`
	StreamingInfo []models.StreamingOption `json:"streamingInfo"`
}

type streamingResponse struct {
	Result []struct {
		Title         string                              `json:"title"`
		Year          int                                 `json:"year"`
		Overview      string                              `json:"overview"`
		StreamingInfo map[string][]models.StreamingOption `json:"streamingInfo"`
	} `json:"result"`
}

// StreamingClient searches the Streaming Availability API.
type StreamingClient struct {
	searchURL string
	host      string
	apiKey    string
	country   string
	http      *http.Client
	cb        *gobreaker.CircuitBreaker[[]byte]
}

func NewStreamingClient(searchURL, host, apiKey, country string, client *http.Client) *StreamingClient {
	return &StreamingClient{
		searchURL: searchURL,
		host:      host,
		apiKey:    apiKey,
		country:   country,
		http:      client,
		cb:        newBreaker("streaming-availability"),
	}
}

// Country is the country code searches are scoped to.
func (c *StreamingClient) Country() string { return c.country }

// SearchTitle returns at most MaxSearchResults movies matching title.
func (c *StreamingClient) SearchTitle(ctx context.Context, title string) ([]SearchResult, error) {
	u, err := url.Parse(c.searchURL)
	if err != nil {
		return nil, fmt.Errorf("bad streaming API URL: %w", err)
	}
	q := u.Query()
	q.Set("title", title)
	q.Set("country", c.country)
	q.Set("show_type", "movie")
	q.Set("output_language", "en")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)

	logging.Debug().Str("title", title).Str("country", c.country).Msg("searching streaming availability")
	body, err := get(c.cb, c.http, req)
	if err != nil {
		return nil, err
	}

	var decoded streamingResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode streaming search response: %w", err)
	}

	results := make([]SearchResult, 0, MaxSearchResults)
	for _, r := range decoded.Result {
		if len(results) == MaxSearchResults {
			break
		}
		results = append(results, SearchResult{
			Title:         r.Title,
			Year:          r.Year,
			Description:   r.Overview,
			StreamingInfo: r.StreamingInfo[c.country],
		})
	}
	return results, nil
}
