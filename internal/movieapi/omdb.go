package movieapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"cinematch/backend/internal/logging"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

// OMDbMovie is the subset of an OMDb title lookup the catalog stores.
type OMDbMovie struct {
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	Rated    string `json:"Rated"`
	Plot     string `json:"Plot"`
	Poster   string `json:"Poster"`
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// HasPoster reports whether OMDb returned a usable poster URL.
func (m *OMDbMovie) HasPoster() bool {
	return m.Poster != "" && m.Poster != "N/A"
}

// OMDbClient looks up movie details by title and year.
type OMDbClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
}

func NewOMDbClient(baseURL, apiKey string, client *http.Client) *OMDbClient {
	return &OMDbClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    client,
		cb:      newBreaker("omdb"),
	}
}

// Lookup fetches the movie titled title released in year. year <= 0 is ignored.
func (c *OMDbClient) Lookup(ctx context.Context, title string, year int) (*OMDbMovie, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("bad OMDb URL: %w", err)
	}
	q := u.Query()
	q.Set("t", title)
	if year > 0 {
		q.Set("y", strconv.Itoa(year))
	}
	q.Set("apikey", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	logging.Debug().Str("title", title).Int("year", year).Msg("fetching OMDb title")
	body, err := get(c.cb, c.http, req)
	if err != nil {
		return nil, err
	}

	var movie OMDbMovie
	if err := json.Unmarshal(body, &movie); err != nil {
		return nil, fmt.Errorf("failed to decode OMDb response: %w", err)
	}
	if movie.Response == "False" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, movie.Error)
	}
	return &movie, nil
}
