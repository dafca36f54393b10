package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nfl-scoreboard-service/internal/domain/scoreboard"
)

const (
	defaultTimeout    = 10 * time.Second
	regularSeasonType = 2
)

// Config controls how the client reaches the scoreboard endpoint.
type Config struct {
	BaseURL    string
	SeasonType int
	Year       int
	HTTPClient *http.Client
}

// Client fetches one week's scoreboard. Its HTTP client's transport is normally the offline proxy.
type Client struct {
	baseURL    string
	seasonType int
	year       int
	httpClient *http.Client
}

// NewClient constructs a scoreboard client with the provided configuration.
func NewClient(cfg Config) *Client {
	seasonType := cfg.SeasonType
	if seasonType == 0 {
		seasonType = regularSeasonType
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		seasonType: seasonType,
		year:       cfg.Year,
		httpClient: httpClient,
	}
}

// WeekURL returns the request URL for week.
func (c *Client) WeekURL(week int) string {
	req, err := c.buildRequest(context.Background(), week)
	if err != nil {
		return ""
	}
	return req.URL.String()
}

// FetchWeek retrieves and decodes one week.
// Offline placeholders are returned as decoded; callers decide what to keep.
func (c *Client) FetchWeek(ctx context.Context, week int) (*scoreboard.WeekPayload, error) {
	req, err := c.buildRequest(ctx, week)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Week: week, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	payload, err := scoreboard.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("week %d: %w", week, err)
	}
	return payload, nil
}

func (c *Client) buildRequest(ctx context.Context, week int) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	q.Set("week", strconv.Itoa(week))
	q.Set("seasontype", strconv.Itoa(c.seasonType))
	if c.year > 0 {
		q.Set("year", strconv.Itoa(c.year))
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")

	return req, nil
}
