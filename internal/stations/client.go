package stations

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

const requestTimeout = 30 * time.Second

// Client queries the radio-browser API.
type Client struct {
	BaseURL   string
	UserAgent string
	HTTP      *http.Client
	// CacheDir, when set, keeps the last result of every station query so
	// the list can be shown before the network answers.
	CacheDir string
	Logger   *slog.Logger
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL, userAgent string) *Client {
	return &Client{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		HTTP:      &http.Client{},
		Logger:    slog.Default(),
	}
}

// Countries lists countries that have stations.
func (c *Client) Countries(ctx context.Context) ([]Country, error) {
	var countries []Country
	if err := c.get(ctx, "/countries", nil, &countries); err != nil {
		return nil, fmt.Errorf("failed to fetch countries: %w", err)
	}
	return countries, nil
}

// Tags lists the most used genre tags.
func (c *Client) Tags(ctx context.Context, limit int) ([]Tag, error) {
	var tags []Tag
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.get(ctx, "/tags", q, &tags); err != nil {
		return nil, fmt.Errorf("failed to fetch tags: %w", err)
	}
	return tags, nil
}

// ByCountry lists working stations of a country.
func (c *Client) ByCountry(ctx context.Context, country string, limit int) ([]Station, error) {
	return c.stations(ctx, "/stations/bycountryexact/"+url.PathEscape(country), listQuery(limit))
}

// Search finds stations by name, country and tag. Empty fields are ignored.
func (c *Client) Search(ctx context.Context, name, country, tag string, limit int) ([]Station, error) {
	q := listQuery(limit)
	if name != "" {
		q.Set("name", name)
	}
	if country != "" {
		q.Set("country", country)
	}
	if tag != "" {
		q.Set("tag", tag)
	}
	return c.stations(ctx, "/stations/search", q)
}

// TopVoted lists the most voted stations.
func (c *Client) TopVoted(ctx context.Context, limit int) ([]Station, error) {
	return c.stations(ctx, "/stations/topvote/"+strconv.Itoa(limit), url.Values{"hidebroken": {"true"}})
}

// RecordClick tells the directory a station was played. Failures are only
// logged.
func (c *Client) RecordClick(ctx context.Context, stationID string) {
	var ignored json.RawMessage
	if err := c.get(ctx, "/url/"+url.PathEscape(stationID), nil, &ignored); err != nil {
		c.logger().Debug("failed to record click", "station", stationID, "error", err)
	}
}

func listQuery(limit int) url.Values {
	q := url.Values{"hidebroken": {"true"}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

func (c *Client) stations(ctx context.Context, path string, q url.Values) ([]Station, error) {
	var raw []apiStation
	if err := c.get(ctx, path, q, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch stations: %w", err)
	}

	list := make([]Station, len(raw))
	for i, s := range raw {
		list[i] = s.toStation()
	}

	if c.CacheDir != "" {
		if err := WriteCache(c.CacheDir, cacheKey(path, q), list); err != nil {
			c.logger().Warn("failed to write station cache", "error", err)
		}
	}
	return list, nil
}

// CachedByCountry returns the cached result of ByCountry.
func (c *Client) CachedByCountry(country string, limit int) ([]Station, error) {
	return ReadCache(c.CacheDir, cacheKey("/stations/bycountryexact/"+url.PathEscape(country), listQuery(limit)))
}

// CachedTopVoted returns the cached result of TopVoted.
func (c *Client) CachedTopVoted(limit int) ([]Station, error) {
	return ReadCache(c.CacheDir, cacheKey("/stations/topvote/"+strconv.Itoa(limit), url.Values{"hidebroken": {"true"}}))
}

func (c *Client) get(ctx context.Context, path string, q url.Values, v any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	u := c.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

var unsafeCacheChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func cacheKey(path string, q url.Values) string {
	key := path
	if len(q) > 0 {
		key += "_" + q.Encode()
	}
	return unsafeCacheChars.ReplaceAllString(key, "_")
}

// ReadCache reads a cached station list.
func ReadCache(dir, key string) ([]Station, error) {
	data, err := os.ReadFile(filepath.Join(dir, key+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var list []Station
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached data: %w", err)
	}
	return list, nil
}

// WriteCache stores a station list under key.
func WriteCache(dir, key string, list []Station) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stations for caching: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, key+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write stations to cache file: %w", err)
	}
	return nil
}
