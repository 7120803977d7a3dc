package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://newsdata.io/api/1"
	defaultTimeout = 10 * time.Second
	pageSize       = 10
)

// ErrUpstream marks any failure to obtain results from the provider.
var ErrUpstream = errors.New("news provider unavailable")

// Client talks to the newsdata.io /news endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether the client has a key to call the provider with.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

type newsResponse struct {
	Status  string   `json:"status"`
	Results []result `json:"results"`
}

type result struct {
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	PubDate     string   `json:"pubDate"`
	ImageURL    string   `json:"image_url"`
	SourceID    string   `json:"source_id"`
	Category    []string `json:"category"`
}

// TopHeadlines fetches the latest English headlines for a country, optionally
// narrowed to one category.
func (c *Client) TopHeadlines(ctx context.Context, category, country string, page int) ([]RawArticle, error) {
	params := url.Values{}
	params.Set("country", country)
	if strings.TrimSpace(category) != "" {
		params.Set("category", category)
	}
	return c.fetch(ctx, params, page, category)
}

// Search fetches English articles matching a free-text query.
func (c *Client) Search(ctx context.Context, query string, page int) ([]RawArticle, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is required")
	}
	params := url.Values{}
	params.Set("q", query)
	return c.fetch(ctx, params, page, "")
}

func (c *Client) fetch(ctx context.Context, params url.Values, page int, fallbackCategory string) ([]RawArticle, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%w: no api key configured", ErrUpstream)
	}
	params.Set("apikey", c.apiKey)
	params.Set("language", "en")
	params.Set("size", strconv.Itoa(pageSize))
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/news?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, redactKey(err.Error(), c.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if decoded.Status != "" && decoded.Status != "success" {
		return nil, fmt.Errorf("%w: provider status %q", ErrUpstream, decoded.Status)
	}

	articles := make([]RawArticle, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		articles = append(articles, r.toRaw(fallbackCategory))
	}
	return articles, nil
}

func (r result) toRaw(fallbackCategory string) RawArticle {
	category := fallbackCategory
	if len(r.Category) > 0 && r.Category[0] != "" {
		category = r.Category[0]
	}
	content := r.Content
	if content == "" {
		content = r.Description
	}
	return RawArticle{
		Title:       r.Title,
		Description: r.Description,
		Content:     content,
		URL:         r.Link,
		ImageURL:    r.ImageURL,
		Source:      r.SourceID,
		Category:    category,
		Categories:  r.Category,
		PublishedAt: r.PubDate,
	}
}

// Transport errors echo the request URL, which carries the key.
func redactKey(msg, key string) string {
	if key == "" {
		return msg
	}
	return strings.ReplaceAll(msg, key, "***")
}
