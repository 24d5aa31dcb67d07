// Package arbeitsagentur is a client for the Bundesagentur für Arbeit job search API.
package arbeitsagentur

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL  = "https://rest.arbeitsagentur.de/jobboerse/jobsuche-service"
	defaultAPIKey   = "jobboerse-jobsuche"
	defaultPageSize = 50
	maxPageSize     = 100
	maxBodyBytes    = 8 << 20

	// DetailURLPrefix is joined with a reference number to link a posting
	DetailURLPrefix = "https://www.arbeitsagentur.de/jobsuche/jobdetail/"
)

// Config defines client settings
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	PageSize   int
	// Limiter throttles outgoing requests; nil disables throttling
	Limiter *rate.Limiter
}

// Client queries the public Jobsuche API
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	pageSize   int
	limiter    *rate.Limiter
}

// SearchParams describe a job search request
type SearchParams struct {
	Keyword  string // "was"
	Location string // "wo"
	Page     int    // 1-based
	PageSize int
}

// Job is one entry of "stellenangebote". Missing paths decode to empty strings.
type Job struct {
	RefNr       string
	Title       string
	Employer    string
	Occupation  string
	City        string
	Region      string
	Country     string
	PublishedAt string
	ModifiedAt  string
	ExternalURL string
	Raw         map[string]any
}

// NewClient builds a client; the public API key is used when none is configured
func NewClient(cfg Config) *Client {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = defaultAPIKey
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		pageSize:   pageSize,
		limiter:    cfg.Limiter,
	}
}

// SearchJobs fetches one page of postings
func (c *Client) SearchJobs(ctx context.Context, params SearchParams) ([]Job, error) {
	if c == nil {
		return nil, fmt.Errorf("arbeitsagentur: client is nil")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("arbeitsagentur: rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(params), nil)
	if err != nil {
		return nil, fmt.Errorf("arbeitsagentur: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arbeitsagentur: request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("arbeitsagentur: API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("arbeitsagentur: read response: %w", err)
	}

	return parseJobs(body)
}

func (c *Client) searchURL(params SearchParams) string {
	page := params.Page
	if page <= 0 {
		page = 1
	}

	size := params.PageSize
	if size <= 0 {
		size = c.pageSize
	}
	size = min(size, maxPageSize)

	values := url.Values{}
	values.Set("angebotsart", "1")
	values.Set("page", strconv.Itoa(page))
	values.Set("size", strconv.Itoa(size))
	if params.Keyword != "" {
		values.Set("was", params.Keyword)
	}
	if params.Location != "" {
		values.Set("wo", params.Location)
	}

	return c.baseURL + "/pc/v4/jobs?" + values.Encode()
}

func parseJobs(body []byte) ([]Job, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("arbeitsagentur: malformed response body")
	}

	list := gjson.GetBytes(body, "stellenangebote")
	if !list.Exists() || list.Type == gjson.Null {
		return nil, nil
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("arbeitsagentur: stellenangebote is %s, want array", list.Type)
	}

	items := list.Array()
	jobs := make([]Job, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		raw, _ := item.Value().(map[string]any)
		jobs = append(jobs, Job{
			RefNr:       item.Get("refnr").String(),
			Title:       firstNonEmpty(item.Get("titel").String(), item.Get("beruf").String()),
			Employer:    item.Get("arbeitgeber").String(),
			Occupation:  item.Get("beruf").String(),
			City:        item.Get("arbeitsort.ort").String(),
			Region:      item.Get("arbeitsort.region").String(),
			Country:     item.Get("arbeitsort.land").String(),
			PublishedAt: item.Get("aktuelleVeroeffentlichungsdatum").String(),
			ModifiedAt:  item.Get("modifikationsTimestamp").String(),
			ExternalURL: item.Get("externeUrl").String(),
			Raw:         raw,
		})
	}
	return jobs, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
