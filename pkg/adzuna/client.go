package adzuna

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
)

const (
	defaultBaseURL  = "https://api.adzuna.com"
	defaultCountry  = "de"
	defaultPageSize = 50
	maxPageSize     = 50
)

// NewClient instantiates an Adzuna API client
func NewClient(cfg Config) (*Client, error) {
	if cfg.AppID == "" || cfg.AppKey == "" {
		return nil, fmt.Errorf("adzuna: app_id and app_key are required")
	}

	country := cfg.Country
	if country == "" {
		country = defaultCountry
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Client{
		appID:      cfg.AppID,
		appKey:     cfg.AppKey,
		country:    strings.ToLower(country),
		baseURL:    baseURL,
		httpClient: httpClient,
		pageSize:   pageSize,
		limiter:    cfg.Limiter,
	}, nil
}

// SearchJobs fetches one page of Adzuna results
func (c *Client) SearchJobs(ctx context.Context, params SearchParams) ([]Job, error) {
	if c == nil {
		return nil, fmt.Errorf("adzuna: client is nil")
	}

	u, err := c.buildSearchURL(params)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("adzuna: rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("adzuna: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("adzuna: request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("adzuna: API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload jobSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("adzuna: decode response: %w", err)
	}

	jobs := make([]Job, 0, len(payload.Results))
	for i, raw := range payload.Results {
		job, err := decodeResult(raw)
		if err != nil {
			return nil, fmt.Errorf("adzuna: decode result %d: %w", i, err)
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

func (c *Client) buildSearchURL(params SearchParams) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("adzuna: parse base url: %w", err)
	}

	page := params.Page
	if page <= 0 {
		page = 1
	}

	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = c.pageSize
	}
	pageSize = min(pageSize, maxPageSize)

	u.Path = path.Join(u.Path, "v1", "api", "jobs", c.country, "search", strconv.Itoa(page))

	values := url.Values{}
	values.Set("app_id", c.appID)
	values.Set("app_key", c.appKey)
	values.Set("results_per_page", strconv.Itoa(pageSize))
	values.Set("content-type", "application/json")
	values.Set("sort_by", "date")

	if params.Keyword != "" {
		values.Set("what", params.Keyword)
	}
	if params.Location != "" {
		values.Set("where", params.Location)
	}

	u.RawQuery = values.Encode()
	return u.String(), nil
}

func decodeResult(raw json.RawMessage) (Job, error) {
	var posting jobPosting
	if err := json.Unmarshal(raw, &posting); err != nil {
		return Job{}, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return Job{}, err
	}

	return Job{
		ID:           string(posting.ID),
		Title:        posting.Title,
		CompanyName:  posting.Company.DisplayName,
		Location:     locationName(posting.Location),
		Description:  posting.Description,
		Created:      posting.Created,
		URL:          posting.RedirectURL,
		ContractType: posting.ContractType,
		ContractTime: posting.ContractTime,
		SalaryMin:    posting.SalaryMin,
		SalaryMax:    posting.SalaryMax,
		Raw:          fields,
	}, nil
}

func locationName(loc locationSummary) string {
	if loc.DisplayName != "" {
		return loc.DisplayName
	}
	if n := len(loc.Area); n > 0 {
		return loc.Area[n-1]
	}
	return ""
}
