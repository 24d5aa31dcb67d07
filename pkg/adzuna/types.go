package adzuna

import (
	"encoding/json"
	"net/http"

	"golang.org/x/time/rate"
)

// Config defines Adzuna API client settings
type Config struct {
	AppID      string
	AppKey     string
	Country    string
	BaseURL    string
	HTTPClient *http.Client
	PageSize   int
	// Limiter throttles outgoing requests; nil disables throttling
	Limiter *rate.Limiter
}

// Client queries Adzuna job search API
type Client struct {
	appID      string
	appKey     string
	country    string
	baseURL    string
	httpClient *http.Client
	pageSize   int
	limiter    *rate.Limiter
}

// SearchParams describe a job search request
type SearchParams struct {
	Keyword  string
	Location string
	Page     int // 1-based
	PageSize int
}

type jobSearchResponse struct {
	Count   int               `json:"count"`
	Results []json.RawMessage `json:"results"`
}

type jobPosting struct {
	ID           flexID          `json:"id"`
	Title        string          `json:"title"`
	Company      companySummary  `json:"company"`
	Location     locationSummary `json:"location"`
	Description  string          `json:"description"`
	Created      string          `json:"created"`
	RedirectURL  string          `json:"redirect_url"`
	ContractTime string          `json:"contract_time"`
	ContractType string          `json:"contract_type"`
	SalaryMin    *float64        `json:"salary_min"`
	SalaryMax    *float64        `json:"salary_max"`
}

// flexID accepts ids encoded as JSON strings or numbers
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type companySummary struct {
	DisplayName string `json:"display_name"`
}

type locationSummary struct {
	DisplayName string   `json:"display_name"`
	Area        []string `json:"area"`
}

// Job is an Adzuna posting with the fields the sync pipeline reads.
// Raw holds the decoded payload as returned by the API.
type Job struct {
	ID           string
	Title        string
	CompanyName  string
	Location     string
	Description  string
	Created      string
	URL          string
	ContractType string
	ContractTime string
	SalaryMin    *float64
	SalaryMax    *float64
	Raw          map[string]any
}
