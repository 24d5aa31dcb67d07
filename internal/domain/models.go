package domain

import (
	"time"
)

// Source identifies the external job API a record came from
type Source string

const (
	SourceAdzuna         Source = "adzuna"
	SourceArbeitsagentur Source = "arbeitsagentur"
)

// Prefix returns the id prefix that keeps native ids from different sources apart
func (s Source) Prefix() string {
	switch s {
	case SourceArbeitsagentur:
		return "ba"
	default:
		return string(s)
	}
}

// JobID builds the store-wide id for a provider-native id
func (s Source) JobID(nativeID string) string {
	return s.Prefix() + "_" + nativeID
}

// Query describes one page request against a source
type Query struct {
	Keyword  string
	Location string
	Page     int
	PageSize int
}

// RawJob is a provider record mapped into common field names but not yet cleaned.
// Pointer fields are nil when the provider omitted them.
type RawJob struct {
	Source       Source
	NativeID     string
	Title        string
	Company      string
	Location     string
	Description  string
	Created      string
	SalaryMin    *float64
	SalaryMax    *float64
	ContractType *string
	URL          string
	OriginalData map[string]any
}

// NormalizedJob is the document shape persisted by the bounded store
type NormalizedJob struct {
	ID           string         `json:"id"`
	Source       Source         `json:"source"`
	Title        string         `json:"title"`
	Company      string         `json:"company"`
	Location     string         `json:"location"`
	Description  string         `json:"description"`
	Created      string         `json:"created"`
	SalaryMin    float64        `json:"salaryMin"`
	SalaryMax    float64        `json:"salaryMax"`
	ContractType *string        `json:"contractType"`
	URL          string         `json:"url"`
	OriginalData map[string]any `json:"originalData,omitempty"`
	SyncedAt     time.Time      `json:"syncedAt"`
}

// SyncStats summarizes one sync pass
type SyncStats struct {
	RunID      string         `json:"runId"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
	Fetched    int            `json:"fetched"`
	Saved      int            `json:"saved"`
	Deleted    int            `json:"deleted"`
	Errors     int            `json:"errors"`
	Sources    map[Source]int `json:"sources"`
	Failures   []string       `json:"failures,omitempty"`
}

// StoreStats is derived from the persisted records
type StoreStats struct {
	TotalJobs      int
	OldestSyncedAt *time.Time
	NewestSyncedAt *time.Time
	Sources        map[Source]int
}

// SyncStatus is the operator-facing view of the bounded store and scheduler
type SyncStatus struct {
	TotalJobs int            `json:"totalJobs"`
	LastSync  *time.Time     `json:"lastSync"`
	OldestJob *time.Time     `json:"oldestJob"`
	NewestJob *time.Time     `json:"newestJob"`
	NextSync  *time.Time     `json:"nextSync"`
	Sources   map[Source]int `json:"sources"`
}
