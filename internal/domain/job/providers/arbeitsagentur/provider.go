package arbeitsagentur

import (
	"context"
	"fmt"
	"strings"

	"github.com/honeycarbs/job-sync/internal/domain"
	jobdomain "github.com/honeycarbs/job-sync/internal/domain/job"
	"github.com/honeycarbs/job-sync/pkg/arbeitsagentur"
)

const unknown = "Unknown"

type searchClient interface {
	SearchJobs(ctx context.Context, params arbeitsagentur.SearchParams) ([]arbeitsagentur.Job, error)
}

// Provider implements job.Provider for the Bundesagentur für Arbeit job search
type Provider struct {
	client   searchClient
	defaults domain.Query
}

// NewProvider builds an Arbeitsagentur provider
func NewProvider(client searchClient, defaults domain.Query) (*Provider, error) {
	if client == nil {
		return nil, fmt.Errorf("arbeitsagentur provider: client is required")
	}
	return &Provider{client: client, defaults: defaults}, nil
}

func (p *Provider) Name() domain.Source {
	return domain.SourceArbeitsagentur
}

// Fetch queries the API and maps the page into raw jobs.
// The list endpoint carries no salary, so both salary fields stay nil.
func (p *Provider) Fetch(ctx context.Context, query domain.Query) ([]domain.RawJob, error) {
	if p == nil || p.client == nil {
		return nil, jobdomain.Unavailable(domain.SourceArbeitsagentur, fmt.Errorf("arbeitsagentur provider: client is nil"))
	}

	params := arbeitsagentur.SearchParams{
		Keyword:  orDefault(query.Keyword, p.defaults.Keyword),
		Location: orDefault(query.Location, p.defaults.Location),
		Page:     query.Page,
		PageSize: query.PageSize,
	}

	respJobs, err := p.client.SearchJobs(ctx, params)
	if err != nil {
		return nil, jobdomain.Unavailable(domain.SourceArbeitsagentur, err)
	}

	out := make([]domain.RawJob, 0, len(respJobs))
	for _, j := range respJobs {
		out = append(out, mapJob(j))
	}
	return out, nil
}

func mapJob(j arbeitsagentur.Job) domain.RawJob {
	url := j.ExternalURL
	if url == "" && j.RefNr != "" {
		url = arbeitsagentur.DetailURLPrefix + j.RefNr
	}

	return domain.RawJob{
		Source:       domain.SourceArbeitsagentur,
		NativeID:     j.RefNr,
		Title:        j.Title,
		Company:      orDefault(j.Employer, unknown),
		Location:     location(j),
		Description:  j.Occupation,
		Created:      orDefault(j.PublishedAt, j.ModifiedAt),
		URL:          url,
		OriginalData: j.Raw,
	}
}

// location joins the non-empty parts of arbeitsort, falling back to "Unknown"
func location(j arbeitsagentur.Job) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{j.City, j.Region} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return orDefault(j.Country, unknown)
	}
	return strings.Join(parts, ", ")
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

var _ jobdomain.Provider = (*Provider)(nil)
