package adzuna

import (
	"context"
	"fmt"
	"strings"

	"github.com/honeycarbs/job-sync/internal/domain"
	jobdomain "github.com/honeycarbs/job-sync/internal/domain/job"
	"github.com/honeycarbs/job-sync/pkg/adzuna"
)

const unknown = "Unknown"

// searchClient describes the subset of the Adzuna client used by the provider.
type searchClient interface {
	SearchJobs(ctx context.Context, params adzuna.SearchParams) ([]adzuna.Job, error)
}

// Provider implements job.Provider using Adzuna API
type Provider struct {
	client   searchClient
	defaults domain.Query
}

// NewProvider builds an Adzuna provider; defaults fill keyword and location when a query leaves them empty
func NewProvider(client searchClient, defaults domain.Query) (*Provider, error) {
	if client == nil {
		return nil, fmt.Errorf("adzuna provider: client is required")
	}
	return &Provider{client: client, defaults: defaults}, nil
}

// Name returns provider identifier
func (p *Provider) Name() domain.Source {
	return domain.SourceAdzuna
}

// Fetch queries Adzuna and maps the page into raw jobs
func (p *Provider) Fetch(ctx context.Context, query domain.Query) ([]domain.RawJob, error) {
	if p == nil || p.client == nil {
		return nil, jobdomain.Unavailable(domain.SourceAdzuna, fmt.Errorf("adzuna provider: client is nil"))
	}

	params := adzuna.SearchParams{
		Keyword:  orDefault(query.Keyword, p.defaults.Keyword),
		Location: orDefault(query.Location, p.defaults.Location),
		Page:     query.Page,
		PageSize: query.PageSize,
	}

	respJobs, err := p.client.SearchJobs(ctx, params)
	if err != nil {
		return nil, jobdomain.Unavailable(domain.SourceAdzuna, err)
	}

	out := make([]domain.RawJob, 0, len(respJobs))
	for _, j := range respJobs {
		out = append(out, mapJob(j))
	}

	return out, nil
}

func mapJob(j adzuna.Job) domain.RawJob {
	raw := domain.RawJob{
		Source:       domain.SourceAdzuna,
		NativeID:     j.ID,
		Title:        j.Title,
		Company:      orDefault(j.CompanyName, unknown),
		Location:     orDefault(j.Location, unknown),
		Description:  j.Description,
		Created:      j.Created,
		SalaryMin:    j.SalaryMin,
		SalaryMax:    j.SalaryMax,
		URL:          j.URL,
		OriginalData: j.Raw,
	}

	contract := orDefault(j.ContractType, j.ContractTime)
	if contract != "" {
		raw.ContractType = &contract
	}

	return raw
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

var _ jobdomain.Provider = (*Provider)(nil)
