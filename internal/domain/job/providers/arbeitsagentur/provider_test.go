package arbeitsagentur

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeycarbs/job-sync/internal/domain"
	jobdomain "github.com/honeycarbs/job-sync/internal/domain/job"
	"github.com/honeycarbs/job-sync/pkg/arbeitsagentur"
)

type fakeClient struct {
	got  arbeitsagentur.SearchParams
	jobs []arbeitsagentur.Job
	err  error
}

func (f *fakeClient) SearchJobs(_ context.Context, params arbeitsagentur.SearchParams) ([]arbeitsagentur.Job, error) {
	f.got = params
	return f.jobs, f.err
}

func TestFetchMapsJobs(t *testing.T) {
	client := &fakeClient{jobs: []arbeitsagentur.Job{
		{
			RefNr:       "10000-1",
			Title:       "Fachkraft Lagerlogistik",
			Employer:    "Logistik AG",
			Occupation:  "Fachkraft - Lagerlogistik",
			City:        "Hamburg",
			Region:      "Hamburg",
			PublishedAt: "2026-05-02",
			ExternalURL: "https://jobs.example.com/1",
			Raw:         map[string]any{"refnr": "10000-1"},
		},
		{
			RefNr:      "10000-2",
			Title:      "Softwareentwickler/in",
			Country:    "Deutschland",
			ModifiedAt: "2026-05-03T09:00:00.000",
		},
		{RefNr: "10000-3", City: " ", Region: "Bayern"},
		{RefNr: "10000-4"},
	}}

	p, err := NewProvider(client, domain.Query{Keyword: "Lager"})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceArbeitsagentur, p.Name())

	jobs, err := p.Fetch(context.Background(), domain.Query{Page: 1, PageSize: 50})
	require.NoError(t, err)
	assert.Equal(t, "Lager", client.got.Keyword)
	assert.Equal(t, 50, client.got.PageSize)
	require.Len(t, jobs, 4)

	assert.Equal(t, "10000-1", jobs[0].NativeID)
	assert.Equal(t, "Logistik AG", jobs[0].Company)
	assert.Equal(t, "Hamburg, Hamburg", jobs[0].Location)
	assert.Equal(t, "Fachkraft - Lagerlogistik", jobs[0].Description)
	assert.Equal(t, "2026-05-02", jobs[0].Created)
	assert.Equal(t, "https://jobs.example.com/1", jobs[0].URL)
	assert.Nil(t, jobs[0].SalaryMin)
	assert.Nil(t, jobs[0].SalaryMax)
	assert.Nil(t, jobs[0].ContractType)

	assert.Equal(t, "Unknown", jobs[1].Company)
	assert.Equal(t, "Deutschland", jobs[1].Location)
	assert.Equal(t, "2026-05-03T09:00:00.000", jobs[1].Created)
	assert.Equal(t, arbeitsagentur.DetailURLPrefix+"10000-2", jobs[1].URL)

	assert.Equal(t, "Bayern", jobs[2].Location)
	assert.Equal(t, "Unknown", jobs[3].Location)
}

func TestFetchWrapsErrors(t *testing.T) {
	p, err := NewProvider(&fakeClient{err: errors.New("API error (503)")}, domain.Query{})
	require.NoError(t, err)

	_, err = p.Fetch(context.Background(), domain.Query{})

	var unavailable *jobdomain.SourceUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, domain.SourceArbeitsagentur, unavailable.Source)
}
