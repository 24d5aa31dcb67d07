package job

import (
	"strings"

	"github.com/honeycarbs/job-sync/internal/domain"
)

// reservedKeys are type markers injected by provider SDKs and serializers
var reservedKeys = map[string]struct{}{
	"__CLASS__":  {},
	"@type":      {},
	"_class":     {},
	"__typename": {},
}

// Clean turns a mapped provider record into a storable NormalizedJob.
// SyncedAt is left zero; the orchestrator stamps it at write time.
func Clean(raw domain.RawJob) domain.NormalizedJob {
	job := domain.NormalizedJob{
		ID:           raw.Source.JobID(strings.TrimSpace(raw.NativeID)),
		Source:       raw.Source,
		Title:        strings.TrimSpace(raw.Title),
		Company:      strings.TrimSpace(raw.Company),
		Location:     strings.TrimSpace(raw.Location),
		Description:  strings.TrimSpace(raw.Description),
		Created:      strings.TrimSpace(raw.Created),
		SalaryMin:    salaryOrZero(raw.SalaryMin),
		SalaryMax:    salaryOrZero(raw.SalaryMax),
		ContractType: nonEmpty(raw.ContractType),
		URL:          strings.TrimSpace(raw.URL),
		OriginalData: cleanObject(raw.OriginalData, 1),
	}
	return job
}

// salaryOrZero keeps the legacy behavior: an absent salary is stored as 0.
func salaryOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func nonEmpty(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}

// cleanObject drops reserved markers and nil values, descending depth levels
// into nested objects. Deeper levels are copied as is.
func cleanObject(in map[string]any, depth int) map[string]any {
	if len(in) == 0 {
		return nil
	}

	out := make(map[string]any, len(in))
	for k, v := range in {
		if _, reserved := reservedKeys[k]; reserved || v == nil {
			continue
		}
		if nested, ok := v.(map[string]any); ok && depth > 0 {
			if cleaned := cleanObject(nested, depth-1); cleaned != nil {
				out[k] = cleaned
			}
			continue
		}
		out[k] = v
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
