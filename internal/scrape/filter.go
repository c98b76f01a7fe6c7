package scrape

import (
	"strings"

	"github.com/CredenceNG/jobs-matching-sub002/internal/model"
)

// ContainsExcludedTerm returns true if any exclusion term appears
// (case-insensitive) anywhere in the combined title + company +
// description text.
//
// Called by the refresh worker before every store write — if true, the
// offer is silently discarded.
func ContainsExcludedTerm(job model.Job, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	combined := strings.ToLower(job.Title + " " + job.Company + " " + job.Description)
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(combined, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// FilterExcluded returns jobs with excluded offers removed and the number
// discarded.
func FilterExcluded(jobs []model.Job, terms []string) ([]model.Job, int) {
	if len(terms) == 0 {
		return jobs, 0
	}
	kept := jobs[:0:0]
	discarded := 0
	for _, j := range jobs {
		if ContainsExcludedTerm(j, terms) {
			discarded++
			continue
		}
		kept = append(kept, j)
	}
	return kept, discarded
}
