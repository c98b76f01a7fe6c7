package scrape_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CredenceNG/jobs-matching-sub002/internal/model"
	"github.com/CredenceNG/jobs-matching-sub002/internal/scrape"
)

func TestContainsExcludedTerm(t *testing.T) {
	job := model.Job{
		Title:       "Senior Go Developer",
		Company:     "Acme Consulting",
		Description: "Hybrid role, 3 days on-site in Munich.",
	}

	cases := []struct {
		name  string
		terms []string
		want  bool
	}{
		{"no terms", nil, false},
		{"no match", []string{"php", "blockchain"}, false},
		{"title match", []string{"senior"}, true},
		{"company match", []string{"consulting"}, true},
		{"description match", []string{"on-site"}, true},
		{"case insensitive", []string{"MUNICH"}, true},
		{"empty terms skipped", []string{"", "munich"}, true},
		{"only empty terms", []string{"", ""}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, scrape.ContainsExcludedTerm(job, c.terms))
		})
	}
}

func TestFilterExcluded(t *testing.T) {
	jobs := []model.Job{
		{Source: "a", ExternalID: "1", Title: "Go Developer"},
		{Source: "a", ExternalID: "2", Title: "PHP Developer"},
		{Source: "a", ExternalID: "3", Title: "Rust Developer"},
	}

	kept, discarded := scrape.FilterExcluded(jobs, []string{"php"})

	assert.Equal(t, 1, discarded)
	assert.Len(t, kept, 2)
	for _, j := range kept {
		assert.NotContains(t, j.Title, "PHP")
	}
}

func TestFilterExcluded_NoTermsReturnsInput(t *testing.T) {
	jobs := []model.Job{{Source: "a", ExternalID: "1", Title: "Go Developer"}}

	kept, discarded := scrape.FilterExcluded(jobs, nil)

	assert.Zero(t, discarded)
	assert.Equal(t, jobs, kept)
}
