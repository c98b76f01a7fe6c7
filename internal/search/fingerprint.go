// Package search normalises search specifications and derives the
// deterministic fingerprint used as the cache key.
package search

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/CredenceNG/jobs-matching-sub002/internal/model"
)

// Normalize returns a canonical copy of spec: keywords and location are
// trimmed, case-folded and whitespace-collapsed, the employment type is
// lower-cased, and the page is clamped to >= 1. Semantically equal specs
// normalise to identical values.
func Normalize(spec model.SearchSpec) model.SearchSpec {
	out := spec
	out.Keywords = fold(spec.Keywords)
	out.Location = fold(spec.Location)
	out.EmploymentType = fold(spec.EmploymentType)
	if out.Page < 1 {
		out.Page = 1
	}
	return out
}

// Fingerprint returns the stable digest of a spec + page. Same normalised
// spec and page always yields the same fingerprint.
func Fingerprint(spec model.SearchSpec) string {
	n := Normalize(spec)
	canonical := fmt.Sprintf("kw=%s|loc=%s|type=%s|remote=%t|smin=%s|smax=%s|page=%d",
		n.Keywords, n.Location, n.EmploymentType, n.Remote,
		intOrEmpty(n.SalaryMin), intOrEmpty(n.SalaryMax), n.Page)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// fold lower-cases, trims, and collapses internal runs of whitespace.
func fold(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func intOrEmpty(p *int) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("%d", *p)
}
