// Package screening ties Candidate Retrieval (internal/search) and Scoring &
// Risk (internal/matching) together into the full query path: given a name
// plus optional country/DOB, shortlist candidates, score each one precisely,
// band the risk, and return the ranked hit list a caller (the HTTP API, or
// the Monitoring Engine's re-screen pass) can hand back verbatim.
//
// Grounded on the original's MatchingEngine.search_and_score
// (matching-core/src/lib.rs): fan out to 10x the requested limit, score every
// candidate with the same component formulas, sort descending, truncate.
// matched_name is always the candidate's bare primary name — the original's
// MatchResult carries no alias text, so this package never invents an
// alias-aware "best match" name the original doesn't produce.
package screening

import (
	"context"
	"fmt"
	"sort"

	"github.com/cursorworkshop/aegistry/internal/matching"
	"github.com/cursorworkshop/aegistry/internal/models"
)

// Retriever is the subset of *search.Retriever this package depends on, kept
// as an interface so screening tests run against a fake candidate set rather
// than a live Subject Store.
type Retriever interface {
	Search(ctx context.Context, name string, limit int) ([]Candidate, error)
}

// Candidate mirrors search.Candidate's shape. Declared locally (identical
// fields) rather than importing internal/search directly, so this package's
// tests can construct candidates without a database/sql.DB; cmd/server wires
// the real *search.Retriever in through a thin adapter (see Adapt).
type Candidate struct {
	SubjectID       string
	PrimaryName     string
	AliasText       string
	Source          string
	Kind            string
	Country         string
	DateOfBirthYear int
}

// Policy carries the tenant-tunable weights and thresholds that Screen
// applies. Zero value is not valid; use DefaultPolicy.
type Policy struct {
	Weights    matching.Weights
	Thresholds matching.Thresholds
}

// DefaultPolicy matches the original's RiskConfig defaults (§4.6), used when
// a tenant has not overridden its risk policy (C11).
func DefaultPolicy() Policy {
	return Policy{Weights: matching.DefaultWeights(), Thresholds: matching.DefaultThresholds()}
}

// Screener runs the full query path: retrieve, score, band, explain, rank.
type Screener struct {
	retriever Retriever
}

// New builds a Screener over a candidate Retriever.
func New(retriever Retriever) *Screener {
	return &Screener{retriever: retriever}
}

// Screen narrows the roster to candidates for req's name, scores each one
// precisely against req's country/DOB, and returns up to limit hits ranked
// by score descending. policy carries the tenant's weights/thresholds; pass
// DefaultPolicy() when no tenant override applies.
func (s *Screener) Screen(ctx context.Context, req models.ScreenRequest, limit int, policy Policy) (models.ScreenResult, error) {
	name := req.FullName()
	if name == "" {
		return models.ScreenResult{ReferenceID: req.ReferenceID, Hits: []models.Hit{}}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	candidates, err := s.retriever.Search(ctx, name, limit)
	if err != nil {
		return models.ScreenResult{}, fmt.Errorf("candidate retrieval: %w", err)
	}

	countryGiven := req.Country != ""
	dobGiven := req.DOBYear != 0

	hits := make([]models.Hit, 0, len(candidates))
	for _, c := range candidates {
		components := models.ScoreComponents{
			NameSimilarity: matching.NameSimilarity(name, c.PrimaryName),
			CountryMatch:   matching.CountryMatch(req.Country, c.Country),
			DOBSimilarity:  matching.DOBSimilarity(req.DOBYear, c.DateOfBirthYear),
		}

		score := matching.Combine(matching.Inputs{
			Components:   components,
			CountryGiven: countryGiven,
			DOBGiven:     dobGiven,
		}, policy.Weights)

		hits = append(hits, models.Hit{
			SubjectID:   c.SubjectID,
			MatchedName: c.PrimaryName,
			Source:      c.Source,
			Kind:        models.Kind(c.Kind),
			Score:       score,
			RiskLevel:   matching.Band(score, policy.Thresholds),
			Components:  components,
			Explanation: matching.Explain(components, countryGiven, dobGiven),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}

	return models.ScreenResult{ReferenceID: req.ReferenceID, Hits: hits}, nil
}
