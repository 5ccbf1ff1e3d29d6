// Package search implements Candidate Retrieval (C4/C5): a fuzzy, tolerant
// lookup over the Subject Store that narrows the full roster down to a
// shortlist worth scoring precisely in internal/matching.
//
// There is no separate index to build or swap: candidate retrieval runs
// directly against the subject/subject_alias tables using DuckDB's RapidFuzz
// community extension (rapidfuzz_ratio, rapidfuzz_token_set_ratio), the same
// extension and fallback-to-substring-match pattern the teacher uses for its
// own fuzzy search. A short prefilter (substring match on any
// normalization-surviving token of at least three runes) keeps the RapidFuzz
// scoring pass off the full table on large rosters.
package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cursorworkshop/aegistry/internal/normalize"
)

// MinTokenRunes is the shortest token considered for the prefilter. Per the
// matching edge cases, very short tokens ("Li", "Xi") produce too many
// spurious substring hits to be useful as a coarse filter; they still
// participate in full scoring via matching.NameSimilarity once a subject is
// a candidate through some other token.
const MinTokenRunes = 3

// Candidate is a subject shortlisted for precise scoring.
type Candidate struct {
	SubjectID       string
	PrimaryName     string
	AliasText       string
	Source          string
	Kind            string
	Country         string
	DateOfBirthYear int
	PrefilterScore  float64
}

// Retriever runs candidate queries against a Subject Store connection.
type Retriever struct {
	conn            *sql.DB
	rapidfuzzReady  bool
	candidateFanout int
}

// New creates a Retriever. rapidfuzzReady should reflect
// store.Store.RapidFuzzAvailable(); when false, retrieval degrades to a
// substring-only prefilter with no secondary ranking, same as the teacher's
// fuzzySearchPlaybacksFallback.
func New(conn *sql.DB, rapidfuzzReady bool) *Retriever {
	return &Retriever{conn: conn, rapidfuzzReady: rapidfuzzReady, candidateFanout: 10}
}

// Search returns up to limit*candidateFanout candidate subjects whose primary
// name or any alias plausibly matches the input name. The caller
// (internal/screening) re-scores each candidate with internal/matching for
// the authoritative score and risk band and re-truncates to limit; this
// layer only narrows the field, and must hand back enough of it that the
// scoring layer's own stricter notion of similarity has something to work
// with.
func (r *Retriever) Search(ctx context.Context, name string, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = 20
	}
	tokens := qualifyingTokens(name)
	if len(tokens) == 0 {
		return nil, nil
	}

	where, args := prefilterClause(tokens)
	fanout := limit * r.candidateFanout

	query := fmt.Sprintf(`
		WITH candidates AS (
			SELECT s.id, s.primary_name, s.source, s.kind, s.country, s.date_of_birth_year,
			       COALESCE(string_agg(a.name, ' '), '') AS alias_text
			FROM subject s
			LEFT JOIN subject_alias a ON a.subject_id = s.id
			WHERE %s
			GROUP BY s.id, s.primary_name, s.source, s.kind, s.country, s.date_of_birth_year
		)
		SELECT id, primary_name, alias_text, source, kind, country, date_of_birth_year, %s AS score
		FROM candidates
		ORDER BY score DESC, primary_name ASC
		LIMIT ?`, where, r.scoreExpr())

	if r.rapidfuzzReady {
		args = append(args, normalizedQuery(name), normalizedQuery(name))
	}
	args = append(args, fanout)

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("candidate retrieval query: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	var out []Candidate
	for rows.Next() {
		var c Candidate
		var dobYear sql.NullInt64
		if err := rows.Scan(&c.SubjectID, &c.PrimaryName, &c.AliasText, &c.Source, &c.Kind,
			&c.Country, &dobYear, &c.PrefilterScore); err != nil {
			return nil, fmt.Errorf("scan candidate row: %w", err)
		}
		if dobYear.Valid {
			c.DateOfBirthYear = int(dobYear.Int64)
		}
		if _, dup := seen[c.SubjectID]; dup {
			continue
		}
		seen[c.SubjectID] = struct{}{}
		out = append(out, c)
		if len(out) >= fanout {
			break
		}
	}
	return out, rows.Err()
}

func (r *Retriever) scoreExpr() string {
	if r.rapidfuzzReady {
		return `GREATEST(
			rapidfuzz_token_set_ratio(LOWER(primary_name), LOWER(?)),
			COALESCE(rapidfuzz_token_set_ratio(LOWER(alias_text), LOWER(?)), 0)
		)`
	}
	return `0`
}

func normalizedQuery(name string) string {
	return normalize.Name(name)
}

func qualifyingTokens(name string) []string {
	normalized := normalize.Name(name)
	all := normalize.Tokens(normalized)
	tokens := make([]string, 0, len(all))
	for _, t := range all {
		if len([]rune(t)) >= MinTokenRunes {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// prefilterClause builds a WHERE clause matching any qualifying token
// against the subject's normalized name or any of its aliases.
func prefilterClause(tokens []string) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	for _, tok := range tokens {
		like := "%" + tok + "%"
		clauses = append(clauses,
			"s.normalized_name LIKE ? OR EXISTS (SELECT 1 FROM subject_alias a2 WHERE a2.subject_id = s.id AND LOWER(a2.name) LIKE ?)")
		args = append(args, like, like)
	}
	return "(" + strings.Join(clauses, ") OR (") + ")", args
}
