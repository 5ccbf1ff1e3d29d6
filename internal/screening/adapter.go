package screening

import (
	"context"

	"github.com/cursorworkshop/aegistry/internal/search"
)

// SearchRetriever adapts a *search.Retriever to this package's Retriever
// interface. Kept as a thin field-by-field copy rather than importing
// search.Candidate directly into Screen's signature, so internal/screening's
// own tests can supply fake candidates without a database/sql.DB.
type SearchRetriever struct {
	r *search.Retriever
}

// Adapt wraps a *search.Retriever for use as a Screener's Retriever.
func Adapt(r *search.Retriever) *SearchRetriever {
	return &SearchRetriever{r: r}
}

// Search implements Retriever.
func (a *SearchRetriever) Search(ctx context.Context, name string, limit int) ([]Candidate, error) {
	raw, err := a.r.Search(ctx, name, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, len(raw))
	for i, c := range raw {
		out[i] = Candidate{
			SubjectID:       c.SubjectID,
			PrimaryName:     c.PrimaryName,
			AliasText:       c.AliasText,
			Source:          c.Source,
			Kind:            c.Kind,
			Country:         c.Country,
			DateOfBirthYear: c.DateOfBirthYear,
		}
	}
	return out, nil
}
