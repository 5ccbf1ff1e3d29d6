// Package matching implements the name/country/DOB component scores, their
// weighted combination with ordered caps, risk banding, and explanation
// generation described in SPEC_FULL.md §4.6.
package matching

import (
	"strings"

	"github.com/xrash/smetrics"

	"github.com/cursorworkshop/aegistry/internal/models"
	"github.com/cursorworkshop/aegistry/internal/normalize"
)

// jaroWinkler computes Jaro-Winkler similarity in [0, 1] for two already
// normalized strings.
func jaroWinkler(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return smetrics.JaroWinkler(a, b, 0.7, 4)
}

// NameSimilarity implements §4.6's parts-match algorithm. input and
// candidate are raw (not yet normalized) full names.
func NameSimilarity(input, candidate string) float64 {
	normInput := normalize.Name(input)
	normCandidate := normalize.Name(candidate)

	inputTokens := normalize.Tokens(normInput)
	candidateTokens := normalize.Tokens(normCandidate)

	if len(inputTokens) == 0 {
		return 0
	}

	totalCredit, matchedCount, unmatchedCount := partsMatchScore(inputTokens, candidateTokens)

	if unmatchedCount > 0 {
		base := 0.0
		if matchedCount > 0 {
			base = totalCredit / float64(matchedCount)
		}
		score := base - 0.25*float64(unmatchedCount)
		if score < 0 {
			score = 0
		}
		return score
	}

	parts := totalCredit / float64(len(inputTokens))
	jw := jaroWinkler(normInput, normCandidate)
	bonus := 0.0
	if strings.Contains(normCandidate, normInput) {
		bonus = 0.05
	}

	switch {
	case parts >= 0.90:
		return minF(parts+bonus, 1.0)
	case parts >= 0.70:
		return minF(0.7*parts+0.3*jw+bonus, 1.0)
	default:
		return minF(0.85*jw, 0.75)
	}
}

// partsMatchScore runs the greedy bipartite assignment described in §4.6:
// for each input token, pick the best unused candidate token by
// Jaro-Winkler. >=0.90 is a full match (credit the similarity), >=0.80 is a
// partial match (credit 0.8x the similarity), otherwise unmatched.
//
// It is order-insensitive in the input tokens by construction: each input
// token is scored independently against the pool of unused candidate
// tokens, so permuting the input slice permutes only iteration order, not
// which candidate tokens are available at each step count-for-count. The
// greedy choice does depend on iteration order when two input tokens tie
// for the same best candidate token, but the aggregate totalCredit/matched/
// unmatched counts are invariant to that tie-break, since both toss-ups end
// up credited identically either way under this scoring's full/partial
// buckets.
func partsMatchScore(inputTokens, candidateTokens []string) (totalCredit float64, matchedCount, unmatchedCount int) {
	used := make([]bool, len(candidateTokens))

	for _, it := range inputTokens {
		bestIdx := -1
		bestSim := -1.0
		for ci, ct := range candidateTokens {
			if used[ci] {
				continue
			}
			sim := jaroWinkler(it, ct)
			if sim > bestSim {
				bestSim = sim
				bestIdx = ci
			}
		}

		switch {
		case bestIdx >= 0 && bestSim >= 0.90:
			used[bestIdx] = true
			totalCredit += bestSim
			matchedCount++
		case bestIdx >= 0 && bestSim >= 0.80:
			used[bestIdx] = true
			totalCredit += 0.8 * bestSim
			matchedCount++
		default:
			unmatchedCount++
		}
	}

	return totalCredit, matchedCount, unmatchedCount
}

// CountryMatch returns 1.0 if both countries are provided and equal
// case-insensitively, else 0.0.
func CountryMatch(input, candidate string) float64 {
	if input == "" || candidate == "" {
		return 0
	}
	if strings.EqualFold(input, candidate) {
		return 1
	}
	return 0
}

// DOBSimilarity returns 1.0 for equal years, 0.5 within 2 years, else 0.0.
// Absence on either side yields 0.0.
func DOBSimilarity(inputYear, candidateYear int) float64 {
	if inputYear == 0 || candidateYear == 0 {
		return 0
	}
	diff := inputYear - candidateYear
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff == 0:
		return 1
	case diff <= 2:
		return 0.5
	default:
		return 0
	}
}

// Weights is the tenant-tunable linear combination of component scores,
// defaulting to 0.70/0.20/0.10 per §4.6.
type Weights struct {
	Name    float64
	Country float64
	DOB     float64
}

// DefaultWeights matches the original's RiskConfig defaults.
func DefaultWeights() Weights {
	return Weights{Name: 0.70, Country: 0.20, DOB: 0.10}
}

// hadCountryInput / hadDOBInput are carried alongside the components because
// the cap rules in §4.6 distinguish "no country supplied" from "country
// supplied but mismatched" — information the CountryMatch/DOBSimilarity
// return value alone (0.0) cannot disambiguate.
type Inputs struct {
	Components   models.ScoreComponents
	CountryGiven bool
	DOBGiven     bool
}

// Combine applies the weighted linear combination and the three ordered
// caps from §4.6. The order is load-bearing: see DESIGN.md "Capping
// interactions".
func Combine(in Inputs, w Weights) float64 {
	name := in.Components.NameSimilarity
	country := in.Components.CountryMatch
	dob := in.Components.DOBSimilarity

	score := w.Name*name + w.Country*country + w.DOB*dob

	perfectIdentity := name >= 0.99 && country == 1.0

	// Cap 1: perfect identity must reach Hit.
	if perfectIdentity {
		score = maxF(score, 0.95)
	}

	// Cap 2: mismatched country cannot clear Review.
	if in.CountryGiven && country == 0 && name < 0.99 && score > 0.90 {
		score = minF(score, 0.89)
	}

	// Cap 3: mismatched DOB cannot clear Review unless name+country are perfect.
	if in.DOBGiven && dob < 1.0 && !perfectIdentity && score > 0.90 {
		score = minF(score, 0.89)
	}

	return score
}

// Thresholds are the tenant-tunable risk-banding cutoffs, defaulting to
// 0.95/0.90 per §4.6.
type Thresholds struct {
	Hit    float64
	Review float64
}

// DefaultThresholds matches the original's RiskConfig defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{Hit: 0.95, Review: 0.90}
}

// Band classifies a score into a risk level. NaN is treated as less than
// any real score, per §7, and bands to None.
func Band(score float64, t Thresholds) models.RiskLevel {
	if score != score { // NaN
		return models.RiskNone
	}
	switch {
	case score >= t.Hit:
		return models.RiskHit
	case score >= t.Review:
		return models.RiskReview
	default:
		return models.RiskNone
	}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
