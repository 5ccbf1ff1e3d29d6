package monitoring

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/cursorworkshop/aegistry/internal/models"
)

// computeResultHash hashes the ordered (subject_id, quantized score) pairs
// of a hit set so repeat screenings of an unchanged roster produce an
// identical hash despite floating-point jitter. Grounded on monitoring.rs's
// compute_result_hash (a DefaultHasher digest over id and round(score*100));
// ported to xxhash for the same reason C8's digest uses it over the
// original's misleadingly-named compute_sha256 — it's a change-detection
// checksum, not a security primitive, so the non-cryptographic Go-ecosystem
// equivalent is the right fit rather than reaching for crypto/sha256.
//
// Hits are sorted by subject_id before hashing (the original hashes in
// whatever order search_and_score produced, which is already
// score-descending and therefore stable run-to-run for a given roster
// snapshot; sorting by subject_id here makes the hash additionally
// insensitive to a sort-stability tie-break changing which of two
// equal-score hits comes first).
func computeResultHash(hits []models.Hit) string {
	type pair struct {
		id    string
		score int64
	}
	pairs := make([]pair, len(hits))
	for i, h := range hits {
		pairs[i] = pair{id: h.SubjectID, score: int64(h.Score * 100)}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	h := xxhash.New()
	for _, p := range pairs {
		_, _ = h.WriteString(p.id)
		_, _ = h.Write([]byte{
			byte(p.score), byte(p.score >> 8), byte(p.score >> 16), byte(p.score >> 24),
		})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
