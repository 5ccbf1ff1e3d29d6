// Package adapters implements the Source Adapters (C2): per-roster
// fetchers and parsers that emit canonical models.Subject values for the
// Ingest Orchestrator to upsert into the Subject Store.
//
// Every adapter implements the same two-step Fetch/Parse contract the
// original's ingest crate uses (fetcher.rs downloads bytes, the per-source
// parser_*.rs/pep_*.rs files turn bytes into ParsedSubject values) so the
// Orchestrator never needs to know a source's wire format.
package adapters

import (
	"context"

	"github.com/cursorworkshop/aegistry/internal/models"
)

// Adapter fetches and parses one roster into canonical subjects.
type Adapter interface {
	// Name identifies the source for dataset-version bookkeeping and logs,
	// e.g. "EU" or "US_CONGRESS".
	Name() string
	// Fetch retrieves the current roster payload. Errors are expected in
	// normal operation (upstream outage, network partition) and are
	// reported to the Orchestrator, which logs and moves to the next
	// source rather than failing the whole refresh.
	Fetch(ctx context.Context) ([]byte, error)
	// Parse turns a fetched payload into canonical subjects. A parse
	// failure on one entry must not prevent the rest of the payload from
	// being parsed — implementations log and skip malformed entries.
	Parse(data []byte) ([]models.Subject, error)
}
