package store

import (
	"context"
	"fmt"
	"os"

	"github.com/cursorworkshop/aegistry/internal/logging"
)

// rapidfuzzAvailable tracks whether the RapidFuzz community extension loaded
// successfully. Candidate Retrieval (C4/C5) falls back to a plain substring
// match when it isn't available, the same degrade-gracefully pattern the
// teacher uses for its own fuzzy search.
var rapidfuzzAvailable bool

// RapidFuzzAvailable reports whether fuzzy scoring functions are usable.
func (s *Store) RapidFuzzAvailable() bool {
	return rapidfuzzAvailable
}

// installExtensions installs the DuckDB extensions the candidate retrieval
// layer depends on. Grounded on the teacher's installRapidFuzzIfLocal: avoid
// a network install attempt (which can hang under CGO in restricted
// environments) unless the extension is already present locally or install
// is explicitly requested via AEGISTRY_INSTALL_EXTENSIONS.
func (s *Store) installExtensions() error {
	ctx, cancel := schemaContext()
	defer cancel()

	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		rapidfuzzAvailable = false
		return nil
	}

	if os.Getenv("AEGISTRY_INSTALL_EXTENSIONS") == "true" {
		if _, err := s.conn.ExecContext(ctx, "INSTALL rapidfuzz FROM community"); err != nil {
			logging.Warn().Err(err).Msg("failed to install rapidfuzz extension, falling back to substring matching")
			rapidfuzzAvailable = false
			return nil
		}
	}

	if _, err := s.conn.ExecContext(ctx, "LOAD rapidfuzz"); err != nil {
		logging.Info().Msg("rapidfuzz extension not available, candidate retrieval will use substring matching")
		rapidfuzzAvailable = false
		return nil
	}

	var probe int
	if err := s.conn.QueryRowContext(ctx, "SELECT rapidfuzz_ratio('hello', 'helo')::INTEGER").Scan(&probe); err != nil {
		return fmt.Errorf("rapidfuzz loaded but rapidfuzz_ratio is unusable: %w", err)
	}
	rapidfuzzAvailable = true
	logging.Info().Msg("rapidfuzz extension loaded")
	return nil
}
