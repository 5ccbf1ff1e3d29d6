// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package cache provides a thread-safe prefix tree (trie) used to dedupe
strings that share long common prefixes.

# Overview

Trie is a concurrent-safe prefix tree over strings. Insert reports whether
a string was newly added, which makes it a convenient membership set for
dedup passes: every PEP source adapter parses subjects in bulk and needs a
first-seen-wins filter over primary names before handing the batch to the
Subject Store.

# Usage Example

	seen := cache.NewTrie()
	var out []models.Subject
	for _, s := range subjects {
	    if seen.Insert(s.PrimaryName) {
	        out = append(out, s)
	    }
	}

# Why a trie and not a map

PrimaryName values in a legislature roster share long common prefixes
(surname-first formatting clusters entries alphabetically), which is
exactly the access pattern a trie amortizes better than a hash map: shared
prefix nodes are walked once per prefix rather than re-hashed per string.

# Thread Safety

Trie is safe for concurrent Insert calls, guarded by a single mutex.

# See Also

  - internal/adapters: the US Congress PEP adapter, the package's sole caller
*/
package cache
