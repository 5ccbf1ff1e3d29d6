// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package models defines the data structures shared across aegistry's
screening, monitoring, and API layers.

Key Components:

  - Subject: a sanctions/PEP entry (name, aliases, country, date of birth, source)
  - Builder: validates and normalizes raw source data into a Subject
  - Hit: a scored match between a screen request and a Subject
  - ScreenRequest / ScreenResult: the screening API's request/response pair
  - APIResponse / Metadata / APIError: the standard HTTP response envelope
  - PaginationInfo: cursor-based pagination metadata shared by list endpoints

Usage Example:

	import "github.com/cursorworkshop/aegistry/internal/models"

	subj, ok := models.Builder{
	    Source:      "EU_SANCTIONS",
	    SourceRef:   "eu-12345",
	    Kind:        models.KindPerson,
	    PrimaryName: "Jane Doe",
	    Country:     "RU",
	}.Build()

	response := models.APIResponse{
	    Status: "success",
	    Data:   result,
	    Metadata: models.Metadata{
	        Timestamp: time.Now(),
	    },
	}

See Also:

  - internal/adapters: source adapters that build Subjects from upstream data
  - internal/screening: candidate retrieval and scoring over Subjects
  - internal/api: HTTP handlers returning APIResponse-wrapped payloads
*/
package models
