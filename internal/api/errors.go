// Package api provides HTTP handlers for the screening service.
//
// errors.go - Common API error sentinels.
package api

import "errors"

// Common API errors
var (
	// ErrTenantInactive indicates the authenticated tenant has been suspended.
	ErrTenantInactive = errors.New("tenant is not active")

	// ErrSubjectNotFound indicates no monitored subject matched the request.
	ErrSubjectNotFound = errors.New("monitored subject not found")

	// ErrJobNotFound indicates no batch job matched the requested ID.
	ErrJobNotFound = errors.New("batch job not found")
)
