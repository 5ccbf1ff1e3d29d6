/*
handler_context.go - Request Context Helpers for Tenant Authorization

Every route other than /health and /ready runs behind Handler.Authenticate, which
resolves the caller's tenant.Tenant from its API key (internal/tenant) and
stores a TenantContext in the request context. Handlers read it back with
GetTenantContext; tenant-admin-only routes additionally check RequireAdmin,
backed by the Casbin enforcer (internal/authz).
*/
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/cursorworkshop/aegistry/internal/authz"
)

type tenantContextKey struct{}

// TenantContext carries the authenticated tenant for the lifetime of a request.
type TenantContext struct {
	// TenantID is the authenticated tenant's unique identifier. Empty for
	// unauthenticated requests (health checks only).
	TenantID string

	// TenantName is the tenant's display name.
	TenantName string

	// RequestID is this request's tracing identifier.
	RequestID string

	authorized bool
	enforcer   *authz.Enforcer
	ctx        context.Context
}

// withTenantContext stores tctx in ctx for retrieval by GetTenantContext.
func withTenantContext(ctx context.Context, tctx *TenantContext) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, tctx)
}

// GetTenantContext extracts the tenant context from an HTTP request.
// Always returns a non-nil value; use IsAuthenticated to check whether
// authentication actually succeeded.
func GetTenantContext(r *http.Request) *TenantContext {
	if tctx, ok := r.Context().Value(tenantContextKey{}).(*TenantContext); ok {
		return tctx
	}
	return &TenantContext{}
}

// IsAuthenticated returns true if the request carries a resolved tenant.
func (tctx *TenantContext) IsAuthenticated() bool {
	return tctx != nil && tctx.authorized
}

// RequireAdmin returns an error if the tenant does not hold the Casbin
// "admin" grant on the "tenant" resource. Fails closed: an unconfigured
// enforcer denies rather than allows.
func (tctx *TenantContext) RequireAdmin() error {
	if tctx == nil || !tctx.authorized {
		return ErrNotAuthenticated
	}
	if tctx.enforcer == nil {
		return ErrNotAuthorized
	}
	allowed, err := tctx.enforcer.Enforce(tctx.TenantID, "tenant", "admin")
	if err != nil || !allowed {
		return ErrNotAuthorized
	}
	return nil
}

// Handler authorization errors
var (
	// ErrNotAuthenticated is returned when authentication is required but not present.
	ErrNotAuthenticated = &AuthError{
		Code:       "AUTH_REQUIRED",
		Message:    "A valid API key is required",
		StatusCode: http.StatusUnauthorized,
	}

	// ErrNotAuthorized is returned when the tenant lacks admin permission for the action.
	ErrNotAuthorized = &AuthError{
		Code:       "FORBIDDEN",
		Message:    "Access denied: tenant-admin role required",
		StatusCode: http.StatusForbidden,
	}
)

// AuthError represents a structured error for authorization failures.
// Separate from APIError (response.go) to avoid conflating HTTP transport
// details with the response envelope's error payload shape.
type AuthError struct {
	Code       string
	Message    string
	StatusCode int
}

func (e *AuthError) Error() string {
	return e.Message
}

// RespondAuthError writes an authorization error response.
func RespondAuthError(w http.ResponseWriter, r *http.Request, err error) {
	rw := NewResponseWriter(w, r)
	var authErr *AuthError
	if errors.As(err, &authErr) {
		rw.Error(authErr.StatusCode, authErr.Code, authErr.Message)
		return
	}
	rw.Forbidden("Access denied")
}
