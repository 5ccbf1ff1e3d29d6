/*
Package api provides the HTTP REST API layer for the screening service.

This package exposes the endpoints tenants use to run sanctions/PEP screens,
manage ongoing monitoring subscriptions, submit batch jobs, adjust their risk
policy, and query their own audit trail. It is the HTTP front door onto
internal/screening, internal/monitoring, internal/tenant, internal/risk,
internal/batch, and internal/audit.

Key Components:

  - Router: Chi route configuration and middleware stack integration
  - Handler: request handlers, one file per resource
  - Response formatting: standardized JSON envelope with request-id metadata
  - Authenticate: tenant API-key middleware resolving a TenantContext
  - RBAC: Casbin-backed authorization for tenant-admin-only operations

API Categories:

1. Health (/api/v1/health, /api/v1/ready)

2. Screening (/api/v1/screen):
  - POST /api/v1/screen runs a single synchronous screen against watchlists

3. Monitoring (/api/v1/monitor):
  - POST /api/v1/monitor subscribes a subject to ongoing rescreening
  - DELETE /api/v1/monitor/{id} cancels a subscription
  - GET /api/v1/monitor lists a tenant's active subscriptions

4. Batch (/api/v1/batch):
  - POST /api/v1/batch submits a list-screening job
  - GET /api/v1/batch/{id} polls job status and results

5. Tenant administration (/api/v1/tenants), tenant-admin only

6. Risk policy (/api/v1/risk-policy), tenant-admin only

7. Audit (/api/v1/audit): query a tenant's own audit trail

Usage Example:

	handler := api.NewHandler(screener, monitorStore, tenantStore, riskStore, batchRunner, auditLogger, enforcer)
	router := api.NewRouter(handler)
	http.ListenAndServe(":8443", router.SetupChi())

Security:

  - Every route other than /health and /ready requires a tenant API key (Authorization: Bearer <key>, or X-API-Key: <key>)
  - Tenant-admin routes additionally require a Casbin "admin" grant for the caller's tenant
  - Rate limiting via go-chi/httprate, tuned per route group
  - Security headers (X-Content-Type-Options, X-Frame-Options) on every response; HSTS on HTTPS requests

See Also:

  - internal/screening: screening engine invoked by POST /screen
  - internal/monitoring: subscription store and rescreen dispatcher
  - internal/tenant: API-key authentication
  - internal/risk: per-tenant risk policy overrides
  - internal/batch: asynchronous batch job runner
  - internal/audit: audit trail persisted per request
*/
package api
