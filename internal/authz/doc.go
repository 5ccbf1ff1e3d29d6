// Package authz provides the Casbin authorization engine used to gate
// tenant-admin-only operations: tenant management and risk policy overrides.
//
// Every other route only requires a valid tenant API key (internal/tenant);
// this package answers one narrower question on top of that: does this
// tenant hold the "admin" grant?
//
// # RBAC Model
//
//	[request_definition]
//	r = sub, obj, act
//
//	[policy_definition]
//	p = sub, obj, act
//
//	[role_definition]
//	g = _, _
//
//	[policy_effect]
//	e = some(where (p.eft == allow))
//
//	[matchers]
//	m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
//
// # Policy
//
// Two roles are defined: tenant_admin (full access to tenant/risk_policy
// resources) and tenant_viewer (no write access to either). A tenant is
// granted a role via AddGroupingPolicy(tenantID, role) at tenant-creation
// time (cmd/server grants tenant_admin to the bootstrap tenant right after
// internal/tenant.Store.CreateDefaultTenant creates it, and the tenant-create
// handler in internal/api grants tenant_admin to every tenant it creates,
// since v1 has no sub-user concept within a tenant).
package authz
