package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Router assembles the chi mux over a Handler, mirroring chi_router.go's
// global-middleware-then-route-groups structure.
type Router struct {
	handler *Handler
	mw      *ChiMiddleware
}

// NewRouter builds a Router over the given Handler using the default
// middleware configuration (CORS, rate limiting, security headers).
func NewRouter(handler *Handler) *Router {
	return &Router{
		handler: handler,
		mw:      NewChiMiddleware(DefaultChiMiddlewareConfig()),
	}
}

// SetupChi builds the complete chi.Router: global middleware, then one
// route group per resource, each gated by the authentication and rate
// limiting its sensitivity calls for.
func (rt *Router) SetupChi() chi.Router {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(E2EDebugLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(rt.mw.CORS())
	r.Use(APISecurityHeaders())

	r.Route("/api/v1", func(api chi.Router) {
		api.Group(func(health chi.Router) {
			health.Use(rt.mw.RateLimitHealth())
			health.Get("/health", rt.handler.Health)
			health.Get("/ready", rt.handler.Ready)
		})

		api.Group(func(auth chi.Router) {
			auth.Use(rt.handler.Authenticate)

			auth.Group(func(screen chi.Router) {
				screen.Use(rt.mw.RateLimitScreen())
				screen.Post("/screen", rt.handler.Screen)
			})

			auth.Group(func(write chi.Router) {
				write.Use(rt.mw.RateLimitWrite())
				write.Post("/monitor", rt.handler.MonitorSubscribe)
				write.Delete("/monitor/{referenceID}", rt.handler.MonitorUnsubscribe)
			})
			auth.Group(func(read chi.Router) {
				read.Use(rt.mw.RateLimitRead())
				read.Get("/monitor", rt.handler.MonitorList)
			})

			auth.Group(func(batch chi.Router) {
				batch.Use(rt.mw.RateLimitBatch())
				batch.Post("/batch", rt.handler.BatchSubmit)
			})
			auth.Group(func(read chi.Router) {
				read.Use(rt.mw.RateLimitRead())
				read.Get("/batch/{id}", rt.handler.BatchStatus)
			})

			auth.Group(func(read chi.Router) {
				read.Use(rt.mw.RateLimitRead())
				read.Get("/tenants/self", rt.handler.TenantSelf)
				read.Get("/audit", rt.handler.AuditQuery)
				read.Get("/risk-policy", rt.handler.RiskPolicyGet)
			})

			auth.Group(func(admin chi.Router) {
				admin.Use(RequireTenantAdminMiddleware())
				admin.Use(rt.mw.RateLimitWrite())
				admin.Post("/tenants", rt.handler.TenantCreate)
				admin.Put("/risk-policy", rt.handler.RiskPolicySet)
			})
		})
	})

	return r
}
