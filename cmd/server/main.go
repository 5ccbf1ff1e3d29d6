// Package main is the entry point for the aegistry server.
//
// aegistry screens names against sanctions and PEP watchlists, tracks
// monitored subjects for ongoing re-screening, and dispatches webhook
// callbacks when a watched subject's hit set changes. It initializes in
// this order:
//
//  1. Configuration: layered defaults, config file, environment (Koanf v2)
//  2. Database: embedded DuckDB (Subject Store, Risk Policy Store, Audit Log)
//  3. Authorization: Casbin enforcer gating tenant-admin-only operations,
//     plus the bootstrapped default tenant
//  4. Screening: Candidate Retrieval + Scoring/Risk behind one Screener
//  5. Ingest: per-source adapters
//  6. Monitoring: subscription store, re-screen pass, Ingest Orchestrator,
//     callback dispatcher
//  7. Batch runner and HTTP API: chi router, one middleware chain per route
//     group, all run under the supervisor tree
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: the
// supervisor tree stops accepting new work, waits for in-flight requests,
// and closes the database connection.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cursorworkshop/aegistry/internal/adapters"
	"github.com/cursorworkshop/aegistry/internal/api"
	"github.com/cursorworkshop/aegistry/internal/audit"
	"github.com/cursorworkshop/aegistry/internal/authz"
	"github.com/cursorworkshop/aegistry/internal/batch"
	"github.com/cursorworkshop/aegistry/internal/config"
	"github.com/cursorworkshop/aegistry/internal/logging"
	"github.com/cursorworkshop/aegistry/internal/monitoring"
	"github.com/cursorworkshop/aegistry/internal/orchestrator"
	"github.com/cursorworkshop/aegistry/internal/risk"
	"github.com/cursorworkshop/aegistry/internal/screening"
	"github.com/cursorworkshop/aegistry/internal/search"
	"github.com/cursorworkshop/aegistry/internal/store"
	"github.com/cursorworkshop/aegistry/internal/supervisor"
	"github.com/cursorworkshop/aegistry/internal/supervisor/services"
	"github.com/cursorworkshop/aegistry/internal/tenant"
)

//nolint:gocyclo // sequential startup wiring, mirrors the teacher's main()
func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("starting aegistry with supervisor tree")

	subjectStore, err := store.Open(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open subject store")
	}
	defer func() {
		if err := subjectStore.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing subject store")
		}
	}()
	logging.Info().Str("path", cfg.Database.Path).Msg("subject store opened")

	riskStore, err := risk.Open(subjectStore.Conn())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open risk policy store")
	}

	auditStore := audit.NewDuckDBStore(subjectStore.Conn())
	auditConfig := audit.DefaultConfig()
	auditConfig.RetentionDays = 365
	auditLogger := audit.NewLogger(auditStore, auditConfig)
	defer func() {
		if err := auditLogger.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing audit logger")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	auditLogger.StartCleanupRoutine(ctx)

	enforcer, err := authz.NewEnforcer(ctx, authz.DefaultEnforcerConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize casbin enforcer")
	}
	defer enforcer.Close()

	tenantStore := tenant.New()
	defaultTenantID, defaultAPIKey, err := tenantStore.CreateDefaultTenant(ctx)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to bootstrap default tenant")
	}
	if err := enforcer.AddGroupingPolicy(defaultTenantID, "tenant_admin"); err != nil {
		logging.Fatal().Err(err).Msg("failed to grant tenant_admin to default tenant")
	}
	logging.Info().
		Str("tenant_id", defaultTenantID).
		Str("api_key", defaultAPIKey).
		Msg("default tenant bootstrapped — store this API key, it is never shown again")

	retriever := search.New(subjectStore.Conn(), subjectStore.RapidFuzzAvailable())
	screener := screening.New(screening.Adapt(retriever))

	var adapterSet []adapters.Adapter
	if cfg.Sources.EUEnabled {
		adapterSet = append(adapterSet, adapters.NewEUAdapterFromConfig(&cfg.Refresh))
	}
	if cfg.Sources.USCongressEnabled {
		adapterSet = append(adapterSet, adapters.NewUSCongressAdapterFromConfig(&cfg.Refresh))
	}
	adapterSet = append(adapterSet, adapters.NewUKParliamentAdapter(cfg.Refresh.FetchTimeout, cfg.Sources.PEPFallbackRosterDir))
	logging.Info().Int("sources", len(adapterSet)).Msg("source adapters configured")

	monitorStore, err := monitoring.Open(subjectStore.Conn())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open monitoring store")
	}

	rescreen := monitoring.NewRescreen(monitorStore, screener, riskStore)
	orch := orchestrator.New(subjectStore, adapterSet, rescreen, cfg.Refresh)

	dedupe, err := monitoring.OpenBadgerDedupe(cfg.Monitoring.DedupeDir)
	var dispatcher *monitoring.Dispatcher
	if err != nil {
		logging.Warn().Err(err).Msg("failed to open callback dedupe store, continuing without at-least-once dedupe")
		dispatcher = monitoring.NewDispatcher(monitorStore, cfg.Monitoring, nil)
	} else {
		defer func() {
			if err := dedupe.Close(); err != nil {
				logging.Error().Err(err).Msg("error closing dedupe store")
			}
		}()
		dispatcher = monitoring.NewDispatcher(monitorStore, cfg.Monitoring, dedupe)
	}

	gateway, err := monitoring.OpenNATSGateway(cfg.NATS)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open nats dispatch wake gateway")
	}
	if gateway != nil {
		defer func() {
			if err := gateway.Close(); err != nil {
				logging.Error().Err(err).Msg("error closing nats dispatch wake gateway")
			}
		}()
		go func() {
			if err := gateway.Forward(ctx, dispatcher); err != nil && !errors.Is(err, context.Canceled) {
				logging.Error().Err(err).Msg("nats wake gateway forwarding stopped")
			}
		}()
		rescreen.WithWaker(gateway)
		logging.Info().Msg("dispatch wake signal routed through nats jetstream")
	} else {
		rescreen.WithWaker(dispatcher)
	}

	batchRunner := batch.NewRunner(screener, riskStore)

	handler := api.NewHandler(screener, monitorStore, tenantStore, riskStore, batchRunner, auditLogger, enforcer)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	tree.AddDataService(orchestrator.NewService(orch))
	tree.AddMessagingService(monitoring.NewService(dispatcher))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("http server service added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service failed to stop")
		}
	}

	logging.Info().Msg("aegistry stopped gracefully")
}
