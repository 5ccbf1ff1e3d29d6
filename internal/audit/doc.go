// Package audit provides security and compliance audit logging for the
// screening API, recording every screen, monitored-subject change, risk
// policy edit, and batch submission a tenant triggers.
//
// # Overview
//
// The audit system provides:
//   - Structured event logging with typed event categories
//   - DuckDB persistence for durable audit trail storage
//   - Asynchronous buffered writes for minimal latency impact
//   - Automatic retention policy enforcement with configurable cleanup
//   - SIEM integration via Common Event Format (CEF) export
//   - Flexible querying with multi-dimensional filters
//
// # Event Types
//
// Events are categorized into the following groups:
//
// Authentication Events (tenant API-key checks, C9):
//   - auth.success, auth.failure, auth.lockout, auth.logout
//   - auth.session_created, auth.session_expired, auth.token_revoked
//
// Authorization Events:
//   - authz.granted, authz.denied
//
// Screening Events (C4/C5/C6, via internal/screening):
//   - screening.performed: a screen was run and its outcome recorded
//   - screening.hit: a hit crossed the tenant's risk-banding threshold
//
// Monitoring Events (C7):
//   - monitoring.subject_added, monitoring.subject_removed
//   - monitoring.callback_delivered, monitoring.callback_failed
//
// Batch Events (C13):
//   - batch.submitted, batch.completed
//
// Tenant and Risk Policy Events (C9/C11):
//   - tenant.created, tenant.api_key_rotated, risk.policy_changed
//
// Administrative Events:
//   - config.changed, data.export, data.import, admin.action
//
// # Architecture
//
// The audit system uses a producer-consumer pattern:
//
//	Logger.Log() -> Event Buffer (chan) -> Async Writer -> Store
//	                     |                      |
//	                 Non-blocking           Background goroutine
//
// Events are buffered in a channel to avoid blocking the caller. A background
// goroutine drains the buffer and persists events to the store.
//
// # Usage Example
//
//	store := audit.NewDuckDBStore(db.Conn())
//	logger := audit.NewLogger(store, audit.DefaultConfig())
//	defer logger.Close()
//
//	logger.LogScreenPerformed(ctx, actor, referenceID, len(result.Hits), string(highestRisk))
//	logger.LogSubjectMonitored(ctx, actor, referenceID, true)
//	logger.LogRiskPolicyChanged(ctx, actor, 0.85, 0.60)
//
// Querying audit logs:
//
//	filter := audit.QueryFilter{
//	    Types:      []audit.EventType{audit.EventTypeScreenPerformed},
//	    StartTime:  &startTime,
//	    EndTime:    &endTime,
//	    ActorID:    "tenant-a",
//	    Limit:      100,
//	    OrderDesc:  true,
//	}
//	events, err := logger.Query(ctx, filter)
//
// # Configuration
//
//	cfg := audit.Config{
//	    Enabled:         true,
//	    LogLevel:        audit.SeverityInfo,
//	    RetentionDays:   90,
//	    CleanupInterval: 24 * time.Hour,
//	    BufferSize:      1000,
//	    LogToStdout:     false,
//	    IncludeDebug:    false,
//	}
//
// # SIEM Integration
//
//	exporter := audit.NewCEFExporter()
//	events, _ := logger.Query(ctx, filter)
//	cefData, _ := exporter.Export(events)
//
// # Retention Policy
//
//	logger.StartCleanupRoutine(ctx)
//	// Events older than RetentionDays are automatically deleted
//
// # Thread Safety
//
// All exported functions are safe for concurrent use:
//   - Logger uses buffered channel for non-blocking writes
//   - Store implementations use appropriate synchronization
//   - Query operations use read locks for concurrent access
//
// # See Also
//
//   - internal/tenant: API-key authentication events source
//   - internal/screening: Screening events source
//   - internal/monitoring: Monitoring callback events source
//   - internal/api: Audit handlers for API access
package audit
