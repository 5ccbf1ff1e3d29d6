package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// SecurityEvent represents a security-relevant event for audit logging, such
// as an API-key authentication attempt or a risk-policy change.
type SecurityEvent struct {
	// Event is the type of event (e.g., "auth_success", "auth_failure", "policy_changed").
	Event string
	// TenantID is the tenant's identifier (if known).
	TenantID string
	// KeyID identifies the API key used (not the key material itself).
	KeyID string
	// IPAddress is the client's IP address.
	IPAddress string
	// UserAgent is the client's user agent (truncated).
	UserAgent string
	// Success indicates if the operation was successful.
	Success bool
	// Error is the error message if the operation failed.
	Error string
	// Details contains additional sanitized details.
	Details map[string]string
}

// SecurityLogger provides secure logging for tenant authentication and
// authorization events. It automatically sanitizes sensitive data before
// logging.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a new security logger.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{
		logger: With().Str("component", "auth").Logger(),
	}
}

// NewSecurityLoggerWithLogger creates a security logger with a custom zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// LogEvent logs a security event with automatic sanitization.
func (l *SecurityLogger) LogEvent(event *SecurityEvent) {
	e := l.logger.Info().
		Str("event", event.Event)

	if event.Success {
		e = e.Str("status", "success")
	} else {
		e = e.Str("status", "failed")
	}

	if event.TenantID != "" {
		e = e.Str("tenant_id", SanitizeUserID(event.TenantID))
	}

	if event.KeyID != "" {
		e = e.Str("key_id", SanitizeSessionID(event.KeyID))
	}

	if event.IPAddress != "" {
		e = e.Str("ip", event.IPAddress)
	}

	if event.UserAgent != "" {
		e = e.Str("user_agent", truncateString(event.UserAgent, 100))
	}

	if event.Error != "" && !event.Success {
		e = e.Str("error", SanitizeError(event.Error))
	}

	for k, v := range event.Details {
		e = e.Str(k, SanitizeValue(k, v))
	}

	e.Msg("")
}

// Debug logs a debug-level message.
func (l *SecurityLogger) Debug(msg string, fields ...interface{}) {
	e := l.logger.Debug()
	e = addFieldPairs(e, fields)
	e.Msg(msg)
}

// Info logs an info-level message.
func (l *SecurityLogger) Info(msg string, fields ...interface{}) {
	e := l.logger.Info()
	e = addFieldPairs(e, fields)
	e.Msg(msg)
}

// Warn logs a warning-level message.
func (l *SecurityLogger) Warn(msg string, fields ...interface{}) {
	e := l.logger.Warn()
	e = addFieldPairs(e, fields)
	e.Msg(msg)
}

// Error logs an error-level message.
func (l *SecurityLogger) Error(msg string, fields ...interface{}) {
	e := l.logger.Error()
	e = addFieldPairs(e, fields)
	e.Msg(msg)
}

// addFieldPairs adds key-value pairs to a zerolog event.
func addFieldPairs(e *zerolog.Event, fields []interface{}) *zerolog.Event {
	for i := 0; i < len(fields); i += 2 {
		if i+1 < len(fields) {
			key, ok := fields[i].(string)
			if !ok {
				continue
			}
			e = e.Interface(key, fields[i+1])
		}
	}
	return e
}

// ============================================================
// Pre-defined Security Events
// ============================================================

// LogAPIKeyAuthSuccess logs a successful API-key authentication.
func (l *SecurityLogger) LogAPIKeyAuthSuccess(tenantID, keyID, ip string) {
	l.LogEvent(&SecurityEvent{
		Event:     "auth_success",
		TenantID:  tenantID,
		KeyID:     keyID,
		IPAddress: ip,
		Success:   true,
	})
}

// LogAPIKeyAuthFailure logs a failed API-key authentication attempt.
func (l *SecurityLogger) LogAPIKeyAuthFailure(keyID, ip, userAgent, reason string) {
	l.LogEvent(&SecurityEvent{
		Event:     "auth_failed",
		KeyID:     keyID,
		IPAddress: ip,
		UserAgent: userAgent,
		Success:   false,
		Error:     reason,
	})
}

// LogRateLimitExceeded logs a tenant tripping the per-key rate limit.
func (l *SecurityLogger) LogRateLimitExceeded(tenantID, ip, path string) {
	l.LogEvent(&SecurityEvent{
		Event:     "rate_limit_exceeded",
		TenantID:  tenantID,
		IPAddress: ip,
		Success:   false,
		Details: map[string]string{
			"path": path,
		},
	})
}

// LogAuthzDenied logs a casbin policy denial for a tenant operation.
func (l *SecurityLogger) LogAuthzDenied(tenantID, resource, action string) {
	l.LogEvent(&SecurityEvent{
		Event:    "authz_denied",
		TenantID: tenantID,
		Success:  false,
		Details: map[string]string{
			"resource": resource,
			"action":   action,
		},
	})
}

// LogRiskPolicyChanged logs a tenant updating its risk thresholds or weights.
func (l *SecurityLogger) LogRiskPolicyChanged(tenantID, ip string) {
	l.LogEvent(&SecurityEvent{
		Event:     "risk_policy_changed",
		TenantID:  tenantID,
		IPAddress: ip,
		Success:   true,
	})
}

// LogAPIKeyRevoked logs an API key being revoked.
func (l *SecurityLogger) LogAPIKeyRevoked(tenantID, keyID, revokedBy string) {
	l.LogEvent(&SecurityEvent{
		Event:    "api_key_revoked",
		TenantID: tenantID,
		KeyID:    keyID,
		Success:  true,
		Details: map[string]string{
			"revoked_by": SanitizeUserID(revokedBy),
		},
	})
}

// ============================================================
// Sanitization Functions
// ============================================================

// SanitizeToken masks a token, showing only first and last 4 characters.
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeSessionID masks a key/session identifier.
func SanitizeSessionID(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	if len(sessionID) <= 12 {
		return "***"
	}
	return sessionID[:4] + "..." + sessionID[len(sessionID)-4:]
}

// SanitizeUserID masks a tenant or user identifier for privacy.
func SanitizeUserID(userID string) string {
	if userID == "" {
		return ""
	}
	if len(userID) <= 8 {
		return "***"
	}
	return userID[:4] + "..." + userID[len(userID)-4:]
}

// SanitizeUsername masks a username or tenant name, keeping first 2 characters.
func SanitizeUsername(username string) string {
	if username == "" {
		return ""
	}
	if len(username) <= 2 {
		return "***"
	}
	return username[:2] + "***"
}

// SanitizeEmail masks an email address.
func SanitizeEmail(email string) string {
	if email == "" {
		return ""
	}

	atIndex := strings.Index(email, "@")
	if atIndex <= 0 {
		return "***"
	}

	localPart := email[:atIndex]
	domain := email[atIndex:]

	if len(localPart) <= 2 {
		return "***" + domain
	}
	return localPart[:2] + "***" + domain
}

// SanitizeError removes potentially sensitive information from error messages.
func SanitizeError(err string) string {
	sensitivePatterns := []string{
		"password",
		"secret",
		"token",
		"key",
		"bearer",
		"authorization",
		"cookie",
	}

	lowerErr := strings.ToLower(err)
	for _, pattern := range sensitivePatterns {
		if strings.Contains(lowerErr, pattern) {
			return "authentication error"
		}
	}

	return truncateString(err, 200)
}

// SanitizeValue sanitizes a value based on its key name.
func SanitizeValue(key, value string) string {
	lowerKey := strings.ToLower(key)

	sensitiveKeys := map[string]bool{
		"api_key":       true,
		"apikey":        true,
		"token":         true,
		"password":      true,
		"secret":        true,
		"authorization": true,
		"bearer":        true,
		"cookie":        true,
		"key_id":        true,
	}

	if sensitiveKeys[lowerKey] {
		return SanitizeToken(value)
	}

	if strings.Contains(value, "@") && strings.Contains(value, ".") {
		return SanitizeEmail(value)
	}

	return value
}

// truncateString truncates a string to a maximum length.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
