// Package tenant implements the Tenant & API-Key Store (C9): a mutex-guarded
// in-memory registry mapping an API key to the calling tenant's identity and
// risk overrides, plus a default-tenant bootstrap so a fresh deployment can
// screen immediately.
//
// Grounded on original_source/crates/screening-api/src/tenant.rs's
// TenantStore (two maps — tenants by id, tenant id by API key — both guarded
// by their own lock) and create_default_tenant/generate_api_key. The one
// deliberate hardening over the original: API keys are bcrypt-hashed at rest
// rather than stored as plaintext strings, the same treatment the teacher
// gives passwords in internal/auth/basic.go. A caller only ever has the raw
// key; the index trades a single comparison for a shortlist instead of
// bcrypt-comparing against every tenant on every request.
package tenant

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost mirrors internal/auth/basic.go's cost factor 12 — a deliberate
// balance between brute-force resistance and per-request latency for a key
// checked on every API call rather than once at login.
const bcryptCost = 12

// ErrNotFound is returned when a tenant lookup misses.
var ErrNotFound = errors.New("tenant: not found")

// ErrInvalidKey is returned when an API key does not match any tenant.
var ErrInvalidKey = errors.New("tenant: invalid API key")

// Tenant is a screening API caller: its identity, active status, and the
// risk-threshold/rate-limit parameters C11 and the API middleware read.
type Tenant struct {
	ID                 string
	Name               string
	Active             bool
	HitThreshold       float64
	ReviewThreshold    float64
	RateLimitPerMinute int
}

// record is what the store actually keeps: the Tenant plus the bcrypt hash
// of its API key. The raw key is never retained once hashed.
type record struct {
	tenant  Tenant
	keyHash []byte
	prefix  string
}

// Store is the in-memory tenant registry. Zero value is not usable; use New.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*record
	// keyLookup narrows a raw API key to a shortlist of candidate tenant ids
	// before bcrypt-comparing, so a 10,000-tenant deployment doesn't pay 10,000
	// bcrypt comparisons per request. Keyed by the key's first 8 bytes
	// (base64), which leaks no usable information about the key itself.
	keyLookup map[string][]string
}

// New builds an empty tenant registry.
func New() *Store {
	return &Store{
		byID:      make(map[string]*record),
		keyLookup: make(map[string][]string),
	}
}

// CreateDefaultTenant bootstraps a permissive default tenant so a fresh
// deployment can screen immediately without an operator provisioning one
// first, mirroring create_default_tenant's Tenant::default(). Returns the
// generated tenant id and raw API key — the only time the raw key is ever
// available, exactly as with any other generated credential.
func (s *Store) CreateDefaultTenant(ctx context.Context) (id, apiKey string, err error) {
	t := Tenant{
		ID:                 uuid.NewString(),
		Name:               "Default Tenant",
		Active:             true,
		HitThreshold:       0.90,
		ReviewThreshold:    0.75,
		RateLimitPerMinute: 1000,
	}
	key, err := GenerateAPIKey()
	if err != nil {
		return "", "", fmt.Errorf("generate default tenant api key: %w", err)
	}
	if err := s.Add(ctx, t, key); err != nil {
		return "", "", err
	}
	return t.ID, key, nil
}

// Add registers a tenant under the given raw API key, hashing it before
// storage. Calling Add again with the same tenant ID replaces the prior
// record (and its old key stops resolving).
func (s *Store) Add(ctx context.Context, t Tenant, apiKey string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash api key: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byID[t.ID]; ok {
		s.removeFromLookupLocked(old.prefix, t.ID)
	}

	prefix := keyPrefix(apiKey)
	s.byID[t.ID] = &record{tenant: t, keyHash: hash, prefix: prefix}
	s.keyLookup[prefix] = append(s.keyLookup[prefix], t.ID)
	return nil
}

// GetByKey resolves a raw API key to its tenant, bcrypt-comparing only the
// candidates that share the key's lookup prefix.
func (s *Store) GetByKey(ctx context.Context, apiKey string) (Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := keyPrefix(apiKey)
	for _, id := range s.keyLookup[prefix] {
		rec, ok := s.byID[id]
		if !ok {
			continue
		}
		if bcrypt.CompareHashAndPassword(rec.keyHash, []byte(apiKey)) == nil {
			return rec.tenant, nil
		}
	}
	return Tenant{}, ErrInvalidKey
}

// Get resolves a tenant by id.
func (s *Store) Get(ctx context.Context, tenantID string) (Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[tenantID]
	if !ok {
		return Tenant{}, ErrNotFound
	}
	return rec.tenant, nil
}

func (s *Store) removeFromLookupLocked(prefix, tenantID string) {
	ids := s.keyLookup[prefix]
	for i, id := range ids {
		if id == tenantID {
			s.keyLookup[prefix] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

// keyPrefix narrows the bcrypt-comparison candidate set without revealing
// enough of the key to be useful to an attacker who only sees the prefix.
func keyPrefix(apiKey string) string {
	if len(apiKey) < 8 {
		return apiKey
	}
	return apiKey[:8]
}

// GenerateAPIKey produces a CSPRNG-backed API key, grounded on
// generate_api_key's ak_<24 random bytes, url-safe base64> shape.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return "ak_" + base64.RawURLEncoding.EncodeToString(buf), nil
}
