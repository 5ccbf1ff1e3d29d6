package tenant

import (
	"context"
	"testing"
)

func TestCreateDefaultTenantIsResolvableByItsOwnKey(t *testing.T) {
	s := New()
	id, key, err := s.CreateDefaultTenant(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.GetByKey(context.Background(), key)
	if err != nil {
		t.Fatalf("unexpected error resolving default tenant by key: %v", err)
	}
	if got.ID != id {
		t.Fatalf("expected tenant id %q, got %q", id, got.ID)
	}
	if !got.Active {
		t.Fatal("expected default tenant to be active")
	}
}

func TestGetByKeyRejectsUnknownKey(t *testing.T) {
	s := New()
	if _, _, err := s.CreateDefaultTenant(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.GetByKey(context.Background(), "ak_not-a-real-key"); err != ErrInvalidKey {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestAddAndGetByID(t *testing.T) {
	s := New()
	key, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Tenant{ID: "t1", Name: "Acme Corp", Active: true, HitThreshold: 0.95, ReviewThreshold: 0.8, RateLimitPerMinute: 500}
	if err := s.Add(context.Background(), want, key); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Get(context.Background(), "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	byKey, err := s.GetByKey(context.Background(), key)
	if err != nil {
		t.Fatalf("unexpected error resolving by key: %v", err)
	}
	if byKey.ID != "t1" {
		t.Fatalf("expected tenant t1, got %q", byKey.ID)
	}
}

func TestGetUnknownIDReturnsErrNotFound(t *testing.T) {
	s := New()
	if _, err := s.Get(context.Background(), "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReAddingSameTenantIDRotatesItsKey(t *testing.T) {
	s := New()
	oldKey, _ := GenerateAPIKey()
	newKey, _ := GenerateAPIKey()
	t1 := Tenant{ID: "t1", Name: "Acme Corp", Active: true}

	if err := s.Add(context.Background(), t1, oldKey); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Add(context.Background(), t1, newKey); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.GetByKey(context.Background(), oldKey); err != ErrInvalidKey {
		t.Fatalf("expected the old key to stop resolving, got %v", err)
	}
	if _, err := s.GetByKey(context.Background(), newKey); err != nil {
		t.Fatalf("expected the new key to resolve: %v", err)
	}
}

func TestGenerateAPIKeyProducesDistinctKeys(t *testing.T) {
	a, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == b {
		t.Fatal("expected two generated keys to differ")
	}
	if a[:3] != "ak_" {
		t.Fatalf("expected ak_ prefix, got %q", a)
	}
}
