package tenant

import (
	"fmt"
	"time"
)

// Scope bounds what an API key may do.
type Scope string

const (
	ScopeFull Scope = "full"
	ScopeRead Scope = "read"
)

// IsValid checks if the scope is known
func (s Scope) IsValid() bool {
	switch s {
	case ScopeFull, ScopeRead:
		return true
	default:
		return false
	}
}

func (s Scope) String() string {
	return string(s)
}

// APIKey authenticates a brand's backend. Only its digest is stored.
type APIKey struct {
	id         string
	brandID    string
	name       string
	digest     string
	scope      Scope
	expiresAt  *time.Time
	lastUsedAt *time.Time
	revokedAt  *time.Time
	createdAt  time.Time
}

// NewAPIKey creates an API key record for an already-digested secret
func NewAPIKey(id, brandID, name, digest string, scope Scope, expiresAt *time.Time, now time.Time) (*APIKey, error) {
	if id == "" || brandID == "" {
		return nil, fmt.Errorf("api key id and brand id are required")
	}
	if digest == "" {
		return nil, fmt.Errorf("api key digest is required")
	}
	if !scope.IsValid() {
		return nil, fmt.Errorf("invalid api key scope: %s", scope)
	}
	if expiresAt != nil && !expiresAt.After(now) {
		return nil, fmt.Errorf("api key expiry must be in the future")
	}
	return &APIKey{
		id:        id,
		brandID:   brandID,
		name:      name,
		digest:    digest,
		scope:     scope,
		expiresAt: expiresAt,
		createdAt: now,
	}, nil
}

// ReconstructAPIKey rebuilds an API key from persistence
func ReconstructAPIKey(
	id, brandID, name, digest string,
	scope Scope,
	expiresAt, lastUsedAt, revokedAt *time.Time,
	createdAt time.Time,
) *APIKey {
	return &APIKey{
		id:         id,
		brandID:    brandID,
		name:       name,
		digest:     digest,
		scope:      scope,
		expiresAt:  expiresAt,
		lastUsedAt: lastUsedAt,
		revokedAt:  revokedAt,
		createdAt:  createdAt,
	}
}

func (k *APIKey) ID() string             { return k.id }
func (k *APIKey) BrandID() string        { return k.brandID }
func (k *APIKey) Name() string           { return k.name }
func (k *APIKey) Digest() string         { return k.digest }
func (k *APIKey) Scope() Scope           { return k.scope }
func (k *APIKey) ExpiresAt() *time.Time  { return k.expiresAt }
func (k *APIKey) LastUsedAt() *time.Time { return k.lastUsedAt }
func (k *APIKey) RevokedAt() *time.Time  { return k.revokedAt }
func (k *APIKey) CreatedAt() time.Time   { return k.createdAt }

// IsUsable reports whether the key may authenticate at now.
func (k *APIKey) IsUsable(now time.Time) bool {
	if k.revokedAt != nil {
		return false
	}
	return k.expiresAt == nil || now.Before(*k.expiresAt)
}
