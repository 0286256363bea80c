package tenant

import (
	"github.com/keygate-inc/keygate/internal/shared/errors"
)

// Context is the resolved identity of the calling brand. Every engine
// operation receives it explicitly.
type Context struct {
	BrandID string
	Scope   Scope
}

// NewContext builds a tenant context for a brand.
func NewContext(brandID string, scope Scope) Context {
	return Context{BrandID: brandID, Scope: scope}
}

// Validate rejects an unresolved context.
func (c Context) Validate() error {
	if c.BrandID == "" {
		return errors.NewUnauthorizedError("tenant is not resolved")
	}
	return nil
}

// CanWrite reports whether the scope allows mutating operations.
func (c Context) CanWrite() bool {
	return c.Scope == ScopeFull
}

// Guard checks that an entity owned by ownerBrandID is visible to the caller.
// A mismatch is reported as a cross-tenant NotFound.
func (c Context) Guard(entity, id, ownerBrandID string) error {
	if ownerBrandID != c.BrandID {
		return errors.NewCrossTenantAccessError(entity, id)
	}
	return nil
}
