// Package tenant models the isolation boundary of the licensing engine:
// brands, the products they sell, and the API keys that act on their behalf.
package tenant

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	prefixPattern = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)
	slugPattern   = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Brand is a tenant. Its key prefix identifies every license key it issues.
type Brand struct {
	id        string
	name      string
	slug      string
	keyPrefix string
	createdAt time.Time
	updatedAt time.Time
}

// NewBrand creates a brand. The prefix is uppercased before validation.
func NewBrand(id, name, slug, keyPrefix string, now time.Time) (*Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("brand name is required")
	}
	if id == "" {
		return nil, fmt.Errorf("brand id is required")
	}
	if !slugPattern.MatchString(slug) {
		return nil, fmt.Errorf("invalid brand slug: %q", slug)
	}
	keyPrefix = NormalizePrefix(keyPrefix)
	if err := ValidatePrefix(keyPrefix); err != nil {
		return nil, err
	}

	return &Brand{
		id:        id,
		name:      name,
		slug:      slug,
		keyPrefix: keyPrefix,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructBrand rebuilds a brand from persistence
func ReconstructBrand(id, name, slug, keyPrefix string, createdAt, updatedAt time.Time) (*Brand, error) {
	if id == "" {
		return nil, fmt.Errorf("brand id cannot be empty")
	}
	if err := ValidatePrefix(keyPrefix); err != nil {
		return nil, err
	}
	return &Brand{
		id:        id,
		name:      name,
		slug:      slug,
		keyPrefix: keyPrefix,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

// NormalizePrefix trims and uppercases a key prefix.
func NormalizePrefix(p string) string {
	return strings.ToUpper(strings.TrimSpace(p))
}

// ValidatePrefix checks a normalized prefix: 2 to 10 characters of A-Z and 0-9.
func ValidatePrefix(p string) error {
	if !prefixPattern.MatchString(p) {
		return fmt.Errorf("key prefix must be 2-10 characters of A-Z or 0-9, got %q", p)
	}
	return nil
}

func (b *Brand) ID() string           { return b.id }
func (b *Brand) Name() string         { return b.name }
func (b *Brand) Slug() string         { return b.slug }
func (b *Brand) KeyPrefix() string    { return b.keyPrefix }
func (b *Brand) CreatedAt() time.Time { return b.createdAt }
func (b *Brand) UpdatedAt() time.Time { return b.updatedAt }
