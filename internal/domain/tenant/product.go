package tenant

import (
	"fmt"
	"strings"
	"time"
)

// Product is something a brand licenses. Slugs are unique per brand.
type Product struct {
	id        string
	brandID   string
	name      string
	slug      string
	createdAt time.Time
	updatedAt time.Time
}

// NewProduct creates a product under a brand
func NewProduct(id, brandID, name, slug string, now time.Time) (*Product, error) {
	if id == "" || brandID == "" {
		return nil, fmt.Errorf("product id and brand id are required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("product name is required")
	}
	if !slugPattern.MatchString(slug) {
		return nil, fmt.Errorf("invalid product slug: %q", slug)
	}
	return &Product{
		id:        id,
		brandID:   brandID,
		name:      name,
		slug:      slug,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructProduct rebuilds a product from persistence
func ReconstructProduct(id, brandID, name, slug string, createdAt, updatedAt time.Time) *Product {
	return &Product{
		id:        id,
		brandID:   brandID,
		name:      name,
		slug:      slug,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (p *Product) ID() string           { return p.id }
func (p *Product) BrandID() string      { return p.brandID }
func (p *Product) Name() string         { return p.name }
func (p *Product) Slug() string         { return p.slug }
func (p *Product) CreatedAt() time.Time { return p.createdAt }
func (p *Product) UpdatedAt() time.Time { return p.updatedAt }
