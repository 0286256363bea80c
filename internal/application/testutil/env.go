// Package testutil wires the application layer against an in-memory database for tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/keygate-inc/keygate/internal/domain/activation"
	"github.com/keygate-inc/keygate/internal/domain/idempotency"
	"github.com/keygate-inc/keygate/internal/domain/license"
	"github.com/keygate-inc/keygate/internal/domain/shared/events"
	"github.com/keygate-inc/keygate/internal/domain/tenant"
	"github.com/keygate-inc/keygate/internal/infrastructure/persistence/testdb"
	"github.com/keygate-inc/keygate/internal/infrastructure/repository"
	"github.com/keygate-inc/keygate/internal/shared/biztime"
	"github.com/keygate-inc/keygate/internal/shared/db"
	"github.com/keygate-inc/keygate/internal/shared/id"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

// Epoch is the instant every test clock starts at.
var Epoch = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

// Env holds real repositories over a fresh sqlite database.
type Env struct {
	DB          *gorm.DB
	TxMgr       *db.TransactionManager
	Clock       *biztime.FixedClock
	Keygen      *license.KeyGenerator
	Publisher   *RecordingPublisher
	Logger      logger.Interface
	Brands      tenant.BrandRepository
	Products    tenant.ProductRepository
	APIKeys     tenant.APIKeyRepository
	Keys        license.KeyRepository
	Licenses    license.Repository
	Activations activation.Repository
	Records     idempotency.Repository
}

// NewEnv creates an Env
func NewEnv(t *testing.T) *Env {
	t.Helper()
	gdb := testdb.Open(t)
	log := logger.NewNopLogger()
	keygen, err := license.NewKeyGenerator("test-pepper")
	require.NoError(t, err)

	return &Env{
		DB:          gdb,
		TxMgr:       db.NewTransactionManager(gdb),
		Clock:       biztime.NewFixedClock(Epoch),
		Keygen:      keygen,
		Publisher:   &RecordingPublisher{},
		Logger:      log,
		Brands:      repository.NewBrandRepository(gdb, log),
		Products:    repository.NewProductRepository(gdb, log),
		APIKeys:     repository.NewAPIKeyRepository(gdb, log),
		Keys:        repository.NewLicenseKeyRepository(gdb, log),
		Licenses:    repository.NewLicenseRepository(gdb, log),
		Activations: repository.NewActivationRepository(gdb, log),
		Records:     repository.NewIdempotencyRepository(gdb, log),
	}
}

// Tenant is a seeded brand with its products
type Tenant struct {
	Brand    *tenant.Brand
	Products []*tenant.Product
	Context  tenant.Context
}

// ProductIDs returns the ids of the seeded products
func (tt *Tenant) ProductIDs() []string {
	ids := make([]string, len(tt.Products))
	for i, p := range tt.Products {
		ids[i] = p.ID()
	}
	return ids
}

// SeedTenant creates a brand named slug with the given product slugs.
func (e *Env) SeedTenant(t *testing.T, slug, prefix string, productSlugs ...string) *Tenant {
	t.Helper()
	ctx := context.Background()
	now := e.Clock.Now()

	b, err := tenant.NewBrand(id.NewUUID(), slug, slug, prefix, now)
	require.NoError(t, err)
	require.NoError(t, e.Brands.Create(ctx, b))

	tt := &Tenant{Brand: b, Context: tenant.NewContext(b.ID(), tenant.ScopeFull)}
	for _, ps := range productSlugs {
		p, err := tenant.NewProduct(id.NewUUID(), b.ID(), ps, ps, now)
		require.NoError(t, err)
		require.NoError(t, e.Products.Create(ctx, p))
		tt.Products = append(tt.Products, p)
	}
	return tt
}

// RecordingPublisher captures published events.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
	Fail   bool
}

func (p *RecordingPublisher) Publish(event events.DomainEvent) error {
	return p.PublishAll([]events.DomainEvent{event})
}

func (p *RecordingPublisher) PublishAll(evts []events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Fail {
		return fmt.Errorf("publisher unavailable")
	}
	p.events = append(p.events, evts...)
	return nil
}

// Types returns the recorded event types in order.
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.GetEventType()
	}
	return out
}

// Events returns a copy of the recorded events.
func (p *RecordingPublisher) Events() []events.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.DomainEvent(nil), p.events...)
}

// Reset forgets recorded events.
func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	p.events = nil
	p.mu.Unlock()
}
