package activation

import (
	"context"
	"time"
)

// Repository persists activations. Callers hold the license row lock while
// counting and inserting so the seat ceiling cannot be overrun.
type Repository interface {
	Create(ctx context.Context, a *Activation) error
	Update(ctx context.Context, a *Activation) error

	// TouchChecked sets last_checked_at on an active activation without
	// rewriting its other columns, so it is safe outside the license lock.
	TouchChecked(ctx context.Context, id string, at time.Time) error

	// GetActive returns the active activation for (license, identifier) or nil, nil.
	GetActive(ctx context.Context, brandID, licenseID, identifier string) (*Activation, error)

	// CountActive counts active activations of a license.
	CountActive(ctx context.Context, brandID, licenseID string) (int, error)

	// CountActiveByLicenses counts active activations for several licenses at once.
	CountActiveByLicenses(ctx context.Context, brandID string, licenseIDs []string) (map[string]int, error)
}
