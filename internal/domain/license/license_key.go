package license

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// LicenseKey is the customer-facing credential. Only the digest is kept;
// the plaintext exists solely in the issuance response.
type LicenseKey struct {
	id            string
	brandID       string
	digest        string
	customerEmail string
	createdAt     time.Time
	updatedAt     time.Time
}

// NewLicenseKey creates a key record for a customer
func NewLicenseKey(id, brandID, digest, customerEmail string, now time.Time) (*LicenseKey, error) {
	if id == "" || brandID == "" {
		return nil, fmt.Errorf("license key id and brand id are required")
	}
	if digest == "" {
		return nil, fmt.Errorf("license key digest is required")
	}
	email, err := NormalizeEmail(customerEmail)
	if err != nil {
		return nil, err
	}
	return &LicenseKey{
		id:            id,
		brandID:       brandID,
		digest:        digest,
		customerEmail: email,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructLicenseKey rebuilds a key from persistence
func ReconstructLicenseKey(id, brandID, digest, customerEmail string, createdAt, updatedAt time.Time) *LicenseKey {
	return &LicenseKey{
		id:            id,
		brandID:       brandID,
		digest:        digest,
		customerEmail: customerEmail,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// NormalizeEmail trims and case-folds an address and checks it parses.
func NormalizeEmail(email string) (string, error) {
	// Casers hold state, so one is built per call.
	email = cases.Fold().String(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("customer email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("invalid customer email: %q", email)
	}
	return email, nil
}

func (k *LicenseKey) ID() string            { return k.id }
func (k *LicenseKey) BrandID() string       { return k.brandID }
func (k *LicenseKey) Digest() string        { return k.digest }
func (k *LicenseKey) CustomerEmail() string { return k.customerEmail }
func (k *LicenseKey) CreatedAt() time.Time  { return k.createdAt }
func (k *LicenseKey) UpdatedAt() time.Time  { return k.updatedAt }
