package usecases

import (
	"context"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/keygate-inc/keygate/internal/domain/activation"
	"github.com/keygate-inc/keygate/internal/domain/license"
	"github.com/keygate-inc/keygate/internal/domain/tenant"
	"github.com/keygate-inc/keygate/internal/shared/db"
	"github.com/keygate-inc/keygate/internal/shared/errors"
)

// markupPolicy strips every tag. StrictPolicy is safe for concurrent use.
var markupPolicy = bluemonday.StrictPolicy()

// KeyResolver turns a plaintext license key into the key record and the
// tenant it belongs to.
type KeyResolver struct {
	keygen  *license.KeyGenerator
	keyRepo license.KeyRepository
}

// NewKeyResolver creates a resolver
func NewKeyResolver(keygen *license.KeyGenerator, keyRepo license.KeyRepository) *KeyResolver {
	return &KeyResolver{keygen: keygen, keyRepo: keyRepo}
}

// Resolve returns NotFound for malformed and unknown keys alike.
func (r *KeyResolver) Resolve(ctx context.Context, plaintext string) (*license.LicenseKey, tenant.Context, error) {
	if _, err := license.ParseKey(plaintext); err != nil {
		return nil, tenant.Context{}, errors.NewNotFoundError("license key not found")
	}
	k, err := r.keyRepo.GetByDigest(ctx, r.keygen.Digest(plaintext))
	if err != nil {
		return nil, tenant.Context{}, db.MapError(ctx, err)
	}
	if k == nil {
		return nil, tenant.Context{}, errors.NewNotFoundError("license key not found")
	}
	return k, tenant.NewContext(k.BrandID(), tenant.ScopeRead), nil
}

// normalizeInstance trims the identifier, bounds its length and rejects markup.
func normalizeInstance(identifier string) (string, error) {
	identifier, err := activation.NormalizeIdentifier(identifier)
	if err != nil {
		return "", errors.NewValidationError(err.Error())
	}
	if html.UnescapeString(markupPolicy.Sanitize(identifier)) != identifier {
		return "", errors.NewValidationError("instance_identifier must not contain markup")
	}
	return identifier, nil
}

func parseInstanceType(s string) (activation.InstanceType, error) {
	t := activation.InstanceType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", errors.NewValidationError("instance_type must be one of url, hostname, machine_id")
	}
	return t, nil
}
