package tenant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate-inc/keygate/internal/shared/errors"
)

func TestNewBrand_Prefix(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		prefix  string
		want    string
		wantErr bool
	}{
		{"uppercased", "acme", "ACME", false},
		{"trimmed", "  ab1 ", "AB1", false},
		{"max length", "ABCDEFGHIJ", "ABCDEFGHIJ", false},
		{"too short", "A", "", true},
		{"too long", "ABCDEFGHIJK", "", true},
		{"punctuation", "AC-ME", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBrand("id-1", "Acme", "acme", tt.prefix, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, b.KeyPrefix())
		})
	}
}

func TestNewBrand_Slug(t *testing.T) {
	_, err := NewBrand("id-1", "Acme", "Not A Slug", "AC", time.Now())
	assert.Error(t, err)

	_, err = NewBrand("id-1", " ", "acme", "AC", time.Now())
	assert.Error(t, err)
}

func TestAPIKey_IsUsable(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)

	k, err := NewAPIKey("k1", "b1", "ci", "digest", ScopeRead, &later, now)
	require.NoError(t, err)
	assert.True(t, k.IsUsable(now))
	assert.False(t, k.IsUsable(later))

	revoked := ReconstructAPIKey("k2", "b1", "old", "d", ScopeFull, nil, nil, &now, now)
	assert.False(t, revoked.IsUsable(now))

	_, err = NewAPIKey("k3", "b1", "bad", "d", Scope("admin"), nil, now)
	assert.Error(t, err)
}

func TestContext_Guard(t *testing.T) {
	c := NewContext("brand-a", ScopeFull)
	assert.NoError(t, c.Validate())
	assert.True(t, c.CanWrite())
	assert.False(t, NewContext("brand-a", ScopeRead).CanWrite())
	assert.NoError(t, c.Guard("license", "lic-1", "brand-a"))

	err := c.Guard("license", "lic-1", "brand-b")
	assert.True(t, errors.IsNotFoundError(err))
	assert.True(t, errors.IsCrossTenantError(err))
	assert.Equal(t, errors.NewNotFoundError("license not found").Error(), err.Error())

	assert.Error(t, Context{}.Validate())
}
