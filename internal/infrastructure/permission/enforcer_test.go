package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate-inc/keygate/internal/domain/tenant"
	"github.com/keygate-inc/keygate/internal/infrastructure/persistence/testdb"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

func TestEnforcerScopes(t *testing.T) {
	db := testdb.Open(t)
	e, err := NewEnforcer(db, logger.NewNopLogger())
	require.NoError(t, err)

	tests := []struct {
		scope  tenant.Scope
		method string
		path   string
		want   bool
	}{
		{tenant.ScopeFull, "POST", "/api/v1/brand/licenses/provision", true},
		{tenant.ScopeFull, "GET", "/api/v1/brand/licenses", true},
		{tenant.ScopeRead, "GET", "/api/v1/brand/licenses/abc", true},
		{tenant.ScopeRead, "POST", "/api/v1/brand/licenses/abc/cancel", false},
		{tenant.ScopeFull, "POST", "/api/v1/product/activate", false},
		{tenant.Scope("admin"), "GET", "/api/v1/brand/licenses", false},
	}
	for _, tt := range tests {
		got, err := e.Enforce(tt.scope, tt.path, tt.method)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s %s %s", tt.scope, tt.method, tt.path)
	}

	// a second enforcer over the same table does not duplicate the seed
	again, err := NewEnforcer(db, logger.NewNopLogger())
	require.NoError(t, err)
	policies, err := again.enforcer.GetPolicy()
	require.NoError(t, err)
	assert.Len(t, policies, len(DefaultPolicies))
}
