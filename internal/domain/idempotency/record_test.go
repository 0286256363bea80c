package idempotency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	r, err := NewRecord("brand-1", "tok", 201, []byte(`{}`), now, 0)
	require.NoError(t, err)
	assert.Equal(t, now.Add(DefaultTTL), r.ExpiresAt)

	assert.False(t, r.IsExpired(now.Add(DefaultTTL-time.Second)))
	assert.True(t, r.IsExpired(now.Add(DefaultTTL)))

	_, err = NewRecord("", "tok", 200, nil, now, time.Hour)
	assert.Error(t, err)
}
