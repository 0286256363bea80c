package activation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewActivation(t *testing.T) {
	now := time.Now()

	a, err := NewActivation("act-1", "lic-1", "  host-a  ", InstanceTypeHostname, nil, now)
	require.NoError(t, err)
	assert.Equal(t, "host-a", a.InstanceIdentifier())
	assert.True(t, a.IsActive())
	assert.NotNil(t, a.Metadata())

	_, err = NewActivation("act-1", "lic-1", "", InstanceTypeHostname, nil, now)
	assert.Error(t, err)

	_, err = NewActivation("act-1", "lic-1", strings.Repeat("x", MaxIdentifierLength+1), InstanceTypeURL, nil, now)
	assert.Error(t, err)

	_, err = NewActivation("act-1", "lic-1", "host-a", InstanceType("vm"), nil, now)
	assert.Error(t, err)
}

func TestDeactivate_Idempotent(t *testing.T) {
	now := time.Now()
	a, err := NewActivation("act-1", "lic-1", "host-a", InstanceTypeHostname, nil, now)
	require.NoError(t, err)

	assert.True(t, a.Deactivate(now))
	assert.False(t, a.IsActive())
	require.NotNil(t, a.DeactivatedAt())

	assert.False(t, a.Deactivate(now.Add(time.Minute)))
	assert.True(t, a.DeactivatedAt().Equal(now))
}

func TestSeatUsage(t *testing.T) {
	assert.Equal(t, 1, SeatUsage{Limit: 2, Used: 1}.Remaining())
	assert.True(t, SeatUsage{Limit: 2, Used: 1}.HasCapacity())
	assert.False(t, SeatUsage{Limit: 2, Used: 2}.HasCapacity())
	// a lowered limit never reports negative seats
	assert.Equal(t, 0, SeatUsage{Limit: 1, Used: 3}.Remaining())
}
