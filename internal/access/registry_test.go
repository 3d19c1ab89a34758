package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/identity"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/shared"
)

func TestDefaultRegistryCoversPlatformCapabilities(t *testing.T) {
	reg := DefaultRegistry()
	for _, capability := range shared.PlatformCapabilities() {
		_, ok := reg.Lookup(capability)
		assert.True(t, ok, "capability %s missing from default registry", capability)
	}
}

func TestLoadOverridesRaisesTierFloor(t *testing.T) {
	reg := DefaultRegistry()
	err := reg.LoadOverrides([]byte(`
rides.priority:
  min_tier: vip
`))
	require.NoError(t, err)

	req, ok := reg.Lookup(shared.CapRidesPriority)
	require.True(t, ok, "capability disappeared after override")
	assert.Equal(t, identity.TierVIP.Rank(), req.MinRank)
}

func TestLoadOverridesRegistersNewCapability(t *testing.T) {
	reg := DefaultRegistry()
	err := reg.LoadOverrides([]byte(`
hotels.concierge_book:
  min_tier: concierge
  mfa_required: true
  roles: [concierge, admin]
`))
	require.NoError(t, err)

	req, ok := reg.Lookup("hotels.concierge_book")
	require.True(t, ok, "new capability not registered")
	assert.Equal(t, identity.TierConcierge.Rank(), req.MinRank)
	assert.Equal(t, CheckAll, req.Check.Kind)
}

func TestLoadOverridesRejectsUnknownTier(t *testing.T) {
	reg := DefaultRegistry()
	err := reg.LoadOverrides([]byte(`
rides.priority:
  min_tier: platinum
`))
	require.Error(t, err)
}

func TestLoadOverridesRejectsEmptyRequirement(t *testing.T) {
	reg := DefaultRegistry()
	err := reg.LoadOverrides([]byte(`
rides.priority: {}
`))
	require.Error(t, err)
}
