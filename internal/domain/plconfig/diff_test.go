package plconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	oldState := map[string]any{"a": 1, "b": "x", "c": true}
	newState := map[string]any{"a": 2, "b": "x", "d": "added"}

	changes := Diff(oldState, newState)

	require.Len(t, changes, 3)
	assert.Equal(t, map[string]any{"old": 1, "new": 2}, changes["a"])
	assert.Equal(t, map[string]any{"old": true, "new": nil}, changes["c"])
	assert.Equal(t, map[string]any{"old": nil, "new": "added"}, changes["d"])
	assert.NotContains(t, changes, "b")
}

func TestDiff_IdenticalStates(t *testing.T) {
	state := map[string]any{"a": 1, "b": []any{"x", "y"}}
	assert.Empty(t, Diff(state, state))
}

func TestDiffFieldChanged(t *testing.T) {
	defaults := StandardDefaults{}.VariableCostDefaults()

	modified := defaults
	modified.Shipping = ShippingConfig{TrackingMethod: TrackingFlatRate, FlatRateCents: ptrI64(499)}
	modified.Version = 2

	field := diffFieldChanged(&defaults, &modified)
	require.NotNil(t, field)
	assert.Equal(t, "shipping", *field)

	// Two changed sections: ambiguous, so no single field is reported.
	modified.Fulfillment.PickPackFeeCents = 100
	assert.Nil(t, diffFieldChanged(&defaults, &modified))

	// Nil snapshots carry no field information.
	assert.Nil(t, diffFieldChanged(nil, &modified))
	assert.Nil(t, diffFieldChanged((*VariableCostConfig)(nil), &modified))
}
