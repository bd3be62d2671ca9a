package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertActivationOrder checks that exactly the given loaders were activated,
// in that order.
func AssertActivationOrder(t *testing.T, result *HarnessResult, ids ...string) {
	t.Helper()
	if len(ids) == 0 {
		require.Empty(t, result.Events.Activated(), "expected no loader to be activated")
		return
	}
	require.Equal(t, ids, result.Events.Activated(), "unexpected activation order")
}

// AssertLoaderActivated checks the log output and the activation state for id.
func AssertLoaderActivated(t *testing.T, result *HarnessResult, id string) {
	t.Helper()
	require.NotNil(t, result.App, "app failed to start")
	require.Contains(t, result.App.State().Activated, id, "loader %s was not activated", id)
	require.Contains(t, result.LogOutput, "loader="+id, "no log line mentions loader %s", id)
}
