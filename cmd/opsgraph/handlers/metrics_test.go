package handlers

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServerExposesSchedulerCounters(t *testing.T) {
	useFakeRegistry(t, &fakeDriver{kind: "box"})
	cfgPath := scaffold(t, chainDeclaration)

	// A completed cycle leaves samples behind in the process registry.
	require.NoError(t, Apply(context.Background(), cfgPath, false, ""))

	addr, stop, err := startMetricsServer("127.0.0.1:0", logr.Discard())
	require.NoError(t, err)
	defer stop()

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "opsgraph_scheduler_operations_total")
}

func TestMetricsServerRejectsBadAddress(t *testing.T) {
	_, _, err := startMetricsServer("not-an-address", logr.Discard())
	require.Error(t, err)
}
