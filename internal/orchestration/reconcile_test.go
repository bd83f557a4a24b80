package orchestration

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/opsgraph/opsgraph/internal/state"
)

func TestReconcileNothingPending(t *testing.T) {
	env := newTestEnv(t, chainDecl)
	err := Reconcile(context.Background(), env.store, env.registry, NopObserver{}, logr.Discard())
	require.NoError(t, err)
}

func TestReconcileClearsPendingCreateWithoutRemote(t *testing.T) {
	env := newTestEnv(t, chainDecl)
	ctx := context.Background()

	// A crash after the marker but before the remote call leaves a pending
	// create with no remote object behind it.
	require.NoError(t, env.store.Put(ctx, state.ResourceState{
		Name:      "net",
		Kind:      "box",
		Status:    state.StatusPending,
		PendingOp: state.OpCreate,
	}))

	require.NoError(t, Reconcile(ctx, env.store, env.registry, NopObserver{}, logr.Discard()))

	_, ok, err := env.store.Get("net")
	require.NoError(t, err)
	assert.False(t, ok, "orphaned pending create must be dropped")
}

func TestReconcileAdoptsRemoteObject(t *testing.T) {
	env := newTestEnv(t, chainDecl)
	ctx := context.Background()

	snapshot := cty.ObjectVal(map[string]cty.Value{
		"id":       cty.StringVal("net-id"),
		"endpoint": cty.StringVal("net.local"),
	})
	env.drv.ReadFunc = func(remoteID string) (cty.Value, error) {
		return snapshot, nil
	}

	// A crash after the remote call succeeded but before the commit.
	require.NoError(t, env.store.Put(ctx, state.ResourceState{
		Name:      "net",
		Kind:      "box",
		Status:    state.StatusPending,
		PendingOp: state.OpCreate,
	}))

	obs := &RecordingObserver{}
	require.NoError(t, Reconcile(ctx, env.store, env.registry, obs, logr.Discard()))

	st, ok, err := env.store.Get("net")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, state.StatusApplied, st.Status)
	assert.Empty(t, st.PendingOp)
	assert.Equal(t, "net", st.RemoteID)
	assert.True(t, snapshot.RawEquals(st.Outputs))
	assert.Len(t, obs.ByType(EventResourceRecovered), 1)
}

func TestReconcileMarksVanishedUpdateAbsent(t *testing.T) {
	env := newTestEnv(t, chainDecl)
	ctx := context.Background()

	require.NoError(t, env.store.Put(ctx, state.ResourceState{
		Name:      "net",
		Kind:      "box",
		RemoteID:  "net-id",
		Status:    state.StatusPending,
		PendingOp: state.OpUpdate,
	}))

	require.NoError(t, Reconcile(ctx, env.store, env.registry, NopObserver{}, logr.Discard()))

	st, ok, err := env.store.Get("net")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, state.StatusAbsent, st.Status)
	assert.Empty(t, st.RemoteID)
}

func TestReconcileUnknownKind(t *testing.T) {
	env := newTestEnv(t, chainDecl)
	ctx := context.Background()

	require.NoError(t, env.store.Put(ctx, state.ResourceState{
		Name:      "mystery",
		Kind:      "unregistered",
		Status:    state.StatusPending,
		PendingOp: state.OpCreate,
	}))

	err := Reconcile(ctx, env.store, env.registry, NopObserver{}, logr.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unregistered")
}
