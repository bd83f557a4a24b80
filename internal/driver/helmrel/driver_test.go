package helmrel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/opsgraph/opsgraph/internal/driver"
)

func releaseDesired(extra map[string]cty.Value) cty.Value {
	attrs := map[string]cty.Value{
		"chart":    cty.StringVal("ingress-nginx"),
		"repo":     cty.StringVal("https://kubernetes.github.io/ingress-nginx"),
		"version":  cty.StringVal("4.11.0"),
		"endpoint": cty.StringVal("https://192.0.2.10:6443"),
		"token":    cty.StringVal("abc123.def456"),
	}
	for k, v := range extra {
		attrs[k] = v
	}
	return cty.ObjectVal(attrs)
}

// capturingFactory records what the driver asked for and hands out the mock.
type capturingFactory struct {
	mock       *MockClient
	kubeconfig []byte
	namespace  string
}

func (f *capturingFactory) build(kubeconfig []byte, namespace string) (Client, error) {
	f.kubeconfig = kubeconfig
	f.namespace = namespace
	return f.mock, nil
}

func TestApplyInstallsRelease(t *testing.T) {
	var got ReleaseSpec
	factory := &capturingFactory{mock: &MockClient{
		InstallOrUpgradeFunc: func(_ context.Context, spec ReleaseSpec) (*ReleaseInfo, error) {
			got = spec
			return &ReleaseInfo{Name: spec.Name, Namespace: "default", Revision: 1, Status: "deployed", ChartVersion: spec.Version}, nil
		},
	}}

	res, err := NewWithFactory(factory.build).Apply(context.Background(), driver.ApplyRequest{
		Name:    "ingress",
		Desired: releaseDesired(nil),
	})
	require.NoError(t, err)

	assert.Equal(t, "ingress", got.Name)
	assert.Equal(t, "ingress-nginx", got.Chart)
	assert.Equal(t, "4.11.0", got.Version)
	assert.Equal(t, "default/ingress", res.RemoteID)
	assert.Equal(t, "default", factory.namespace)
	assert.Contains(t, string(factory.kubeconfig), "https://192.0.2.10:6443")
	assert.Contains(t, string(factory.kubeconfig), "abc123.def456")

	assert.Equal(t, "deployed", res.Outputs.GetAttr("status").AsString())
	rev, _ := res.Outputs.GetAttr("revision").AsBigFloat().Int64()
	assert.Equal(t, int64(1), rev)
}

func TestApplyUsesDeclaredNamespace(t *testing.T) {
	factory := &capturingFactory{mock: &MockClient{}}

	res, err := NewWithFactory(factory.build).Apply(context.Background(), driver.ApplyRequest{
		Name: "ingress",
		Desired: releaseDesired(map[string]cty.Value{
			"namespace": cty.StringVal("ingress-system"),
		}),
	})
	require.NoError(t, err)
	assert.Equal(t, "ingress-system", factory.namespace)
	assert.Equal(t, "ingress-system/ingress", res.RemoteID)
}

func TestApplyPassesInlineValues(t *testing.T) {
	var got ReleaseSpec
	factory := &capturingFactory{mock: &MockClient{
		InstallOrUpgradeFunc: func(_ context.Context, spec ReleaseSpec) (*ReleaseInfo, error) {
			got = spec
			return &ReleaseInfo{Name: spec.Name, Namespace: "default", Revision: 1, Status: "deployed"}, nil
		},
	}}

	_, err := NewWithFactory(factory.build).Apply(context.Background(), driver.ApplyRequest{
		Name: "ingress",
		Desired: releaseDesired(map[string]cty.Value{
			"values": cty.ObjectVal(map[string]cty.Value{
				"replicaCount": cty.NumberIntVal(2),
				"service": cty.ObjectVal(map[string]cty.Value{
					"type": cty.StringVal("LoadBalancer"),
				}),
			}),
		}),
	})
	require.NoError(t, err)

	assert.Equal(t, float64(2), got.Values["replicaCount"])
	svc, ok := got.Values["service"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "LoadBalancer", svc["type"])
}

func TestApplyMergesValuesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "values.yaml")
	require.NoError(t, os.WriteFile(path, []byte("replicaCount: 1\nnodeSelector:\n  role: worker\n"), 0o600))

	var got ReleaseSpec
	factory := &capturingFactory{mock: &MockClient{
		InstallOrUpgradeFunc: func(_ context.Context, spec ReleaseSpec) (*ReleaseInfo, error) {
			got = spec
			return &ReleaseInfo{Name: spec.Name, Namespace: "default", Revision: 1, Status: "deployed"}, nil
		},
	}}

	_, err := NewWithFactory(factory.build).Apply(context.Background(), driver.ApplyRequest{
		Name: "ingress",
		Desired: releaseDesired(map[string]cty.Value{
			"values_file": cty.StringVal(path),
			"values": cty.ObjectVal(map[string]cty.Value{
				"replicaCount": cty.NumberIntVal(3),
			}),
		}),
	})
	require.NoError(t, err)

	// Inline values win over the file.
	assert.Equal(t, float64(3), got.Values["replicaCount"])
	sel, ok := got.Values["nodeSelector"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "worker", sel["role"])
}

func TestApplyMissingChartIsPermanent(t *testing.T) {
	factory := &capturingFactory{mock: &MockClient{}}
	_, err := NewWithFactory(factory.build).Apply(context.Background(), driver.ApplyRequest{
		Name: "ingress",
		Desired: cty.ObjectVal(map[string]cty.Value{
			"repo":     cty.StringVal("https://charts.example.com"),
			"endpoint": cty.StringVal("https://192.0.2.10:6443"),
			"token":    cty.StringVal("t"),
		}),
	})
	require.Error(t, err)
	assert.True(t, driver.IsPermanent(err))
}

func TestApplyConnectionRefusedIsTransient(t *testing.T) {
	factory := &capturingFactory{mock: &MockClient{
		InstallOrUpgradeFunc: func(context.Context, ReleaseSpec) (*ReleaseInfo, error) {
			return nil, errors.New("Get \"https://192.0.2.10:6443/version\": connection refused")
		},
	}}
	_, err := NewWithFactory(factory.build).Apply(context.Background(), driver.ApplyRequest{
		Name:    "ingress",
		Desired: releaseDesired(nil),
	})
	require.Error(t, err)
	assert.True(t, driver.IsTransient(err))
}

func TestReadWithReturnsSnapshot(t *testing.T) {
	factory := &capturingFactory{mock: &MockClient{
		StatusFunc: func(name string) (*ReleaseInfo, error) {
			return &ReleaseInfo{Name: name, Namespace: "default", Revision: 4, Status: "deployed", ChartVersion: "4.11.0"}, nil
		},
	}}

	snap, err := NewWithFactory(factory.build).ReadWith(context.Background(), "default/ingress", releaseDesired(nil))
	require.NoError(t, err)
	assert.Equal(t, "ingress", snap.GetAttr("name").AsString())
	assert.Equal(t, "4.11.0", snap.GetAttr("chart_version").AsString())
}

func TestReadWithAbsentRelease(t *testing.T) {
	factory := &capturingFactory{mock: &MockClient{
		StatusFunc: func(string) (*ReleaseInfo, error) { return nil, nil },
	}}

	_, err := NewWithFactory(factory.build).ReadWith(context.Background(), "default/ingress", releaseDesired(nil))
	assert.True(t, errors.Is(err, driver.ErrNotFound))
}

func TestDeleteWithUninstalls(t *testing.T) {
	var uninstalled string
	factory := &capturingFactory{mock: &MockClient{
		UninstallFunc: func(name string) error {
			uninstalled = name
			return nil
		},
	}}

	err := NewWithFactory(factory.build).DeleteWith(context.Background(), "default/ingress", releaseDesired(nil))
	require.NoError(t, err)
	assert.Equal(t, "ingress", uninstalled)
}

func TestReadWithoutAttrsIsPermanent(t *testing.T) {
	_, err := New().Read(context.Background(), "default/ingress")
	assert.True(t, driver.IsPermanent(err))
	assert.True(t, driver.IsPermanent(New().Delete(context.Background(), "default/ingress")))
}

func TestMapErrHeuristics(t *testing.T) {
	cases := []struct {
		err       error
		transient bool
	}{
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("request timed out"), true},
		{errors.New("etcdserver: leader changed"), true},
		{errors.New("another operation (install/upgrade/rollback) is in progress"), true},
		{errors.New("chart \"missing\" not found in repo"), false},
		{errors.New("Unauthorized"), false},
		{errors.New("values don't meet the specifications of the schema(s): invalid type"), false},
		{errors.New("no route to host"), true}, // unknown errors retry
	}
	for _, tc := range cases {
		mapped := mapErr(tc.err)
		if tc.transient {
			assert.True(t, driver.IsTransient(mapped), "expected transient: %v", tc.err)
		} else {
			assert.True(t, driver.IsPermanent(mapped), "expected permanent: %v", tc.err)
		}
	}
}
