package handlers

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/opsgraph/opsgraph/internal/config"
	"github.com/opsgraph/opsgraph/internal/driver"
)

// fakeDriver is a minimal in-memory driver for handler tests.
type fakeDriver struct {
	kind string

	mu      sync.Mutex
	applied []string
	deleted []string
	failFor map[string]error
}

func (d *fakeDriver) Kind() string      { return d.kind }
func (d *fakeDriver) Outputs() []string { return []string{"id"} }

func (d *fakeDriver) Apply(_ context.Context, req driver.ApplyRequest) (driver.ApplyResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err, ok := d.failFor[req.Name]; ok {
		return driver.ApplyResult{}, err
	}
	d.applied = append(d.applied, req.Name)
	return driver.ApplyResult{
		RemoteID: req.Name + "-id",
		Outputs:  cty.ObjectVal(map[string]cty.Value{"id": cty.StringVal(req.Name + "-id")}),
	}, nil
}

func (d *fakeDriver) Read(_ context.Context, _ string) (cty.Value, error) {
	return cty.NilVal, driver.ErrNotFound
}

func (d *fakeDriver) Delete(_ context.Context, remoteID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deleted = append(d.deleted, remoteID)
	return nil
}

// useFakeRegistry swaps the registry factory for one that only knows the
// given drivers, restoring it when the test ends.
func useFakeRegistry(t *testing.T, drivers ...driver.Driver) {
	t.Helper()
	orig := newRegistry
	newRegistry = func(*config.Config) (*driver.Registry, error) {
		registry := driver.NewRegistry()
		for _, d := range drivers {
			if err := registry.Register(d); err != nil {
				return nil, err
			}
		}
		return registry, nil
	}
	t.Cleanup(func() { newRegistry = orig })
}

// scaffold writes a declaration and a config pointing at it, both inside a
// temp dir, and returns the config path.
func scaffold(t *testing.T, declaration string) string {
	t.Helper()
	dir := t.TempDir()

	declPath := filepath.Join(dir, "stack.yaml")
	require.NoError(t, os.WriteFile(declPath, []byte(declaration), 0o600))

	cfgPath := filepath.Join(dir, "config.yaml")
	cfgBody := "declaration: " + declPath + "\nstate:\n  backend: local\n  path: " + filepath.Join(dir, "state.json") + "\nretry:\n  initial_delay: 1ms\n  max_delay: 2ms\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgBody), 0o600))

	return cfgPath
}

const chainDeclaration = `resources:
  - name: net
    kind: box
    attributes:
      label: base
  - name: clu
    kind: box
    attributes:
      parent: ${net.id}
  - name: rel
    kind: box
    attributes:
      parent: ${clu.id}
`
