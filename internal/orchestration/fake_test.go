package orchestration

import (
	"context"
	"sync"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/opsgraph/opsgraph/internal/driver"
	"github.com/opsgraph/opsgraph/internal/graph"
	"github.com/opsgraph/opsgraph/internal/resolve"
	"github.com/opsgraph/opsgraph/internal/resource"
	"github.com/opsgraph/opsgraph/internal/state"
)

// fakeDriver is a scriptable driver for scheduler tests. Per-method Func
// fields override the default behavior, which applies instantly and names
// the remote object after the request.
type fakeDriver struct {
	kind string

	ApplyFunc  func(req driver.ApplyRequest) (driver.ApplyResult, error)
	ReadFunc   func(remoteID string) (cty.Value, error)
	DeleteFunc func(remoteID string) error

	mu      sync.Mutex
	applies []driver.ApplyRequest
	deletes []string
}

func newFakeDriver(kind string) *fakeDriver {
	return &fakeDriver{kind: kind}
}

func (d *fakeDriver) Kind() string { return d.kind }

func (d *fakeDriver) Outputs() []string { return []string{"id", "endpoint"} }

func (d *fakeDriver) Apply(_ context.Context, req driver.ApplyRequest) (driver.ApplyResult, error) {
	d.mu.Lock()
	d.applies = append(d.applies, req)
	d.mu.Unlock()

	if d.ApplyFunc != nil {
		return d.ApplyFunc(req)
	}
	return driver.ApplyResult{
		RemoteID: req.Name + "-id",
		Outputs: cty.ObjectVal(map[string]cty.Value{
			"id":       cty.StringVal(req.Name + "-id"),
			"endpoint": cty.StringVal(req.Name + ".local"),
		}),
	}, nil
}

func (d *fakeDriver) Read(_ context.Context, remoteID string) (cty.Value, error) {
	if d.ReadFunc != nil {
		return d.ReadFunc(remoteID)
	}
	return cty.NilVal, driver.ErrNotFound
}

func (d *fakeDriver) Delete(_ context.Context, remoteID string) error {
	d.mu.Lock()
	d.deletes = append(d.deletes, remoteID)
	d.mu.Unlock()

	if d.DeleteFunc != nil {
		return d.DeleteFunc(remoteID)
	}
	return nil
}

// appliedNames returns the resource names passed to Apply, in call order.
func (d *fakeDriver) appliedNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, len(d.applies))
	for i, req := range d.applies {
		names[i] = req.Name
	}
	return names
}

func (d *fakeDriver) applyCount(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, req := range d.applies {
		if req.Name == name {
			n++
		}
	}
	return n
}

func (d *fakeDriver) lastApply(name string) (driver.ApplyRequest, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(d.applies) - 1; i >= 0; i-- {
		if d.applies[i].Name == name {
			return d.applies[i], true
		}
	}
	return driver.ApplyRequest{}, false
}

// testingT is the slice of testing.T used by the fixtures, satisfied by
// both *testing.T and GinkgoT().
type testingT interface {
	require.TestingT
	Helper()
	TempDir() string
}

// testEnv bundles everything one scheduler cycle needs.
type testEnv struct {
	set      *resource.Set
	graph    *graph.Graph
	store    *state.Store
	registry *driver.Registry
	drv      *fakeDriver
}

// newTestEnv parses declarations, compiles the graph against a single "box"
// fake driver, and opens a file-backed store in a temp dir.
func newTestEnv(t testingT, decl string) *testEnv {
	t.Helper()

	set, err := resource.Load([]byte(decl))
	require.NoError(t, err)
	require.NoError(t, set.BindVariables(nil))

	drv := newFakeDriver("box")
	registry := driver.NewRegistry()
	require.NoError(t, registry.Register(drv))

	g, err := graph.Build(set, registry)
	require.NoError(t, err)

	store, err := state.NewStore(context.Background(), state.NewFileBackend(t.TempDir()+"/state.json"))
	require.NoError(t, err)

	return &testEnv{set: set, graph: g, store: store, registry: registry, drv: drv}
}

func (e *testEnv) scheduler(cfg Config) *Scheduler {
	if cfg.Observer == nil {
		cfg.Observer = NopObserver{}
	}
	if cfg.InitialDelay == 0 {
		cfg.InitialDelay = 1 // effectively no backoff in tests
	}
	return NewScheduler(e.graph, resolve.NewResolver(e.set), e.store, e.registry, cfg)
}
