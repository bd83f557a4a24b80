package orchestration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/opsgraph/opsgraph/internal/driver"
	"github.com/opsgraph/opsgraph/internal/graph"
	"github.com/opsgraph/opsgraph/internal/state"
	"github.com/opsgraph/opsgraph/internal/util/retry"
)

// Destroyer tears down tracked resources in reverse dependency order.
// Deletion is sequential: a dependency must outlive its dependents, and
// teardown is rare enough that parallelism is not worth the risk.
type Destroyer struct {
	graph    *graph.Graph
	store    *state.Store
	registry *driver.Registry
	cfg      Config
	log      logr.Logger
}

func NewDestroyer(g *graph.Graph, store *state.Store, registry *driver.Registry, cfg Config) *Destroyer {
	cfg = cfg.withDefaults()
	return &Destroyer{graph: g, store: store, registry: registry, cfg: cfg, log: cfg.Logger}
}

// Run deletes every tracked resource, dependents before dependencies.
// Resources with no state record are ignored; a missing remote object
// counts as already deleted. Records tracked in state but no longer in the
// declaration are swept after the ordered pass, so a destroy removes
// everything the store knows about. The first permanent failure aborts the
// run so dependencies of the failed resource are left intact.
func (d *Destroyer) Run(ctx context.Context) error {
	obs := d.cfg.Observer

	var targets []state.ResourceState
	for i := len(d.graph.Order) - 1; i >= 0; i-- {
		st, ok, err := d.store.Get(d.graph.Order[i])
		if err != nil {
			return err
		}
		if ok {
			targets = append(targets, st)
		}
	}

	tracked, err := d.store.List()
	if err != nil {
		return err
	}
	for _, st := range tracked {
		if _, declared := d.graph.Nodes[st.Name]; !declared {
			targets = append(targets, st)
		}
	}
	if len(targets) == 0 {
		obs.Printf("Nothing to destroy.")
		return nil
	}

	obs.Printf("Destroying %d resources...", len(targets))
	for _, st := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.destroyOne(ctx, st); err != nil {
			return err
		}
	}
	obs.Printf("Destroy complete.")
	return nil
}

func (d *Destroyer) destroyOne(ctx context.Context, st state.ResourceState) error {
	obs := d.cfg.Observer
	drv, ok := d.registry.Get(st.Kind)
	if !ok {
		return fmt.Errorf("destroy %s: no driver registered for kind %q", st.Name, st.Kind)
	}

	remoteID := st.RemoteID
	if remoteID == "" {
		remoteID = st.Name
	}

	obs.Event(Event{Type: EventResourceDeleting, Resource: st.Name})
	start := time.Now()
	err := retry.WithExponentialBackoff(ctx, func() error {
		if err := driver.DeleteRemote(ctx, drv, remoteID, st.Attrs); err != nil {
			if errors.Is(err, driver.ErrNotFound) {
				return nil
			}
			return driver.Classify(err)
		}
		return nil
	},
		retry.WithMaxRetries(d.cfg.MaxRetries),
		retry.WithInitialDelay(d.cfg.InitialDelay),
		retry.WithMaxDelay(d.cfg.MaxDelay),
		retry.WithRetryable(driver.IsTransient),
		retry.WithOnRetry(func(attempt int, err error) {
			observeRetry(st.Kind)
			d.log.V(1).Info("retrying delete", "resource", st.Name, "attempt", attempt, "error", err.Error())
		}),
	)
	if err != nil {
		observeOperation(st.Kind, "delete_failed", time.Since(start))
		obs.Event(Event{Type: EventResourceFailed, Resource: st.Name, Message: err.Error()})
		return fmt.Errorf("destroy %s: %w", st.Name, err)
	}

	observeOperation(st.Kind, string(state.OpDelete), time.Since(start))
	obs.Event(Event{Type: EventResourceDeleted, Resource: st.Name})
	return d.store.Delete(ctx, st.Name)
}
