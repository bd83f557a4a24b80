package orchestration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/opsgraph/opsgraph/internal/driver"
	"github.com/opsgraph/opsgraph/internal/graph"
	"github.com/opsgraph/opsgraph/internal/resolve"
	"github.com/opsgraph/opsgraph/internal/state"
	"github.com/opsgraph/opsgraph/internal/util/retry"
)

// Status is the cycle-local status of a resource. Terminal statuses are
// applied, failed, and skipped; a cycle completes when every node is
// terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusResolving Status = "resolving"
	StatusApplying  Status = "applying"
	StatusApplied   Status = "applied"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Config tunes one apply cycle.
type Config struct {
	// Concurrency bounds the worker pool. Values below 1 mean 1.
	Concurrency int

	// MaxRetries is the retry budget per transient driver failure.
	MaxRetries int

	// InitialDelay and MaxDelay shape the retry backoff.
	InitialDelay time.Duration
	MaxDelay     time.Duration

	Observer Observer
	Logger   logr.Logger
}

func (c Config) withDefaults() Config {
	if c.Concurrency < 1 {
		c.Concurrency = 4
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.InitialDelay == 0 {
		c.InitialDelay = 1 * time.Second
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.Observer == nil {
		c.Observer = NewConsoleObserver()
	}
	if c.Logger.GetSink() == nil {
		c.Logger = logr.Discard()
	}
	return c
}

// Scheduler drives one apply cycle over a compiled graph.
type Scheduler struct {
	graph    *graph.Graph
	resolver *resolve.Resolver
	store    *state.Store
	registry *driver.Registry
	cfg      Config
	log      logr.Logger

	ctrl *cycleController
}

// NewScheduler assembles a scheduler for one apply cycle. The resolver must
// be fresh: resolution results are memoized per cycle.
func NewScheduler(g *graph.Graph, r *resolve.Resolver, store *state.Store, registry *driver.Registry, cfg Config) *Scheduler {
	cfg = cfg.withDefaults()
	return &Scheduler{
		graph:    g,
		resolver: r,
		store:    store,
		registry: registry,
		cfg:      cfg,
		log:      cfg.Logger,
	}
}

// Run executes the apply cycle: every node is driven to a terminal status,
// respecting dependency order and the concurrency bound. The returned
// summary lists the outcome per resource; the error return is reserved for
// infrastructure failures (state persistence, scheduling bugs), not for
// resource failures.
func (s *Scheduler) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	total := len(s.graph.Order)

	summary := &Summary{
		Statuses:  make(map[string]Status, total),
		Failures:  make(map[string]error),
		SkipCause: make(map[string]string),
	}
	if total == 0 {
		summary.Duration = time.Since(start)
		return summary, nil
	}

	s.ctrl = newCycleController(s.graph)
	s.cfg.Observer.Printf("Applying %d resources (concurrency %d)...", total, s.cfg.Concurrency)

	workers := s.cfg.Concurrency
	if workers > total {
		workers = total
	}

	// abort is closed on an infrastructure error (state persistence,
	// scheduling bug) so idle workers do not wait on a queue that will
	// never close. Resource failures never abort; they cascade as skips.
	abort := make(chan struct{})
	var abortOnce sync.Once

	var eg errgroup.Group
	for range workers {
		eg.Go(func() error {
			for {
				select {
				case <-abort:
					return nil
				case name, ok := <-s.ctrl.queue:
					if !ok {
						return nil
					}
					if err := s.process(ctx, name); err != nil {
						abortOnce.Do(func() { close(abort) })
						return err
					}
				}
			}
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	s.ctrl.fill(summary)
	summary.Cancelled = ctx.Err() != nil
	summary.Duration = time.Since(start)

	s.report(summary)
	return summary, nil
}

// process drives a single ready node to a terminal status.
func (s *Scheduler) process(ctx context.Context, name string) error {
	node := s.graph.Nodes[name]
	obs := s.cfg.Observer

	// Cancellation stops dispatching: nodes that were queued but not yet
	// started are skipped, not applied.
	if ctx.Err() != nil {
		obs.Event(Event{Type: EventResourceSkipped, Resource: name, Message: "run cancelled"})
		return s.finish(ctx, name, StatusSkipped, nil, "cancelled")
	}

	s.ctrl.setStatus(name, StatusResolving)
	desired, err := s.resolver.ResolveAttrs(node)
	if err != nil {
		if resolve.IsContractViolation(err) {
			// Ordering is supposed to make this impossible.
			return fmt.Errorf("scheduler ordering bug: %w", err)
		}
		obs.Event(Event{Type: EventResourceFailed, Resource: name, Message: err.Error()})
		if serr := s.commitFailure(ctx, node.Name, node.Kind, err); serr != nil {
			return serr
		}
		return s.finish(ctx, name, StatusFailed, err, "")
	}

	prior, _, err := s.store.Get(name)
	if err != nil {
		return err
	}

	op := state.DeriveOp(prior, desired)
	if op == state.OpNoop {
		observeOperation(node.Kind, "noop", 0)
		obs.Event(Event{Type: EventResourceUnchanged, Resource: name})
		s.resolver.Publish(name, prior.Outputs)
		return s.finish(ctx, name, StatusApplied, nil, "")
	}

	s.ctrl.setStatus(name, StatusApplying)
	obs.Event(Event{Type: EventResourceApplying, Resource: name, Message: string(op)})

	drv, ok := s.registry.Get(node.Kind)
	if !ok {
		err := fmt.Errorf("no driver registered for kind %q", node.Kind)
		if serr := s.commitFailure(ctx, node.Name, node.Kind, err); serr != nil {
			return serr
		}
		return s.finish(ctx, name, StatusFailed, err, "")
	}

	// Pending marker: written before the remote call, cleared only after
	// confirmation. A crash in between is recovered by Reconcile.
	if err := s.store.Update(ctx, name, func(st *state.ResourceState) error {
		st.Kind = node.Kind
		st.Status = state.StatusPending
		st.PendingOp = op
		st.Attrs = desired
		return nil
	}); err != nil {
		return err
	}

	// In-flight operations run to completion even when the cycle is
	// cancelled; only new dispatches stop. Retries still respect the
	// cancellable context.
	opCtx := context.WithoutCancel(ctx)
	applyStart := time.Now()
	var result driver.ApplyResult
	applyErr := retry.WithExponentialBackoff(ctx, func() error {
		res, err := drv.Apply(opCtx, driver.ApplyRequest{
			Name:         name,
			Desired:      desired,
			PriorID:      prior.RemoteID,
			PriorOutputs: prior.Outputs,
		})
		if err != nil {
			return driver.Classify(err)
		}
		result = res
		return nil
	},
		retry.WithMaxRetries(s.cfg.MaxRetries),
		retry.WithInitialDelay(s.cfg.InitialDelay),
		retry.WithMaxDelay(s.cfg.MaxDelay),
		retry.WithRetryable(driver.IsTransient),
		retry.WithOnRetry(func(attempt int, err error) {
			observeRetry(node.Kind)
			s.log.V(1).Info("retrying operation", "resource", name, "attempt", attempt, "error", err.Error())
		}),
	)

	if applyErr != nil {
		observeOperation(node.Kind, "failed", time.Since(applyStart))
		obs.Event(Event{Type: EventResourceFailed, Resource: name, Message: applyErr.Error()})
		if serr := s.commitFailure(ctx, node.Name, node.Kind, applyErr); serr != nil {
			return serr
		}
		return s.finish(ctx, name, StatusFailed, applyErr, "")
	}

	// Commit snapshot, identifier, and status atomically; this clears the
	// pending marker.
	if err := s.store.Update(ctx, name, func(st *state.ResourceState) error {
		st.Kind = node.Kind
		st.Status = state.StatusApplied
		st.PendingOp = ""
		st.RemoteID = result.RemoteID
		st.Attrs = desired
		st.Outputs = result.Outputs
		st.LastError = ""
		return nil
	}); err != nil {
		return err
	}

	observeOperation(node.Kind, string(op), time.Since(applyStart))
	obs.Event(Event{Type: EventResourceApplied, Resource: name, Message: string(op)})

	// Publish before the terminal transition so dependents enqueued by it
	// always see the outputs.
	s.resolver.Publish(name, result.Outputs)
	return s.finish(ctx, name, StatusApplied, nil, "")
}

// finish records a terminal status and cascades readiness: dependents with
// all dependencies terminal are enqueued, or skipped transitively when a
// dependency failed.
func (s *Scheduler) finish(ctx context.Context, name string, st Status, cause error, skipCause string) error {
	skipped := s.ctrl.complete(name, st, cause, skipCause)
	for _, sk := range skipped {
		s.cfg.Observer.Event(Event{
			Type:     EventResourceSkipped,
			Resource: sk.name,
			Message:  fmt.Sprintf("dependency %s %s", sk.cause, s.ctrl.statusOf(sk.cause)),
		})
		// Previously applied resources keep their snapshot; only the last
		// error is annotated.
		if err := s.store.Update(ctx, sk.name, func(rs *state.ResourceState) error {
			if node, ok := s.graph.Nodes[sk.name]; ok {
				rs.Kind = node.Kind
			}
			rs.LastError = fmt.Sprintf("skipped: dependency %s did not apply", sk.cause)
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) commitFailure(ctx context.Context, name, kind string, cause error) error {
	return s.store.Update(ctx, name, func(st *state.ResourceState) error {
		st.Kind = kind
		st.Status = state.StatusFailed
		st.PendingOp = ""
		st.LastError = cause.Error()
		return nil
	})
}

func (s *Scheduler) report(summary *Summary) {
	obs := s.cfg.Observer
	obs.Printf("Cycle finished in %v: %d applied, %d failed, %d skipped",
		summary.Duration.Round(time.Millisecond),
		len(summary.Applied), len(summary.Failed), len(summary.Skipped))
	for _, name := range summary.Failed {
		obs.Printf("  failed: %s: %v", name, summary.Failures[name])
	}
	for _, name := range summary.Skipped {
		obs.Printf("  skipped: %s (because of %s)", name, summary.SkipCause[name])
	}
}
