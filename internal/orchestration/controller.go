package orchestration

import (
	"sync"

	"github.com/opsgraph/opsgraph/internal/graph"
)

// skipRecord names a transitively skipped resource and the terminal
// dependency that caused the skip.
type skipRecord struct {
	name  string
	cause string
}

// cycleController owns the per-cycle bookkeeping: the status of every node,
// the count of unfinished dependencies per node, and the ready queue. All
// mutation goes through the mutex; the queue is buffered for the whole
// graph so enqueueing under the lock never blocks.
type cycleController struct {
	graph *graph.Graph
	queue chan string

	mu        sync.Mutex
	status    map[string]Status
	remaining map[string]int
	// blocked maps a node to the first terminal dependency that failed or
	// was skipped. A blocked node is skipped when its last dependency
	// finishes, never dispatched.
	blocked   map[string]string
	failures  map[string]error
	skipCause map[string]string
	done      int
}

func newCycleController(g *graph.Graph) *cycleController {
	c := &cycleController{
		graph:     g,
		queue:     make(chan string, len(g.Order)),
		status:    make(map[string]Status, len(g.Order)),
		remaining: make(map[string]int, len(g.Order)),
		blocked:   make(map[string]string),
		failures:  make(map[string]error),
		skipCause: make(map[string]string),
	}
	for _, name := range g.Order {
		c.status[name] = StatusPending
		c.remaining[name] = len(g.Dependencies[name])
	}
	// Roots are ready immediately, in declaration order.
	for _, name := range g.Order {
		if c.remaining[name] == 0 {
			c.queue <- name
		}
	}
	return c
}

func (c *cycleController) setStatus(name string, st Status) {
	c.mu.Lock()
	c.status[name] = st
	c.mu.Unlock()
}

func (c *cycleController) statusOf(name string) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status[name]
}

// complete records a terminal status for name and cascades readiness.
// Dependents whose last dependency just finished are either enqueued or,
// when any dependency failed or was skipped, marked skipped in turn. The
// cascade is iterative so a deep chain of skips resolves in one call.
// Returned skip records are for nodes skipped by this cascade; the caller
// persists and reports them outside the lock.
func (c *cycleController) complete(name string, st Status, cause error, skipCause string) []skipRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	var skips []skipRecord
	stack := []skipRecord{{name: name}}
	first := true

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		curStatus := st
		if !first {
			curStatus = StatusSkipped
			c.skipCause[cur.name] = cur.cause
			skips = append(skips, cur)
		} else {
			first = false
			if cause != nil {
				c.failures[cur.name] = cause
			}
			if skipCause != "" {
				c.skipCause[cur.name] = skipCause
			}
		}
		c.status[cur.name] = curStatus
		c.done++

		terminalBad := curStatus == StatusFailed || curStatus == StatusSkipped
		for _, dep := range c.graph.Dependents[cur.name] {
			if terminalBad {
				if _, ok := c.blocked[dep]; !ok {
					c.blocked[dep] = cur.name
				}
			}
			c.remaining[dep]--
			if c.remaining[dep] > 0 {
				continue
			}
			if blocker, ok := c.blocked[dep]; ok {
				stack = append(stack, skipRecord{name: dep, cause: blocker})
			} else {
				c.queue <- dep
			}
		}
	}

	if c.done == len(c.graph.Order) {
		close(c.queue)
	}
	return skips
}

// fill copies the terminal bookkeeping into a summary, preserving
// declaration order within each outcome bucket.
func (c *cycleController) fill(s *Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range c.graph.Order {
		st := c.status[name]
		s.Statuses[name] = st
		switch st {
		case StatusApplied:
			s.Applied = append(s.Applied, name)
		case StatusFailed:
			s.Failed = append(s.Failed, name)
			s.Failures[name] = c.failures[name]
		case StatusSkipped:
			s.Skipped = append(s.Skipped, name)
			s.SkipCause[name] = c.skipCause[name]
		}
	}
}
