// Package orchestration executes resource operations over the dependency
// graph.
//
// The scheduler walks the DAG in topological order with a bounded worker
// pool. Readiness is event-driven: a resource becomes dispatchable the
// moment its last dependency reaches a terminal status for the cycle.
// Transient driver failures are retried with exponential backoff; permanent
// failures mark the resource failed and every transitive dependent skipped,
// while unrelated subgraphs continue. All state transitions are committed
// through the state store, with a pending marker around every remote call
// so an interrupted run can be reconciled.
package orchestration
