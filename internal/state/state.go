// Package state persists the mapping from logical resource names to
// provider-assigned identifiers and last-applied attribute snapshots.
//
// The store is the only shared mutable structure in an apply cycle. Every
// access is a single atomic read-modify-write keyed by logical name, and
// each mutation is written through to the backend before it returns, so a
// crash never loses a committed transition. A pending marker is written
// before any remote call and cleared only after confirmation; resources
// left pending are recovered by the reconciliation pass.
package state

import (
	"time"

	"github.com/zclconf/go-cty/cty"
)

// Status is the durable status of a resource.
type Status string

const (
	// StatusAbsent means the resource has never been applied.
	StatusAbsent Status = "absent"
	// StatusPending means a remote call was started but not confirmed.
	StatusPending Status = "pending"
	// StatusApplied means the snapshot matches the remote resource.
	StatusApplied Status = "applied"
	// StatusFailed means the last operation failed permanently.
	StatusFailed Status = "failed"
)

// Op is the operation derived by diffing desired attributes against the
// last-applied snapshot.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpNoop   Op = "noop"
	OpDelete Op = "delete"
)

// ResourceState is the persisted record for one logical resource.
type ResourceState struct {
	Name     string
	Kind     string
	RemoteID string
	Status   Status

	// PendingOp records which operation was in flight when Status is
	// pending, so reconciliation knows what to look for.
	PendingOp Op

	// Attrs is the last-applied desired attribute object; diffing against
	// it decides whether a new apply is needed.
	Attrs cty.Value

	// Outputs is the last snapshot returned by the driver, the values
	// exposed to dependent resources.
	Outputs cty.Value

	UpdatedAt time.Time
	LastError string
}

// DeriveOp computes the operation needed to bring the resource from its
// recorded state to the desired attributes. An applied resource whose
// attributes are unchanged yields OpNoop: no driver call at all.
func DeriveOp(prior ResourceState, desired cty.Value) Op {
	if prior.Status != StatusApplied || prior.RemoteID == "" {
		return OpCreate
	}
	if prior.Attrs == cty.NilVal || !prior.Attrs.RawEquals(desired) {
		return OpUpdate
	}
	return OpNoop
}
