// Package driver defines the uniform operation interface the scheduler uses
// to act on resources, and the registry mapping resource kinds to drivers.
//
// Drivers implement create/read/update/delete semantics for one resource
// kind. The scheduler never talks to a provider API directly; everything
// goes through this interface. Credentials and provider configuration are
// threaded into driver constructors explicitly, never read from ambient
// globals.
package driver

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// ApplyRequest carries the desired attributes of one resource operation.
type ApplyRequest struct {
	// Name is the logical resource name.
	Name string

	// Desired is the fully resolved attribute object.
	Desired cty.Value

	// PriorID is the remote identifier from the last applied state, empty
	// on first create.
	PriorID string

	// PriorOutputs is the output snapshot from the last applied state,
	// cty.NilVal on first create.
	PriorOutputs cty.Value
}

// ApplyResult is the outcome of a successful apply.
type ApplyResult struct {
	// RemoteID is the provider-assigned identifier.
	RemoteID string

	// Outputs is the snapshot exposed to dependent resources.
	Outputs cty.Value
}

// Driver implements the operations for one resource kind.
type Driver interface {
	// Kind returns the resource kind this driver handles.
	Kind() string

	// Outputs returns the names of the outputs Apply exposes, used for
	// static reference checking.
	Outputs() []string

	// Apply creates or updates the remote resource to match the desired
	// attributes. It must be idempotent: applying the same desired state
	// twice yields the same remote state. Failures are classified with
	// Transient or Permanent.
	Apply(ctx context.Context, req ApplyRequest) (ApplyResult, error)

	// Read fetches the current remote snapshot by identifier, returning
	// ErrNotFound when the resource does not exist remotely.
	Read(ctx context.Context, remoteID string) (cty.Value, error)

	// Delete removes the remote resource. Deleting an absent resource is
	// not an error.
	Delete(ctx context.Context, remoteID string) error
}

// AttrReader is implemented by drivers whose remote lookup needs the
// declared attributes in addition to the identifier, typically because the
// attributes carry the credentials that locate the remote system.
type AttrReader interface {
	ReadWith(ctx context.Context, remoteID string, attrs cty.Value) (cty.Value, error)
}

// AttrDeleter is the deletion counterpart of AttrReader.
type AttrDeleter interface {
	DeleteWith(ctx context.Context, remoteID string, attrs cty.Value) error
}

// ReadRemote reads a remote snapshot, preferring the attribute-aware path
// when the driver provides one.
func ReadRemote(ctx context.Context, drv Driver, remoteID string, attrs cty.Value) (cty.Value, error) {
	if ar, ok := drv.(AttrReader); ok {
		return ar.ReadWith(ctx, remoteID, attrs)
	}
	return drv.Read(ctx, remoteID)
}

// DeleteRemote deletes a remote resource, preferring the attribute-aware
// path when the driver provides one.
func DeleteRemote(ctx context.Context, drv Driver, remoteID string, attrs cty.Value) error {
	if ad, ok := drv.(AttrDeleter); ok {
		return ad.DeleteWith(ctx, remoteID, attrs)
	}
	return drv.Delete(ctx, remoteID)
}
