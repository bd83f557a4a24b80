package driver

import (
	"context"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/opsgraph/opsgraph/internal/resource"
)

// WaitDriver implements the timed settle step: a node whose apply is a
// bounded sleep with no remote effect. It participates in ordering exactly
// like any other resource.
type WaitDriver struct{}

// NewWaitDriver creates the wait driver.
func NewWaitDriver() *WaitDriver { return &WaitDriver{} }

func (d *WaitDriver) Kind() string { return resource.KindWait }

func (d *WaitDriver) Outputs() []string { return []string{"duration"} }

// Apply sleeps for the declared duration, or until the context is
// cancelled. A wait that already completed in a previous cycle is a no-op
// (the scheduler's diff sees unchanged attributes and skips the call).
func (d *WaitDriver) Apply(ctx context.Context, req ApplyRequest) (ApplyResult, error) {
	durStr, err := StringAttr(req.Desired, "duration")
	if err != nil {
		return ApplyResult{}, err
	}
	if durStr == "" {
		durStr = "0s"
	}
	dur, err := time.ParseDuration(durStr)
	if err != nil {
		return ApplyResult{}, Permanentf("invalid wait duration %q: %v", durStr, err)
	}

	select {
	case <-ctx.Done():
		return ApplyResult{}, Transient(ctx.Err())
	case <-time.After(dur):
	}

	return ApplyResult{
		RemoteID: req.Name,
		Outputs: cty.ObjectVal(map[string]cty.Value{
			"duration": cty.StringVal(durStr),
		}),
	}, nil
}

// Read reports the wait as absent: there is no remote state to recover, so
// an interrupted wait simply runs again.
func (d *WaitDriver) Read(ctx context.Context, remoteID string) (cty.Value, error) {
	return cty.NilVal, ErrNotFound
}

func (d *WaitDriver) Delete(ctx context.Context, remoteID string) error { return nil }
