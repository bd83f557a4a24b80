package orchestration

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/opsgraph/opsgraph/internal/driver"
	"github.com/opsgraph/opsgraph/internal/state"
)

// Reconcile resolves pending markers left by an interrupted run. For each
// resource stuck in pending, the driver reads the remote system: a found
// object means the interrupted call took effect and the resource is
// committed as applied; a missing object means it never happened and the
// marker is cleared. Run this before every apply cycle.
func Reconcile(ctx context.Context, store *state.Store, registry *driver.Registry, obs Observer, log logr.Logger) error {
	pending, err := store.Pending()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	obs.Printf("Recovering %d interrupted operation(s)...", len(pending))
	for _, st := range pending {
		drv, ok := registry.Get(st.Kind)
		if !ok {
			return fmt.Errorf("reconcile %s: no driver registered for kind %q", st.Name, st.Kind)
		}

		// Remote objects are addressed by the logical name when the
		// interrupted operation never returned an identifier.
		remoteID := st.RemoteID
		if remoteID == "" {
			remoteID = st.Name
		}

		snapshot, err := driver.ReadRemote(ctx, drv, remoteID, st.Attrs)
		switch {
		case errors.Is(err, driver.ErrNotFound):
			// The remote call never took effect. Clear the marker so the
			// next cycle retries from scratch.
			log.V(1).Info("pending operation left no remote object", "resource", st.Name)
			if st.PendingOp == state.OpCreate {
				if err := store.Delete(ctx, st.Name); err != nil {
					return err
				}
			} else {
				// The object vanished mid-update. Record it absent so the
				// next cycle recreates it.
				if err := store.Update(ctx, st.Name, func(rs *state.ResourceState) error {
					rs.Status = state.StatusAbsent
					rs.PendingOp = ""
					rs.RemoteID = ""
					return nil
				}); err != nil {
					return err
				}
			}
		case err != nil:
			return fmt.Errorf("reconcile %s: reading remote state: %w", st.Name, err)
		default:
			// The remote call took effect. Adopt the remote snapshot.
			if err := store.Update(ctx, st.Name, func(rs *state.ResourceState) error {
				rs.Status = state.StatusApplied
				rs.PendingOp = ""
				rs.RemoteID = remoteID
				rs.Outputs = snapshot
				rs.LastError = ""
				return nil
			}); err != nil {
				return err
			}
			obs.Event(Event{Type: EventResourceRecovered, Resource: st.Name, Message: "adopted remote object"})
		}
	}
	return nil
}
