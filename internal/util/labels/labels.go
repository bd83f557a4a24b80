// Package labels provides consistent labeling for provider resources.
//
// All labels use the opsgraph.io domain prefix so remote objects created by
// opsgraph can be identified, grouped and recovered by selector.
package labels

// Standard label keys.
const (
	// KeyCluster identifies which cluster resource owns a server.
	KeyCluster = "opsgraph.io/cluster"

	// KeyPool identifies the server pool a member belongs to.
	KeyPool = "opsgraph.io/pool"

	// KeyManagedBy identifies the management system.
	KeyManagedBy = "opsgraph.io/managed-by"
)

// ManagedByOpsgraph is the value recorded under KeyManagedBy.
const ManagedByOpsgraph = "opsgraph"

// ForPool returns the labels for a pool member, merged over the declared
// extra labels.
func ForPool(pool string, extra map[string]string) map[string]string {
	return merge(extra, map[string]string{
		KeyPool:      pool,
		KeyManagedBy: ManagedByOpsgraph,
	})
}

// ForCluster returns the labels for a cluster server, merged over the
// declared extra labels.
func ForCluster(cluster string, extra map[string]string) map[string]string {
	return merge(extra, map[string]string{
		KeyCluster:   cluster,
		KeyManagedBy: ManagedByOpsgraph,
	})
}

// PoolSelector returns the label selector matching all members of a pool.
func PoolSelector(pool string) string {
	return KeyPool + "=" + pool
}

func merge(extra, own map[string]string) map[string]string {
	out := make(map[string]string, len(extra)+len(own))
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range own {
		out[k] = v
	}
	return out
}
