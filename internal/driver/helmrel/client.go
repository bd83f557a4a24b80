// Package helmrel implements the Helm release driver: a resource whose apply
// installs or upgrades a chart in a cluster reached through endpoint and
// token attributes resolved from another resource.
package helmrel

import "context"

// ReleaseSpec names a chart and the values to render it with.
type ReleaseSpec struct {
	Name    string
	RepoURL string
	Chart   string
	Version string
	Values  map[string]any
}

// ReleaseInfo is the subset of release state exposed as outputs.
type ReleaseInfo struct {
	Name         string
	Namespace    string
	Revision     int
	Status       string
	ChartVersion string
}

// Client provides the Helm operations the driver needs. One client is bound
// to one cluster and namespace.
type Client interface {
	// InstallOrUpgrade installs the chart, or upgrades it when a release
	// with the same name already exists.
	InstallOrUpgrade(ctx context.Context, spec ReleaseSpec) (*ReleaseInfo, error)

	// Status returns the current release, or nil when no release with that
	// name exists.
	Status(name string) (*ReleaseInfo, error)

	// Uninstall removes the release. Uninstalling an absent release is not
	// an error.
	Uninstall(name string) error
}

// ClientFactory builds a Client from kubeconfig bytes. The driver calls it
// once per operation so every apply sees the current cluster credentials.
type ClientFactory func(kubeconfig []byte, namespace string) (Client, error)
