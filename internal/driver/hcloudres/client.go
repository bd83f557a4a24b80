// Package hcloudres implements the cloud resource drivers on top of the
// Hetzner Cloud API.
package hcloudres

import (
	"context"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// ServerOpts describes a single server to ensure.
type ServerOpts struct {
	Name       string
	Image      string
	ServerType string
	Location   string
	SSHKeys    []string
	NetworkID  int64
	Labels     map[string]string
	UserData   string
}

// Client is the subset of the cloud API the drivers use. Ensure methods are
// idempotent: they look the object up by name first and create it only when
// it does not exist.
type Client interface {
	EnsureNetwork(ctx context.Context, name, ipRange, zone string, labels map[string]string) (*hcloud.Network, error)
	GetNetwork(ctx context.Context, idOrName string) (*hcloud.Network, error)
	DeleteNetwork(ctx context.Context, idOrName string) error

	EnsureSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (*hcloud.SSHKey, error)
	GetSSHKey(ctx context.Context, idOrName string) (*hcloud.SSHKey, error)
	DeleteSSHKey(ctx context.Context, idOrName string) error

	EnsureServer(ctx context.Context, opts ServerOpts) (*hcloud.Server, error)
	GetServer(ctx context.Context, idOrName string) (*hcloud.Server, error)
	ListServers(ctx context.Context, labelSelector string) ([]*hcloud.Server, error)
	DeleteServer(ctx context.Context, idOrName string) error
}
