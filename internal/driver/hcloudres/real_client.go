package hcloudres

import (
	"context"
	"fmt"
	"net"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// RealClient implements Client using the Hetzner Cloud API.
type RealClient struct {
	client *hcloud.Client
}

// NewRealClient creates a client authenticated with the given API token.
func NewRealClient(token string) *RealClient {
	return &RealClient{
		client: hcloud.NewClient(hcloud.WithToken(token)),
	}
}

// EnsureNetwork ensures a network with the given IP range exists. An
// existing network with a different range is an error; ranges cannot be
// changed in place.
func (c *RealClient) EnsureNetwork(ctx context.Context, name, ipRange, zone string, labels map[string]string) (*hcloud.Network, error) {
	network, _, err := c.client.Network.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get network: %w", err)
	}

	if network != nil {
		if network.IPRange.String() != ipRange {
			return nil, fmt.Errorf("network %s exists but with different IP range %s (expected %s)", name, network.IPRange.String(), ipRange)
		}
		return network, nil
	}

	_, ipNet, err := net.ParseCIDR(ipRange)
	if err != nil {
		return nil, fmt.Errorf("invalid ip range: %w", err)
	}

	network, _, err = c.client.Network.Create(ctx, hcloud.NetworkCreateOpts{
		Name:    name,
		IPRange: ipNet,
		Labels:  labels,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create network: %w", err)
	}

	if zone != "" {
		action, _, err := c.client.Network.AddSubnet(ctx, network, hcloud.NetworkAddSubnetOpts{
			Subnet: hcloud.NetworkSubnet{
				Type:        hcloud.NetworkSubnetTypeCloud,
				IPRange:     ipNet,
				NetworkZone: hcloud.NetworkZone(zone),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add subnet: %w", err)
		}
		if err := c.client.Action.WaitFor(ctx, action); err != nil {
			return nil, fmt.Errorf("failed to wait for subnet creation: %w", err)
		}
	}

	return network, nil
}

// GetNetwork returns the network, or nil when it does not exist.
func (c *RealClient) GetNetwork(ctx context.Context, idOrName string) (*hcloud.Network, error) {
	network, _, err := c.client.Network.Get(ctx, idOrName)
	if err != nil {
		return nil, err
	}
	return network, nil
}

// DeleteNetwork deletes the network. Missing networks are not an error.
func (c *RealClient) DeleteNetwork(ctx context.Context, idOrName string) error {
	network, _, err := c.client.Network.Get(ctx, idOrName)
	if err != nil {
		return fmt.Errorf("failed to get network: %w", err)
	}
	if network == nil {
		return nil
	}
	_, err = c.client.Network.Delete(ctx, network)
	return err
}

// EnsureSSHKey ensures an SSH key with the given public key exists.
func (c *RealClient) EnsureSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (*hcloud.SSHKey, error) {
	key, _, err := c.client.SSHKey.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get ssh key: %w", err)
	}
	if key != nil {
		return key, nil
	}

	key, _, err = c.client.SSHKey.Create(ctx, hcloud.SSHKeyCreateOpts{
		Name:      name,
		PublicKey: publicKey,
		Labels:    labels,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ssh key: %w", err)
	}
	return key, nil
}

// GetSSHKey returns the SSH key, or nil when it does not exist.
func (c *RealClient) GetSSHKey(ctx context.Context, idOrName string) (*hcloud.SSHKey, error) {
	key, _, err := c.client.SSHKey.Get(ctx, idOrName)
	if err != nil {
		return nil, err
	}
	return key, nil
}

// DeleteSSHKey deletes the SSH key. Missing keys are not an error.
func (c *RealClient) DeleteSSHKey(ctx context.Context, idOrName string) error {
	key, _, err := c.client.SSHKey.Get(ctx, idOrName)
	if err != nil {
		return fmt.Errorf("failed to get ssh key: %w", err)
	}
	if key == nil {
		return nil
	}
	_, err = c.client.SSHKey.Delete(ctx, key)
	return err
}

// EnsureServer ensures a server with the given name exists. An existing
// server is returned as-is; server attributes cannot be changed in place.
func (c *RealClient) EnsureServer(ctx context.Context, opts ServerOpts) (*hcloud.Server, error) {
	server, _, err := c.client.Server.Get(ctx, opts.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to get server: %w", err)
	}
	if server != nil {
		return server, nil
	}

	serverType, _, err := c.client.ServerType.Get(ctx, opts.ServerType)
	if err != nil {
		return nil, fmt.Errorf("failed to get server type: %w", err)
	}
	if serverType == nil {
		return nil, fmt.Errorf("server type not found: %s", opts.ServerType)
	}

	image, _, err := c.client.Image.Get(ctx, opts.Image) //nolint:staticcheck
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	if image != nil && image.Architecture != serverType.Architecture {
		images, _, err := c.client.Image.List(ctx, hcloud.ImageListOpts{
			Name:         opts.Image,
			Architecture: []hcloud.Architecture{serverType.Architecture},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list images: %w", err)
		}
		if len(images) > 0 {
			image = images[0]
		}
	}
	if image == nil {
		return nil, fmt.Errorf("image not found: %s", opts.Image)
	}

	var sshKeys []*hcloud.SSHKey
	for _, name := range opts.SSHKeys {
		key, _, err := c.client.SSHKey.Get(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to get ssh key %s: %w", name, err)
		}
		if key == nil {
			return nil, fmt.Errorf("ssh key not found: %s", name)
		}
		sshKeys = append(sshKeys, key)
	}

	var location *hcloud.Location
	if opts.Location != "" {
		location, _, err = c.client.Location.Get(ctx, opts.Location)
		if err != nil {
			return nil, fmt.Errorf("failed to get location %s: %w", opts.Location, err)
		}
		if location == nil {
			return nil, fmt.Errorf("location not found: %s", opts.Location)
		}
	}

	createOpts := hcloud.ServerCreateOpts{
		Name:       opts.Name,
		ServerType: serverType,
		Image:      image,
		SSHKeys:    sshKeys,
		Labels:     opts.Labels,
		UserData:   opts.UserData,
		Location:   location,
	}
	if opts.NetworkID != 0 {
		createOpts.Networks = []*hcloud.Network{{ID: opts.NetworkID}}
	}

	result, _, err := c.client.Server.Create(ctx, createOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}
	if err := c.client.Action.WaitFor(ctx, result.Action); err != nil {
		return nil, fmt.Errorf("failed to wait for server creation: %w", err)
	}

	return result.Server, nil
}

// GetServer returns the server, or nil when it does not exist.
func (c *RealClient) GetServer(ctx context.Context, idOrName string) (*hcloud.Server, error) {
	server, _, err := c.client.Server.Get(ctx, idOrName)
	if err != nil {
		return nil, err
	}
	return server, nil
}

// ListServers lists servers matching a label selector.
func (c *RealClient) ListServers(ctx context.Context, labelSelector string) ([]*hcloud.Server, error) {
	servers, err := c.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: labelSelector},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	return servers, nil
}

// DeleteServer deletes the server. Missing servers are not an error.
func (c *RealClient) DeleteServer(ctx context.Context, idOrName string) error {
	server, _, err := c.client.Server.Get(ctx, idOrName)
	if err != nil {
		return fmt.Errorf("failed to get server: %w", err)
	}
	if server == nil {
		return nil
	}
	_, err = c.client.Server.Delete(ctx, server) //nolint:staticcheck
	return err
}
