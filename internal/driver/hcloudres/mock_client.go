package hcloudres

import (
	"context"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// MockClient is a scriptable implementation of Client for tests. Methods
// without a Func fall back to a benign default.
type MockClient struct {
	EnsureNetworkFunc func(ctx context.Context, name, ipRange, zone string, labels map[string]string) (*hcloud.Network, error)
	GetNetworkFunc    func(ctx context.Context, idOrName string) (*hcloud.Network, error)
	DeleteNetworkFunc func(ctx context.Context, idOrName string) error

	EnsureSSHKeyFunc func(ctx context.Context, name, publicKey string, labels map[string]string) (*hcloud.SSHKey, error)
	GetSSHKeyFunc    func(ctx context.Context, idOrName string) (*hcloud.SSHKey, error)
	DeleteSSHKeyFunc func(ctx context.Context, idOrName string) error

	EnsureServerFunc func(ctx context.Context, opts ServerOpts) (*hcloud.Server, error)
	GetServerFunc    func(ctx context.Context, idOrName string) (*hcloud.Server, error)
	ListServersFunc  func(ctx context.Context, labelSelector string) ([]*hcloud.Server, error)
	DeleteServerFunc func(ctx context.Context, idOrName string) error
}

// Ensure interface compliance
var _ Client = (*MockClient)(nil)

func (m *MockClient) EnsureNetwork(ctx context.Context, name, ipRange, zone string, labels map[string]string) (*hcloud.Network, error) {
	if m.EnsureNetworkFunc != nil {
		return m.EnsureNetworkFunc(ctx, name, ipRange, zone, labels)
	}
	return &hcloud.Network{ID: 1, Name: name}, nil
}

func (m *MockClient) GetNetwork(ctx context.Context, idOrName string) (*hcloud.Network, error) {
	if m.GetNetworkFunc != nil {
		return m.GetNetworkFunc(ctx, idOrName)
	}
	return nil, nil
}

func (m *MockClient) DeleteNetwork(ctx context.Context, idOrName string) error {
	if m.DeleteNetworkFunc != nil {
		return m.DeleteNetworkFunc(ctx, idOrName)
	}
	return nil
}

func (m *MockClient) EnsureSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (*hcloud.SSHKey, error) {
	if m.EnsureSSHKeyFunc != nil {
		return m.EnsureSSHKeyFunc(ctx, name, publicKey, labels)
	}
	return &hcloud.SSHKey{ID: 1, Name: name, PublicKey: publicKey}, nil
}

func (m *MockClient) GetSSHKey(ctx context.Context, idOrName string) (*hcloud.SSHKey, error) {
	if m.GetSSHKeyFunc != nil {
		return m.GetSSHKeyFunc(ctx, idOrName)
	}
	return nil, nil
}

func (m *MockClient) DeleteSSHKey(ctx context.Context, idOrName string) error {
	if m.DeleteSSHKeyFunc != nil {
		return m.DeleteSSHKeyFunc(ctx, idOrName)
	}
	return nil
}

func (m *MockClient) EnsureServer(ctx context.Context, opts ServerOpts) (*hcloud.Server, error) {
	if m.EnsureServerFunc != nil {
		return m.EnsureServerFunc(ctx, opts)
	}
	return &hcloud.Server{ID: 1, Name: opts.Name}, nil
}

func (m *MockClient) GetServer(ctx context.Context, idOrName string) (*hcloud.Server, error) {
	if m.GetServerFunc != nil {
		return m.GetServerFunc(ctx, idOrName)
	}
	return nil, nil
}

func (m *MockClient) ListServers(ctx context.Context, labelSelector string) ([]*hcloud.Server, error) {
	if m.ListServersFunc != nil {
		return m.ListServersFunc(ctx, labelSelector)
	}
	return nil, nil
}

func (m *MockClient) DeleteServer(ctx context.Context, idOrName string) error {
	if m.DeleteServerFunc != nil {
		return m.DeleteServerFunc(ctx, idOrName)
	}
	return nil
}
