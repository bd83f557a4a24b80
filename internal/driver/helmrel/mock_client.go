package helmrel

import "context"

// MockClient implements Client with overridable function fields for tests.
// Unset fields report a healthy deployed release.
type MockClient struct {
	InstallOrUpgradeFunc func(ctx context.Context, spec ReleaseSpec) (*ReleaseInfo, error)
	StatusFunc           func(name string) (*ReleaseInfo, error)
	UninstallFunc        func(name string) error
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) InstallOrUpgrade(ctx context.Context, spec ReleaseSpec) (*ReleaseInfo, error) {
	if m.InstallOrUpgradeFunc != nil {
		return m.InstallOrUpgradeFunc(ctx, spec)
	}
	return &ReleaseInfo{
		Name:         spec.Name,
		Namespace:    "default",
		Revision:     1,
		Status:       "deployed",
		ChartVersion: spec.Version,
	}, nil
}

func (m *MockClient) Status(name string) (*ReleaseInfo, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(name)
	}
	return &ReleaseInfo{Name: name, Namespace: "default", Revision: 1, Status: "deployed"}, nil
}

func (m *MockClient) Uninstall(name string) error {
	if m.UninstallFunc != nil {
		return m.UninstallFunc(name)
	}
	return nil
}
