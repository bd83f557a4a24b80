package hcloudres

import "github.com/opsgraph/opsgraph/internal/driver"

// Register registers every cloud driver against the registry.
func Register(registry *driver.Registry, client Client) error {
	drivers := []driver.Driver{
		NewNetworkDriver(client),
		NewSSHKeyDriver(client),
		NewServerPoolDriver(client),
		NewClusterDriver(client),
	}
	for _, d := range drivers {
		if err := registry.Register(d); err != nil {
			return err
		}
	}
	return nil
}
