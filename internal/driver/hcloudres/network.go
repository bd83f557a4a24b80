package hcloudres

import (
	"context"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/zclconf/go-cty/cty"

	"github.com/opsgraph/opsgraph/internal/driver"
	"github.com/opsgraph/opsgraph/internal/resource"
)

// NetworkDriver provisions private networks.
//
// Attributes: cidr (required), zone (optional network zone, also creates a
// cloud subnet spanning the whole range), labels.
type NetworkDriver struct {
	client Client
}

func NewNetworkDriver(client Client) *NetworkDriver {
	return &NetworkDriver{client: client}
}

func (d *NetworkDriver) Kind() string { return resource.KindNetwork }

func (d *NetworkDriver) Outputs() []string { return []string{"id", "name", "cidr", "zone"} }

func (d *NetworkDriver) Apply(ctx context.Context, req driver.ApplyRequest) (driver.ApplyResult, error) {
	cidr, err := driver.RequiredStringAttr(req.Desired, "cidr")
	if err != nil {
		return driver.ApplyResult{}, err
	}
	zone, err := driver.StringAttr(req.Desired, "zone")
	if err != nil {
		return driver.ApplyResult{}, err
	}
	labels, err := driver.StringMapAttr(req.Desired, "labels")
	if err != nil {
		return driver.ApplyResult{}, err
	}

	network, err := d.client.EnsureNetwork(ctx, req.Name, cidr, zone, labels)
	if err != nil {
		return driver.ApplyResult{}, mapErr(err)
	}

	return driver.ApplyResult{
		RemoteID: strconv.FormatInt(network.ID, 10),
		Outputs:  networkOutputs(network, cidr, zone),
	}, nil
}

func (d *NetworkDriver) Read(ctx context.Context, remoteID string) (cty.Value, error) {
	network, err := d.client.GetNetwork(ctx, remoteID)
	if err != nil {
		return cty.NilVal, mapErr(err)
	}
	if network == nil {
		return cty.NilVal, driver.ErrNotFound
	}
	cidr := ""
	if network.IPRange != nil {
		cidr = network.IPRange.String()
	}
	zone := ""
	if len(network.Subnets) > 0 {
		zone = string(network.Subnets[0].NetworkZone)
	}
	return networkOutputs(network, cidr, zone), nil
}

func (d *NetworkDriver) Delete(ctx context.Context, remoteID string) error {
	if err := d.client.DeleteNetwork(ctx, remoteID); err != nil {
		return mapErr(err)
	}
	return nil
}

func networkOutputs(network *hcloud.Network, cidr, zone string) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"id":   cty.StringVal(strconv.FormatInt(network.ID, 10)),
		"name": cty.StringVal(network.Name),
		"cidr": cty.StringVal(cidr),
		"zone": cty.StringVal(zone),
	})
}
