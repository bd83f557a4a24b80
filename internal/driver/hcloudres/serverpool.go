package hcloudres

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/zclconf/go-cty/cty"

	"github.com/opsgraph/opsgraph/internal/driver"
	"github.com/opsgraph/opsgraph/internal/resource"
	"github.com/opsgraph/opsgraph/internal/util/labels"
)

// ServerPoolDriver provisions a homogeneous group of servers. Members are
// named <pool>-1 .. <pool>-N; scaling down deletes the highest indexes
// first.
//
// Attributes: count (default 1), server_type (required), image (required),
// location, ssh_keys (list of key names), network (network id), labels,
// user_data.
type ServerPoolDriver struct {
	client Client
}

func NewServerPoolDriver(client Client) *ServerPoolDriver {
	return &ServerPoolDriver{client: client}
}

func (d *ServerPoolDriver) Kind() string { return resource.KindServerPool }

func (d *ServerPoolDriver) Outputs() []string { return []string{"ids", "ips", "names", "count"} }

func (d *ServerPoolDriver) Apply(ctx context.Context, req driver.ApplyRequest) (driver.ApplyResult, error) {
	count, err := driver.IntAttr(req.Desired, "count", 1)
	if err != nil {
		return driver.ApplyResult{}, err
	}
	if count < 0 {
		return driver.ApplyResult{}, driver.Permanentf("attribute %q must not be negative", "count")
	}
	serverType, err := driver.RequiredStringAttr(req.Desired, "server_type")
	if err != nil {
		return driver.ApplyResult{}, err
	}
	image, err := driver.RequiredStringAttr(req.Desired, "image")
	if err != nil {
		return driver.ApplyResult{}, err
	}
	location, err := driver.StringAttr(req.Desired, "location")
	if err != nil {
		return driver.ApplyResult{}, err
	}
	sshKeys, err := driver.StringListAttr(req.Desired, "ssh_keys")
	if err != nil {
		return driver.ApplyResult{}, err
	}
	networkID, err := networkIDAttr(req.Desired)
	if err != nil {
		return driver.ApplyResult{}, err
	}
	userData, err := driver.StringAttr(req.Desired, "user_data")
	if err != nil {
		return driver.ApplyResult{}, err
	}
	extraLabels, err := driver.StringMapAttr(req.Desired, "labels")
	if err != nil {
		return driver.ApplyResult{}, err
	}
	memberLabels := labels.ForPool(req.Name, extraLabels)

	servers := make([]*hcloud.Server, 0, count)
	for i := 1; i <= count; i++ {
		server, err := d.client.EnsureServer(ctx, ServerOpts{
			Name:       fmt.Sprintf("%s-%d", req.Name, i),
			Image:      image,
			ServerType: serverType,
			Location:   location,
			SSHKeys:    sshKeys,
			NetworkID:  networkID,
			Labels:     memberLabels,
			UserData:   userData,
		})
		if err != nil {
			return driver.ApplyResult{}, mapErr(err)
		}
		servers = append(servers, server)
	}

	// Scale-down: members beyond the desired count are deleted.
	existing, err := d.members(ctx, req.Name)
	if err != nil {
		return driver.ApplyResult{}, err
	}
	for _, server := range existing {
		if memberIndex(req.Name, server.Name) > count {
			if err := d.client.DeleteServer(ctx, server.Name); err != nil {
				return driver.ApplyResult{}, mapErr(err)
			}
		}
	}

	return driver.ApplyResult{
		RemoteID: req.Name,
		Outputs:  poolOutputs(servers),
	}, nil
}

func (d *ServerPoolDriver) Read(ctx context.Context, remoteID string) (cty.Value, error) {
	servers, err := d.members(ctx, remoteID)
	if err != nil {
		return cty.NilVal, err
	}
	if len(servers) == 0 {
		return cty.NilVal, driver.ErrNotFound
	}
	return poolOutputs(servers), nil
}

func (d *ServerPoolDriver) Delete(ctx context.Context, remoteID string) error {
	servers, err := d.members(ctx, remoteID)
	if err != nil {
		return err
	}
	for _, server := range servers {
		if err := d.client.DeleteServer(ctx, server.Name); err != nil {
			return mapErr(err)
		}
	}
	return nil
}

// members lists the pool's servers sorted by member index.
func (d *ServerPoolDriver) members(ctx context.Context, pool string) ([]*hcloud.Server, error) {
	servers, err := d.client.ListServers(ctx, labels.PoolSelector(pool))
	if err != nil {
		return nil, mapErr(err)
	}
	sort.Slice(servers, func(i, j int) bool {
		return memberIndex(pool, servers[i].Name) < memberIndex(pool, servers[j].Name)
	})
	return servers, nil
}

// memberIndex extracts the numeric suffix of a member name, or 0 when the
// name does not match the pool naming scheme.
func memberIndex(pool, name string) int {
	prefix := pool + "-"
	if len(name) <= len(prefix) || name[:len(prefix)] != prefix {
		return 0
	}
	n, err := strconv.Atoi(name[len(prefix):])
	if err != nil {
		return 0
	}
	return n
}

// networkIDAttr reads the "network" attribute as a numeric network id.
func networkIDAttr(obj cty.Value) (int64, error) {
	s, err := driver.StringAttr(obj, "network")
	if err != nil {
		return 0, err
	}
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, driver.Permanentf("attribute %q must be a network id: %s", "network", err)
	}
	return id, nil
}

func poolOutputs(servers []*hcloud.Server) cty.Value {
	ids := make([]cty.Value, 0, len(servers))
	ips := make([]cty.Value, 0, len(servers))
	names := make([]cty.Value, 0, len(servers))
	for _, server := range servers {
		ids = append(ids, cty.StringVal(strconv.FormatInt(server.ID, 10)))
		ip := ""
		if server.PublicNet.IPv4.IP != nil {
			ip = server.PublicNet.IPv4.IP.String()
		}
		ips = append(ips, cty.StringVal(ip))
		names = append(names, cty.StringVal(server.Name))
	}
	return cty.ObjectVal(map[string]cty.Value{
		"ids":   listOrEmpty(ids),
		"ips":   listOrEmpty(ips),
		"names": listOrEmpty(names),
		"count": cty.NumberIntVal(int64(len(servers))),
	})
}

func listOrEmpty(vals []cty.Value) cty.Value {
	if len(vals) == 0 {
		return cty.ListValEmpty(cty.String)
	}
	return cty.ListVal(vals)
}
