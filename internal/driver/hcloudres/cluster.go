package hcloudres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/zclconf/go-cty/cty"

	"github.com/opsgraph/opsgraph/internal/driver"
	"github.com/opsgraph/opsgraph/internal/resource"
	"github.com/opsgraph/opsgraph/internal/util/labels"
)

// ClusterDriver provisions a control plane server and exposes the
// connection credentials downstream releases need.
//
// Attributes: server_type (required), image (required), location, network
// (network id), ssh_keys, labels, user_data. Outputs include a bootstrap
// token generated on first apply and carried forward across cycles; the
// provider cannot return it, so it lives only in the state snapshot.
type ClusterDriver struct {
	client Client
}

func NewClusterDriver(client Client) *ClusterDriver {
	return &ClusterDriver{client: client}
}

func (d *ClusterDriver) Kind() string { return resource.KindCluster }

func (d *ClusterDriver) Outputs() []string {
	return []string{"id", "name", "endpoint", "token", "host"}
}

func (d *ClusterDriver) Apply(ctx context.Context, req driver.ApplyRequest) (driver.ApplyResult, error) {
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

	server, err := d.client.EnsureServer(ctx, ServerOpts{
		Name:       req.Name,
		Image:      image,
		ServerType: serverType,
		Location:   location,
		SSHKeys:    sshKeys,
		NetworkID:  networkID,
		Labels:     labels.ForCluster(req.Name, extraLabels),
		UserData:   userData,
	})
	if err != nil {
		return driver.ApplyResult{}, mapErr(err)
	}

	token, err := priorToken(req.PriorOutputs)
	if err != nil {
		return driver.ApplyResult{}, err
	}

	return driver.ApplyResult{
		RemoteID: strconv.FormatInt(server.ID, 10),
		Outputs:  clusterOutputs(server, token),
	}, nil
}

func (d *ClusterDriver) Read(ctx context.Context, remoteID string) (cty.Value, error) {
	server, err := d.client.GetServer(ctx, remoteID)
	if err != nil {
		return cty.NilVal, mapErr(err)
	}
	if server == nil {
		return cty.NilVal, driver.ErrNotFound
	}
	// The bootstrap token cannot be read back from the provider.
	return clusterOutputs(server, ""), nil
}

func (d *ClusterDriver) Delete(ctx context.Context, remoteID string) error {
	if err := d.client.DeleteServer(ctx, remoteID); err != nil {
		return mapErr(err)
	}
	return nil
}

// priorToken reuses the token from the last snapshot or mints a fresh one.
func priorToken(prior cty.Value) (string, error) {
	if v, ok := driver.AttrVal(prior, "token"); ok && v.Type() == cty.String && v.AsString() != "" {
		return v.AsString(), nil
	}
	return generateBootstrapToken()
}

// generateBootstrapToken mints a token in the <id>.<secret> bootstrap
// format.
func generateBootstrapToken() (string, error) {
	buf := make([]byte, 11)
	if _, err := rand.Read(buf); err != nil {
		return "", driver.Permanentf("failed to generate token: %s", err)
	}
	id := hex.EncodeToString(buf[:3])
	secret := hex.EncodeToString(buf[3:])
	return fmt.Sprintf("%s.%s", id, secret), nil
}

func clusterOutputs(server *hcloud.Server, token string) cty.Value {
	host := ""
	if server.PublicNet.IPv4.IP != nil {
		host = server.PublicNet.IPv4.IP.String()
	}
	endpoint := ""
	if host != "" {
		endpoint = fmt.Sprintf("https://%s:6443", host)
	}
	return cty.ObjectVal(map[string]cty.Value{
		"id":       cty.StringVal(strconv.FormatInt(server.ID, 10)),
		"name":     cty.StringVal(server.Name),
		"endpoint": cty.StringVal(endpoint),
		"token":    cty.StringVal(token),
		"host":     cty.StringVal(host),
	})
}
