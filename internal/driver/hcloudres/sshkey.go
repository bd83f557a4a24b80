package hcloudres

import (
	"context"
	"strconv"
	"strings"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/zclconf/go-cty/cty"

	"github.com/opsgraph/opsgraph/internal/driver"
	"github.com/opsgraph/opsgraph/internal/keygen"
	"github.com/opsgraph/opsgraph/internal/resource"
)

// SSHKeyDriver registers SSH public keys with the provider.
//
// Attributes: public_key (optional, generated when omitted), labels. When
// the key material is generated, the private key appears in the outputs so
// downstream resources can reference it; a generated pair is reused across
// cycles via the prior outputs, never regenerated.
type SSHKeyDriver struct {
	client Client
}

func NewSSHKeyDriver(client Client) *SSHKeyDriver {
	return &SSHKeyDriver{client: client}
}

func (d *SSHKeyDriver) Kind() string { return resource.KindSSHKey }

func (d *SSHKeyDriver) Outputs() []string {
	return []string{"id", "name", "public_key", "private_key", "fingerprint"}
}

func (d *SSHKeyDriver) Apply(ctx context.Context, req driver.ApplyRequest) (driver.ApplyResult, error) {
	publicKey, err := driver.StringAttr(req.Desired, "public_key")
	if err != nil {
		return driver.ApplyResult{}, err
	}
	labels, err := driver.StringMapAttr(req.Desired, "labels")
	if err != nil {
		return driver.ApplyResult{}, err
	}

	privateKey := ""
	if publicKey == "" {
		if prior, priorPriv, ok := priorKeyPair(req.PriorOutputs); ok {
			publicKey, privateKey = prior, priorPriv
		} else {
			pair, err := keygen.GenerateED25519KeyPair()
			if err != nil {
				return driver.ApplyResult{}, driver.Permanent(err)
			}
			publicKey = strings.TrimSpace(string(pair.PublicKey))
			privateKey = string(pair.PrivateKey)
		}
	}

	key, err := d.client.EnsureSSHKey(ctx, req.Name, publicKey, labels)
	if err != nil {
		return driver.ApplyResult{}, mapErr(err)
	}

	return driver.ApplyResult{
		RemoteID: strconv.FormatInt(key.ID, 10),
		Outputs:  sshKeyOutputs(key, publicKey, privateKey),
	}, nil
}

func (d *SSHKeyDriver) Read(ctx context.Context, remoteID string) (cty.Value, error) {
	key, err := d.client.GetSSHKey(ctx, remoteID)
	if err != nil {
		return cty.NilVal, mapErr(err)
	}
	if key == nil {
		return cty.NilVal, driver.ErrNotFound
	}
	// Private key material is not recoverable from the provider.
	return sshKeyOutputs(key, key.PublicKey, ""), nil
}

func (d *SSHKeyDriver) Delete(ctx context.Context, remoteID string) error {
	if err := d.client.DeleteSSHKey(ctx, remoteID); err != nil {
		return mapErr(err)
	}
	return nil
}

func priorKeyPair(prior cty.Value) (publicKey, privateKey string, ok bool) {
	pub, pOK := driver.AttrVal(prior, "public_key")
	priv, sOK := driver.AttrVal(prior, "private_key")
	if !pOK || !sOK || pub.Type() != cty.String || priv.Type() != cty.String {
		return "", "", false
	}
	if pub.AsString() == "" || priv.AsString() == "" {
		return "", "", false
	}
	return pub.AsString(), priv.AsString(), true
}

func sshKeyOutputs(key *hcloud.SSHKey, publicKey, privateKey string) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"id":          cty.StringVal(strconv.FormatInt(key.ID, 10)),
		"name":        cty.StringVal(key.Name),
		"public_key":  cty.StringVal(publicKey),
		"private_key": cty.StringVal(privateKey),
		"fingerprint": cty.StringVal(key.Fingerprint),
	})
}
