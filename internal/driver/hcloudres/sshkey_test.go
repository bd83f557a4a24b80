package hcloudres

import (
	"context"
	"strings"
	"testing"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/opsgraph/opsgraph/internal/driver"
)

func TestSSHKeyDriverApplySuppliedKey(t *testing.T) {
	var gotPublicKey string
	mock := &MockClient{
		EnsureSSHKeyFunc: func(_ context.Context, name, publicKey string, _ map[string]string) (*hcloud.SSHKey, error) {
			gotPublicKey = publicKey
			return &hcloud.SSHKey{ID: 7, Name: name, PublicKey: publicKey, Fingerprint: "aa:bb"}, nil
		},
	}
	d := NewSSHKeyDriver(mock)

	res, err := d.Apply(context.Background(), driver.ApplyRequest{
		Name: "deploy-key",
		Desired: cty.ObjectVal(map[string]cty.Value{
			"public_key": cty.StringVal("ssh-ed25519 AAAA example"),
		}),
	})
	require.NoError(t, err)

	assert.Equal(t, "ssh-ed25519 AAAA example", gotPublicKey)
	assert.Equal(t, "7", res.RemoteID)
	assert.Equal(t, cty.StringVal(""), res.Outputs.GetAttr("private_key"))
}

func TestSSHKeyDriverApplyGeneratesKey(t *testing.T) {
	var gotPublicKey string
	mock := &MockClient{
		EnsureSSHKeyFunc: func(_ context.Context, name, publicKey string, _ map[string]string) (*hcloud.SSHKey, error) {
			gotPublicKey = publicKey
			return &hcloud.SSHKey{ID: 7, Name: name, PublicKey: publicKey}, nil
		},
	}
	d := NewSSHKeyDriver(mock)

	res, err := d.Apply(context.Background(), driver.ApplyRequest{
		Name:    "deploy-key",
		Desired: cty.EmptyObjectVal,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotPublicKey, "ssh-ed25519 "))
	assert.Contains(t, res.Outputs.GetAttr("private_key").AsString(), "PRIVATE KEY")
}

func TestSSHKeyDriverApplyReusesGeneratedKey(t *testing.T) {
	d := NewSSHKeyDriver(&MockClient{})

	first, err := d.Apply(context.Background(), driver.ApplyRequest{
		Name:    "deploy-key",
		Desired: cty.EmptyObjectVal,
	})
	require.NoError(t, err)

	second, err := d.Apply(context.Background(), driver.ApplyRequest{
		Name:         "deploy-key",
		Desired:      cty.EmptyObjectVal,
		PriorOutputs: first.Outputs,
	})
	require.NoError(t, err)

	assert.Equal(t, first.Outputs.GetAttr("public_key"), second.Outputs.GetAttr("public_key"))
	assert.Equal(t, first.Outputs.GetAttr("private_key"), second.Outputs.GetAttr("private_key"))
}

func TestSSHKeyDriverReadAbsent(t *testing.T) {
	d := NewSSHKeyDriver(&MockClient{})
	_, err := d.Read(context.Background(), "7")
	assert.ErrorIs(t, err, driver.ErrNotFound)
}
