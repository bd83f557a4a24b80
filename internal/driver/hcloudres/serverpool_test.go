package hcloudres

import (
	"context"
	"net"
	"testing"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/opsgraph/opsgraph/internal/driver"
	"github.com/opsgraph/opsgraph/internal/util/labels"
)

func poolDesired(count int64) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"count":       cty.NumberIntVal(count),
		"server_type": cty.StringVal("cx22"),
		"image":       cty.StringVal("debian-12"),
		"location":    cty.StringVal("fsn1"),
		"ssh_keys":    cty.ListVal([]cty.Value{cty.StringVal("deploy-key")}),
	})
}

func mockServer(id int64, name string) *hcloud.Server {
	s := &hcloud.Server{ID: id, Name: name}
	s.PublicNet.IPv4.IP = net.ParseIP("192.0.2.1")
	return s
}

func TestServerPoolDriverApply(t *testing.T) {
	var ensured []string
	mock := &MockClient{
		EnsureServerFunc: func(_ context.Context, opts ServerOpts) (*hcloud.Server, error) {
			ensured = append(ensured, opts.Name)
			return mockServer(int64(len(ensured)), opts.Name), nil
		},
		ListServersFunc: func(_ context.Context, selector string) ([]*hcloud.Server, error) {
			assert.Equal(t, labels.PoolSelector("workers"), selector)
			return nil, nil
		},
	}
	d := NewServerPoolDriver(mock)

	res, err := d.Apply(context.Background(), driver.ApplyRequest{
		Name:    "workers",
		Desired: poolDesired(3),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"workers-1", "workers-2", "workers-3"}, ensured)
	assert.Equal(t, "workers", res.RemoteID)
	assert.Equal(t, cty.NumberIntVal(3), res.Outputs.GetAttr("count"))
	assert.Equal(t, 3, res.Outputs.GetAttr("ids").LengthInt())
}

func TestServerPoolDriverScaleDown(t *testing.T) {
	var deleted []string
	mock := &MockClient{
		EnsureServerFunc: func(_ context.Context, opts ServerOpts) (*hcloud.Server, error) {
			return mockServer(1, opts.Name), nil
		},
		ListServersFunc: func(context.Context, string) ([]*hcloud.Server, error) {
			return []*hcloud.Server{
				mockServer(1, "workers-1"),
				mockServer(2, "workers-2"),
				mockServer(3, "workers-3"),
			}, nil
		},
		DeleteServerFunc: func(_ context.Context, idOrName string) error {
			deleted = append(deleted, idOrName)
			return nil
		},
	}
	d := NewServerPoolDriver(mock)

	_, err := d.Apply(context.Background(), driver.ApplyRequest{
		Name:    "workers",
		Desired: poolDesired(1),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"workers-2", "workers-3"}, deleted)
}

func TestServerPoolDriverApplyNegativeCount(t *testing.T) {
	d := NewServerPoolDriver(&MockClient{})

	_, err := d.Apply(context.Background(), driver.ApplyRequest{
		Name:    "workers",
		Desired: poolDesired(-1),
	})
	require.Error(t, err)
	assert.True(t, driver.IsPermanent(err))
}

func TestServerPoolDriverReadAbsent(t *testing.T) {
	d := NewServerPoolDriver(&MockClient{})
	_, err := d.Read(context.Background(), "workers")
	assert.ErrorIs(t, err, driver.ErrNotFound)
}

func TestServerPoolDriverDelete(t *testing.T) {
	var deleted []string
	mock := &MockClient{
		ListServersFunc: func(context.Context, string) ([]*hcloud.Server, error) {
			return []*hcloud.Server{
				mockServer(2, "workers-2"),
				mockServer(1, "workers-1"),
			}, nil
		},
		DeleteServerFunc: func(_ context.Context, idOrName string) error {
			deleted = append(deleted, idOrName)
			return nil
		},
	}
	d := NewServerPoolDriver(mock)

	require.NoError(t, d.Delete(context.Background(), "workers"))
	assert.Equal(t, []string{"workers-1", "workers-2"}, deleted)
}
