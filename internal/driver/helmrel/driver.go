package helmrel

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/opsgraph/opsgraph/internal/driver"
	"github.com/opsgraph/opsgraph/internal/resource"
)

// Driver installs and upgrades Helm releases.
//
// Attributes: chart and repo (required), version, namespace (default
// "default"), endpoint and token (required, usually references to a cluster
// resource), values (inline map), values_file (YAML file merged under the
// inline values).
type Driver struct {
	factory ClientFactory
}

func New() *Driver {
	return &Driver{factory: func(kubeconfig []byte, namespace string) (Client, error) {
		return NewRealClient(kubeconfig, namespace)
	}}
}

// NewWithFactory builds releases through clients from the given factory.
func NewWithFactory(factory ClientFactory) *Driver {
	return &Driver{factory: factory}
}

func (d *Driver) Kind() string { return resource.KindHelmRelease }

func (d *Driver) Outputs() []string {
	return []string{"name", "namespace", "revision", "status", "chart_version"}
}

func (d *Driver) Apply(ctx context.Context, req driver.ApplyRequest) (driver.ApplyResult, error) {
	chartName, err := driver.RequiredStringAttr(req.Desired, "chart")
	if err != nil {
		return driver.ApplyResult{}, err
	}
	repoURL, err := driver.RequiredStringAttr(req.Desired, "repo")
	if err != nil {
		return driver.ApplyResult{}, err
	}
	version, err := driver.StringAttr(req.Desired, "version")
	if err != nil {
		return driver.ApplyResult{}, err
	}
	values, err := valuesAttrs(req.Desired)
	if err != nil {
		return driver.ApplyResult{}, err
	}

	client, namespace, err := d.clientFor(req.Desired)
	if err != nil {
		return driver.ApplyResult{}, err
	}

	info, err := client.InstallOrUpgrade(ctx, ReleaseSpec{
		Name:    req.Name,
		RepoURL: repoURL,
		Chart:   chartName,
		Version: version,
		Values:  values,
	})
	if err != nil {
		return driver.ApplyResult{}, mapErr(err)
	}

	return driver.ApplyResult{
		RemoteID: namespace + "/" + req.Name,
		Outputs:  releaseOutputs(info),
	}, nil
}

// Read needs cluster credentials and is only reachable through ReadWith.
func (d *Driver) Read(_ context.Context, remoteID string) (cty.Value, error) {
	return cty.NilVal, driver.Permanentf("helm release %s: cluster credentials required to read", remoteID)
}

func (d *Driver) ReadWith(_ context.Context, remoteID string, attrs cty.Value) (cty.Value, error) {
	client, _, err := d.clientFor(attrs)
	if err != nil {
		return cty.NilVal, err
	}

	info, err := client.Status(releaseFromID(remoteID))
	if err != nil {
		return cty.NilVal, mapErr(err)
	}
	if info == nil {
		return cty.NilVal, driver.ErrNotFound
	}
	return releaseOutputs(info), nil
}

// Delete needs cluster credentials and is only reachable through DeleteWith.
func (d *Driver) Delete(_ context.Context, remoteID string) error {
	return driver.Permanentf("helm release %s: cluster credentials required to delete", remoteID)
}

func (d *Driver) DeleteWith(_ context.Context, remoteID string, attrs cty.Value) error {
	client, _, err := d.clientFor(attrs)
	if err != nil {
		return err
	}
	if err := client.Uninstall(releaseFromID(remoteID)); err != nil {
		return mapErr(err)
	}
	return nil
}

// clientFor builds a Client from the endpoint, token and namespace
// attributes.
func (d *Driver) clientFor(attrs cty.Value) (Client, string, error) {
	endpoint, err := driver.RequiredStringAttr(attrs, "endpoint")
	if err != nil {
		return nil, "", err
	}
	token, err := driver.RequiredStringAttr(attrs, "token")
	if err != nil {
		return nil, "", err
	}
	namespace, err := driver.StringAttr(attrs, "namespace")
	if err != nil {
		return nil, "", err
	}
	if namespace == "" {
		namespace = "default"
	}

	kubeconfig, err := kubeconfigFor(endpoint, token)
	if err != nil {
		return nil, "", driver.Permanent(err)
	}
	client, err := d.factory(kubeconfig, namespace)
	if err != nil {
		return nil, "", mapErr(err)
	}
	return client, namespace, nil
}

// valuesAttrs merges the values_file contents under the inline values map.
func valuesAttrs(obj cty.Value) (map[string]any, error) {
	merged := make(map[string]any)

	if path, err := driver.StringAttr(obj, "values_file"); err != nil {
		return nil, err
	} else if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, driver.Permanentf("read values file %s: %s", path, err)
		}
		if err := sigsyaml.Unmarshal(raw, &merged); err != nil {
			return nil, driver.Permanentf("parse values file %s: %s", path, err)
		}
	}

	if inline, ok := driver.AttrVal(obj, "values"); ok {
		raw, err := ctyjson.Marshal(inline, inline.Type())
		if err != nil {
			return nil, driver.Permanentf("encode values: %s", err)
		}
		var overlay map[string]any
		if err := json.Unmarshal(raw, &overlay); err != nil {
			return nil, driver.Permanentf("attribute %q must be a map", "values")
		}
		for k, v := range overlay {
			merged[k] = v
		}
	}

	if len(merged) == 0 {
		return nil, nil
	}
	return merged, nil
}

func releaseOutputs(info *ReleaseInfo) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"name":          cty.StringVal(info.Name),
		"namespace":     cty.StringVal(info.Namespace),
		"revision":      cty.NumberIntVal(int64(info.Revision)),
		"status":        cty.StringVal(info.Status),
		"chart_version": cty.StringVal(info.ChartVersion),
	})
}

func releaseFromID(remoteID string) string {
	if i := strings.IndexByte(remoteID, '/'); i >= 0 {
		return remoteID[i+1:]
	}
	return remoteID
}
