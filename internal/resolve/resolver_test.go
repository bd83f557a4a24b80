package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/opsgraph/opsgraph/internal/resource"
)

func TestResolveAttrsLiterals(t *testing.T) {
	r := NewResolver(&resource.Set{})
	node := &resource.Node{
		Name: "net",
		Kind: resource.KindNetwork,
		Attrs: map[string]resource.Expr{
			"ip_range": resource.Literal{Value: cty.StringVal("10.0.0.0/16")},
		},
	}

	obj, err := r.ResolveAttrs(node)
	require.NoError(t, err)
	assert.Equal(t, cty.StringVal("10.0.0.0/16"), obj.GetAttr("ip_range"))
}

func TestResolveAttrsUsesPublishedOutputs(t *testing.T) {
	r := NewResolver(&resource.Set{})
	r.Publish("clu", cty.ObjectVal(map[string]cty.Value{
		"endpoint": cty.StringVal("10.0.0.5"),
		"token":    cty.StringVal("c2VjcmV0"),
	}))

	node := &resource.Node{
		Name: "rel",
		Kind: resource.KindHelmRelease,
		Attrs: map[string]resource.Expr{
			"endpoint": resource.Ref{Resource: "clu", Path: []string{"endpoint"}},
			"token": resource.Call{Func: "base64decode", Args: []resource.Expr{
				resource.Ref{Resource: "clu", Path: []string{"token"}},
			}},
		},
	}

	obj, err := r.ResolveAttrs(node)
	require.NoError(t, err)
	assert.Equal(t, cty.StringVal("10.0.0.5"), obj.GetAttr("endpoint"))
	assert.Equal(t, cty.StringVal("secret"), obj.GetAttr("token"))
}

func TestResolveAttrsContractViolation(t *testing.T) {
	r := NewResolver(&resource.Set{})
	node := &resource.Node{
		Name: "rel",
		Attrs: map[string]resource.Expr{
			"endpoint": resource.Ref{Resource: "clu", Path: []string{"endpoint"}},
		},
	}

	_, err := r.ResolveAttrs(node)
	require.Error(t, err)
	assert.True(t, IsContractViolation(err))
}

func TestResolveAttrsReportsFailingExpression(t *testing.T) {
	r := NewResolver(&resource.Set{})
	r.Publish("clu", cty.ObjectVal(map[string]cty.Value{
		"ca": cty.StringVal("%%% not base64"),
	}))

	node := &resource.Node{
		Name: "rel",
		Attrs: map[string]resource.Expr{
			"ca": resource.Call{Func: "base64decode", Args: []resource.Expr{
				resource.Ref{Resource: "clu", Path: []string{"ca"}},
			}},
		},
	}

	_, err := r.ResolveAttrs(node)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "rel", rerr.Resource)
	assert.Equal(t, "ca", rerr.Attribute)
	assert.False(t, IsContractViolation(err))
}

func TestResolveAttrsMemoized(t *testing.T) {
	r := NewResolver(&resource.Set{})
	r.Publish("net", cty.ObjectVal(map[string]cty.Value{
		"id": cty.StringVal("1"),
	}))

	node := &resource.Node{
		Name: "clu",
		Attrs: map[string]resource.Expr{
			"network_id": resource.Ref{Resource: "net", Path: []string{"id"}},
		},
	}

	first, err := r.ResolveAttrs(node)
	require.NoError(t, err)

	// Re-publishing must not change the memoized result within the cycle.
	r.Publish("net", cty.ObjectVal(map[string]cty.Value{
		"id": cty.StringVal("2"),
	}))

	second, err := r.ResolveAttrs(node)
	require.NoError(t, err)
	assert.True(t, first.RawEquals(second))
}

func TestResolveAttrsVariables(t *testing.T) {
	set := &resource.Set{
		Variables: map[string]resource.Variable{
			"region": {Name: "region", Default: cty.StringVal("fsn1")},
		},
	}
	require.NoError(t, set.BindVariables(nil))

	r := NewResolver(set)
	node := &resource.Node{
		Name: "net",
		Attrs: map[string]resource.Expr{
			"zone": resource.VarRef{Name: "region"},
		},
	}

	obj, err := r.ResolveAttrs(node)
	require.NoError(t, err)
	assert.Equal(t, cty.StringVal("fsn1"), obj.GetAttr("zone"))
}
