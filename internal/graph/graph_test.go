package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/opsgraph/opsgraph/internal/resource"
)

func node(name, kind string, attrs map[string]resource.Expr, deps ...string) resource.Node {
	return resource.Node{Name: name, Kind: kind, Attrs: attrs, DependsOn: deps}
}

func ref(res string, path ...string) resource.Expr {
	return resource.Ref{Resource: res, Path: path}
}

func lit(s string) resource.Expr {
	return resource.Literal{Value: cty.StringVal(s)}
}

func TestBuildInfersEdgesFromReferences(t *testing.T) {
	set := &resource.Set{Resources: []resource.Node{
		node("net", resource.KindNetwork, map[string]resource.Expr{"ip_range": lit("10.0.0.0/16")}),
		node("clu", resource.KindCluster, map[string]resource.Expr{"network_id": ref("net", "id")}),
		node("rel", resource.KindHelmRelease, map[string]resource.Expr{
			"endpoint": ref("clu", "endpoint"),
			"token":    ref("clu", "token"),
		}),
	}}

	g, err := Build(set, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"net", "clu", "rel"}, g.Order)
	assert.Equal(t, []string{"net"}, g.Dependencies["clu"])
	assert.Equal(t, []string{"clu"}, g.Dependencies["rel"])
	assert.Equal(t, []string{"clu"}, g.Dependents["net"])
}

func TestBuildExplicitDependencies(t *testing.T) {
	set := &resource.Set{Resources: []resource.Node{
		node("clu", resource.KindCluster, nil),
		node("settle", resource.KindWait, nil, "clu"),
		node("rel", resource.KindHelmRelease, nil, "settle"),
	}}

	g, err := Build(set, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"clu", "settle", "rel"}, g.Order)
}

func TestBuildDeclarationOrderBreaksTies(t *testing.T) {
	// workers-a and workers-b are independent; declaration order decides.
	set := &resource.Set{Resources: []resource.Node{
		node("net", resource.KindNetwork, nil),
		node("workers-b", resource.KindServerPool, map[string]resource.Expr{"network_id": ref("net", "id")}),
		node("workers-a", resource.KindServerPool, map[string]resource.Expr{"network_id": ref("net", "id")}),
	}}

	g, err := Build(set, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"net", "workers-b", "workers-a"}, g.Order)
}

func TestBuildDuplicateName(t *testing.T) {
	set := &resource.Set{Resources: []resource.Node{
		node("net", resource.KindNetwork, nil),
		node("net", resource.KindNetwork, nil),
	}}

	_, err := Build(set, nil)
	var dup DuplicateResourceError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "net", dup.Name)
}

func TestBuildUnknownReference(t *testing.T) {
	set := &resource.Set{Resources: []resource.Node{
		node("clu", resource.KindCluster, map[string]resource.Expr{"network_id": ref("net", "id")}),
	}}

	_, err := Build(set, nil)
	var unknown UnknownReferenceError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "clu", unknown.Resource)
	assert.Equal(t, "network_id", unknown.Attribute)
	assert.Equal(t, "net.id", unknown.Target)
}

func TestBuildUnknownExplicitDependency(t *testing.T) {
	set := &resource.Set{Resources: []resource.Node{
		node("rel", resource.KindHelmRelease, nil, "missing"),
	}}

	_, err := Build(set, nil)
	var unknown UnknownReferenceError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "missing", unknown.Target)
}

func TestBuildCycle(t *testing.T) {
	set := &resource.Set{Resources: []resource.Node{
		node("a", resource.KindNetwork, map[string]resource.Expr{"x": ref("c", "id")}),
		node("b", resource.KindNetwork, map[string]resource.Expr{"x": ref("a", "id")}),
		node("c", resource.KindNetwork, map[string]resource.Expr{"x": ref("b", "id")}),
	}}

	_, err := Build(set, nil)
	var cycle CycleError
	require.ErrorAs(t, err, &cycle)
	// All three members appear, with the first repeated at the end.
	assert.GreaterOrEqual(t, len(cycle.Path), 4)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, dedupe(cycle.Path))
}

func TestBuildSelfReference(t *testing.T) {
	set := &resource.Set{Resources: []resource.Node{
		node("a", resource.KindNetwork, map[string]resource.Expr{"x": ref("a", "id")}),
	}}

	_, err := Build(set, nil)
	var cycle CycleError
	require.ErrorAs(t, err, &cycle)
}

type fakeCatalog map[string][]string

func (c fakeCatalog) Outputs(kind string) ([]string, bool) {
	outputs, ok := c[kind]
	return outputs, ok
}

func TestBuildValidatesOutputPaths(t *testing.T) {
	catalog := fakeCatalog{
		resource.KindNetwork: {"id", "ip_range"},
	}

	set := &resource.Set{Resources: []resource.Node{
		node("net", resource.KindNetwork, nil),
		node("clu", resource.KindCluster, map[string]resource.Expr{"x": ref("net", "bogus")}),
	}}

	_, err := Build(set, catalog)
	var unknown UnknownReferenceError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "net.bogus", unknown.Target)

	set.Resources[1].Attrs = map[string]resource.Expr{"x": ref("net", "id")}
	_, err = Build(set, catalog)
	require.NoError(t, err)
}

func TestBuildTopologicalConsistency(t *testing.T) {
	// A wider graph: every dependency must precede its dependents.
	set := &resource.Set{Resources: []resource.Node{
		node("net", resource.KindNetwork, nil),
		node("key", resource.KindSSHKey, nil),
		node("clu", resource.KindCluster, map[string]resource.Expr{
			"network_id": ref("net", "id"),
			"ssh_key":    ref("key", "id"),
		}),
		node("pool-a", resource.KindServerPool, map[string]resource.Expr{"cluster": ref("clu", "id")}),
		node("pool-b", resource.KindServerPool, map[string]resource.Expr{"cluster": ref("clu", "id")}),
		node("hub", resource.KindHelmRelease, map[string]resource.Expr{"endpoint": ref("clu", "endpoint")}),
		node("vault", resource.KindHelmRelease, map[string]resource.Expr{"endpoint": ref("clu", "endpoint")}),
	}}

	g, err := Build(set, nil)
	require.NoError(t, err)

	pos := make(map[string]int, len(g.Order))
	for i, name := range g.Order {
		pos[name] = i
	}
	for name, deps := range g.Dependencies {
		for _, dep := range deps {
			assert.Less(t, pos[dep], pos[name], "%s must come before %s", dep, name)
		}
	}
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
