package handlers

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphListsApplyOrder(t *testing.T) {
	useFakeRegistry(t, &fakeDriver{kind: "box"})
	cfgPath := scaffold(t, chainDeclaration)

	var out bytes.Buffer
	require.NoError(t, Graph(context.Background(), &out, cfgPath, false))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "net (box)")
	assert.Contains(t, lines[1], "clu (box)")
	assert.Contains(t, lines[1], "<- net")
	assert.Contains(t, lines[2], "rel (box)")
}

func TestGraphDOT(t *testing.T) {
	useFakeRegistry(t, &fakeDriver{kind: "box"})
	cfgPath := scaffold(t, chainDeclaration)

	var out bytes.Buffer
	require.NoError(t, Graph(context.Background(), &out, cfgPath, true))

	dot := out.String()
	assert.Contains(t, dot, "digraph opsgraph {")
	assert.Contains(t, dot, `"net" -> "clu";`)
	assert.Contains(t, dot, `"clu" -> "rel";`)
	assert.Contains(t, dot, "}")
}

func TestValidateOK(t *testing.T) {
	useFakeRegistry(t, &fakeDriver{kind: "box"})
	cfgPath := scaffold(t, chainDeclaration)

	var out bytes.Buffer
	require.NoError(t, Validate(context.Background(), &out, cfgPath))
	assert.Contains(t, out.String(), "is valid: 3 resources")
}

func TestValidateRejectsUnknownReference(t *testing.T) {
	useFakeRegistry(t, &fakeDriver{kind: "box"})
	cfgPath := scaffold(t, `resources:
  - name: a
    kind: box
    attributes:
      parent: ${ghost.id}
`)

	var out bytes.Buffer
	err := Validate(context.Background(), &out, cfgPath)
	require.Error(t, err)
}
