package helmrel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/tools/clientcmd"
)

func TestKubeconfigForRoundTrips(t *testing.T) {
	raw, err := kubeconfigFor("https://192.0.2.10:6443", "abc123.def456")
	require.NoError(t, err)

	cfg, err := clientcmd.Load(raw)
	require.NoError(t, err)

	ctx := cfg.Contexts[cfg.CurrentContext]
	require.NotNil(t, ctx)
	cluster := cfg.Clusters[ctx.Cluster]
	require.NotNil(t, cluster)
	assert.Equal(t, "https://192.0.2.10:6443", cluster.Server)
	assert.True(t, cluster.InsecureSkipTLSVerify)

	auth := cfg.AuthInfos[ctx.AuthInfo]
	require.NotNil(t, auth)
	assert.Equal(t, "abc123.def456", auth.Token)
}

func TestKubeconfigProducesUsableRESTConfig(t *testing.T) {
	raw, err := kubeconfigFor("https://192.0.2.10:6443", "tok")
	require.NoError(t, err)

	getter, err := newRESTClientGetter(raw, "default")
	require.NoError(t, err)

	restConfig, err := getter.ToRESTConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://192.0.2.10:6443", restConfig.Host)
	assert.Equal(t, "tok", restConfig.BearerToken)
}
