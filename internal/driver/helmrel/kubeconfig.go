package helmrel

import (
	"fmt"

	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// kubeconfigFor builds kubeconfig bytes for token access to a cluster API
// endpoint. The serving certificate is not pinned: the token is minted during
// the same provisioning run that created the cluster, before any CA material
// is distributed.
func kubeconfigFor(endpoint, token string) ([]byte, error) {
	cfg := clientcmdapi.NewConfig()
	cfg.Clusters["target"] = &clientcmdapi.Cluster{
		Server:                endpoint,
		InsecureSkipTLSVerify: true,
	}
	cfg.AuthInfos["deployer"] = &clientcmdapi.AuthInfo{Token: token}
	cfg.Contexts["deployer@target"] = &clientcmdapi.Context{
		Cluster:  "target",
		AuthInfo: "deployer",
	}
	cfg.CurrentContext = "deployer@target"

	out, err := clientcmd.Write(*cfg)
	if err != nil {
		return nil, fmt.Errorf("encode kubeconfig: %w", err)
	}
	return out, nil
}
