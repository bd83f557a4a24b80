package helmrel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	"helm.sh/helm/v3/pkg/getter"
	"helm.sh/helm/v3/pkg/release"
	"helm.sh/helm/v3/pkg/repo"
	helmstorage "helm.sh/helm/v3/pkg/storage/driver"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// RealClient talks to a cluster through the Helm action machinery, using
// in-memory kubeconfig bytes instead of a file on disk.
type RealClient struct {
	namespace string
	actions   *action.Configuration
}

// NewRealClient initializes the Helm action configuration against the
// cluster described by the kubeconfig bytes.
func NewRealClient(kubeconfig []byte, namespace string) (*RealClient, error) {
	actions := new(action.Configuration)
	restGetter, err := newRESTClientGetter(kubeconfig, namespace)
	if err != nil {
		return nil, fmt.Errorf("parse kubeconfig: %w", err)
	}

	// Helm's debug logging is suppressed; release progress is reported
	// through the scheduler's observer instead.
	if err := actions.Init(restGetter, namespace, "secret", func(string, ...interface{}) {}); err != nil {
		return nil, fmt.Errorf("init helm action config: %w", err)
	}

	return &RealClient{namespace: namespace, actions: actions}, nil
}

func (c *RealClient) InstallOrUpgrade(ctx context.Context, spec ReleaseSpec) (*ReleaseInfo, error) {
	hist := action.NewHistory(c.actions)
	hist.Max = 1
	if _, err := hist.Run(spec.Name); err != nil {
		return c.install(ctx, spec)
	}
	return c.upgrade(ctx, spec)
}

func (c *RealClient) install(ctx context.Context, spec ReleaseSpec) (*ReleaseInfo, error) {
	install := action.NewInstall(c.actions)
	install.ReleaseName = spec.Name
	install.Namespace = c.namespace
	install.CreateNamespace = true
	install.Version = spec.Version
	install.Wait = true
	install.Timeout = 10 * time.Minute

	ch, err := c.loadChart(spec)
	if err != nil {
		return nil, err
	}

	rel, err := install.RunWithContext(ctx, ch, spec.Values)
	if err != nil {
		return nil, fmt.Errorf("helm install %s: %w", spec.Name, err)
	}
	return releaseInfo(rel), nil
}

func (c *RealClient) upgrade(ctx context.Context, spec ReleaseSpec) (*ReleaseInfo, error) {
	upgrade := action.NewUpgrade(c.actions)
	upgrade.Namespace = c.namespace
	upgrade.Version = spec.Version
	upgrade.Wait = true
	upgrade.Timeout = 10 * time.Minute
	upgrade.ReuseValues = false

	ch, err := c.loadChart(spec)
	if err != nil {
		return nil, err
	}

	rel, err := upgrade.RunWithContext(ctx, spec.Name, ch, spec.Values)
	if err != nil {
		return nil, fmt.Errorf("helm upgrade %s: %w", spec.Name, err)
	}
	return releaseInfo(rel), nil
}

func (c *RealClient) loadChart(spec ReleaseSpec) (*chart.Chart, error) {
	settings := cli.New()

	chartPath, err := repo.FindChartInRepoURL(
		spec.RepoURL,
		spec.Chart,
		spec.Version,
		"", "", "",
		getter.All(settings),
	)
	if err != nil {
		return nil, fmt.Errorf("find chart %s in repo %s: %w", spec.Chart, spec.RepoURL, err)
	}
	defer func() {
		_ = os.Remove(chartPath)
	}()

	return loader.Load(chartPath)
}

func (c *RealClient) Status(name string) (*ReleaseInfo, error) {
	hist := action.NewHistory(c.actions)
	hist.Max = 1
	rels, err := hist.Run(name)
	if err != nil {
		if errors.Is(err, helmstorage.ErrReleaseNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("helm history %s: %w", name, err)
	}
	if len(rels) == 0 {
		return nil, nil
	}
	return releaseInfo(rels[len(rels)-1]), nil
}

func (c *RealClient) Uninstall(name string) error {
	uninstall := action.NewUninstall(c.actions)
	uninstall.Wait = true
	uninstall.Timeout = 5 * time.Minute

	if _, err := uninstall.Run(name); err != nil {
		if errors.Is(err, helmstorage.ErrReleaseNotFound) {
			return nil
		}
		return fmt.Errorf("helm uninstall %s: %w", name, err)
	}
	return nil
}

// restClientGetter gives the Helm actions what they need from an
// already-parsed rest config, so nothing touches the filesystem or the
// ambient KUBECONFIG environment.
type restClientGetter struct {
	config    *rest.Config
	namespace string
}

func newRESTClientGetter(kubeconfig []byte, namespace string) (*restClientGetter, error) {
	config, err := clientcmd.RESTConfigFromKubeConfig(kubeconfig)
	if err != nil {
		return nil, err
	}
	return &restClientGetter{config: config, namespace: namespace}, nil
}

func (g *restClientGetter) ToRESTConfig() (*rest.Config, error) {
	return g.config, nil
}

func (g *restClientGetter) ToDiscoveryClient() (discovery.CachedDiscoveryInterface, error) {
	dc, err := discovery.NewDiscoveryClientForConfig(g.config)
	if err != nil {
		return nil, err
	}
	return memory.NewMemCacheClient(dc), nil
}

func (g *restClientGetter) ToRESTMapper() (meta.RESTMapper, error) {
	dc, err := g.ToDiscoveryClient()
	if err != nil {
		return nil, err
	}
	return restmapper.NewDeferredDiscoveryRESTMapper(dc), nil
}

func (g *restClientGetter) ToRawKubeConfigLoader() clientcmd.ClientConfig {
	return clientcmd.NewDefaultClientConfig(*clientcmdapi.NewConfig(), &clientcmd.ConfigOverrides{})
}

func releaseInfo(rel *release.Release) *ReleaseInfo {
	info := &ReleaseInfo{
		Name:      rel.Name,
		Namespace: rel.Namespace,
		Revision:  rel.Version,
	}
	if rel.Info != nil {
		info.Status = string(rel.Info.Status)
	}
	if rel.Chart != nil && rel.Chart.Metadata != nil {
		info.ChartVersion = rel.Chart.Metadata.Version
	}
	return info
}
