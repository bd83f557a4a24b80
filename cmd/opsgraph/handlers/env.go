// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic and
// can be tested independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/zclconf/go-cty/cty"

	"github.com/opsgraph/opsgraph/internal/config"
	"github.com/opsgraph/opsgraph/internal/driver"
	"github.com/opsgraph/opsgraph/internal/driver/execcmd"
	"github.com/opsgraph/opsgraph/internal/driver/hcloudres"
	"github.com/opsgraph/opsgraph/internal/driver/helmrel"
	"github.com/opsgraph/opsgraph/internal/graph"
	"github.com/opsgraph/opsgraph/internal/resource"
	"github.com/opsgraph/opsgraph/internal/state"
	"github.com/opsgraph/opsgraph/internal/state/s3remote"
)

const defaultConfigPath = "opsgraph.config.yaml"

// Factory function variables - can be replaced in tests for dependency
// injection.
var (
	loadConfigFile = config.LoadFile

	newRegistry = buildRegistry

	newBackend = buildBackend
)

// environment bundles everything a cycle needs: configuration, the parsed
// declaration, the dependency graph, drivers and the state store.
type environment struct {
	cfg      *config.Config
	set      *resource.Set
	graph    *graph.Graph
	registry *driver.Registry
	store    *state.Store
}

// loadConfig reads the config file, falling back to built-in defaults when
// no explicit path is given and the default file does not exist.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err != nil {
			return config.Default(), nil
		}
		path = defaultConfigPath
	}
	return loadConfigFile(path)
}

// loadDeclaration parses the declaration and applies variable overrides
// from the config.
func loadDeclaration(cfg *config.Config) (*resource.Set, error) {
	set, err := resource.LoadFile(cfg.Declaration)
	if err != nil {
		return nil, err
	}

	overrides := make(map[string]cty.Value, len(cfg.Variables))
	for name, value := range cfg.Variables {
		overrides[name] = cty.StringVal(value)
	}
	if err := set.BindVariables(overrides); err != nil {
		return nil, err
	}
	return set, nil
}

func buildRegistry(cfg *config.Config) (*driver.Registry, error) {
	registry := driver.NewRegistry()

	if err := hcloudres.Register(registry, hcloudres.NewRealClient(cfg.Provider.Token)); err != nil {
		return nil, err
	}
	for _, d := range []driver.Driver{
		execcmd.New(),
		helmrel.New(),
		driver.NewWaitDriver(),
	} {
		if err := registry.Register(d); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func buildBackend(ctx context.Context, cfg *config.Config) (state.Backend, error) {
	switch cfg.State.Backend {
	case config.BackendS3:
		backend, err := s3remote.New(ctx, s3remote.Options{
			Endpoint:  cfg.State.S3.Endpoint,
			Region:    cfg.State.S3.Region,
			Bucket:    cfg.State.S3.Bucket,
			Key:       cfg.State.S3.Key,
			AccessKey: cfg.State.S3.AccessKey,
			SecretKey: cfg.State.S3.SecretKey,
			// Non-AWS S3-compatible stores need path-style addressing.
			UsePathStyle: cfg.State.S3.Endpoint != "",
		})
		if err != nil {
			return nil, err
		}
		if err := backend.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return state.NewFileBackend(cfg.State.Path), nil
	}
}

// loadEnvironment wires config, declaration, registry, graph and store.
func loadEnvironment(ctx context.Context, configPath string) (*environment, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	set, err := loadDeclaration(cfg)
	if err != nil {
		return nil, err
	}

	registry, err := newRegistry(cfg)
	if err != nil {
		return nil, err
	}

	g, err := graph.Build(set, registry)
	if err != nil {
		return nil, err
	}

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := state.NewStore(ctx, backend)
	if err != nil {
		return nil, err
	}

	return &environment{cfg: cfg, set: set, graph: g, registry: registry, store: store}, nil
}

// newLogger builds a stderr logger; verbose enables the V(1) debug lines
// the scheduler emits around retries and reconciliation.
func newLogger(verbose bool) logr.Logger {
	verbosity := 0
	if verbose {
		verbosity = 1
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintln(os.Stderr, prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{Verbosity: verbosity})
}
