package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/opsgraph/opsgraph/internal/graph"
)

// Validate parses the declaration and builds the graph, verifying every
// reference against the registered kinds, without touching state or making
// any remote call.
func Validate(ctx context.Context, w io.Writer, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	set, err := loadDeclaration(cfg)
	if err != nil {
		return err
	}
	registry, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	g, err := graph.Build(set, registry)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s is valid: %d resources, %d variables.\n",
		cfg.Declaration, len(g.Order), len(set.Variables))
	return nil
}
