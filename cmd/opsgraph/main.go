// Package main is the entry point for the opsgraph CLI.
//
// opsgraph is a command-line tool for dependency-ordered provisioning of
// declared resources. It builds a graph from a YAML declaration, resolves
// cross-resource references, and applies changes through per-kind drivers
// with persistent state between runs.
//
// Commands: init, apply, destroy, graph, validate, version.
//
// For detailed usage information, run:
//
//	opsgraph --help
package main

import (
	"fmt"
	"os"

	"github.com/opsgraph/opsgraph/cmd/opsgraph/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
