package graph

import (
	"fmt"
	"strings"
)

// DuplicateResourceError reports two declarations sharing a logical name.
type DuplicateResourceError struct {
	Name string
}

func (e DuplicateResourceError) Error() string {
	return fmt.Sprintf("duplicate resource %q", e.Name)
}

// UnknownReferenceError reports an expression or explicit dependency naming
// a logical resource (or output path) that does not exist.
type UnknownReferenceError struct {
	Resource  string // the resource holding the reference
	Attribute string // attribute containing the reference; empty for depends_on
	Target    string // the missing name or name.path
}

func (e UnknownReferenceError) Error() string {
	if e.Attribute == "" {
		return fmt.Sprintf("resource %q depends on unknown resource %q", e.Resource, e.Target)
	}
	return fmt.Sprintf("resource %q attribute %q references unknown %q", e.Resource, e.Attribute, e.Target)
}

// CycleError reports a dependency cycle. Path lists the cycle members in
// order, with the first member repeated at the end.
type CycleError struct {
	Path []string
}

func (e CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Path, " -> "))
}
