package orchestration

import (
	"fmt"
	"strings"
	"time"
)

// Summary is the outcome of one apply cycle. Name slices preserve
// declaration order.
type Summary struct {
	Applied  []string
	Failed   []string
	Skipped  []string
	Statuses map[string]Status

	// Failures maps each failed resource to its cause.
	Failures map[string]error
	// SkipCause maps each skipped resource to the dependency that blocked it.
	SkipCause map[string]string

	Cancelled bool
	Duration  time.Duration
}

// OK reports whether every resource reached applied.
func (s *Summary) OK() bool {
	return len(s.Failed) == 0 && len(s.Skipped) == 0
}

// Err returns a non-nil error describing the failed and skipped resources,
// or nil when the cycle fully converged.
func (s *Summary) Err() error {
	if s.OK() {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d resource(s) failed, %d skipped", len(s.Failed), len(s.Skipped))
	for _, name := range s.Failed {
		fmt.Fprintf(&b, "\n  %s: %v", name, s.Failures[name])
	}
	for _, name := range s.Skipped {
		fmt.Fprintf(&b, "\n  %s: skipped (dependency %s did not apply)", name, s.SkipCause[name])
	}
	return fmt.Errorf("%s", b.String())
}
