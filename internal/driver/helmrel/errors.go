package helmrel

import (
	"context"
	"errors"
	"strings"

	"github.com/opsgraph/opsgraph/internal/driver"
)

// mapErr classifies Helm and apiserver failures. A freshly bootstrapped
// cluster refuses connections and serves half-ready discovery data for a
// while, so connectivity failures default to transient.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if driver.IsTransient(err) || driver.IsPermanent(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return driver.Transient(err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "timed out"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "tls handshake"),
		strings.Contains(msg, "temporarily unavailable"),
		strings.Contains(msg, "etcdserver"),
		strings.Contains(msg, "another operation"):
		return driver.Transient(err)
	case strings.Contains(msg, "not found"),
		strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "forbidden"),
		strings.Contains(msg, "invalid"),
		strings.Contains(msg, "unable to parse"):
		return driver.Permanent(err)
	default:
		return driver.Transient(err)
	}
}
