package hcloudres

import (
	"strings"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/opsgraph/opsgraph/internal/driver"
)

// mapErr translates a cloud API error into the driver taxonomy. Typed API
// codes are checked first, then message heuristics, matching how flaky the
// API actually is: locked resources and rate limits clear up, invalid
// parameters never do.
func mapErr(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case hcloud.IsError(err, hcloud.ErrorCodeRateLimitExceeded),
		hcloud.IsError(err, hcloud.ErrorCodeConflict),
		hcloud.IsError(err, hcloud.ErrorCodeLocked),
		hcloud.IsError(err, hcloud.ErrorCodeResourceUnavailable):
		return driver.Transient(err)
	case hcloud.IsError(err, hcloud.ErrorCodeInvalidInput),
		hcloud.IsError(err, hcloud.ErrorCodeForbidden),
		hcloud.IsError(err, hcloud.ErrorCodeUnauthorized),
		hcloud.IsError(err, hcloud.ErrorCodeNotFound):
		return driver.Permanent(err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "locked"),
		strings.Contains(msg, "conflict"),
		strings.Contains(msg, "is busy"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "timeout"):
		return driver.Transient(err)
	case strings.Contains(msg, "invalid"),
		strings.Contains(msg, "not found"),
		strings.Contains(msg, "does not exist"):
		return driver.Permanent(err)
	}

	return driver.Transient(err)
}
