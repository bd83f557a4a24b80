package config

import "fmt"

// ValidLocations contains all valid Hetzner Cloud datacenter locations.
// https://docs.hetzner.com/cloud/general/locations/
var ValidLocations = map[string]bool{
	"nbg1": true, // Nuremberg, Germany
	"fsn1": true, // Falkenstein, Germany
	"hel1": true, // Helsinki, Finland
	"ash":  true, // Ashburn, USA
	"hil":  true, // Hillsboro, USA
	"sin":  true, // Singapore
}

// Validate checks the configuration for common errors and returns a
// detailed error if validation fails.
func (c *Config) Validate() error {
	if c.Declaration == "" {
		return fmt.Errorf("declaration is required")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", c.Retry.MaxRetries)
	}
	if c.Retry.InitialDelay < 0 || c.Retry.MaxDelay < 0 {
		return fmt.Errorf("retry delays must not be negative")
	}
	if c.Retry.MaxDelay < c.Retry.InitialDelay {
		return fmt.Errorf("retry.max_delay (%s) must not be below retry.initial_delay (%s)",
			c.Retry.MaxDelay, c.Retry.InitialDelay)
	}

	if c.Provider.Location != "" && !ValidLocations[c.Provider.Location] {
		return fmt.Errorf("invalid provider.location %q", c.Provider.Location)
	}

	switch c.State.Backend {
	case BackendLocal:
		if c.State.Path == "" {
			return fmt.Errorf("state.path is required for the local backend")
		}
	case BackendS3:
		if c.State.S3.Bucket == "" {
			return fmt.Errorf("state.s3.bucket is required for the s3 backend")
		}
		if c.State.S3.Key == "" {
			return fmt.Errorf("state.s3.key is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown state.backend %q (want %q or %q)", c.State.Backend, BackendLocal, BackendS3)
	}

	return nil
}
