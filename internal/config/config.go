// Package config defines the runtime configuration: provider credentials,
// scheduler tuning, state backend selection and variable overrides.
package config

import "time"

// Config holds the application configuration.
type Config struct {
	// Declaration is the path to the resource declaration file.
	// Default: "opsgraph.yaml"
	Declaration string `mapstructure:"declaration" yaml:"declaration"`

	Provider ProviderConfig `mapstructure:"provider" yaml:"provider"`

	// Concurrency bounds the number of resources applied in parallel.
	// Default: 4
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`

	Retry RetryConfig `mapstructure:"retry" yaml:"retry"`
	State StateConfig `mapstructure:"state" yaml:"state"`

	// Variables override declaration variable defaults by name.
	Variables map[string]string `mapstructure:"variables" yaml:"variables,omitempty"`
}

// ProviderConfig carries cloud provider credentials and placement.
type ProviderConfig struct {
	// Token is the Hetzner Cloud API token. Falls back to the
	// HCLOUD_TOKEN environment variable when empty.
	Token string `mapstructure:"token" yaml:"token,omitempty"`

	// Location is the default datacenter location, e.g. nbg1, fsn1, hel1.
	Location string `mapstructure:"location" yaml:"location"`
}

// RetryConfig tunes the transient-failure retry loop.
type RetryConfig struct {
	// MaxRetries is the number of additional attempts after the first.
	// Default: 3
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`

	// InitialDelay is the backoff before the first retry. Default: 1s
	InitialDelay time.Duration `mapstructure:"initial_delay" yaml:"initial_delay"`

	// MaxDelay caps the exponential backoff. Default: 30s
	MaxDelay time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
}

// StateConfig selects where resource state is persisted.
type StateConfig struct {
	// Backend is "local" or "s3". Default: "local"
	Backend string `mapstructure:"backend" yaml:"backend"`

	// Path is the local state file location. Default: "opsgraph.state.json"
	Path string `mapstructure:"path" yaml:"path,omitempty"`

	S3 S3Config `mapstructure:"s3" yaml:"s3,omitempty"`
}

// S3Config configures the S3 remote state backend.
type S3Config struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Region   string `mapstructure:"region" yaml:"region,omitempty"`
	Bucket   string `mapstructure:"bucket" yaml:"bucket"`

	// Key is the object key of the state document within the bucket.
	Key string `mapstructure:"key" yaml:"key"`

	// AccessKey and SecretKey fall back to the OPSGRAPH_S3_ACCESS_KEY and
	// OPSGRAPH_S3_SECRET_KEY environment variables when empty.
	AccessKey string `mapstructure:"access_key" yaml:"access_key,omitempty"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key,omitempty"`
}

// Backend names accepted by StateConfig.Backend.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)
