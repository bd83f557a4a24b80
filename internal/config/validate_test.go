package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := Default()
	cfg.State.Backend = "consul"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown state.backend "consul"`)
}

func TestValidateRejectsS3WithoutBucket(t *testing.T) {
	cfg := Default()
	cfg.State.Backend = BackendS3
	cfg.State.S3.Key = "opsgraph.state.json"
	assert.ErrorContains(t, cfg.Validate(), "state.s3.bucket is required")
}

func TestValidateRejectsS3WithoutKey(t *testing.T) {
	cfg := Default()
	cfg.State.Backend = BackendS3
	cfg.State.S3.Bucket = "tfstate"
	assert.ErrorContains(t, cfg.Validate(), "state.s3.key is required")
}

func TestValidateRejectsBadLocation(t *testing.T) {
	cfg := Default()
	cfg.Provider.Location = "mars1"
	assert.ErrorContains(t, cfg.Validate(), `invalid provider.location "mars1"`)
}

func TestValidateRejectsZeroConcurrency(t *testing.T) {
	cfg := Default()
	cfg.Concurrency = 0
	assert.ErrorContains(t, cfg.Validate(), "concurrency must be at least 1")
}

func TestValidateRejectsInvertedRetryDelays(t *testing.T) {
	cfg := Default()
	cfg.Retry.MaxDelay = cfg.Retry.InitialDelay / 2
	assert.ErrorContains(t, cfg.Validate(), "retry.max_delay")
}
