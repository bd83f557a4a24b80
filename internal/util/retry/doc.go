// Package retry provides exponential backoff retry logic for transient failures.
//
// The [WithExponentialBackoff] function retries an operation with
// configurable max attempts, initial delay, and maximum delay. The scheduler
// uses it around driver calls, classifying errors as transient or permanent
// through the [WithRetryable] option.
package retry
