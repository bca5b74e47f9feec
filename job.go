package qsim

import "time"

// Job represents one circuit execution request
type Job struct {
	ID            string
	Circuit       *Circuit
	Shots         int
	Seed          int64
	RetryPolicy   *RetryPolicy
	CircuitID     string
	CircuitConfig *CircuitBreakerConfig
	TTL           time.Duration
	Attempt       int
	LastError     error
	StartTime     time.Time
}

// JobOption is a function type for configuring jobs
type JobOption func(*Job)

// CircuitBreakerConfig struct
type CircuitBreakerConfig struct {
	MaxFailures  int
	ResetTimeout time.Duration
	HalfOpenMax  int
}

// WithTTL configures how long the job's result is retained in the space.
func WithTTL(ttl time.Duration) JobOption {
	return func(j *Job) {
		j.TTL = ttl
	}
}

// WithSeed pins the job's measurement sampling to a deterministic sequence.
func WithSeed(seed int64) JobOption {
	return func(j *Job) {
		j.Seed = seed
	}
}
