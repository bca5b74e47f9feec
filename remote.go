package qsim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrRemoteUnavailable wraps transport-level failures talking to a remote
// simulation service.
var ErrRemoteUnavailable = errors.New("remote backend unavailable")

// Job lifecycle states reported by remote simulation services.
const (
	remoteStatusQueued    = "queued"
	remoteStatusRunning   = "running"
	remoteStatusCompleted = "completed"
	remoteStatusFailed    = "failed"
)

type remoteSubmitRequest struct {
	QASM  string `json:"qasm"`
	Shots int    `json:"shots"`
}

type remoteJobStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type remoteJobResult struct {
	JobID  string         `json:"job_id"`
	Counts map[string]int `json:"counts"`
}

// RemoteConfig configures a RemoteBackend.
type RemoteConfig struct {
	BaseURL        string
	MaxQubits      int
	PollInterval   time.Duration
	RequestTimeout time.Duration
	MaxSubmitRate  int // Submissions per second
}

/*
RemoteBackend executes circuits against an HTTP simulation service speaking
a QASM-in, counts-out job protocol: POST the circuit, poll the job status,
fetch the counts when the job completes.

Submissions run through three flow regulators: the rate limiter keeps the
request rate sustainable, the circuit breaker stops hammering a service
that keeps failing, and the retry policy absorbs transient transport
errors.
*/
type RemoteBackend struct {
	baseURL string
	client  *http.Client

	maxQubits    int
	pollInterval time.Duration

	breaker *CircuitBreaker
	limiter *RateLimiter
	retry   *RetryPolicy
}

// NewRemoteBackend creates a backend client for the given service.
func NewRemoteBackend(config *RemoteConfig) *RemoteBackend {
	if config.PollInterval <= 0 {
		config.PollInterval = 250 * time.Millisecond
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30 * time.Second
	}
	if config.MaxQubits <= 0 {
		config.MaxQubits = 29
	}
	if config.MaxSubmitRate <= 0 {
		config.MaxSubmitRate = 10
	}

	return &RemoteBackend{
		baseURL:      config.BaseURL,
		client:       &http.Client{Timeout: config.RequestTimeout},
		maxQubits:    config.MaxQubits,
		pollInterval: config.PollInterval,
		breaker:      NewCircuitBreaker(5, 30*time.Second, 1),
		limiter:      NewRateLimiter(config.MaxSubmitRate, time.Second/time.Duration(config.MaxSubmitRate)),
		retry: &RetryPolicy{
			MaxAttempts: 3,
			Strategy:    &ExponentialBackoff{Initial: 500 * time.Millisecond},
		},
	}
}

func (b *RemoteBackend) Name() string {
	return "remote:" + b.baseURL
}

func (b *RemoteBackend) MaxQubits() int {
	return b.maxQubits
}

func (b *RemoteBackend) Run(ctx context.Context, circuit *Circuit, shots int) (*Result, error) {
	if circuit.NumQubits > b.maxQubits {
		return nil, fmt.Errorf("%w: %d qubits, backend allows %d",
			ErrQubitOutOfRange, circuit.NumQubits, b.maxQubits)
	}

	qasm, err := circuit.ToQASM()
	if err != nil {
		return nil, err
	}

	started := time.Now()

	jobID, err := b.submit(ctx, qasm, shots)
	if err != nil {
		return nil, err
	}

	if err := b.awaitCompletion(ctx, jobID); err != nil {
		return nil, err
	}

	counts, err := b.fetchCounts(ctx, jobID)
	if err != nil {
		return nil, err
	}

	return &Result{
		JobID:    jobID,
		Backend:  b.Name(),
		Shots:    shots,
		Counts:   counts,
		Duration: time.Since(started),
	}, nil
}

// submit posts the circuit, retrying transient failures under the breaker
// and rate limiter.
func (b *RemoteBackend) submit(ctx context.Context, qasm string, shots int) (string, error) {
	if !b.breaker.Allow() {
		return "", fmt.Errorf("%w: circuit breaker open", ErrRemoteUnavailable)
	}
	if b.limiter.Limit() {
		return "", fmt.Errorf("%w: submission rate limit exceeded", ErrRemoteUnavailable)
	}

	body, err := json.Marshal(remoteSubmitRequest{QASM: qasm, Shots: shots})
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt < b.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(b.retry.Strategy.NextDelay(attempt)):
			}
		}

		// Fresh reader per attempt; the previous one is drained.
		var status remoteJobStatus
		lastErr = b.doJSON(ctx, http.MethodPost, b.baseURL+"/jobs", bytes.NewReader(body), &status)
		if lastErr == nil {
			b.breaker.RecordSuccess()
			return status.ID, nil
		}
		b.breaker.RecordFailure()
	}
	return "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, lastErr)
}

func (b *RemoteBackend) awaitCompletion(ctx context.Context, jobID string) error {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			var status remoteJobStatus
			if err := b.doJSON(ctx, http.MethodGet, b.baseURL+"/jobs/"+jobID, nil, &status); err != nil {
				return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
			}

			switch status.Status {
			case remoteStatusCompleted:
				return nil
			case remoteStatusFailed:
				return fmt.Errorf("remote job %s failed: %s", jobID, status.Error)
			case remoteStatusQueued, remoteStatusRunning:
				// Keep polling.
			default:
				return fmt.Errorf("remote job %s in unknown state %q", jobID, status.Status)
			}
		}
	}
}

func (b *RemoteBackend) fetchCounts(ctx context.Context, jobID string) (map[string]int, error) {
	var result remoteJobResult
	if err := b.doJSON(ctx, http.MethodGet, b.baseURL+"/jobs/"+jobID+"/result", nil, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return result.Counts, nil
}

func (b *RemoteBackend) doJSON(ctx context.Context, method, url string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s returned %d: %s", method, url, resp.StatusCode, payload)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
