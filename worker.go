package qsim

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"
)

// Worker executes simulation jobs pulled from the pool.
type Worker struct {
	pool   *Q
	jobs   chan Job
	done   chan struct{}
	cancel context.CancelFunc
}

// run registers the worker with the dispatcher and serves jobs until its
// context is cancelled. done is closed on exit so the dispatcher can tell a
// registration left behind by a scaled-down worker from a live one.
func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case w.pool.workers <- w:
			select {
			case <-ctx.Done():
				return
			case job, ok := <-w.jobs:
				if !ok {
					return
				}

				done := make(chan struct{})
				go func() {
					result, err := w.processJob(job)
					w.pool.space.Store(job.ID, result, err, job.TTL)
					close(done)
				}()

				select {
				case <-done:
				case <-ctx.Done():
					return
				case <-time.After(w.jobTimeout()):
					log.Printf("Job %s timed out", job.ID)
				}
			}
		}
	}
}

func (w *Worker) processJob(job Job) (*Result, error) {
	startTime := job.StartTime

	if err := w.checkCircuitBreaker(job.CircuitID); err != nil {
		return nil, err
	}

	result, err := w.executeWithRetries(job)

	w.pool.metrics.recordJobExecution(startTime, err == nil, job.Shots)

	if err != nil {
		w.recordFailure(job.CircuitID)
		return nil, err
	}

	w.recordSuccess(job.CircuitID)
	return result, nil
}

// executeWithRetries reruns a failed simulation per the job's retry policy.
// Local failures are mostly memory-governor contention, which clears as
// other jobs release their registers.
func (w *Worker) executeWithRetries(job Job) (*Result, error) {
	for job.Attempt = 0; job.Attempt < job.RetryPolicy.MaxAttempts; job.Attempt++ {
		if job.Attempt > 0 {
			delay := job.RetryPolicy.Strategy.NextDelay(job.Attempt)
			log.Printf("Job %s retrying attempt %d after %v", job.ID, job.Attempt+1, delay)
			time.Sleep(delay)
		}

		result, err := w.simulate(job)
		if err == nil {
			return result, nil
		}

		job.LastError = err

		if job.RetryPolicy.Filter != nil && !job.RetryPolicy.Filter(err) {
			break
		}
	}
	return nil, fmt.Errorf("all attempts failed for job %s: %w", job.ID, job.LastError)
}

/*
simulate evolves the job's circuit once on a fresh state vector and samples
every shot from the resulting distribution. The governor reservation bounds
how much amplitude memory concurrent jobs can hold.
*/
func (w *Worker) simulate(job Job) (*Result, error) {
	if job.Circuit == nil {
		return nil, fmt.Errorf("job %s has no circuit", job.ID)
	}

	started := time.Now()
	numQubits := job.Circuit.NumQubits

	if err := w.pool.governor.Reserve(numQubits); err != nil {
		return nil, err
	}
	defer w.pool.governor.Release(numQubits)

	state, err := NewStateVector(numQubits)
	if err != nil {
		return nil, err
	}
	if err := state.Evolve(job.Circuit); err != nil {
		return nil, err
	}

	seed := job.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	measures := job.Circuit.MeasuredQubits()
	counts := make(map[string]int, 2)
	for shot := 0; shot < job.Shots; shot++ {
		basis := state.Sample(rng)
		counts[readout(basis, job.Circuit.NumClbits, measures)]++
	}

	return &Result{
		JobID:    job.ID,
		Backend:  "statevector",
		Shots:    job.Shots,
		Counts:   counts,
		Duration: time.Since(started),
	}, nil
}

func (w *Worker) checkCircuitBreaker(circuitID string) error {
	if circuitID == "" {
		return nil
	}
	w.pool.breakersMu.RLock()
	breaker := w.pool.breakers[circuitID]
	w.pool.breakersMu.RUnlock()

	if breaker != nil && !breaker.Allow() {
		return fmt.Errorf("circuit breaker open for %s", circuitID)
	}
	return nil
}

func (w *Worker) recordSuccess(circuitID string) {
	if circuitID == "" {
		return
	}
	w.pool.breakersMu.RLock()
	breaker := w.pool.breakers[circuitID]
	w.pool.breakersMu.RUnlock()

	if breaker != nil {
		breaker.RecordSuccess()
	}
}

func (w *Worker) recordFailure(circuitID string) {
	if circuitID == "" {
		return
	}
	w.pool.breakersMu.RLock()
	breaker := w.pool.breakers[circuitID]
	w.pool.breakersMu.RUnlock()

	if breaker != nil {
		breaker.RecordFailure()
	}
}

func (w *Worker) jobTimeout() time.Duration {
	if w.pool.config != nil && w.pool.config.JobTimeout > 0 {
		return w.pool.config.JobTimeout
	}
	return 30 * time.Second
}
