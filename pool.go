package qsim

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Q is the simulation pool: a hybrid worker pool/message queue that executes
// circuit jobs and hands results back through the quantum space.
type Q struct {
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	workers    chan *Worker
	jobs       chan Job
	space      *QuantumSpace
	scaler     *Scaler
	governor   *MemoryGovernor
	pressure   *BackPressureRegulator
	metrics    *Metrics
	breakers   map[string]*CircuitBreaker
	breakersMu sync.RWMutex
	workerMu   sync.Mutex
	workerList []*Worker
	config     *Config
}

// NewQ creates a new simulation pool and starts its minimum worker set.
func NewQ(ctx context.Context, config *Config) *Q {
	if config == nil {
		config = NewConfig()
	}
	ctx, cancel := context.WithCancel(ctx)
	q := &Q{
		ctx:      ctx,
		cancel:   cancel,
		breakers: make(map[string]*CircuitBreaker),
		jobs:     make(chan Job, config.MaxWorkers*10),
		workers:  make(chan *Worker, config.MaxWorkers),
		space:    newQuantumSpace(),
		governor: NewMemoryGovernor(config.StateBudgetBytes),
		pressure: NewBackPressureRegulator(config.MaxWorkers*10, time.Second, time.Minute),
		metrics:  NewMetrics(),
		config:   config,
	}

	for i := 0; i < config.MinWorkers; i++ {
		q.startWorker()
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.manage()
	}()

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.collectMetrics()
	}()

	q.scaler = NewScaler(q, config.MinWorkers, config.MaxWorkers, &ScalerConfig{
		TargetLoad:         2.0,
		ScaleUpThreshold:   4.0,
		ScaleDownThreshold: 1.0,
		Cooldown:           time.Millisecond * 500,
	})

	return q
}

// manage dispatches queued jobs to available workers.
func (q *Q) manage() {
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.dispatch(job)
		}
	}
}

// dispatch hands a job to a live worker. Scale-down can cancel a worker that
// has already registered, leaving a registration nobody will ever read from;
// those are detected through the worker's done channel and skipped.
func (q *Q) dispatch(job Job) {
	deadline := time.After(q.schedulingTimeout())
	for {
		select {
		case <-q.ctx.Done():
			return
		case worker := <-q.workers:
			select {
			case worker.jobs <- job:
				return
			case <-worker.done:
				// Dead registration, try the next worker.
			case <-q.ctx.Done():
				return
			}
		case <-deadline:
			log.Printf("No available workers for job %s, timeout occurred", job.ID)
			q.space.Store(job.ID, nil, fmt.Errorf("no available workers"), job.TTL)
			return
		}
	}
}

func (q *Q) collectMetrics() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			q.metrics.mu.Lock()
			q.metrics.JobQueueSize = len(q.jobs)
			q.metrics.ActiveWorkers = len(q.workers)
			q.metrics.mu.Unlock()

			q.pressure.Observe(q.metrics)
			q.pressure.Renormalize()
		}
	}
}

/*
Schedule enqueues a circuit for execution and returns a channel that yields
the job's QuantumValue once the shots have run. The Value field carries a
*Result on success.
*/
func (q *Q) Schedule(id string, circuit *Circuit, shots int, opts ...JobOption) chan QuantumValue {
	if err := circuit.Err(); err != nil {
		return errValue(fmt.Errorf("invalid circuit: %w", err))
	}
	if shots < 1 {
		return errValue(fmt.Errorf("shots must be at least 1, got %d", shots))
	}
	if q.pressure.Limit() {
		q.recordSchedulingFailure()
		return errValue(fmt.Errorf("pool overloaded, job %s rejected", id))
	}

	ctx, cancel := context.WithTimeout(q.ctx, q.schedulingTimeout())
	defer cancel()

	job := Job{
		ID:      id,
		Circuit: circuit,
		Shots:   shots,
		RetryPolicy: &RetryPolicy{
			MaxAttempts: 3,
			Strategy:    &ExponentialBackoff{Initial: time.Millisecond * 10},
		},
		StartTime: time.Now(),
	}

	for _, opt := range opts {
		opt(&job)
	}

	if job.CircuitID != "" {
		breaker := q.getCircuitBreaker(job)
		if breaker != nil && !breaker.Allow() {
			return errValue(fmt.Errorf("circuit breaker %s is open", job.CircuitID))
		}
	}

	select {
	case q.jobs <- job:
		return q.space.Await(id)
	case <-ctx.Done():
		q.recordSchedulingFailure()
		return errValue(fmt.Errorf("job scheduling timeout: %w", ctx.Err()))
	}
}

// CreateBroadcastGroup opens a pub/sub group on the pool's space.
func (q *Q) CreateBroadcastGroup(id string, ttl time.Duration) *BroadcastGroup {
	return q.space.CreateBroadcastGroup(id, ttl)
}

// Subscribe attaches to an existing broadcast group.
func (q *Q) Subscribe(groupID string) chan QuantumValue {
	return q.space.Subscribe(groupID)
}

// Metrics returns the pool's metrics instance.
func (q *Q) Metrics() *Metrics {
	return q.metrics
}

func errValue(err error) chan QuantumValue {
	ch := make(chan QuantumValue, 1)
	ch <- QuantumValue{Error: err, CreatedAt: time.Now()}
	close(ch)
	return ch
}

func (q *Q) recordSchedulingFailure() {
	q.metrics.mu.Lock()
	q.metrics.SchedulingFailures++
	q.metrics.mu.Unlock()
}

func (q *Q) startWorker() {
	wctx, wcancel := context.WithCancel(q.ctx)
	worker := &Worker{
		pool:   q,
		jobs:   make(chan Job),
		done:   make(chan struct{}),
		cancel: wcancel,
	}
	q.workerMu.Lock()
	q.workerList = append(q.workerList, worker)
	q.workerMu.Unlock()

	q.metrics.mu.Lock()
	q.metrics.WorkerCount++
	q.metrics.mu.Unlock()

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		worker.run(wctx)
	}()
}

func (q *Q) getCircuitBreaker(job Job) *CircuitBreaker {
	if job.CircuitID == "" || job.CircuitConfig == nil {
		return nil
	}

	q.breakersMu.Lock()
	defer q.breakersMu.Unlock()

	breaker, exists := q.breakers[job.CircuitID]
	if !exists {
		breaker = NewCircuitBreaker(
			job.CircuitConfig.MaxFailures,
			job.CircuitConfig.ResetTimeout,
			job.CircuitConfig.HalfOpenMax,
		)
		q.breakers[job.CircuitID] = breaker
	}

	return breaker
}

func (q *Q) schedulingTimeout() time.Duration {
	if q.config != nil && q.config.SchedulingTimeout > 0 {
		return q.config.SchedulingTimeout
	}
	return 5 * time.Second
}

// Close cancels all pool operations and waits for workers to drain.
func (q *Q) Close() {
	if q == nil {
		return
	}

	if q.cancel != nil {
		q.cancel()
	}

	q.wg.Wait()

	q.workerMu.Lock()
	for _, worker := range q.workerList {
		close(worker.jobs)
	}
	q.workerList = nil
	q.workerMu.Unlock()

	q.space.Close()
	log.Println("Simulation pool closed")
}
