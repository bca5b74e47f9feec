package qsim

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Backend executes circuits for a number of shots and returns the counts
// histogram.
type Backend interface {
	Name() string
	MaxQubits() int
	Run(ctx context.Context, circuit *Circuit, shots int) (*Result, error)
}

/*
LocalBackend runs circuits on the in-process state vector engine. A run is
split into shot batches that are scheduled as independent pool jobs, so one
wide run keeps every worker busy instead of pinning a single goroutine.
*/
type LocalBackend struct {
	pool   *Q
	config *Config
}

// NewLocalBackend creates a local backend with its own simulation pool.
func NewLocalBackend(ctx context.Context, config *Config) *LocalBackend {
	if config == nil {
		config = NewConfig()
	}
	return &LocalBackend{
		pool:   NewQ(ctx, config),
		config: config,
	}
}

func (b *LocalBackend) Name() string {
	return "local-statevector"
}

func (b *LocalBackend) MaxQubits() int {
	return b.config.MaxQubits
}

// Pool exposes the backend's scheduler for callers that want broadcast
// groups or metrics.
func (b *LocalBackend) Pool() *Q {
	return b.pool
}

func (b *LocalBackend) Run(ctx context.Context, circuit *Circuit, shots int) (*Result, error) {
	if err := circuit.Err(); err != nil {
		return nil, err
	}
	if circuit.NumQubits > b.config.MaxQubits {
		return nil, fmt.Errorf("%w: %d qubits, backend allows %d",
			ErrQubitOutOfRange, circuit.NumQubits, b.config.MaxQubits)
	}
	if shots < 1 {
		shots = b.config.Shots
	}

	batchSize := b.config.ShotBatchSize
	if batchSize < 1 || batchSize > shots {
		batchSize = shots
	}

	// One job per shot batch; seeds stay distinct per batch so merged counts
	// are not correlated copies of each other.
	baseSeed := b.config.Seed
	channels := make([]chan QuantumValue, 0, shots/batchSize+1)
	for offset, batch := 0, 0; offset < shots; offset, batch = offset+batchSize, batch+1 {
		n := min(batchSize, shots-offset)
		opts := []JobOption{}
		if baseSeed != 0 {
			opts = append(opts, WithSeed(baseSeed+int64(batch)))
		}
		jobID := uuid.NewString()
		channels = append(channels, b.pool.Schedule(jobID, circuit, n, opts...))
	}

	merged := &Result{Backend: b.Name(), Counts: make(map[string]int)}
	for _, ch := range channels {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case value := <-ch:
			if value.Error != nil {
				return nil, fmt.Errorf("shot batch failed: %w", value.Error)
			}
			batchResult, ok := value.Value.(*Result)
			if !ok {
				return nil, fmt.Errorf("unexpected result type %T", value.Value)
			}
			merged.Merge(batchResult)
			merged.JobID = batchResult.JobID
		}
	}
	return merged, nil
}

// Close shuts down the backend's pool.
func (b *LocalBackend) Close() {
	b.pool.Close()
}
