package qsim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

/*
Experiment wraps a series of Deutsch-Jozsa trials into a shared space. Each
trial draws a fresh oracle with a known property, runs the algorithm once,
and grades the verdict against the ground truth.

Trial outcomes are recorded in an append-only ledger so that observers who
attach after trials have started still see the complete history in order.
The OnTrial callback fires for every record as it lands, which is how the
CLI streams progress.
*/
type Experiment struct {
	ID        string
	NumInputs int
	Shots     int
	CreatedAt time.Time

	mu      sync.RWMutex
	ledger  []TrialRecord
	rng     *rand.Rand
	OnTrial func(TrialRecord)

	// Broadcast, when set, fans every record out to group subscribers.
	Broadcast *BroadcastGroup
}

/*
TrialRecord is an immutable record of one graded trial. Sequence numbers are
assigned in ledger order and never reused.
*/
type TrialRecord struct {
	Sequence  uint64
	Kind      OracleKind
	Verdict   Classification
	Correct   bool
	Latency   time.Duration
	Timestamp time.Time
}

// ExperimentSummary aggregates a finished run of trials.
type ExperimentSummary struct {
	Trials        int
	Correct       int
	SuccessRate   float64
	MeanLatency   time.Duration
	StdDevLatency time.Duration
}

// NewExperiment creates an experiment over n-input oracles. A zero seed
// derives one from the clock.
func NewExperiment(id string, numInputs, shots int, seed int64) *Experiment {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Experiment{
		ID:        id,
		NumInputs: numInputs,
		Shots:     shots,
		CreatedAt: time.Now(),
		ledger:    make([]TrialRecord, 0),
		rng:       rand.New(rand.NewSource(seed)),
	}
}

/*
RunTrials executes the given number of trials against a backend and returns
the aggregate summary. Each trial flips between oracle kinds at random, so a
classifier that always answers one way scores near 50%, not 100%.
*/
func (e *Experiment) RunTrials(ctx context.Context, backend Backend, trials int) (*ExperimentSummary, error) {
	if trials < 1 {
		return nil, fmt.Errorf("trials must be at least 1, got %d", trials)
	}

	for i := 0; i < trials; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		oracle, kind, err := e.drawOracle()
		if err != nil {
			return nil, err
		}

		started := time.Now()
		verdict, _, err := Run(ctx, backend, oracle, e.Shots)
		if err != nil {
			return nil, fmt.Errorf("trial %d failed: %w", i, err)
		}

		e.record(kind, verdict, time.Since(started))
	}

	return e.Summary(), nil
}

func (e *Experiment) drawOracle() (*Instruction, OracleKind, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return RandomOracle(e.NumInputs, e.rng)
}

func (e *Experiment) record(kind OracleKind, verdict Classification, latency time.Duration) {
	correct := (kind == OracleConstant && verdict == Constant) ||
		(kind == OracleBalanced && verdict == Balanced)

	e.mu.Lock()
	rec := TrialRecord{
		Sequence:  uint64(len(e.ledger)),
		Kind:      kind,
		Verdict:   verdict,
		Correct:   correct,
		Latency:   latency,
		Timestamp: time.Now(),
	}
	e.ledger = append(e.ledger, rec)
	callback := e.OnTrial
	group := e.Broadcast
	e.mu.Unlock()

	if group != nil {
		group.Send(QuantumValue{Value: rec, CreatedAt: rec.Timestamp})
	}
	if callback != nil {
		callback(rec)
	}
}

/*
History returns all trial records since a given sequence number, letting a
late observer catch up on everything it missed.
*/
func (e *Experiment) History(sinceSequence uint64) []TrialRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if sinceSequence >= uint64(len(e.ledger)) {
		return []TrialRecord{}
	}

	history := make([]TrialRecord, len(e.ledger[sinceSequence:]))
	copy(history, e.ledger[sinceSequence:])
	return history
}

// Summary aggregates the current ledger.
func (e *Experiment) Summary() *ExperimentSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()

	summary := &ExperimentSummary{Trials: len(e.ledger)}
	if summary.Trials == 0 {
		return summary
	}

	latencies := make([]float64, 0, len(e.ledger))
	for _, rec := range e.ledger {
		if rec.Correct {
			summary.Correct++
		}
		latencies = append(latencies, rec.Latency.Seconds())
	}

	summary.SuccessRate = float64(summary.Correct) / float64(summary.Trials)
	summary.MeanLatency = time.Duration(stat.Mean(latencies, nil) * float64(time.Second))
	if len(latencies) > 1 {
		summary.StdDevLatency = time.Duration(stat.StdDev(latencies, nil) * float64(time.Second))
	}
	return summary
}
