package qsim

import (
	"errors"
	"fmt"
	"sync"
)

// ErrStateBudgetExceeded is returned when a circuit's state vector does not
// fit in the configured memory budget.
var ErrStateBudgetExceeded = errors.New("state vector exceeds memory budget")

const bytesPerAmplitude = 16 // complex128

/*
MemoryGovernor implements the Regulator interface to cap the total state
vector memory held by in-flight simulations. Every additional qubit doubles
a register's footprint, so a handful of wide jobs can exhaust a host that
comfortably runs thousands of narrow ones. Workers reserve a circuit's
footprint before allocating and release it when the job finishes.
*/
type MemoryGovernor struct {
	mu sync.Mutex

	budgetBytes int64 // Total allowed amplitude memory
	inUseBytes  int64 // Currently reserved amplitude memory
	metrics     *Metrics
}

// NewMemoryGovernor creates a governor with the given amplitude memory
// budget in bytes.
func NewMemoryGovernor(budgetBytes int64) *MemoryGovernor {
	return &MemoryGovernor{budgetBytes: budgetBytes}
}

// StateBytes returns the amplitude memory footprint of an n-qubit register.
func StateBytes(numQubits int) int64 {
	return bytesPerAmplitude << numQubits
}

// Reserve claims the footprint of an n-qubit register, or fails when the
// budget cannot accommodate it alongside the jobs already in flight.
func (mg *MemoryGovernor) Reserve(numQubits int) error {
	needed := StateBytes(numQubits)

	mg.mu.Lock()
	defer mg.mu.Unlock()

	if needed > mg.budgetBytes {
		return fmt.Errorf("%w: %d qubits need %d bytes, budget is %d",
			ErrStateBudgetExceeded, numQubits, needed, mg.budgetBytes)
	}
	if mg.inUseBytes+needed > mg.budgetBytes {
		return fmt.Errorf("%w: %d bytes in flight, %d more requested, budget is %d",
			ErrStateBudgetExceeded, mg.inUseBytes, needed, mg.budgetBytes)
	}
	mg.inUseBytes += needed
	return nil
}

// Release returns an n-qubit register's footprint to the budget.
func (mg *MemoryGovernor) Release(numQubits int) {
	mg.mu.Lock()
	defer mg.mu.Unlock()

	mg.inUseBytes -= StateBytes(numQubits)
	if mg.inUseBytes < 0 {
		mg.inUseBytes = 0
	}
}

// Observe implements the Regulator interface.
func (mg *MemoryGovernor) Observe(metrics *Metrics) {
	mg.mu.Lock()
	defer mg.mu.Unlock()
	mg.metrics = metrics
}

// Limit implements the Regulator interface. The governor limits intake once
// more than 90% of the budget is reserved.
func (mg *MemoryGovernor) Limit() bool {
	mg.mu.Lock()
	defer mg.mu.Unlock()
	return float64(mg.inUseBytes) >= float64(mg.budgetBytes)*0.9
}

// Renormalize implements the Regulator interface. Reservations are released
// by the workers that hold them; nothing to do here.
func (mg *MemoryGovernor) Renormalize() {}

// InUse returns the currently reserved amplitude memory in bytes.
func (mg *MemoryGovernor) InUse() int64 {
	mg.mu.Lock()
	defer mg.mu.Unlock()
	return mg.inUseBytes
}
