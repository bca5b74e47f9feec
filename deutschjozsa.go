package qsim

import (
	"context"
	"fmt"
	"strings"
)

/*
BuildDeutschJozsa assembles the Deutsch-Jozsa circuit around an oracle
spanning n input qubits plus one output qubit.

The layout follows the textbook construction: Hadamards put every input
qubit into superposition, the output qubit is prepared in |−⟩ with X then H,
the oracle is applied once, a second Hadamard layer interferes the inputs,
and only the input qubits are measured. A single oracle query is enough
because a constant function leaves the input register in |0...0⟩ while a
balanced one moves all amplitude away from it.
*/
func BuildDeutschJozsa(oracle *Instruction) (*Circuit, error) {
	if oracle == nil {
		return nil, fmt.Errorf("%w: nil oracle", ErrInvalidQubitCount)
	}
	if oracle.NumQubits < 2 {
		return nil, fmt.Errorf("%w: oracle needs at least one input and one output qubit", ErrInvalidQubitCount)
	}

	numInputs := oracle.NumQubits - 1
	circuit := NewCircuit(numInputs+1, numInputs)

	for q := 0; q < numInputs; q++ {
		circuit.H(q)
	}

	// Output qubit to |−⟩ so the oracle kicks its phase back onto the inputs.
	circuit.X(numInputs)
	circuit.H(numInputs)
	circuit.Barrier()

	circuit.Append(oracle)
	circuit.Barrier()

	for q := 0; q < numInputs; q++ {
		circuit.H(q)
	}
	circuit.Barrier()

	for q := 0; q < numInputs; q++ {
		circuit.Measure(q, q)
	}

	if err := circuit.Err(); err != nil {
		return nil, err
	}
	return circuit, nil
}

// Classify maps a counts histogram over numInputs classical bits to the
// oracle's property. Observing the all-zeros readout means constant;
// anything else means balanced.
func Classify(counts map[string]int, numInputs int) Classification {
	zeros := strings.Repeat("0", numInputs)
	if _, ok := counts[zeros]; ok {
		return Constant
	}
	return Balanced
}

/*
Run executes the full demonstration against a backend: assemble the circuit
for the given oracle, run it for the configured number of shots, and read
the classification off the counts.
*/
func Run(ctx context.Context, backend Backend, oracle *Instruction, shots int) (Classification, *Result, error) {
	circuit, err := BuildDeutschJozsa(oracle)
	if err != nil {
		return "", nil, err
	}

	result, err := backend.Run(ctx, circuit, shots)
	if err != nil {
		return "", nil, fmt.Errorf("deutsch-jozsa run failed: %w", err)
	}

	return Classify(result.Counts, oracle.NumQubits-1), result, nil
}
