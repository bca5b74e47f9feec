package qsim

import (
	"fmt"
	"math/rand"
)

// OracleKind names the promised property of a black-box function.
type OracleKind string

const (
	OracleConstant OracleKind = "constant"
	OracleBalanced OracleKind = "balanced"
)

/*
ConstantOracle builds a black-box instruction over numInputs input qubits and
one output qubit that computes a constant function: f(x) = 0 or f(x) = 1 for
every input. Which of the two is decided by a coin flip on the supplied
source of randomness; f(x) = 1 is realized as a single X on the output wire.
*/
func ConstantOracle(numInputs int, rng *rand.Rand) (*Instruction, error) {
	if numInputs < 1 {
		return nil, fmt.Errorf("%w: %d inputs", ErrInvalidQubitCount, numInputs)
	}

	oracle := NewCircuit(numInputs+1, 0)
	if rng.Intn(2) == 1 {
		oracle.X(numInputs)
	}
	return oracle.ToInstruction("ConstantOracle")
}

/*
BalancedOracle builds a black-box instruction over numInputs input qubits and
one output qubit that computes a balanced function: exactly half of all
inputs map to 1.

A non-zero mask is drawn at random. Input wires selected by the mask are
wrapped in X gates around a CX fan-in from every input to the output, so the
realized function is the parity of all inputs, offset by the mask parity.
Parity is balanced for any input width, and the mask varies which concrete
balanced function the oracle hides.
*/
func BalancedOracle(numInputs int, rng *rand.Rand) (*Instruction, error) {
	if numInputs < 1 {
		return nil, fmt.Errorf("%w: %d inputs", ErrInvalidQubitCount, numInputs)
	}
	if numInputs > 62 {
		return nil, fmt.Errorf("%w: %d inputs exceeds mask width", ErrQubitOutOfRange, numInputs)
	}

	// Mask in [1, 2^n) so at least one wire is wrapped.
	mask := uint64(1 + rng.Int63n((1<<numInputs)-1))

	oracle := NewCircuit(numInputs+1, 0)
	for q := 0; q < numInputs; q++ {
		if mask&(1<<q) != 0 {
			oracle.X(q)
		}
	}
	for q := 0; q < numInputs; q++ {
		oracle.CX(q, numInputs)
	}
	for q := 0; q < numInputs; q++ {
		if mask&(1<<q) != 0 {
			oracle.X(q)
		}
	}
	return oracle.ToInstruction("BalancedOracle")
}

// RandomOracle draws a constant or balanced oracle with equal probability
// and reports which kind was built. Used by experiments that grade the
// classifier against a known ground truth.
func RandomOracle(numInputs int, rng *rand.Rand) (*Instruction, OracleKind, error) {
	if rng.Intn(2) == 0 {
		inst, err := ConstantOracle(numInputs, rng)
		return inst, OracleConstant, err
	}
	inst, err := BalancedOracle(numInputs, rng)
	return inst, OracleBalanced, err
}
