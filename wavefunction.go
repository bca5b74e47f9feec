// wavefunction.go
package qsim

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/theapemachine/errnie"
)

/*
StateVector holds the full wave function of an n-qubit register: 2^n complex
amplitudes indexed by computational basis state. Qubit 0 is the least
significant bit of the basis index.

The register starts in |0...0> and evolves by replaying circuit gates.
Measurement never mutates the vector here; sampling draws shot outcomes from
the probability distribution, which lets a single evolution serve any number
of shots for circuits that only measure at the end.
*/
type StateVector struct {
	Amplitudes []complex128
	NumQubits  int
}

// NewStateVector creates an n-qubit register initialized to |0...0>.
func NewStateVector(numQubits int) (*StateVector, error) {
	if numQubits < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQubitCount, numQubits)
	}
	amps := make([]complex128, 1<<numQubits)
	amps[0] = 1
	return &StateVector{Amplitudes: amps, NumQubits: numQubits}, nil
}

// Clone returns a deep copy of the state vector.
func (s *StateVector) Clone() *StateVector {
	amps := make([]complex128, len(s.Amplitudes))
	copy(amps, s.Amplitudes)
	return &StateVector{Amplitudes: amps, NumQubits: s.NumQubits}
}

// Evolve replays every unitary gate of the circuit onto the state vector.
// Barriers and measurements are skipped; measurements are resolved later by
// sampling.
func (s *StateVector) Evolve(c *Circuit) error {
	if err := c.Err(); err != nil {
		return err
	}
	if c.NumQubits != s.NumQubits {
		return fmt.Errorf("%w: circuit has %d qubits, register has %d",
			ErrQubitOutOfRange, c.NumQubits, s.NumQubits)
	}
	for _, g := range c.Gates {
		if err := s.ApplyGate(g); err != nil {
			return err
		}
	}
	return nil
}

// ApplyGate applies a single gate to the state vector.
func (s *StateVector) ApplyGate(g Gate) error {
	switch g.Kind {
	case GateH:
		s.applyH(g.Target)
	case GateX:
		s.applyX(g.Target)
	case GateZ:
		s.applyZ(g.Target)
	case GateCX:
		s.applyCX(g.Control, g.Target)
	case GateBarrier, GateMeasure:
		// No unitary action.
	default:
		return fmt.Errorf("unsupported gate %q", g.Kind)
	}
	return nil
}

func (s *StateVector) applyH(target int) {
	bit := 1 << target
	inv := complex(1/math.Sqrt2, 0)
	for i := range s.Amplitudes {
		if i&bit == 0 {
			j := i | bit
			a0, a1 := s.Amplitudes[i], s.Amplitudes[j]
			s.Amplitudes[i] = inv * (a0 + a1)
			s.Amplitudes[j] = inv * (a0 - a1)
		}
	}
}

func (s *StateVector) applyX(target int) {
	bit := 1 << target
	for i := range s.Amplitudes {
		if i&bit == 0 {
			j := i | bit
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

func (s *StateVector) applyZ(target int) {
	bit := 1 << target
	for i := range s.Amplitudes {
		if i&bit != 0 {
			s.Amplitudes[i] = -s.Amplitudes[i]
		}
	}
}

func (s *StateVector) applyCX(control, target int) {
	cbit := 1 << control
	tbit := 1 << target
	for i := range s.Amplitudes {
		if i&cbit != 0 && i&tbit == 0 {
			j := i | tbit
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

// Probabilities returns |amplitude|^2 for every basis state.
func (s *StateVector) Probabilities() []float64 {
	probs := make([]float64, len(s.Amplitudes))
	for i, amp := range s.Amplitudes {
		mod := cmplx.Abs(amp)
		probs[i] = mod * mod
	}
	return probs
}

// Norm returns the total probability mass. Unitary evolution keeps it at 1
// within float tolerance.
func (s *StateVector) Norm() float64 {
	total := 0.0
	for _, p := range s.Probabilities() {
		total += p
	}
	return total
}

// Sample draws one measurement outcome from the current distribution and
// returns the basis index. The vector is not collapsed.
func (s *StateVector) Sample(rng *rand.Rand) int {
	probs := s.Probabilities()
	total := 0.0
	for _, p := range probs {
		total += p
	}

	r := rng.Float64() * total
	cumulative := 0.0
	for i, p := range probs {
		cumulative += p
		if r <= cumulative {
			return i
		}
	}
	return len(probs) - 1
}

// Collapse samples an outcome and projects the wave function onto it,
// mirroring a destructive measurement of the whole register.
func (s *StateVector) Collapse(rng *rand.Rand) int {
	measured := s.Sample(rng)
	errnie.Info("Collapse - basis state %d of %d", measured, len(s.Amplitudes))

	collapsed := make([]complex128, len(s.Amplitudes))
	collapsed[measured] = 1
	s.Amplitudes = collapsed
	return measured
}

// Qubit returns the single-qubit marginal view of the given wire. The
// amplitudes carry no relative phase; only the probabilities are meaningful
// for entangled registers.
func (s *StateVector) Qubit(index int) (Qubit, error) {
	if index < 0 || index >= s.NumQubits {
		return Qubit{}, fmt.Errorf("%w: q[%d]", ErrQubitOutOfRange, index)
	}
	bit := 1 << index
	p1 := 0.0
	for i, p := range s.Probabilities() {
		if i&bit != 0 {
			p1 += p
		}
	}
	return NewQubit(complex(math.Sqrt(1-p1), 0), complex(math.Sqrt(p1), 0)), nil
}

// readout builds the classical register string for a sampled basis index.
// Classical bit 0 is the rightmost character of the key.
func readout(basis int, numClbits int, measures []Gate) string {
	key := make([]byte, numClbits)
	for i := range key {
		key[i] = '0'
	}
	for _, m := range measures {
		if basis&(1<<m.Target) != 0 {
			key[numClbits-1-m.Clbit] = '1'
		}
	}
	return string(key)
}
