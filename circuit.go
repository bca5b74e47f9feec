package qsim

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidQubitCount = errors.New("qubit count must be at least 1")
	ErrQubitOutOfRange   = errors.New("qubit index out of range")
	ErrClbitOutOfRange   = errors.New("classical bit index out of range")
	ErrInvalidGate       = errors.New("invalid gate placement")
)

/*
Circuit is an ordered sequence of gates over a quantum register and a
classical register. Gates are appended through the builder methods and
replayed in order by the simulation engine.

The builder methods record the first invalid placement instead of failing
immediately, so construction code can stay fluent; Err surfaces the error
before the circuit is handed to a backend.
*/
type Circuit struct {
	NumQubits int
	NumClbits int
	Gates     []Gate

	err error
}

// NewCircuit creates a circuit with the given quantum and classical
// register sizes.
func NewCircuit(numQubits, numClbits int) *Circuit {
	c := &Circuit{NumQubits: numQubits, NumClbits: numClbits}
	if numQubits < 1 {
		c.err = fmt.Errorf("%w: %d", ErrInvalidQubitCount, numQubits)
	}
	if numClbits < 0 {
		c.err = fmt.Errorf("%w: %d", ErrClbitOutOfRange, numClbits)
	}
	return c
}

// Err returns the first error recorded during circuit construction.
func (c *Circuit) Err() error {
	return c.err
}

func (c *Circuit) checkQubit(q int) bool {
	if q < 0 || q >= c.NumQubits {
		if c.err == nil {
			c.err = fmt.Errorf("%w: q[%d] on %d-qubit circuit", ErrQubitOutOfRange, q, c.NumQubits)
		}
		return false
	}
	return true
}

func (c *Circuit) checkClbit(b int) bool {
	if b < 0 || b >= c.NumClbits {
		if c.err == nil {
			c.err = fmt.Errorf("%w: c[%d] on %d-bit register", ErrClbitOutOfRange, b, c.NumClbits)
		}
		return false
	}
	return true
}

// H appends a Hadamard gate on the target qubit.
func (c *Circuit) H(target int) *Circuit {
	if c.checkQubit(target) {
		c.Gates = append(c.Gates, Gate{Kind: GateH, Target: target, Control: -1, Clbit: -1})
	}
	return c
}

// X appends a Pauli-X gate on the target qubit.
func (c *Circuit) X(target int) *Circuit {
	if c.checkQubit(target) {
		c.Gates = append(c.Gates, Gate{Kind: GateX, Target: target, Control: -1, Clbit: -1})
	}
	return c
}

// Z appends a Pauli-Z gate on the target qubit.
func (c *Circuit) Z(target int) *Circuit {
	if c.checkQubit(target) {
		c.Gates = append(c.Gates, Gate{Kind: GateZ, Target: target, Control: -1, Clbit: -1})
	}
	return c
}

// CX appends a controlled-X gate.
func (c *Circuit) CX(control, target int) *Circuit {
	if c.checkQubit(control) && c.checkQubit(target) {
		if control == target {
			if c.err == nil {
				c.err = fmt.Errorf("%w: cx control equals target q[%d]", ErrInvalidGate, target)
			}
			return c
		}
		c.Gates = append(c.Gates, Gate{Kind: GateCX, Target: target, Control: control, Clbit: -1})
	}
	return c
}

// Barrier appends a scheduling barrier. The simulator treats it as a no-op;
// it survives into the QASM dump for readability.
func (c *Circuit) Barrier() *Circuit {
	c.Gates = append(c.Gates, Gate{Kind: GateBarrier, Target: -1, Control: -1, Clbit: -1})
	return c
}

// Measure appends a measurement of the target qubit into the given
// classical bit.
func (c *Circuit) Measure(target, clbit int) *Circuit {
	if c.checkQubit(target) && c.checkClbit(clbit) {
		c.Gates = append(c.Gates, Gate{Kind: GateMeasure, Target: target, Control: -1, Clbit: clbit})
	}
	return c
}

// Append splices a named instruction into the circuit starting at qubit 0.
// The instruction must not span more qubits than the circuit provides.
func (c *Circuit) Append(inst *Instruction) *Circuit {
	if inst == nil {
		return c
	}
	if inst.NumQubits > c.NumQubits {
		if c.err == nil {
			c.err = fmt.Errorf("%w: instruction %q spans %d qubits, circuit has %d",
				ErrQubitOutOfRange, inst.Name, inst.NumQubits, c.NumQubits)
		}
		return c
	}
	c.Gates = append(c.Gates, inst.Gates...)
	return c
}

// MeasuredQubits returns the measure gates in the order they appear on the
// circuit.
func (c *Circuit) MeasuredQubits() []Gate {
	measures := make([]Gate, 0, c.NumClbits)
	for _, g := range c.Gates {
		if g.Kind == GateMeasure {
			measures = append(measures, g)
		}
	}
	return measures
}

func (c *Circuit) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "circuit(%dq, %dc)\n", c.NumQubits, c.NumClbits)
	for _, g := range c.Gates {
		sb.WriteString("  " + g.String() + "\n")
	}
	return sb.String()
}

/*
Instruction is a frozen, named circuit fragment. Oracles are built as
instructions so they can be spliced into a host circuit as an opaque block,
the way the black-box function is handed to the algorithm.
*/
type Instruction struct {
	Name      string
	NumQubits int
	Gates     []Gate
}

// ToInstruction freezes the circuit's gate list under the given name.
// Barrier and measure gates are dropped: an instruction is a pure unitary
// block.
func (c *Circuit) ToInstruction(name string) (*Instruction, error) {
	if c.err != nil {
		return nil, c.err
	}
	gates := make([]Gate, 0, len(c.Gates))
	for _, g := range c.Gates {
		if g.Kind == GateBarrier || g.Kind == GateMeasure {
			continue
		}
		gates = append(gates, g)
	}
	return &Instruction{Name: name, NumQubits: c.NumQubits, Gates: gates}, nil
}
