package qsim

import "fmt"

// GateKind identifies the operation a gate performs on the register.
type GateKind string

const (
	GateH       GateKind = "h"
	GateX       GateKind = "x"
	GateZ       GateKind = "z"
	GateCX      GateKind = "cx"
	GateBarrier GateKind = "barrier"
	GateMeasure GateKind = "measure"
)

// Gate is a single placement on the circuit timeline. Control is -1 for
// single-qubit gates. For measure gates Clbit holds the classical bit the
// outcome is written to; it is -1 otherwise.
type Gate struct {
	Kind    GateKind
	Target  int
	Control int
	Clbit   int
}

func (g Gate) String() string {
	switch g.Kind {
	case GateCX:
		return fmt.Sprintf("cx q[%d],q[%d]", g.Control, g.Target)
	case GateMeasure:
		return fmt.Sprintf("measure q[%d] -> c[%d]", g.Target, g.Clbit)
	case GateBarrier:
		return "barrier"
	default:
		return fmt.Sprintf("%s q[%d]", g.Kind, g.Target)
	}
}
