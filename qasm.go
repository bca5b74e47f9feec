package qsim

import (
	"fmt"
	"strings"
)

// ToQASM renders the circuit as OpenQASM 2.0. This is the wire format the
// remote backend submits and a convenient human-readable dump of what the
// builder produced.
func (c *Circuit) ToQASM() (string, error) {
	if err := c.Err(); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n")
	fmt.Fprintf(&sb, "qreg q[%d];\n", c.NumQubits)
	if c.NumClbits > 0 {
		fmt.Fprintf(&sb, "creg c[%d];\n", c.NumClbits)
	}

	for _, g := range c.Gates {
		switch g.Kind {
		case GateH, GateX, GateZ:
			fmt.Fprintf(&sb, "%s q[%d];\n", g.Kind, g.Target)
		case GateCX:
			fmt.Fprintf(&sb, "cx q[%d],q[%d];\n", g.Control, g.Target)
		case GateBarrier:
			sb.WriteString("barrier q;\n")
		case GateMeasure:
			fmt.Fprintf(&sb, "measure q[%d] -> c[%d];\n", g.Target, g.Clbit)
		default:
			return "", fmt.Errorf("gate %q has no QASM form", g.Kind)
		}
	}
	return sb.String(), nil
}
