package qsim

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCircuitBuilder(t *testing.T) {
	Convey("Given a circuit under construction", t, func() {
		circuit := NewCircuit(3, 2)

		Convey("Gates accumulate in order", func() {
			circuit.H(0).X(1).CX(0, 2).Barrier().Measure(0, 0).Measure(2, 1)

			So(circuit.Err(), ShouldBeNil)
			So(len(circuit.Gates), ShouldEqual, 6)
			So(circuit.Gates[0].Kind, ShouldEqual, GateH)
			So(circuit.Gates[2].Control, ShouldEqual, 0)
			So(circuit.Gates[2].Target, ShouldEqual, 2)
		})

		Convey("An out-of-range qubit is recorded as an error", func() {
			circuit.H(5)
			So(circuit.Err(), ShouldNotBeNil)
			So(len(circuit.Gates), ShouldEqual, 0)
		})

		Convey("An out-of-range classical bit is recorded as an error", func() {
			circuit.Measure(0, 7)
			So(circuit.Err(), ShouldNotBeNil)
		})

		Convey("CX with equal control and target is rejected", func() {
			circuit.CX(1, 1)
			So(circuit.Err(), ShouldNotBeNil)
		})

		Convey("Only the first error is kept", func() {
			circuit.H(5).X(-1)
			first := circuit.Err()
			circuit.Z(9)
			So(circuit.Err(), ShouldEqual, first)
		})

		Convey("MeasuredQubits returns measure gates in order", func() {
			circuit.Measure(1, 0).Measure(2, 1)
			measures := circuit.MeasuredQubits()
			So(len(measures), ShouldEqual, 2)
			So(measures[0].Target, ShouldEqual, 1)
			So(measures[1].Clbit, ShouldEqual, 1)
		})
	})

	Convey("Given an empty register request", t, func() {
		circuit := NewCircuit(0, 0)
		So(circuit.Err(), ShouldNotBeNil)
	})
}

func TestInstruction(t *testing.T) {
	Convey("Given a circuit frozen into an instruction", t, func() {
		circuit := NewCircuit(2, 1).X(0).Barrier().CX(0, 1).Measure(0, 0)
		inst, err := circuit.ToInstruction("TestBlock")

		So(err, ShouldBeNil)
		So(inst.Name, ShouldEqual, "TestBlock")

		Convey("Barriers and measurements are stripped", func() {
			So(len(inst.Gates), ShouldEqual, 2)
			for _, g := range inst.Gates {
				So(g.Kind, ShouldNotEqual, GateBarrier)
				So(g.Kind, ShouldNotEqual, GateMeasure)
			}
		})

		Convey("Appending onto a wide enough host succeeds", func() {
			host := NewCircuit(3, 0).Append(inst)
			So(host.Err(), ShouldBeNil)
			So(len(host.Gates), ShouldEqual, 2)
		})

		Convey("Appending onto a narrower host fails", func() {
			host := NewCircuit(1, 0).Append(inst)
			So(host.Err(), ShouldNotBeNil)
		})
	})

	Convey("Given a broken circuit", t, func() {
		circuit := NewCircuit(1, 0).H(4)
		_, err := circuit.ToInstruction("Broken")
		So(err, ShouldNotBeNil)
	})
}

func TestCircuitString(t *testing.T) {
	Convey("The string dump lists every gate", t, func() {
		circuit := NewCircuit(2, 1).H(0).CX(0, 1).Measure(1, 0)
		dump := circuit.String()

		So(dump, ShouldContainSubstring, "h q[0]")
		So(dump, ShouldContainSubstring, "cx q[0],q[1]")
		So(dump, ShouldContainSubstring, "measure q[1] -> c[0]")
		So(strings.Count(dump, "\n"), ShouldEqual, 4)
	})
}
