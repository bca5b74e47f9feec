package qsim

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBuildDeutschJozsa(t *testing.T) {
	Convey("Given a 3-input balanced oracle", t, func() {
		oracle, err := BalancedOracle(3, rand.New(rand.NewSource(5)))
		So(err, ShouldBeNil)

		circuit, err := BuildDeutschJozsa(oracle)
		So(err, ShouldBeNil)

		Convey("The circuit spans the oracle plus the output wire", func() {
			So(circuit.NumQubits, ShouldEqual, 4)
			So(circuit.NumClbits, ShouldEqual, 3)
		})

		Convey("Only the input qubits are measured", func() {
			measures := circuit.MeasuredQubits()
			So(len(measures), ShouldEqual, 3)
			for _, m := range measures {
				So(m.Target, ShouldBeLessThan, 3)
				So(m.Clbit, ShouldEqual, m.Target)
			}
		})

		Convey("Hadamards sandwich the oracle on every input wire", func() {
			hs := countGates(circuit.Gates, GateH)
			// n inputs before, 1 on the output prep, n after, plus any the
			// oracle itself contributes (none for this family).
			So(hs, ShouldEqual, 7)
		})
	})

	Convey("Given a nil or undersized oracle", t, func() {
		_, err := BuildDeutschJozsa(nil)
		So(err, ShouldNotBeNil)

		_, err = BuildDeutschJozsa(&Instruction{Name: "tiny", NumQubits: 1})
		So(err, ShouldNotBeNil)
	})
}

func TestClassify(t *testing.T) {
	Convey("The all-zeros readout means constant", t, func() {
		So(Classify(map[string]int{"000": 1024}, 3), ShouldEqual, Constant)
		So(Classify(map[string]int{"000": 1, "101": 1023}, 3), ShouldEqual, Constant)
	})

	Convey("Anything else means balanced", t, func() {
		So(Classify(map[string]int{"111": 1024}, 3), ShouldEqual, Balanced)
		So(Classify(map[string]int{"01": 512, "10": 512}, 2), ShouldEqual, Balanced)
		So(Classify(map[string]int{}, 2), ShouldEqual, Balanced)
	})
}

func TestDeutschJozsaEndToEnd(t *testing.T) {
	Convey("Given a local backend", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		config := NewConfig()
		config.Seed = 11
		backend := NewLocalBackend(ctx, config)

		Reset(func() {
			cancel()
			backend.Close()
		})

		Convey("Constant oracles always classify as Constant", func() {
			for n := 1; n <= 4; n++ {
				for seed := int64(1); seed <= 4; seed++ {
					oracle, err := ConstantOracle(n, rand.New(rand.NewSource(seed)))
					So(err, ShouldBeNil)

					verdict, result, err := Run(ctx, backend, oracle, 256)
					So(err, ShouldBeNil)
					So(verdict, ShouldEqual, Constant)
					So(result.TotalCounts(), ShouldEqual, 256)

					// Noiseless simulation: every shot reads all zeros.
					zeros := strings.Repeat("0", n)
					So(result.Counts[zeros], ShouldEqual, 256)
				}
			}
		})

		Convey("Balanced oracles always classify as Balanced", func() {
			for n := 1; n <= 4; n++ {
				for seed := int64(1); seed <= 4; seed++ {
					oracle, err := BalancedOracle(n, rand.New(rand.NewSource(seed)))
					So(err, ShouldBeNil)

					verdict, result, err := Run(ctx, backend, oracle, 256)
					So(err, ShouldBeNil)
					So(verdict, ShouldEqual, Balanced)
					So(result.TotalCounts(), ShouldEqual, 256)

					zeros := strings.Repeat("0", n)
					So(result.Counts[zeros], ShouldEqual, 0)
				}
			}
		})

		Convey("The parity oracle interferes to the all-ones readout", func() {
			oracle, err := BalancedOracle(3, rand.New(rand.NewSource(8)))
			So(err, ShouldBeNil)

			_, result, err := Run(ctx, backend, oracle, 128)
			So(err, ShouldBeNil)
			So(result.Counts["111"], ShouldEqual, 128)
		})
	})
}

func TestRunPropagatesBackendErrors(t *testing.T) {
	Convey("Given a backend that cannot hold the circuit", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		config := NewConfig()
		config.MaxQubits = 2
		backend := NewLocalBackend(ctx, config)

		Reset(func() {
			cancel()
			backend.Close()
		})

		oracle, err := BalancedOracle(5, rand.New(rand.NewSource(1)))
		So(err, ShouldBeNil)

		_, _, err = Run(ctx, backend, oracle, 64)
		So(err, ShouldNotBeNil)
		So(fmt.Sprint(err), ShouldContainSubstring, "qubit")
	})
}
