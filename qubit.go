package qsim

import (
	"math"
	"math/cmplx"
	"math/rand"
)

type Qubit struct {
	alpha complex128 // |0⟩ amplitude
	beta  complex128 // |1⟩ amplitude
}

func NewQubit(alpha, beta complex128) Qubit {
	return Qubit{alpha: alpha, beta: beta}
}

func (q *Qubit) ApplyHadamard() {
	// H = 1/√2 * [1  1]
	//           [1 -1]
	newAlpha := (q.alpha + q.beta) / complex(math.Sqrt2, 0)
	newBeta := (q.alpha - q.beta) / complex(math.Sqrt2, 0)
	q.alpha = newAlpha
	q.beta = newBeta
}

func (q *Qubit) ApplyX() {
	q.alpha, q.beta = q.beta, q.alpha
}

// ProbabilityOne returns the chance of reading |1⟩ from this qubit.
func (q *Qubit) ProbabilityOne() float64 {
	mod := cmplx.Abs(q.beta)
	return mod * mod
}

// Measure samples the qubit and collapses it to the observed basis state.
func (q *Qubit) Measure(rng *rand.Rand) int {
	if rng.Float64() < q.ProbabilityOne() {
		q.alpha, q.beta = 0, 1
		return 1
	}
	q.alpha, q.beta = 1, 0
	return 0
}
