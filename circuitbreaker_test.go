package qsim

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCircuitBreaker(t *testing.T) {
	Convey("Given a new circuit breaker", t, func() {
		cb := NewCircuitBreaker(3, 100*time.Millisecond, 2)

		Convey("It starts closed and allows submissions", func() {
			So(cb.Allow(), ShouldBeTrue)
			So(cb.Limit(), ShouldBeFalse)
		})

		Convey("When failures stay under the threshold", func() {
			cb.RecordFailure()
			cb.RecordFailure()

			So(cb.Allow(), ShouldBeTrue)

			Convey("A success resets the count", func() {
				cb.RecordSuccess()
				cb.RecordFailure()
				cb.RecordFailure()
				So(cb.Allow(), ShouldBeTrue)
			})
		})

		Convey("When the failure threshold is reached", func() {
			cb.RecordFailure()
			cb.RecordFailure()
			cb.RecordFailure()

			Convey("The circuit opens and rejects submissions", func() {
				So(cb.Allow(), ShouldBeFalse)
				So(cb.Limit(), ShouldBeTrue)
			})

			Convey("After the reset timeout it probes in half-open", func() {
				time.Sleep(150 * time.Millisecond)
				So(cb.Allow(), ShouldBeTrue)

				Convey("Enough successes close the circuit again", func() {
					cb.RecordSuccess()
					cb.RecordSuccess()
					So(cb.Allow(), ShouldBeTrue)
					cb.RecordFailure()
					So(cb.Allow(), ShouldBeTrue)
				})

				Convey("Renormalize performs the same transition", func() {
					cb.Renormalize()
					So(cb.Allow(), ShouldBeTrue)
				})
			})
		})
	})
}
