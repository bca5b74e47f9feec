package qsim

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryGovernor(t *testing.T) {
	Convey("Given a governor with room for one 10-qubit register", t, func() {
		governor := NewMemoryGovernor(StateBytes(10))

		Convey("StateBytes doubles per qubit", func() {
			So(StateBytes(0), ShouldEqual, 16)
			So(StateBytes(1), ShouldEqual, 32)
			So(StateBytes(10), ShouldEqual, 16*1024)
		})

		Convey("Reservations are accounted and released", func() {
			So(governor.Reserve(9), ShouldBeNil)
			So(governor.InUse(), ShouldEqual, StateBytes(9))

			So(governor.Reserve(9), ShouldBeNil)
			So(governor.InUse(), ShouldEqual, StateBytes(10))

			governor.Release(9)
			governor.Release(9)
			So(governor.InUse(), ShouldEqual, 0)
		})

		Convey("A register wider than the budget is refused", func() {
			err := governor.Reserve(11)
			So(err, ShouldWrap, ErrStateBudgetExceeded)
		})

		Convey("Concurrent reservations cannot overshoot the budget", func() {
			So(governor.Reserve(10), ShouldBeNil)

			err := governor.Reserve(1)
			So(err, ShouldWrap, ErrStateBudgetExceeded)

			governor.Release(10)
			So(governor.Reserve(1), ShouldBeNil)
		})

		Convey("Release never drives usage negative", func() {
			governor.Release(10)
			So(governor.InUse(), ShouldEqual, 0)
		})

		Convey("The regulator limits intake near the budget", func() {
			So(governor.Limit(), ShouldBeFalse)
			So(governor.Reserve(10), ShouldBeNil)
			So(governor.Limit(), ShouldBeTrue)
		})
	})
}
