package qsim

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRateLimiter(t *testing.T) {
	Convey("Given a token bucket rate limiter", t, func() {
		rl := NewRateLimiter(3, 50*time.Millisecond)

		Convey("A full bucket allows a burst up to capacity", func() {
			So(rl.Limit(), ShouldBeFalse)
			So(rl.Limit(), ShouldBeFalse)
			So(rl.Limit(), ShouldBeFalse)
		})

		Convey("An empty bucket limits further submissions", func() {
			for i := 0; i < 4; i++ {
				rl.Limit()
			}
			So(rl.Limit(), ShouldBeTrue)
		})

		Convey("Tokens replenish with elapsed time", func() {
			for i := 0; i < 5; i++ {
				rl.Limit()
			}
			So(rl.Limit(), ShouldBeTrue)

			time.Sleep(120 * time.Millisecond)
			So(rl.Limit(), ShouldBeFalse)
		})

		Convey("Refills never exceed bucket capacity", func() {
			time.Sleep(250 * time.Millisecond)
			rl.Renormalize()

			allowed := 0
			for i := 0; i < 10; i++ {
				if !rl.Limit() {
					allowed++
				}
			}
			So(allowed, ShouldBeLessThanOrEqualTo, 4)
		})
	})
}
