package qsim

import (
	"context"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSimulationPool(t *testing.T) {
	Convey("Given a new simulation pool", t, func(c C) {
		ctx, cancel := context.WithCancel(context.Background())
		q := NewQ(ctx, nil)

		Reset(func() {
			cancel()
			time.Sleep(100 * time.Millisecond)
		})

		Convey("When scheduling a simple circuit", func(c C) {
			circuit := NewCircuit(1, 1).X(0).Measure(0, 0)
			result := <-q.Schedule("flip-job", circuit, 100)

			c.So(result.Error, ShouldBeNil)
			res := result.Value.(*Result)
			c.So(res.Shots, ShouldEqual, 100)
			c.So(res.Counts["1"], ShouldEqual, 100)
			c.So(res.Backend, ShouldEqual, "statevector")
		})

		Convey("When scheduling with a pinned seed", func(c C) {
			circuit := NewCircuit(1, 1).H(0).Measure(0, 0)

			first := <-q.Schedule("seeded-a", circuit, 500, WithSeed(1234))
			second := <-q.Schedule("seeded-b", circuit, 500, WithSeed(1234))

			c.So(first.Error, ShouldBeNil)
			c.So(second.Error, ShouldBeNil)
			c.So(first.Value.(*Result).Counts, ShouldResemble, second.Value.(*Result).Counts)
		})

		Convey("When the circuit is invalid", func(c C) {
			circuit := NewCircuit(1, 1).H(9)
			result := <-q.Schedule("broken-job", circuit, 10)
			c.So(result.Error, ShouldNotBeNil)
		})

		Convey("When the shot count is invalid", func(c C) {
			circuit := NewCircuit(1, 1).H(0).Measure(0, 0)
			result := <-q.Schedule("zero-shots", circuit, 0)
			c.So(result.Error, ShouldNotBeNil)
		})

		Convey("When a superposed register is sampled", func(c C) {
			circuit := NewCircuit(1, 1).H(0).Measure(0, 0)
			result := <-q.Schedule("hadamard-job", circuit, 1000, WithSeed(42))

			c.So(result.Error, ShouldBeNil)
			counts := result.Value.(*Result).Counts
			c.So(counts["0"]+counts["1"], ShouldEqual, 1000)

			// 1000 fair coin flips stay far away from 0 or 1000.
			c.So(counts["0"], ShouldBeBetween, 350, 650)
		})

		Convey("When using broadcast groups", func(c C) {
			group := q.CreateBroadcastGroup("progress", time.Minute)
			sub := q.Subscribe("progress")

			group.Send(QuantumValue{Value: "trial done", CreatedAt: time.Now()})

			value := <-sub
			c.So(value.Value, ShouldEqual, "trial done")
			close(sub)
		})
	})
}

func TestPoolScaleDown(t *testing.T) {
	Convey("Given a pool whose idle workers get scaled down", t, func(c C) {
		ctx, cancel := context.WithCancel(context.Background())
		config := NewConfig()
		config.MinWorkers = 2
		config.MaxWorkers = 4
		q := NewQ(ctx, config)

		Reset(func() {
			cancel()
			time.Sleep(100 * time.Millisecond)
		})

		// Let the workers register with the dispatcher, then remove one the
		// way the scaler does. The dead worker's registration is still queued.
		time.Sleep(50 * time.Millisecond)
		q.scaler.scaleDown(1)

		Convey("Jobs still reach the remaining workers", func(c C) {
			circuit := NewCircuit(1, 1).X(0).Measure(0, 0)

			for i := 0; i < 3; i++ {
				var value QuantumValue
				select {
				case value = <-q.Schedule(fmt.Sprintf("post-scale-%d", i), circuit, 10):
				case <-time.After(5 * time.Second):
				}

				c.So(value.CreatedAt.IsZero(), ShouldBeFalse)
				c.So(value.Error, ShouldBeNil)
				c.So(value.Value.(*Result).Counts["1"], ShouldEqual, 10)
			}
		})
	})
}

func TestPoolStateBudget(t *testing.T) {
	Convey("Given a pool with a tiny state budget", t, func(c C) {
		ctx, cancel := context.WithCancel(context.Background())
		config := NewConfig()
		config.StateBudgetBytes = 8 // Not even one qubit fits.
		q := NewQ(ctx, config)

		Reset(func() {
			cancel()
			time.Sleep(100 * time.Millisecond)
		})

		Convey("Wide jobs are rejected after retries", func(c C) {
			circuit := NewCircuit(2, 2).H(0).Measure(0, 0).Measure(1, 1)
			result := <-q.Schedule("too-wide", circuit, 10)

			c.So(result.Error, ShouldNotBeNil)
			c.So(result.Error.Error(), ShouldContainSubstring, "memory budget")
		})
	})
}

func TestPoolCircuitBreaker(t *testing.T) {
	Convey("Given a pool and a failing circuit family", t, func(c C) {
		ctx, cancel := context.WithCancel(context.Background())
		config := NewConfig()
		config.StateBudgetBytes = 8
		q := NewQ(ctx, config)

		Reset(func() {
			cancel()
			time.Sleep(100 * time.Millisecond)
		})

		circuit := NewCircuit(2, 2).H(0).Measure(0, 0).Measure(1, 1)

		// Two failing jobs trip the breaker.
		<-q.Schedule("trip-1", circuit, 10, WithCircuitBreaker("wide", 2, time.Minute))
		<-q.Schedule("trip-2", circuit, 10, WithCircuitBreaker("wide", 2, time.Minute))

		q.breakersMu.RLock()
		breaker := q.breakers["wide"]
		q.breakersMu.RUnlock()

		c.So(breaker, ShouldNotBeNil)
		c.So(breaker.Allow(), ShouldBeFalse)

		Convey("Further jobs on the tripped circuit are rejected up front", func(c C) {
			result := <-q.Schedule("trip-3", circuit, 10, WithCircuitBreaker("wide", 2, time.Minute))
			c.So(result.Error, ShouldNotBeNil)
			c.So(result.Error.Error(), ShouldContainSubstring, "circuit breaker")
		})
	})
}
