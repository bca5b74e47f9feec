package qsim

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMetrics(t *testing.T) {
	Convey("Given a fresh metrics instance", t, func() {
		m := NewMetrics()

		Convey("Recording executions updates the aggregates", func() {
			start := time.Now().Add(-10 * time.Millisecond)
			m.recordJobExecution(start, true, 100)
			m.recordJobExecution(start, true, 100)
			m.recordJobExecution(start, false, 100)

			m.mu.RLock()
			defer m.mu.RUnlock()

			So(m.JobCount, ShouldEqual, 3)
			So(m.FailureCount, ShouldEqual, 1)
			So(m.ShotsExecuted, ShouldEqual, 200) // Failed shots don't count.
			So(m.JobSuccessRate, ShouldAlmostEqual, 2.0/3.0, 0.001)
			So(m.AverageJobLatency, ShouldBeGreaterThan, 0)
			So(m.P95JobLatency, ShouldBeGreaterThanOrEqualTo, m.AverageJobLatency/2)
		})

		Convey("The export snapshot carries the shot counter", func() {
			m.recordJobExecution(time.Now(), true, 64)
			snapshot := m.ExportMetrics()

			So(snapshot["job_count"], ShouldEqual, int64(1))
			So(snapshot["shots_executed"], ShouldEqual, int64(64))
			So(snapshot["success_rate"], ShouldEqual, 1.0)
		})
	})
}
