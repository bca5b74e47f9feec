package qsim

import (
	"sync"
	"time"
)

/*
BackPressureRegulator implements the Regulator interface to prevent pool
overload. It watches queue depth and job latency and sheds new submissions
when combined pressure builds past a threshold, so a burst of large
simulations degrades into rejections instead of unbounded queueing.
*/
type BackPressureRegulator struct {
	mu sync.RWMutex

	maxQueueSize      int           // Maximum allowed queue size
	targetProcessTime time.Duration // Target job processing time
	pressureWindow    time.Duration // Time window for pressure calculation
	currentPressure   float64       // Current system pressure (0.0-1.0)
	metrics           *Metrics
	lastCheck         time.Time
}

// NewBackPressureRegulator creates a back pressure regulator that starts
// shedding load at 80% combined pressure.
func NewBackPressureRegulator(maxQueueSize int, targetProcessTime, pressureWindow time.Duration) *BackPressureRegulator {
	return &BackPressureRegulator{
		maxQueueSize:      maxQueueSize,
		targetProcessTime: targetProcessTime,
		pressureWindow:    pressureWindow,
		currentPressure:   0.0,
		lastCheck:         time.Now(),
	}
}

// Observe implements the Regulator interface by updating the pressure view
// from queue size and latency metrics.
func (bp *BackPressureRegulator) Observe(metrics *Metrics) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	bp.metrics = metrics
	bp.updatePressure()
}

// Limit implements the Regulator interface.
func (bp *BackPressureRegulator) Limit() bool {
	bp.mu.RLock()
	defer bp.mu.RUnlock()

	return bp.currentPressure >= 0.8
}

// Renormalize gradually releases pressure once the queue drains and
// latencies recover.
func (bp *BackPressureRegulator) Renormalize() {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.metrics == nil {
		return
	}

	bp.metrics.mu.RLock()
	queueSize := bp.metrics.JobQueueSize
	avgLatency := bp.metrics.AverageJobLatency
	bp.metrics.mu.RUnlock()

	if queueSize < bp.maxQueueSize/2 && avgLatency < bp.targetProcessTime {
		bp.currentPressure = max(0.0, bp.currentPressure-0.1)
	}
}

// updatePressure combines queue pressure and latency pressure with a 60/40
// weighting.
func (bp *BackPressureRegulator) updatePressure() {
	if bp.metrics == nil {
		return
	}

	bp.metrics.mu.RLock()
	queueSize := bp.metrics.JobQueueSize
	avgLatency := bp.metrics.AverageJobLatency
	bp.metrics.mu.RUnlock()

	queuePressure := float64(queueSize) / float64(bp.maxQueueSize)

	timingPressure := 0.0
	if avgLatency > 0 {
		timingPressure = float64(avgLatency) / float64(bp.targetProcessTime)
	}

	bp.currentPressure = queuePressure*0.6 + timingPressure*0.4
	bp.currentPressure = min(1.0, max(0.0, bp.currentPressure))
}

// GetPressure returns the current system pressure level.
func (bp *BackPressureRegulator) GetPressure() float64 {
	bp.mu.RLock()
	defer bp.mu.RUnlock()
	return bp.currentPressure
}
