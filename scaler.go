package qsim

import (
	"log"
	"math"
	"time"
)

// ScalerConfig tunes when the pool grows and shrinks.
type ScalerConfig struct {
	TargetLoad         float64       // Target queued jobs per worker
	ScaleUpThreshold   float64       // Load above which workers are added
	ScaleDownThreshold float64       // Load below which workers are removed
	Cooldown           time.Duration // Minimum time between scaling operations
}

// Scaler adjusts the pool's worker count from queue load. Wide circuits make
// jobs expensive, so bursts of submissions are absorbed by adding workers up
// to the configured ceiling rather than queueing indefinitely.
type Scaler struct {
	pool               *Q
	minWorkers         int
	maxWorkers         int
	targetLoad         float64
	scaleUpThreshold   float64
	scaleDownThreshold float64
	cooldown           time.Duration
}

// NewScaler creates a scaler and starts its evaluation loop on the pool's
// lifecycle.
func NewScaler(pool *Q, minWorkers, maxWorkers int, config *ScalerConfig) *Scaler {
	s := &Scaler{
		pool:               pool,
		minWorkers:         minWorkers,
		maxWorkers:         maxWorkers,
		targetLoad:         config.TargetLoad,
		scaleUpThreshold:   config.ScaleUpThreshold,
		scaleDownThreshold: config.ScaleDownThreshold,
		cooldown:           config.Cooldown,
	}

	pool.wg.Add(1)
	go func() {
		defer pool.wg.Done()
		s.loop()
	}()

	return s
}

func (s *Scaler) loop() {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.pool.ctx.Done():
			return
		case <-ticker.C:
			s.evaluate()
		}
	}
}

func (s *Scaler) evaluate() {
	s.pool.metrics.mu.Lock()

	if time.Since(s.pool.metrics.LastScale) < s.cooldown {
		s.pool.metrics.mu.Unlock()
		return
	}

	workerCount := s.pool.metrics.WorkerCount
	queueSize := s.pool.metrics.JobQueueSize
	if workerCount == 0 {
		workerCount = 1
	}
	currentLoad := float64(queueSize) / float64(workerCount)

	var toAdd, toRemove int
	switch {
	case currentLoad > s.scaleUpThreshold && workerCount < s.maxWorkers:
		needed := int(math.Ceil(float64(queueSize) / s.targetLoad))
		toAdd = min(needed-workerCount, s.maxWorkers-workerCount)

	case currentLoad < s.scaleDownThreshold && workerCount > s.minWorkers:
		needed := max(int(math.Ceil(float64(queueSize)/s.targetLoad)), s.minWorkers)
		toRemove = workerCount - needed
	}

	s.pool.metrics.LastScale = time.Now()
	s.pool.metrics.mu.Unlock()

	if toAdd > 0 {
		s.scaleUp(toAdd)
	}
	if toRemove > 0 {
		s.scaleDown(toRemove)
	}
}

func (s *Scaler) scaleUp(count int) {
	for i := 0; i < count; i++ {
		s.pool.startWorker()
	}
	log.Printf("Scaled up %d workers", count)
}

func (s *Scaler) scaleDown(count int) {
	s.pool.workerMu.Lock()
	defer s.pool.workerMu.Unlock()

	for i := 0; i < count && len(s.pool.workerList) > 0; i++ {
		w := s.pool.workerList[len(s.pool.workerList)-1]
		s.pool.workerList = s.pool.workerList[:len(s.pool.workerList)-1]

		if w.cancel != nil {
			w.cancel()
		}

		s.pool.metrics.mu.Lock()
		s.pool.metrics.WorkerCount--
		s.pool.metrics.mu.Unlock()
	}
	log.Printf("Scaled down %d workers", count)
}
