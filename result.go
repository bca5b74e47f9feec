package qsim

import "time"

// Classification is the verdict of a Deutsch-Jozsa run.
type Classification string

const (
	Constant Classification = "Constant"
	Balanced Classification = "Balanced"
)

/*
Result carries the measurement outcome of one executed circuit: the counts
histogram over classical register readouts plus execution metadata. Counts
keys follow the register convention where classical bit 0 is the rightmost
character.
*/
type Result struct {
	JobID    string
	Backend  string
	Shots    int
	Counts   map[string]int
	Duration time.Duration
}

// Merge folds another result's counts into this one. Used when a run is
// split into shot batches across the pool.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	if r.Counts == nil {
		r.Counts = make(map[string]int)
	}
	for key, n := range other.Counts {
		r.Counts[key] += n
	}
	r.Shots += other.Shots
	if other.Duration > r.Duration {
		r.Duration = other.Duration
	}
}

// TotalCounts returns the number of shots recorded in the histogram.
func (r *Result) TotalCounts() int {
	total := 0
	for _, n := range r.Counts {
		total += n
	}
	return total
}
