package qsim

import "time"

type Config struct {
	SchedulingTimeout time.Duration
	JobTimeout        time.Duration
	MinWorkers        int
	MaxWorkers        int
	Shots             int
	ShotBatchSize     int
	MaxQubits         int
	StateBudgetBytes  int64
	Seed              int64
}

func NewConfig() *Config {
	return &Config{
		SchedulingTimeout: 10 * time.Second,
		JobTimeout:        30 * time.Second,
		MinWorkers:        2,
		MaxWorkers:        8,
		Shots:             1024,
		ShotBatchSize:     256,
		MaxQubits:         24,
		StateBudgetBytes:  1 << 30,
	}
}
