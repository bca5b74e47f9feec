package qsim

import (
	"log"
	"sync"
	"time"
)

// BroadcastGroup handles pub/sub for values that several observers want to
// see, such as per-trial experiment records. Sends, subscriptions and expiry
// can come from different goroutines; the group mutex keeps the subscriber
// list and last-use timestamp coherent between them.
type BroadcastGroup struct {
	ID  string
	TTL time.Duration

	mu       sync.Mutex
	channels []chan QuantumValue
	lastUsed time.Time
}

// QuantumValue wraps a job outcome with metadata. Value holds a *Result for
// simulation jobs; experiments broadcast TrialRecord values through the same
// type.
type QuantumValue struct {
	Value     any
	Error     error
	CreatedAt time.Time
	TTL       time.Duration
}

// QuantumSpace handles result storage and messaging between workers and the
// callers awaiting their jobs.
type QuantumSpace struct {
	mu      sync.RWMutex
	values  map[string]QuantumValue
	waiting map[string][]chan QuantumValue
	groups  map[string]*BroadcastGroup
	done    chan struct{}
	wg      sync.WaitGroup
}

func newQuantumSpace() *QuantumSpace {
	qs := &QuantumSpace{
		values:  make(map[string]QuantumValue),
		waiting: make(map[string][]chan QuantumValue),
		groups:  make(map[string]*BroadcastGroup),
		done:    make(chan struct{}),
	}

	qs.wg.Add(1)
	go func() {
		defer qs.wg.Done()
		qs.cleanup()
	}()

	return qs
}

// Store stores a job outcome and notifies any waiting channels.
func (qs *QuantumSpace) Store(id string, value any, err error, ttl time.Duration) {
	qs.mu.Lock()
	defer qs.mu.Unlock()

	qv := QuantumValue{
		Value:     value,
		Error:     err,
		CreatedAt: time.Now(),
		TTL:       ttl,
	}
	qs.values[id] = qv

	if channels, ok := qs.waiting[id]; ok {
		for _, ch := range channels {
			select {
			case ch <- qv:
				close(ch)
			default:
				log.Printf("Dropped result for job %s: channel full or closed", id)
			}
		}
		delete(qs.waiting, id)
	}
}

// Await returns a channel that will receive the value when it's available.
func (qs *QuantumSpace) Await(id string) chan QuantumValue {
	qs.mu.Lock()
	defer qs.mu.Unlock()

	ch := make(chan QuantumValue, 1)

	if qv, ok := qs.values[id]; ok {
		ch <- qv
		close(ch)
		return ch
	}

	qs.waiting[id] = append(qs.waiting[id], ch)
	return ch
}

func (qs *QuantumSpace) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-qs.done:
			return
		case <-ticker.C:
			qs.mu.Lock()
			qs.cleanupExpiredValues()
			qs.cleanupExpiredGroups()
			qs.mu.Unlock()
		}
	}
}

func (qs *QuantumSpace) cleanupExpiredValues() {
	now := time.Now()
	for id, qv := range qs.values {
		if qv.TTL > 0 && now.Sub(qv.CreatedAt) > qv.TTL {
			delete(qs.values, id)
		}
	}
}

func (qs *QuantumSpace) cleanupExpiredGroups() {
	now := time.Now()
	for id, group := range qs.groups {
		group.mu.Lock()
		expired := group.TTL > 0 && now.Sub(group.lastUsed) > group.TTL
		if expired {
			for _, ch := range group.channels {
				close(ch)
			}
			// A Send on a lingering group reference finds no subscribers
			// instead of a closed channel.
			group.channels = nil
		}
		group.mu.Unlock()
		if expired {
			delete(qs.groups, id)
		}
	}
}

func (qs *QuantumSpace) CreateBroadcastGroup(id string, ttl time.Duration) *BroadcastGroup {
	qs.mu.Lock()
	defer qs.mu.Unlock()

	group := &BroadcastGroup{
		ID:       id,
		channels: make([]chan QuantumValue, 0),
		TTL:      ttl,
		lastUsed: time.Now(),
	}
	qs.groups[id] = group
	return group
}

func (bg *BroadcastGroup) Send(qv QuantumValue) {
	bg.mu.Lock()
	defer bg.mu.Unlock()

	bg.lastUsed = time.Now()
	for _, ch := range bg.channels {
		select {
		case ch <- qv:
		default:
			// Slow subscribers miss updates rather than stalling the sender.
		}
	}
}

func (qs *QuantumSpace) Subscribe(groupID string) chan QuantumValue {
	qs.mu.Lock()
	defer qs.mu.Unlock()

	ch := make(chan QuantumValue, 10)
	if group, ok := qs.groups[groupID]; ok {
		group.mu.Lock()
		group.channels = append(group.channels, ch)
		group.mu.Unlock()
	}
	return ch
}

func (qs *QuantumSpace) Close() {
	close(qs.done)
	qs.wg.Wait()

	qs.mu.Lock()
	defer qs.mu.Unlock()
	now := time.Now()
	for id, qv := range qs.values {
		if qv.TTL > 0 && now.Sub(qv.CreatedAt) > qv.TTL {
			delete(qs.values, id)
		}
	}
}
