package engine

import (
	"sync"
	"time"
)

const maxLatencySamples = 4096

// Stats counts request outcomes and keeps recent round-trip latencies.
type Stats struct {
	lock sync.Mutex

	issued    int
	accepted  int
	stale     int
	mismatch  int
	failed    int
	latencies []time.Duration
	next      int
}

type StatsSnapshot struct {
	Issued   int `json:"issued"`
	Accepted int `json:"accepted"`
	Stale    int `json:"stale"`
	Mismatch int `json:"mismatch"`
	Failed   int `json:"failed"`
}

func NewStats() *Stats {
	return &Stats{latencies: make([]time.Duration, 0, 256)}
}

func (s *Stats) issue() {
	s.lock.Lock()
	s.issued++
	s.lock.Unlock()
}

func (s *Stats) accept(latency time.Duration) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.accepted++
	if len(s.latencies) < maxLatencySamples {
		s.latencies = append(s.latencies, latency)
		return
	}
	// ring buffer once full:
	s.latencies[s.next] = latency
	s.next = (s.next + 1) % maxLatencySamples
}

func (s *Stats) dropStale() {
	s.lock.Lock()
	s.stale++
	s.lock.Unlock()
}

func (s *Stats) dropMismatch() {
	s.lock.Lock()
	s.mismatch++
	s.lock.Unlock()
}

func (s *Stats) fail() {
	s.lock.Lock()
	s.failed++
	s.lock.Unlock()
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.lock.Lock()
	defer s.lock.Unlock()
	return StatsSnapshot{
		Issued:   s.issued,
		Accepted: s.accepted,
		Stale:    s.stale,
		Mismatch: s.mismatch,
		Failed:   s.failed,
	}
}

// LatenciesMillis returns the recorded round-trip times in milliseconds.
func (s *Stats) LatenciesMillis() []float64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	ms := make([]float64, len(s.latencies))
	for i, d := range s.latencies {
		ms[i] = float64(d) / float64(time.Millisecond)
	}
	return ms
}
