package llm

import (
	"context"
	"slices"
	"sync"
	"time"
)

type sample struct {
	at      time.Time
	elapsed time.Duration
	failed  bool
}

// Snapshot aggregates the samples of one call kind inside the rolling window.
type Snapshot struct {
	Calls  int     `json:"calls"`
	Errors int     `json:"errors"`
	MinMs  int64   `json:"min_ms"`
	MaxMs  int64   `json:"max_ms"`
	AvgMs  float64 `json:"avg_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
}

// Stats records call latencies per kind ("summary", "keywords", "toc", ...)
// over a rolling window.
type Stats struct {
	mu      sync.Mutex
	window  time.Duration
	samples map[string][]sample
}

func NewStats(window time.Duration) *Stats {
	if window <= 0 {
		window = time.Hour
	}
	return &Stats{window: window, samples: make(map[string][]sample)}
}

// Observe adds one call of the given kind.
func (s *Stats) Observe(kind string, elapsed time.Duration, err error) {
	if elapsed < 0 {
		elapsed = 0
	}
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples[kind] = append(s.prune(kind, now), sample{at: now, elapsed: elapsed, failed: err != nil})
}

// Snapshot returns the aggregate for every kind with live samples.
func (s *Stats) Snapshot() map[string]Snapshot {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Snapshot, len(s.samples))
	for kind := range s.samples {
		live := s.prune(kind, now)
		s.samples[kind] = live
		if len(live) == 0 {
			continue
		}
		out[kind] = summarize(live)
	}
	return out
}

func (s *Stats) prune(kind string, now time.Time) []sample {
	cutoff := now.Add(-s.window)
	list := s.samples[kind]
	keep := list[:0]
	for _, sm := range list {
		if !sm.at.Before(cutoff) {
			keep = append(keep, sm)
		}
	}
	return keep
}

func summarize(list []sample) Snapshot {
	ms := make([]int64, len(list))
	var sum int64
	snap := Snapshot{Calls: len(list)}
	for i, sm := range list {
		ms[i] = sm.elapsed.Milliseconds()
		sum += ms[i]
		if sm.failed {
			snap.Errors++
		}
	}
	slices.Sort(ms)
	snap.MinMs = ms[0]
	snap.MaxMs = ms[len(ms)-1]
	snap.AvgMs = float64(sum) / float64(len(ms))
	snap.P50Ms = percentile(ms, 50)
	snap.P95Ms = percentile(ms, 95)
	return snap
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	pos := float64(len(sorted)-1) * pct / 100
	lo := int(pos)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := pos - float64(lo)
	return float64(sorted[lo]) + (float64(sorted[lo+1])-float64(sorted[lo]))*frac
}

// Timed records every Complete call of next under kind.
func Timed(next Completer, stats *Stats, kind string) Completer {
	if stats == nil {
		return next
	}
	return CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		start := time.Now()
		out, err := next.Complete(ctx, prompt)
		stats.Observe(kind, time.Since(start), err)
		return out, err
	})
}
