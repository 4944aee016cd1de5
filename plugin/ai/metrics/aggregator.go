package metrics

import (
	"sort"
	"sync"
	"time"
)

// DefaultSampleSize is how many recent latencies feed the percentiles.
const DefaultSampleSize = 1024

// Aggregator aggregates metrics in memory. Safe for concurrent use.
type Aggregator struct {
	mu sync.RWMutex

	sampleSize int
	samples    []int64 // ring of recent latencies in microseconds
	next       int

	requestCount int64
	successCount int64
	branches     map[string]*branchBucket
	intents      map[string]int64

	enhancerCalls   int64
	enhancerSuccess int64
	enhancerLatency time.Duration
}

type branchBucket struct {
	count      int64
	success    int64
	latencySum time.Duration
}

var _ Recorder = (*Aggregator)(nil)

// NewAggregator creates an aggregator keeping sampleSize latencies for
// percentiles. Non-positive sampleSize uses DefaultSampleSize.
func NewAggregator(sampleSize int) *Aggregator {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &Aggregator{
		sampleSize: sampleSize,
		samples:    make([]int64, 0, sampleSize),
		branches:   make(map[string]*branchBucket),
		intents:    make(map[string]int64),
	}
}

// RecordRequest records a single processed message.
func (a *Aggregator) RecordRequest(branch, intent string, latency time.Duration, success bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.requestCount++
	if success {
		a.successCount++
	}

	bucket, ok := a.branches[branch]
	if !ok {
		bucket = &branchBucket{}
		a.branches[branch] = bucket
	}
	bucket.count++
	if success {
		bucket.success++
	}
	bucket.latencySum += latency

	if intent != "" {
		a.intents[intent]++
	}

	us := latency.Microseconds()
	if len(a.samples) < a.sampleSize {
		a.samples = append(a.samples, us)
	} else {
		a.samples[a.next] = us
	}
	a.next = (a.next + 1) % a.sampleSize
}

// RecordEnhancerCall records a single enhancer call.
func (a *Aggregator) RecordEnhancerCall(latency time.Duration, success bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.enhancerCalls++
	if success {
		a.enhancerSuccess++
	}
	a.enhancerLatency += latency
}

// Stats returns the aggregated statistics.
func (a *Aggregator) Stats() *Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := &Stats{
		RequestCount: a.requestCount,
		SuccessCount: a.successCount,
		LatencyP50:   time.Duration(percentile(a.samples, 50)) * time.Microsecond,
		LatencyP95:   time.Duration(percentile(a.samples, 95)) * time.Microsecond,
		Branches:     make(map[string]*BranchStat, len(a.branches)),
		Intents:      make(map[string]int64, len(a.intents)),
		Enhancer: EnhancerStat{
			Calls:        a.enhancerCalls,
			SuccessCount: a.enhancerSuccess,
		},
	}
	for name, bucket := range a.branches {
		stats.Branches[name] = &BranchStat{
			Count:       bucket.count,
			SuccessRate: float32(bucket.success) / float32(bucket.count),
			AvgLatency:  bucket.latencySum / time.Duration(bucket.count),
		}
	}
	for intent, n := range a.intents {
		stats.Intents[intent] = n
	}
	if a.enhancerCalls > 0 {
		stats.Enhancer.AvgLatency = a.enhancerLatency / time.Duration(a.enhancerCalls)
	}
	return stats
}

// Reset clears every counter.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.samples = a.samples[:0]
	a.next = 0
	a.requestCount = 0
	a.successCount = 0
	a.branches = make(map[string]*branchBucket)
	a.intents = make(map[string]int64)
	a.enhancerCalls = 0
	a.enhancerSuccess = 0
	a.enhancerLatency = 0
}

func percentile(latencies []int64, p int) int64 {
	if len(latencies) == 0 {
		return 0
	}

	sorted := make([]int64, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}
