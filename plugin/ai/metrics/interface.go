// Package metrics aggregates request metrics of the support assistant in memory.
package metrics

import "time"

// Recorder defines the metrics recording interface.
// Consumers: chatbot orchestrator.
type Recorder interface {
	// RecordRequest records one processed message.
	// branch is the response path taken (intent, search, follow_up, general_help, error).
	RecordRequest(branch, intent string, latency time.Duration, success bool)

	// RecordEnhancerCall records one call to the enhancement collaborator.
	RecordEnhancerCall(latency time.Duration, success bool)
}

// Stats represents aggregated metrics.
type Stats struct {
	RequestCount int64                  `json:"request_count"`
	SuccessCount int64                  `json:"success_count"`
	LatencyP50   time.Duration          `json:"latency_p50"`
	LatencyP95   time.Duration          `json:"latency_p95"`
	Branches     map[string]*BranchStat `json:"branches"`
	Intents      map[string]int64       `json:"intents"`
	Enhancer     EnhancerStat           `json:"enhancer"`
}

// BranchStat represents statistics for a single response branch.
type BranchStat struct {
	Count       int64         `json:"count"`
	SuccessRate float32       `json:"success_rate"`
	AvgLatency  time.Duration `json:"avg_latency"`
}

// EnhancerStat represents statistics of enhancer calls.
type EnhancerStat struct {
	Calls        int64         `json:"calls"`
	SuccessCount int64         `json:"success_count"`
	AvgLatency   time.Duration `json:"avg_latency"`
}
