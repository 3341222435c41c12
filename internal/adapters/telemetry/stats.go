package telemetry

import (
	"context"
	"sync"
	"time"
)

// StatsTelemetry aggregates counters in memory.
type StatsTelemetry struct {
	mu    sync.Mutex
	stats Stats
}

// Stats is a point-in-time copy of the aggregated counters.
type Stats struct {
	Queries       int64
	FailedQueries int64
	Rows          int64
	TotalDuration time.Duration
	MaxDuration   time.Duration
	Errors        int64
	Connections   int64

	// ByOperation counts queries per operation name.
	ByOperation map[string]int64
}

// NewStatsTelemetry creates an in-memory telemetry adapter.
func NewStatsTelemetry() *StatsTelemetry {
	return &StatsTelemetry{stats: Stats{ByOperation: make(map[string]int64)}}
}

func (s *StatsTelemetry) RecordQuery(ctx context.Context, info QueryInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Queries++
	if !info.Success {
		s.stats.FailedQueries++
	}
	s.stats.Rows += int64(info.Rows)
	s.stats.TotalDuration += info.Duration
	s.stats.MaxDuration = max(s.stats.MaxDuration, info.Duration)
	s.stats.ByOperation[info.Operation]++
}

func (s *StatsTelemetry) RecordError(ctx context.Context, info ErrorInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Errors++
}

func (s *StatsTelemetry) RecordConnection(ctx context.Context, info ConnectionInfo) {
	if !info.Success || info.Event != "connect" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Connections++
}

// Snapshot returns a copy of the current counters.
func (s *StatsTelemetry) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.stats
	out.ByOperation = make(map[string]int64, len(s.stats.ByOperation))
	for k, v := range s.stats.ByOperation {
		out.ByOperation[k] = v
	}
	return out
}

// AverageDuration is TotalDuration over Queries.
func (s Stats) AverageDuration() time.Duration {
	if s.Queries == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.Queries)
}

var _ Telemetry = (*StatsTelemetry)(nil)
