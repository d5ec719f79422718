// Package metrics collects timing and token statistics for a tagging run.
package metrics

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// OperationMetrics holds aggregated metrics for a single operation type.
type OperationMetrics struct {
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration

	// Token counts (only for vision calls)
	InputTokens  int64
	OutputTokens int64
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64
	TotalTimeMs int64
	AvgTimeMs   float64
	MinTimeMs   int64
	MaxTimeMs   int64

	// Tokens is nil for operations that report no token usage.
	Tokens *TokenStats
}

// TokenStats summarizes model token usage.
type TokenStats struct {
	TotalInput  int64
	TotalOutput int64
	AvgInput    float64
	AvgOutput   float64
}

// Snapshot represents the run statistics at a point in time.
type Snapshot struct {
	ElapsedSeconds float64
	Vision         *OperationSnapshot
	Embedding      *OperationSnapshot
	Geocode        *OperationSnapshot
	Exif           *OperationSnapshot
}

// Operation names for the collector.
const (
	OpVision    = "vision"
	OpEmbedding = "embedding"
	OpGeocode   = "geocode"
	OpExif      = "exif"
)

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe, and recording on a nil Collector is a no-op.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records timing for an operation.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	c.RecordLLMUsage(op, duration, 0, 0)
}

// RecordLLMUsage records timing and token usage for a model call.
func (c *Collector) RecordLLMUsage(op string, duration time.Duration, inputTokens, outputTokens int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration
	m.MinTime = min(m.MinTime, duration)
	m.MaxTime = max(m.MaxTime, duration)
	m.InputTokens += inputTokens
	m.OutputTokens += outputTokens
}

// snapshotOp creates a snapshot for an operation, returning nil if no data.
func snapshotOp(m *OperationMetrics, includeTokens bool) *OperationSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}

	snap := &OperationSnapshot{
		Count:       m.Count,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}

	if includeTokens && (m.InputTokens > 0 || m.OutputTokens > 0) {
		snap.Tokens = &TokenStats{
			TotalInput:  m.InputTokens,
			TotalOutput: m.OutputTokens,
			AvgInput:    float64(m.InputTokens) / float64(m.Count),
			AvgOutput:   float64(m.OutputTokens) / float64(m.Count),
		}
	}

	return snap
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		ElapsedSeconds: time.Since(c.startTime).Seconds(),
		Vision:         snapshotOp(c.ops[OpVision], true),
		Embedding:      snapshotOp(c.ops[OpEmbedding], false),
		Geocode:        snapshotOp(c.ops[OpGeocode], false),
		Exif:           snapshotOp(c.ops[OpExif], false),
	}
}

// Time runs fn and records its duration under op, regardless of error.
func (c *Collector) Time(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	c.RecordTiming(op, time.Since(start))
	return err
}

// Lines renders one summary line per operation that ran.
func (s Snapshot) Lines() []string {
	var lines []string
	add := func(name string, op *OperationSnapshot) {
		if op == nil {
			return
		}
		line := fmt.Sprintf("%-10s %4d calls, avg %7.0fms, min %6dms, max %6dms",
			name, op.Count, op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
		if tok := op.Tokens; tok != nil {
			line += fmt.Sprintf(", tokens in/out %d/%d (avg %.0f/%.0f)",
				tok.TotalInput, tok.TotalOutput, tok.AvgInput, tok.AvgOutput)
		}
		lines = append(lines, line)
	}
	add(OpVision, s.Vision)
	add(OpEmbedding, s.Embedding)
	add(OpGeocode, s.Geocode)
	add(OpExif, s.Exif)
	return lines
}
