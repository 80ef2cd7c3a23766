package pipeline

import (
	"context"
	"sync"
	"time"
)

// Stats holds execution statistics accumulated over the runs of a Runner.
type Stats struct {
	TotalExecutions int64
	SuccessfulRuns  int64
	FailedRuns      int64
	TotalDuration   time.Duration
	AverageDuration time.Duration
	StageStats      map[string]StageStats
	LastExecutionAt time.Time
}

// StageStats holds statistics for one chain element across runs.
type StageStats struct {
	StageID         string
	ExecutionCount  int64
	SuccessCount    int64
	ErrorCount      int64
	Chunks          int64
	BytesIn         int64
	BytesOut        int64
	TotalDuration   time.Duration
	AverageDuration time.Duration
}

// Runner assembles and runs a fresh pipeline from the same descriptor on
// every call to Run. It is safe for concurrent use.
type Runner struct {
	path string
	opts []Option

	mu    sync.RWMutex
	stats Stats
}

// NewRunner creates a runner for the chain descriptor at path.
func NewRunner(path string, opts ...Option) *Runner {
	return &Runner{
		path: path,
		opts: opts,
		stats: Stats{
			StageStats: make(map[string]StageStats),
		},
	}
}

// Path returns the chain descriptor path.
func (r *Runner) Path() string {
	return r.path
}

// Run parses the descriptor, assembles and runs the chain once. A run that
// fails before any stage started returns a Result without stage results.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result, err := r.run(ctx)
	if result == nil {
		end := time.Now()
		result = &Result{Error: err, StartTime: start, EndTime: end, Duration: end.Sub(start)}
	}
	r.updateStats(result)
	return result, err
}

func (r *Runner) run(ctx context.Context) (*Result, error) {
	p, err := New(r.path, r.opts...)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx)
}

// Stats returns a copy of the accumulated statistics.
func (r *Runner) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statsCopy := r.stats
	statsCopy.StageStats = make(map[string]StageStats, len(r.stats.StageStats))
	for k, v := range r.stats.StageStats {
		statsCopy.StageStats[k] = v
	}

	if statsCopy.TotalExecutions > 0 {
		statsCopy.AverageDuration = time.Duration(int64(statsCopy.TotalDuration) / statsCopy.TotalExecutions)
	}
	return statsCopy
}

func (r *Runner) updateStats(result *Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.TotalExecutions++
	r.stats.TotalDuration += result.Duration
	r.stats.LastExecutionAt = result.EndTime

	if result.Error == nil {
		r.stats.SuccessfulRuns++
	} else {
		r.stats.FailedRuns++
	}

	for _, sr := range result.StageResults {
		stats, exists := r.stats.StageStats[sr.StageID]
		if !exists {
			stats = StageStats{StageID: sr.StageID}
		}

		stats.ExecutionCount++
		stats.TotalDuration += sr.Duration
		stats.Chunks += sr.Stats.Chunks
		stats.BytesIn += sr.Stats.BytesIn
		stats.BytesOut += sr.Stats.BytesOut
		if sr.Error == nil {
			stats.SuccessCount++
		} else {
			stats.ErrorCount++
		}
		stats.AverageDuration = time.Duration(int64(stats.TotalDuration) / stats.ExecutionCount)

		r.stats.StageStats[sr.StageID] = stats
	}
}
