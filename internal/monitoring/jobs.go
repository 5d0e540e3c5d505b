package monitoring

import (
	"sort"
	"sync"
	"time"
)

// JobRun summarises the recent history of a maintenance job.
type JobRun struct {
	Job                 string        `json:"job"`
	LastRunAt           time.Time     `json:"last_run_at"`
	LastDuration        time.Duration `json:"last_duration"`
	LastError           string        `json:"last_error,omitempty"`
	LastRemoved         int64         `json:"last_removed"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	TotalRuns           int           `json:"total_runs"`
}

// JobTracker records maintenance job outcomes for the health probes.
type JobTracker struct {
	mu   sync.RWMutex
	jobs map[string]*JobRun
	now  func() time.Time
}

// NewJobTracker returns an empty tracker.
func NewJobTracker() *JobTracker {
	return &JobTracker{jobs: map[string]*JobRun{}, now: time.Now}
}

// Record stores the outcome of a single job execution.
func (t *JobTracker) Record(job string, removed int64, duration time.Duration, err error) {
	if t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	run, ok := t.jobs[job]
	if !ok {
		run = &JobRun{Job: job}
		t.jobs[job] = run
	}

	run.LastRunAt = t.now()
	run.LastDuration = duration
	run.LastRemoved = removed
	run.TotalRuns++
	if err != nil {
		run.LastError = err.Error()
		run.ConsecutiveFailures++
		return
	}
	run.LastError = ""
	run.ConsecutiveFailures = 0
}

// Snapshot returns the recorded jobs ordered by name.
func (t *JobTracker) Snapshot() []JobRun {
	if t == nil {
		return nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]JobRun, 0, len(t.jobs))
	for _, run := range t.jobs {
		out = append(out, *run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job < out[j].Job })
	return out
}
