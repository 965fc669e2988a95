package pipeline

import (
	"sync"
	"time"
)

// RunReport is the ops-facing record of one poll.
type RunReport struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	TookMS     int64     `json:"took_ms"`
	Success    bool      `json:"success"`
	HasChanges bool      `json:"has_changes"`
	Error      string    `json:"error,omitempty"`
}

// Status tracks the most recent poll outcome for the ops HTTP surface.
// Safe for concurrent use: the watch loop records while handlers read.
type Status struct {
	mu   sync.RWMutex
	last *RunReport
}

func NewStatus() *Status {
	return &Status{}
}

// Record stores the outcome of one poll, replacing the previous one.
func (s *Status) Record(res Result, err error) {
	report := RunReport{
		RunID:      res.RunID,
		StartedAt:  res.StartedAt,
		TookMS:     res.TookMS,
		Success:    err == nil,
		HasChanges: res.HasChanges,
	}
	if err != nil {
		report.Error = err.Error()
	}
	s.mu.Lock()
	s.last = &report
	s.mu.Unlock()
}

// Last returns the most recent report, or false when no poll has run yet.
func (s *Status) Last() (RunReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return RunReport{}, false
	}
	return *s.last, true
}
