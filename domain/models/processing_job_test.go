package models

import "testing"

func TestJobStatusPredicates(t *testing.T) {
	tests := []struct {
		status   JobStatus
		terminal bool
		active   bool
		canRetry bool
	}{
		{JobStatusQueued, false, true, false},
		{JobStatusProcessing, false, true, false},
		{JobStatusCompleted, true, false, false},
		{JobStatusFailed, true, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			job := &ProcessingJob{Status: tt.status}
			if got := job.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
			if got := job.IsActive(); got != tt.active {
				t.Errorf("IsActive() = %v, want %v", got, tt.active)
			}
			if got := job.CanRetry(); got != tt.canRetry {
				t.Errorf("CanRetry() = %v, want %v", got, tt.canRetry)
			}
		})
	}
}
