package models

import "github.com/samber/lo"

// Summary counts run outcomes. Every pipeline stage returns its own Summary
// and the run merges them, so no counters are shared between goroutines.
type Summary struct {
	Created   int32
	Updated   int32
	Unmatched int32
	Skipped   int32
	Failed    int32
}

// Add counts single reconciliation outcome.
func (s *Summary) Add(outcome Outcome) {
	switch outcome {
	case OutcomeCreated:
		s.Created++
	case OutcomeUpdated:
		s.Updated++
	case OutcomeUnmatched:
		s.Unmatched++
	}
}

// Merge returns sum of s and other.
func (s Summary) Merge(other Summary) Summary {
	return Summary{
		Created:   s.Created + other.Created,
		Updated:   s.Updated + other.Updated,
		Unmatched: s.Unmatched + other.Unmatched,
		Skipped:   s.Skipped + other.Skipped,
		Failed:    s.Failed + other.Failed,
	}
}

// Apply copies counters into run.
func (s Summary) Apply(run *Run) {
	run.Created = lo.ToPtr(s.Created)
	run.Updated = lo.ToPtr(s.Updated)
	run.Unmatched = lo.ToPtr(s.Unmatched)
	run.Skipped = lo.ToPtr(s.Skipped)
	run.Failed = lo.ToPtr(s.Failed)
}
