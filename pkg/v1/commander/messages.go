package commander

import "time"

// ReconcileCommand requests reconciliation of single vendor, or of all registered vendors when All is set.
type ReconcileCommand struct {
	VendorID string `json:"vendorId,omitempty"`
	All      bool   `json:"all,omitempty"`
}

// RunSummary is published after every finished reconciliation run.
type RunSummary struct {
	RunID         int        `json:"runId"`
	VendorID      string     `json:"vendorId"`
	Success       bool       `json:"success"`
	StatusMessage string     `json:"statusMessage,omitempty"`
	Created       int32      `json:"created"`
	Updated       int32      `json:"updated"`
	Unmatched     int32      `json:"unmatched"`
	Skipped       int32      `json:"skipped"`
	Failed        int32      `json:"failed"`
	StartedAt     time.Time  `json:"startedAt"`
	FinishedAt    *time.Time `json:"finishedAt,omitempty"`
}
