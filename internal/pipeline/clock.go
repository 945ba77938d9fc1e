package pipeline

import "time"

// storedPrecision is precision of timestamps kept by postgres.
const storedPrecision = time.Microsecond

type systemClock struct{}

// Version returns version of run started now, unix milliseconds.
func (c systemClock) Version() int64 {
	return time.Now().UnixMilli()
}

// Now returns current UTC time truncated to stored precision,
// so finished runs compare equal before and after being persisted.
func (c systemClock) Now() *time.Time {
	t := time.Now().UTC().Truncate(storedPrecision)
	return &t
}
