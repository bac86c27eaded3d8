// Package clock provides millisecond time sources for naming stored files.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock abstracts the time source.
type Clock interface {
	// Now returns the current timestamp in milliseconds since the Unix epoch.
	Now() int64
}

// SystemClock uses the local system time.
type SystemClock struct{}

func (s *SystemClock) Now() int64 {
	return time.Now().UnixMilli()
}

// FixedClock always returns the same timestamp. Safe for concurrent use.
type FixedClock struct {
	ms atomic.Int64
}

func NewFixedClock(ms int64) *FixedClock {
	c := &FixedClock{}
	c.ms.Store(ms)
	return c
}

func (f *FixedClock) Now() int64 {
	return f.ms.Load()
}

// Set moves the clock to ms.
func (f *FixedClock) Set(ms int64) {
	f.ms.Store(ms)
}
