package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time. Status derivation and "current month" windows
// read time only through a Clock so boundaries can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// Real is the wall clock
type Real struct{}

// Now returns time.Now()
func (Real) Now() time.Time { return time.Now() }

// Fixed is a manually controlled clock
type Fixed struct {
	mu sync.RWMutex
	t  time.Time
}

// NewFixed creates a Fixed clock set to t
func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

// Now returns the configured instant
func (f *Fixed) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.t
}

// Set moves the clock to t
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.t = t
	f.mu.Unlock()
}

// Advance moves the clock forward by d
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}
