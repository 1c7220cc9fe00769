package session

import "time"

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop cancels the timer, reporting whether it was stopped before firing.
	Stop() bool
}

// Scheduler abstracts the clock and timer creation so monitor behaviour can
// be driven in tests without wall-clock waits.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

// NewScheduler returns a Scheduler backed by the runtime clock and timers.
func NewScheduler() Scheduler {
	return realScheduler{}
}

func (realScheduler) Now() time.Time {
	return time.Now()
}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
