package preview

import "time"

// Clock schedules callbacks. The scheduler never sleeps; it only arms timers.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

// RealClock runs callbacks on time.AfterFunc goroutines.
type RealClock struct{}

func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
