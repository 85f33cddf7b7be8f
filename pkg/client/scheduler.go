package client

import "time"

// Task is a pending delayed call. Stop reports whether it prevented the
// call from running.
type Task interface {
	Stop() bool
}

// Scheduler runs f once after d. The token store uses it for the timers
// that clear copy marks and status messages.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Task
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}

// SystemScheduler schedules on real timers.
var SystemScheduler Scheduler = timerScheduler{}
