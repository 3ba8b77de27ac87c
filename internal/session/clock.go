package session

import (
	"time"

	"example.com/drawguess/internal/protocol"
)

type Stopper interface {
	Stop() bool
}

// Clock is the time source for phase timers.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Stopper
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// SystemClock is backed by time.AfterFunc.
var SystemClock Clock = systemClock{}

// timers owns every pending callback, keyed by the phase that armed it.
// sweep stops all of them and bumps the generation so a callback that already
// fired but has not yet taken the lock sees it is stale.
type timers struct {
	clock   Clock
	gen     uint64
	byPhase map[protocol.Phase][]Stopper
}

func newTimers(c Clock) *timers {
	return &timers{clock: c, byPhase: make(map[protocol.Phase][]Stopper)}
}

func (t *timers) add(p protocol.Phase, s Stopper) {
	t.byPhase[p] = append(t.byPhase[p], s)
}

func (t *timers) sweep() {
	for p, list := range t.byPhase {
		for _, s := range list {
			s.Stop()
		}
		delete(t.byPhase, p)
	}
	t.gen++
}

func (t *timers) pending() int {
	n := 0
	for _, list := range t.byPhase {
		n += len(list)
	}
	return n
}
