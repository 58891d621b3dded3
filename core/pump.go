package core

import (
	"context"
	"time"
)

// DefaultPumpPoll is the longest the pump sleeps between dispatches
const DefaultPumpPoll = time.Millisecond

// TimerPump plays the part of the timer interrupt: it sleeps until the next
// timer is due and dispatches it. Poll bounds each sleep so timers
// scheduled by signal handlers and polled edges are picked up promptly.
type TimerPump struct {
	Sched   *Scheduler
	Sleeper Sleeper
	Poll    time.Duration

	// BeforeDispatch runs ahead of every dispatch (hardware time refresh,
	// edge polling).
	BeforeDispatch func()
}

// RunOnce runs one pump iteration without sleeping and returns how many
// timer handlers fired
func (p *TimerPump) RunOnce() int {
	if p.BeforeDispatch != nil {
		p.BeforeDispatch()
	}
	return p.Sched.Dispatch()
}

// Run pumps until ctx is cancelled
func (p *TimerPump) Run(ctx context.Context) error {
	poll := p.Poll
	if poll <= 0 {
		poll = DefaultPumpPoll
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		p.RunOnce()
		if wait := p.Sched.untilNext(poll); wait > 0 {
			p.Sleeper.Sleep(wait)
		}
	}
}
