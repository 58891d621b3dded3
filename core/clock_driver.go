package core

import "sync/atomic"

// ClockDriver produces one tick per period while running and applies it
// to the counter. Pausing removes its timer from the scheduler, so no
// tick can start while paused; resuming reschedules one full period out.
type ClockDriver struct {
	sched   *Scheduler
	counter *TimeCounter
	timer   Timer
	period  uint32

	running uint32 // atomic; 1 while RUNNING
	ticks   uint32 // atomic; ticks applied since boot

	heartbeat    GPIODriver
	heartbeatPin GPIOPin
	heartbeatOn  bool

	// onTick runs inside the tick handler after the counter advanced
	onTick func()
}

// NewClockDriver creates a paused clock driver ticking every period timer ticks
func NewClockDriver(sched *Scheduler, counter *TimeCounter, period uint32) *ClockDriver {
	d := &ClockDriver{
		sched:   sched,
		counter: counter,
		period:  period,
	}
	d.timer.Handler = d.tickEvent
	return d
}

// Period returns the tick period in timer ticks
func (d *ClockDriver) Period() uint32 {
	return d.period
}

// Running reports whether ticks are being produced
func (d *ClockDriver) Running() bool {
	return atomic.LoadUint32(&d.running) == 1
}

// Ticks returns the number of ticks applied since boot
func (d *ClockDriver) Ticks() uint32 {
	return atomic.LoadUint32(&d.ticks)
}

// pause stops ticking. Caller holds the critical section.
// Returns false if already paused.
func (d *ClockDriver) pause() bool {
	if atomic.LoadUint32(&d.running) == 0 {
		return false
	}
	atomic.StoreUint32(&d.running, 0)
	d.sched.removeTimer(&d.timer)
	return true
}

// resume restarts ticking, next tick one period from now.
// Caller holds the critical section. Returns false if already running.
func (d *ClockDriver) resume() bool {
	if atomic.LoadUint32(&d.running) == 1 {
		return false
	}
	atomic.StoreUint32(&d.running, 1)
	d.timer.WakeTime = d.sched.Now() + d.period
	d.sched.insertTimer(&d.timer)
	return true
}

// tickEvent is the timer handler for one tick
func (d *ClockDriver) tickEvent(t *Timer) uint8 {
	if atomic.LoadUint32(&d.running) == 0 {
		return SF_DONE
	}

	now := d.sched.Now()
	if late := now - t.WakeTime; late >= d.period {
		recordTiming(EvtTickLate, now, late, 0)
	}

	d.counter.Tick()
	ticks := atomic.AddUint32(&d.ticks, 1)
	recordTiming(EvtTick, now, ticks, d.counter.Snapshot().Seconds())

	if d.heartbeat != nil {
		d.heartbeatOn = !d.heartbeatOn
		_ = d.heartbeat.SetPin(d.heartbeatPin, d.heartbeatOn)
	}
	if d.onTick != nil {
		d.onTick()
	}

	// Next tick is due one period after this one was due
	t.WakeTime += d.period
	return SF_RESCHEDULE
}
