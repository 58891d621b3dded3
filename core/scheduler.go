package core

import "time"

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer

	scheduled bool
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler keeps timers sorted by wake time and runs the due ones.
// Every handler runs inside the critical section, so handlers never
// interleave with each other or with the signal handlers.
type Scheduler struct {
	clock     Clock
	timerList *Timer
}

// NewScheduler creates a scheduler driven by clock
func NewScheduler(clock Clock) *Scheduler {
	return &Scheduler{clock: clock}
}

// Now returns the scheduler's current time in timer ticks
func (s *Scheduler) Now() uint32 {
	return s.clock.Now()
}

// ScheduleTimer adds a timer to the schedule
func (s *Scheduler) ScheduleTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	s.insertTimer(t)
}

// CancelTimer removes a timer from the schedule if it is pending
func (s *Scheduler) CancelTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	s.removeTimer(t)
}

// insertTimer inserts a timer in sorted order by WakeTime.
// Caller holds the critical section.
func (s *Scheduler) insertTimer(t *Timer) {
	if t.scheduled {
		s.removeTimer(t)
	}
	t.scheduled = true

	if s.timerList == nil || timerBefore(t.WakeTime, s.timerList.WakeTime) {
		t.Next = s.timerList
		s.timerList = t
		return
	}

	current := s.timerList
	for current.Next != nil && !timerBefore(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// removeTimer unlinks t. Caller holds the critical section.
func (s *Scheduler) removeTimer(t *Timer) {
	if !t.scheduled {
		return
	}
	t.scheduled = false

	if s.timerList == t {
		s.timerList = t.Next
		t.Next = nil
		return
	}
	for current := s.timerList; current != nil; current = current.Next {
		if current.Next == t {
			current.Next = t.Next
			break
		}
	}
	t.Next = nil
}

// Dispatch runs every timer whose WakeTime has been reached and
// returns how many handlers ran.
func (s *Scheduler) Dispatch() int {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	now := s.clock.Now()
	fired := 0
	for s.timerList != nil && !timerBefore(now, s.timerList.WakeTime) {
		timer := s.timerList
		s.timerList = timer.Next
		timer.Next = nil
		timer.scheduled = false

		fired++
		if timer.Handler(timer) == SF_RESCHEDULE {
			s.insertTimer(timer)
		}
	}
	return fired
}

// NextWake returns the wake time of the earliest pending timer
func (s *Scheduler) NextWake() (uint32, bool) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if s.timerList == nil {
		return 0, false
	}
	return s.timerList.WakeTime, true
}

// untilNext returns how long until the next timer is due, capped at limit.
func (s *Scheduler) untilNext(limit time.Duration) time.Duration {
	wake, ok := s.NextWake()
	if !ok {
		return limit
	}
	now := s.clock.Now()
	if !timerBefore(now, wake) {
		return 0
	}
	wait := time.Duration(TimerToUS(wake-now)) * time.Microsecond
	if wait > limit {
		return limit
	}
	return wait
}
