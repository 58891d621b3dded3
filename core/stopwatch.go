package core

import "fmt"

// Signal identifies one of the three control inputs
type Signal uint8

const (
	SignalReset Signal = iota
	SignalPause
	SignalResume
)

// String returns the signal name
func (s Signal) String() string {
	switch s {
	case SignalReset:
		return "reset"
	case SignalPause:
		return "pause"
	case SignalResume:
		return "resume"
	default:
		return "unknown"
	}
}

// Stopwatch is the shared state block: the counter plus the clock driver
// that advances it. The tick handler and the signal handlers all enter the
// critical section before touching it; the display multiplexer only reads
// Counter and does so without locking.
type Stopwatch struct {
	Counter TimeCounter

	clock       *ClockDriver
	statusLines bool
	emitStatus  func(string)
}

// NewStopwatch creates a stopwatch ticking every period timer ticks on sched.
// It starts with all digits zero and does not tick until Start.
func NewStopwatch(sched *Scheduler, period uint32) *Stopwatch {
	sw := &Stopwatch{emitStatus: DebugAsync}
	sw.clock = NewClockDriver(sched, &sw.Counter, period)
	sw.clock.onTick = sw.afterTick
	return sw
}

// SetHeartbeat configures pin as an output toggled once per tick
func (sw *Stopwatch) SetHeartbeat(gpio GPIODriver, pin GPIOPin) error {
	if err := gpio.ConfigureOutput(pin); err != nil {
		return fmt.Errorf("heartbeat pin %d: %w", pin, err)
	}
	if err := gpio.SetPin(pin, false); err != nil {
		return fmt.Errorf("heartbeat pin %d: %w", pin, err)
	}
	sw.clock.heartbeat = gpio
	sw.clock.heartbeatPin = pin
	return nil
}

// SetStatusLines enables status lines on the async debug channel: one per
// tick, plus one whenever pause or resume changes the run state
func (sw *Stopwatch) SetStatusLines(enabled bool) {
	sw.statusLines = enabled
}

// Start begins ticking. The stopwatch is RUNNING from here on.
func (sw *Stopwatch) Start() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	sw.clock.resume()
}

// Running reports whether the clock driver is producing ticks
func (sw *Stopwatch) Running() bool {
	return sw.clock.Running()
}

// Ticks returns the number of ticks applied since boot
func (sw *Stopwatch) Ticks() uint32 {
	return sw.clock.Ticks()
}

// HandleReset zeroes the counter. Running state is unchanged.
func (sw *Stopwatch) HandleReset() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	before := sw.Counter.Snapshot().Seconds()
	sw.Counter.Reset()
	recordTiming(EvtReset, sw.clock.sched.Now(), before, 0)
}

// HandlePause stops the clock driver. The counter is unchanged.
func (sw *Stopwatch) HandlePause() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	stopped := sw.clock.pause()
	recordTiming(EvtPause, sw.clock.sched.Now(), boolValue(stopped), 0)
	if stopped {
		sw.reportStatus()
	}
}

// HandleResume restarts the clock driver with a fresh phase
func (sw *Stopwatch) HandleResume() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	started := sw.clock.resume()
	recordTiming(EvtResume, sw.clock.sched.Now(), boolValue(started), 0)
	if started {
		sw.reportStatus()
	}
}

// Handle dispatches a control signal to its handler
func (sw *Stopwatch) Handle(sig Signal) {
	switch sig {
	case SignalReset:
		sw.HandleReset()
	case SignalPause:
		sw.HandlePause()
	case SignalResume:
		sw.HandleResume()
	}
}

func (sw *Stopwatch) afterTick() {
	sw.reportStatus()
}

// reportStatus queues a status line. Caller holds the critical section.
func (sw *Stopwatch) reportStatus() {
	if sw.statusLines {
		sw.emitStatus(FormatStatus(sw.Counter.Snapshot(), sw.clock.Running(), sw.clock.Ticks()))
	}
}

// FormatStatus renders a status line: "SW t=HH:MM:SS run=1 n=42"
func FormatStatus(d Digits, running bool, ticks uint32) string {
	return "SW t=" + d.String() + " run=" + flag(running) + " n=" + utoa(ticks)
}

func boolValue(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
