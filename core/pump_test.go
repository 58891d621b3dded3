package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTimerPumpDrivesTicks(t *testing.T) {
	sw, clock, sched := newTestStopwatch()
	sw.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	polls := 0
	var slept time.Duration
	pump := &TimerPump{
		Sched: sched,
		Sleeper: SleeperFunc(func(d time.Duration) {
			slept += d
			clock.Advance(d)
			if slept >= 10*time.Second {
				cancel()
			}
		}),
		Poll:           50 * time.Millisecond,
		BeforeDispatch: func() { polls++ },
	}

	if err := pump.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if got := sw.Counter.Snapshot().Seconds(); got != 10 && got != 9 {
		t.Errorf("Expected about 10 seconds counted, got %d", got)
	}
	if polls < 200 {
		t.Errorf("Expected the pump to wake at least every 50ms, woke %d times", polls)
	}
}

func TestTimerPumpRunOnce(t *testing.T) {
	sw, clock, sched := newTestStopwatch()
	sw.Start()
	pump := &TimerPump{Sched: sched}

	clock.Advance(2 * time.Second)
	if fired := pump.RunOnce(); fired != 2 {
		t.Errorf("Expected 2 ticks, got %d", fired)
	}
}

func TestTimingRingRecordsSignals(t *testing.T) {
	sw, _, _ := newTestStopwatch()
	sw.Start()
	ClearTimingRing()

	sw.HandlePause()
	sw.HandleReset()
	sw.HandleResume()

	events := TimingEvents()
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	want := []uint8{EvtPause, EvtReset, EvtResume}
	for i, evt := range events {
		if evt.EventType != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, eventName(want[i]), eventName(evt.EventType))
		}
	}
	if events[0].Value1 != 1 || events[2].Value1 != 1 {
		t.Errorf("Expected pause and resume to report a state change")
	}

	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})
	DumpTimingRing()
	if len(lines) != 5 {
		t.Errorf("Expected header, 3 events and footer, got %d lines", len(lines))
	}
}
