package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"stopwatch/config"
	"stopwatch/core"
)

// clockworkClock adapts a clockwork clock to the firmware's microsecond timer
type clockworkClock struct {
	clk   clockwork.Clock
	start time.Time
}

func (c clockworkClock) Now() uint32 {
	return uint32(c.clk.Since(c.start) / time.Microsecond)
}

// Simulator runs the firmware core against simulated pins, a terminal
// display and a clockwork clock.
type Simulator struct {
	cfg   *config.Config
	clk   clockwork.Clock
	gpio  *SimGPIO
	bus   *TerminalBus
	sched *core.Scheduler
	sw    *core.Stopwatch
	mux   *core.Multiplexer
	pump  *core.TimerPump
}

// NewSimulator wires the stopwatch the way the target firmware does.
// The display is always the terminal bus; cfg.Display only supplies the dwell.
func NewSimulator(cfg *config.Config, clk clockwork.Clock, out io.Writer) (*Simulator, error) {
	s := &Simulator{
		cfg:  cfg,
		clk:  clk,
		gpio: NewSimGPIO(),
		bus:  NewTerminalBus(out),
	}

	s.sched = core.NewScheduler(clockworkClock{clk: clk, start: clk.Now()})
	s.sw = core.NewStopwatch(s.sched, cfg.TickPeriod())
	s.sw.SetStatusLines(cfg.StatusLines)

	if cfg.Heartbeat.Enabled {
		if err := s.sw.SetHeartbeat(s.gpio, core.GPIOPin(cfg.Heartbeat.Pin)); err != nil {
			return nil, err
		}
	}
	if err := s.sw.AttachControls(s.gpio, cfg.ControlPins()); err != nil {
		return nil, err
	}

	mux, err := core.NewMultiplexer(&s.sw.Counter, s.bus, cfg.Dwell(), clk)
	if err != nil {
		return nil, err
	}
	s.mux = mux

	s.pump = &core.TimerPump{
		Sched:          s.sched,
		Sleeper:        clk,
		Poll:           core.DefaultPumpPoll,
		BeforeDispatch: s.gpio.Poll,
	}
	return s, nil
}

// Run starts ticking and runs the pump and the multiplexer until ctx ends
func (s *Simulator) Run(ctx context.Context) error {
	s.sw.Start()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return s.pump.Run(ctx) })
	eg.Go(func() error { return s.mux.Run(ctx) })
	return eg.Wait()
}

// Command applies one console command. It returns false for quit.
func (s *Simulator) Command(cmd string) (bool, error) {
	switch cmd {
	case "r", "reset":
		s.gpio.Press(core.GPIOPin(s.cfg.Reset.Pin))
	case "p", "pause":
		s.gpio.Press(core.GPIOPin(s.cfg.Pause.Pin))
	case "s", "resume":
		s.gpio.Press(core.GPIOPin(s.cfg.Resume.Pin))
	case "d", "dump":
		core.DumpTimingRing()
	case "q", "quit":
		return false, nil
	case "":
	default:
		return true, fmt.Errorf("unknown command %q (r=reset p=pause s=resume d=dump q=quit)", cmd)
	}
	return true, nil
}
