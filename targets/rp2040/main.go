//go:build rp2040

package main

import (
	"context"
	"machine"
	"stopwatch/config"
	"stopwatch/core"
	"time"
)

var (
	// Panics recovered from the display loop
	loopPanics uint32
)

func main() {
	// USB CDC carries the debug channel and status lines
	_ = machine.Serial.Configure(machine.UARTConfig{})
	core.SetDebugWriter(func(s string) {
		_, _ = machine.Serial.Write([]byte(s + "\r\n"))
	})
	core.SetDebugEnabled(true)
	core.InitAsyncDebug()

	InitClock()

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		halt("config", err)
	}

	gpio := NewRPGPIODriver()
	sched := core.NewScheduler(core.SystemClock{})
	sw := core.NewStopwatch(sched, cfg.TickPeriod())
	sw.SetStatusLines(cfg.StatusLines)

	if cfg.Heartbeat.Enabled {
		if err := sw.SetHeartbeat(gpio, core.GPIOPin(cfg.Heartbeat.Pin)); err != nil {
			halt("heartbeat", err)
		}
	}

	var bus core.DisplayBus
	var err error
	switch cfg.Display.Bus {
	case config.BusMCP23017:
		bus, err = NewExpanderDisplayBus(cfg.Display.I2CBus, cfg.Display.I2CAddress, cfg.ActiveLow())
	default:
		bus, err = core.NewGPIODisplayBus(gpio, cfg.DecoderPins(), cfg.EnablePins(), cfg.ActiveLow())
	}
	if err != nil {
		halt("display", err)
	}

	mux, err := core.NewMultiplexer(&sw.Counter, bus, cfg.Dwell(), core.SleeperFunc(time.Sleep))
	if err != nil {
		halt("display", err)
	}

	if err := sw.AttachControls(gpio, cfg.ControlPins()); err != nil {
		halt("controls", err)
	}

	ctx := context.Background()
	pump := &core.TimerPump{
		Sched:   sched,
		Sleeper: core.SleeperFunc(time.Sleep),
		Poll:    core.DefaultPumpPoll,
	}

	sw.Start()
	go pump.Run(ctx)
	core.DebugPrintln("[MAIN] stopwatch running, display bus " + cfg.Display.Bus)

	// Main loop: the display multiplexer, preempted by pin interrupts
	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					loopPanics++
					core.DebugAsync("[MAIN] display loop panic, restarting")
					core.DumpTimingRing()
				}
			}()
			_ = mux.Run(ctx)
		}()
	}
}

// halt reports a setup failure on the console forever
func halt(stage string, err error) {
	for {
		core.DebugAsync("[MAIN] " + stage + " setup failed: " + err.Error())
		time.Sleep(time.Second)
	}
}
