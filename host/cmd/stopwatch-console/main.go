package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stopwatch/host/monitor"
	"stopwatch/host/serial"
)

var (
	device  string
	baud    int
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "stopwatch-console",
	Short: "Print the stopwatch firmware's per-tick status from its USB serial console.",
	RunE:  runConsole,
}

func init() {
	rootCmd.Flags().StringVar(&device, "device", "/dev/ttyACM0", "Serial device path")
	rootCmd.Flags().IntVar(&baud, "baud", serial.DefaultBaud, "Baud rate (ignored for USB CDC)")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "Also print non-status console lines")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runConsole(cmd *cobra.Command, args []string) error {
	rawlog, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = rawlog.Sync() }()
	log := rawlog.Sugar().With("source", "stopwatch_console")

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	port, err := serial.Open(device, baud)
	if err != nil {
		return err
	}
	console, err := serial.Attach(ctx, port)
	if err != nil {
		log.Warnw("failed to flush serial input", "err", err)
	}
	defer console.Close()
	log.Infow("connected", "device", device)

	m := monitor.New(console)
	var last monitor.Status
	m.OnStatus = func(st monitor.Status) {
		if st.Running != last.Running {
			log.Infow("run state changed", "running", st.Running)
		}
		if st.Ticks > last.Ticks+1 && last.Ticks != 0 {
			log.Warnw("status lines dropped", "from", last.Ticks, "to", st.Ticks)
		}
		last = st
		fmt.Printf("\r%s  %s", st.Time, runLabel(st.Running))
	}
	if verbose {
		m.OnLine = func(line string) {
			fmt.Println()
			log.Infow("firmware", "line", line)
		}
	}

	err = m.Run(ctx)
	fmt.Println()
	if err == nil || errors.Is(err, context.Canceled) {
		log.Info("console closed")
		return nil
	}
	return err
}

func runLabel(running bool) string {
	if running {
		return "RUN  "
	}
	return "PAUSE"
}
