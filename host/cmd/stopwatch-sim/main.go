package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stopwatch/config"
	"stopwatch/core"
)

var (
	configPath  string
	statusLines bool
)

var rootCmd = &cobra.Command{
	Use:   "stopwatch-sim",
	Short: "Run the stopwatch firmware on the desktop with a terminal display.",
	Long: `Run the stopwatch firmware core on the desktop. The display is drawn in the ` +
		`terminal; type r (reset), p (pause), s (resume), d (dump timing ring) or q (quit) ` +
		`followed by Enter to press the simulated buttons.`,
	RunE: runSim,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "Board config JSON (defaults to the reference board)")
	rootCmd.Flags().BoolVar(&statusLines, "status", false, "Log the per-tick status line")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return config.Load(data)
}

func runSim(cmd *cobra.Command, args []string) error {
	rawlog, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = rawlog.Sync() }()
	log := rawlog.Sugar().With("source", "stopwatch_sim")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.StatusLines = statusLines

	core.SetDebugWriter(func(s string) { log.Infow("firmware", "line", s) })
	core.InitAsyncDebug()

	sim, err := NewSimulator(cfg, clockwork.NewRealClock(), os.Stdout)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		defer cancel()
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			more, err := sim.Command(strings.TrimSpace(scanner.Text()))
			if err != nil {
				log.Warn(err)
			}
			if !more {
				return
			}
		}
	}()

	log.Infow("starting", "dwell", cfg.Dwell(), "tick_period_ms", cfg.TickPeriodMS)
	err = sim.Run(ctx)
	fmt.Println()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
