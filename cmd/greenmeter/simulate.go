package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jgoulah/greenmeter/internal/simulator"
	"github.com/spf13/cobra"
)

var (
	simulateURL      string
	simulateInterval time.Duration
	simulateCount    int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Emulate the power sensor",
	Long: `Posts a random power reading to the dashboard service at a fixed interval,
the way the ESP32 sensor would. Failed requests are logged and retried on the next tick.`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simulateURL, "url", "", "dashboard base URL (default from config, http://127.0.0.1:8081)")
	simulateCmd.Flags().DurationVar(&simulateInterval, "interval", 0, "delay between readings (default from config, 5s)")
	simulateCmd.Flags().IntVar(&simulateCount, "count", 0, "stop after this many readings (0 = run until interrupted)")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, logCloser, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logCloser.Close()

	url := cfg.GetSimulatorURL()
	if simulateURL != "" {
		url = simulateURL
	}
	interval := cfg.GetSimulatorInterval()
	if simulateInterval > 0 {
		interval = simulateInterval
	}

	sim, err := simulator.New(simulator.Options{
		BaseURL:     url,
		Timeout:     cfg.GetSimulatorTimeout(),
		PowerValues: cfg.GetSimulatorPowerValues(),
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("creating simulator: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("sensor simulator running", "url", url, "interval", interval.String())
	sent, err := sim.Run(ctx, interval, simulateCount)
	if err != nil {
		return err
	}
	fmt.Printf("Sent %d readings\n", sent)
	return nil
}
